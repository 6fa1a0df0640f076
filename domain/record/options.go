package record

import (
	"time"

	"github.com/helixml/patchlog/domain/repository"
)

// WithUser filters by the owning user.
func WithUser(user string) repository.Option {
	return repository.WithCondition("user_id", user)
}

// WithEnvironment filters by the "environment" column.
func WithEnvironment(env Environment) repository.Option {
	return repository.WithCondition("environment", string(env))
}

// WithCreatedFrom keeps rows created at or after t.
func WithCreatedFrom(t time.Time) repository.Option {
	return repository.WithConditionGTE("created_at", t.UTC())
}

// WithCreatedUntil keeps rows created at or before t.
func WithCreatedUntil(t time.Time) repository.Option {
	return repository.WithConditionLTE("created_at", t.UTC())
}

// WithNewestFirst orders by creation time, newest first.
func WithNewestFirst() repository.Option {
	return repository.WithOrderDesc("created_at")
}
