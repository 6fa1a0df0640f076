package record

import (
	"time"

	"github.com/helixml/patchlog/domain/repository"
)

// Filter narrows a record listing. The zero value matches everything.
type Filter struct {
	environment string
	branch      string
	author      string
	startDate   time.Time
	endDate     time.Time
	limit       int
}

// NewFilter creates an empty Filter.
func NewFilter() Filter {
	return Filter{}
}

// WithEnvironment matches the environment exactly.
func (f Filter) WithEnvironment(env string) Filter {
	f.environment = env
	return f
}

// WithBranch matches branches containing s, ignoring case.
func (f Filter) WithBranch(s string) Filter {
	f.branch = s
	return f
}

// WithAuthor matches authors containing s, ignoring case.
func (f Filter) WithAuthor(s string) Filter {
	f.author = s
	return f
}

// WithStartDate keeps records created at or after t.
func (f Filter) WithStartDate(t time.Time) Filter {
	f.startDate = t
	return f
}

// WithEndDate keeps records created at or before t.
func (f Filter) WithEndDate(t time.Time) Filter {
	f.endDate = t
	return f
}

// WithLimit caps the number of results. Values <= 0 use the store default.
func (f Filter) WithLimit(n int) Filter {
	f.limit = n
	return f
}

// Environment returns the exact environment filter.
func (f Filter) Environment() string { return f.environment }

// Branch returns the branch substring filter.
func (f Filter) Branch() string { return f.branch }

// Author returns the author substring filter.
func (f Filter) Author() string { return f.author }

// StartDate returns the lower creation bound.
func (f Filter) StartDate() time.Time { return f.startDate }

// EndDate returns the upper creation bound.
func (f Filter) EndDate() time.Time { return f.endDate }

// Limit returns the result cap.
func (f Filter) Limit() int { return f.limit }

// Options converts the filter into query options, excluding ordering and limit.
func (f Filter) Options() []repository.Option {
	var opts []repository.Option
	if f.environment != "" {
		opts = append(opts, WithEnvironment(Environment(f.environment)))
	}
	if f.branch != "" {
		opts = append(opts, repository.WithContainsFold("branch", f.branch))
	}
	if f.author != "" {
		opts = append(opts, repository.WithContainsFold("author", f.author))
	}
	if !f.startDate.IsZero() {
		opts = append(opts, WithCreatedFrom(f.startDate))
	}
	if !f.endDate.IsZero() {
		opts = append(opts, WithCreatedUntil(f.endDate))
	}
	return opts
}
