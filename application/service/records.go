package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/helixml/patchlog/domain/record"
	"github.com/helixml/patchlog/domain/repository"
)

// Records manages code-change records. Every operation is scoped to the
// calling user; another user's record behaves as if it does not exist.
type Records struct {
	store        record.Store
	defaultLimit int
	now          func() time.Time
	newID        func() string
	logger       *slog.Logger
}

// NewRecords creates a Records service. defaultLimit caps listings that do
// not set their own limit.
func NewRecords(store record.Store, defaultLimit int, logger *slog.Logger) *Records {
	if logger == nil {
		logger = slog.Default()
	}
	return &Records{
		store:        store,
		defaultLimit: defaultLimit,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
		logger:       logger,
	}
}

// List returns the user's records matching filter, newest first.
func (s *Records) List(ctx context.Context, user string, filter record.Filter) ([]record.Record, error) {
	limit := filter.Limit()
	if limit <= 0 {
		limit = s.defaultLimit
	}

	opts := append([]repository.Option{record.WithUser(user)}, filter.Options()...)
	opts = append(opts, record.WithNewestFirst())
	if limit > 0 {
		opts = append(opts, repository.WithLimit(limit))
	}

	records, err := s.store.Find(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Get returns one of the user's records.
func (s *Records) Get(ctx context.Context, user, id string) (record.Record, error) {
	r, err := s.store.FindOne(ctx, record.WithUser(user), repository.WithID(id))
	if err != nil {
		return record.Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return r, nil
}

// Create validates draft and stores a new record with derived statistics.
func (s *Records) Create(ctx context.Context, user string, draft record.Draft) (record.Record, error) {
	r, err := record.NewRecord(s.newID(), user, draft, s.now())
	if err != nil {
		return record.Record{}, err
	}

	saved, err := s.store.Create(ctx, r)
	if err != nil {
		return record.Record{}, fmt.Errorf("create record: %w", err)
	}

	s.logger.InfoContext(ctx, "record created",
		slog.String("record_id", saved.ID()),
		slog.String("environment", saved.Environment().String()),
		slog.Int("lines_added", saved.Stats().LinesAdded),
		slog.Int("lines_removed", saved.Stats().LinesRemoved),
	)
	return saved, nil
}

// Update applies patch to one of the user's records.
func (s *Records) Update(ctx context.Context, user, id string, patch record.Patch) (record.Record, error) {
	existing, err := s.Get(ctx, user, id)
	if err != nil {
		return record.Record{}, err
	}

	next, err := existing.Apply(patch, s.now())
	if err != nil {
		return record.Record{}, err
	}

	saved, err := s.store.Update(ctx, next)
	if err != nil {
		return record.Record{}, fmt.Errorf("update record %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "record updated", slog.String("record_id", id))
	return saved, nil
}

// Delete removes one of the user's records.
func (s *Records) Delete(ctx context.Context, user, id string) error {
	n, err := s.store.DeleteBy(ctx, record.WithUser(user), repository.WithID(id))
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete record %s: %w", id, record.ErrNotFound)
	}

	s.logger.InfoContext(ctx, "record deleted", slog.String("record_id", id))
	return nil
}

// Summary aggregates the user's records for a dashboard.
func (s *Records) Summary(ctx context.Context, user string) (record.Totals, error) {
	totals, err := s.store.Totals(ctx, record.WithUser(user))
	if err != nil {
		return record.Totals{}, fmt.Errorf("summarise records: %w", err)
	}
	return totals, nil
}
