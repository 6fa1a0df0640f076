package record

import (
	"context"

	"github.com/helixml/patchlog/domain/repository"
)

// Totals aggregates records for a dashboard.
type Totals struct {
	Records       int64
	ByEnvironment map[Environment]int64
	LinesAdded    int64
	LinesRemoved  int64
	FilesChanged  int64
}

// Store defines operations for persisting and retrieving records.
type Store interface {
	// Find returns records matching options.
	Find(ctx context.Context, options ...repository.Option) ([]Record, error)

	// FindOne returns the first matching record or ErrNotFound.
	FindOne(ctx context.Context, options ...repository.Option) (Record, error)

	// Create inserts a new record.
	Create(ctx context.Context, r Record) (Record, error)

	// Update replaces an existing record.
	Update(ctx context.Context, r Record) (Record, error)

	// DeleteBy removes matching records and reports how many were removed.
	DeleteBy(ctx context.Context, options ...repository.Option) (int64, error)

	// Totals aggregates counts over matching records.
	Totals(ctx context.Context, options ...repository.Option) (Totals, error)
}
