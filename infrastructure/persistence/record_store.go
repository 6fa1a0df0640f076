package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/helixml/patchlog/domain/record"
	"github.com/helixml/patchlog/domain/repository"
	"github.com/helixml/patchlog/internal/database"
)

// RecordStore implements record.Store using GORM.
type RecordStore struct {
	database.Repository[record.Record, RecordModel]
	db database.Database
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(db database.Database) RecordStore {
	return RecordStore{
		Repository: database.NewRepository[record.Record, RecordModel](db, RecordMapper{}, "record"),
		db:         db,
	}
}

// FindOne returns the first matching record or record.ErrNotFound.
func (s RecordStore) FindOne(ctx context.Context, options ...repository.Option) (record.Record, error) {
	r, err := s.Repository.FindOne(ctx, options...)
	if errors.Is(err, database.ErrNotFound) {
		return record.Record{}, record.ErrNotFound
	}
	return r, err
}

// Update writes every mutable column of an existing record and reads it
// back in the same transaction.
func (s RecordStore) Update(ctx context.Context, r record.Record) (record.Record, error) {
	return database.WithTransaction(ctx, s.db, func(tx database.Database) (record.Record, error) {
		store := NewRecordStore(tx)
		model := store.Mapper().ToModel(r)
		result := store.DB(ctx).Model(&RecordModel{}).
			Where("id = ? AND user_id = ?", model.ID, model.UserID).
			Select("*").
			Omit("id", "user_id", "created_at").
			Updates(&model)
		if result.Error != nil {
			return record.Record{}, fmt.Errorf("update record: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return record.Record{}, record.ErrNotFound
		}
		return store.FindOne(ctx, record.WithUser(model.UserID), repository.WithID(model.ID))
	})
}

type environmentTotals struct {
	Environment  string
	Records      int64
	LinesAdded   int64
	LinesRemoved int64
	FilesChanged int64
}

// Totals aggregates counts over matching records, grouped by environment.
func (s RecordStore) Totals(ctx context.Context, options ...repository.Option) (record.Totals, error) {
	var rows []environmentTotals
	db := database.ApplyConditions(s.DB(ctx).Model(&RecordModel{}), options...)
	err := db.Select(
		"environment",
		"COUNT(*) AS records",
		"COALESCE(SUM(lines_added), 0) AS lines_added",
		"COALESCE(SUM(lines_removed), 0) AS lines_removed",
		"COALESCE(SUM(files_changed), 0) AS files_changed",
	).Group("environment").Scan(&rows).Error
	if err != nil {
		return record.Totals{}, fmt.Errorf("total records: %w", err)
	}

	totals := record.Totals{ByEnvironment: make(map[record.Environment]int64, len(record.Environments()))}
	for _, env := range record.Environments() {
		totals.ByEnvironment[env] = 0
	}
	for _, row := range rows {
		totals.Records += row.Records
		totals.ByEnvironment[record.Environment(row.Environment)] += row.Records
		totals.LinesAdded += row.LinesAdded
		totals.LinesRemoved += row.LinesRemoved
		totals.FilesChanged += row.FilesChanged
	}
	return totals, nil
}
