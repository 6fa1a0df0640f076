package persistence

import (
	"github.com/helixml/patchlog/domain/diffstat"
	"github.com/helixml/patchlog/domain/record"
)

// RecordMapper maps between domain Record and persistence RecordModel.
type RecordMapper struct{}

// ToDomain converts a RecordModel to a domain Record.
func (m RecordMapper) ToDomain(e RecordModel) record.Record {
	return record.Reconstruct(
		e.ID,
		e.UserID,
		record.Environment(e.Environment),
		e.Branch,
		e.TaskID,
		e.Title,
		e.Description,
		e.Diff,
		e.Summary,
		nonNil(e.Tags),
		e.Author,
		diffstat.Stats{
			LinesAdded:   e.LinesAdded,
			LinesRemoved: e.LinesRemoved,
			FilesChanged: e.FilesChanged,
		},
		nonNil(e.FileNames),
		e.CreatedAt.UTC(),
		e.UpdatedAt.UTC(),
	)
}

// ToModel converts a domain Record to a RecordModel.
func (m RecordMapper) ToModel(r record.Record) RecordModel {
	stats := r.Stats()
	return RecordModel{
		ID:           r.ID(),
		UserID:       r.User(),
		Environment:  r.Environment().String(),
		Branch:       r.Branch(),
		TaskID:       r.TaskID(),
		Title:        r.Title(),
		Description:  r.Description(),
		Diff:         r.Diff(),
		Summary:      r.Summary(),
		Tags:         nonNil(r.Tags()),
		Author:       r.Author(),
		LinesAdded:   stats.LinesAdded,
		LinesRemoved: stats.LinesRemoved,
		FilesChanged: stats.FilesChanged,
		FileNames:    nonNil(r.FileNames()),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
