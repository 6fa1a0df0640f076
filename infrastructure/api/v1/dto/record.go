package dto

import (
	"time"

	"github.com/helixml/patchlog/domain/record"
)

// RecordResponse represents a record in API responses.
type RecordResponse struct {
	ID           string    `json:"id"`
	Environment  string    `json:"environment"`
	Branch       string    `json:"branch"`
	TaskID       string    `json:"taskId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Diff         string    `json:"diff"`
	Summary      string    `json:"summary"`
	Tags         []string  `json:"tags"`
	Author       string    `json:"author"`
	FilesChanged int       `json:"filesChanged"`
	LinesAdded   int       `json:"linesAdded"`
	LinesRemoved int       `json:"linesRemoved"`
	FileNames    []string  `json:"fileNames"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewRecordResponse converts a domain record.
func NewRecordResponse(r record.Record) RecordResponse {
	stats := r.Stats()
	return RecordResponse{
		ID:           r.ID(),
		Environment:  r.Environment().String(),
		Branch:       r.Branch(),
		TaskID:       r.TaskID(),
		Title:        r.Title(),
		Description:  r.Description(),
		Diff:         r.Diff(),
		Summary:      r.Summary(),
		Tags:         r.Tags(),
		Author:       r.Author(),
		FilesChanged: stats.FilesChanged,
		LinesAdded:   stats.LinesAdded,
		LinesRemoved: stats.LinesRemoved,
		FileNames:    r.FileNames(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

// NewRecordListResponse converts a slice of domain records.
func NewRecordListResponse(records []record.Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, NewRecordResponse(r))
	}
	return out
}

// CreateRecordRequest is the body of POST /records.
type CreateRecordRequest struct {
	Environment string   `json:"environment"`
	Branch      string   `json:"branch"`
	TaskID      string   `json:"taskId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Diff        string   `json:"diff"`
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author"`
}

// Draft converts the request into a domain draft.
func (r CreateRecordRequest) Draft() record.Draft {
	return record.Draft{
		Environment: r.Environment,
		Branch:      r.Branch,
		TaskID:      r.TaskID,
		Title:       r.Title,
		Description: r.Description,
		Diff:        r.Diff,
		Summary:     r.Summary,
		Tags:        r.Tags,
		Author:      r.Author,
	}
}

// UpdateRecordRequest is the body of PUT /records/{id}. Absent fields are
// left unchanged.
type UpdateRecordRequest struct {
	Environment *string   `json:"environment,omitempty"`
	Branch      *string   `json:"branch,omitempty"`
	TaskID      *string   `json:"taskId,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Diff        *string   `json:"diff,omitempty"`
	Summary     *string   `json:"summary,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Author      *string   `json:"author,omitempty"`
}

// Patch converts the request into a domain patch.
func (r UpdateRecordRequest) Patch() record.Patch {
	return record.Patch{
		Environment: r.Environment,
		Branch:      r.Branch,
		TaskID:      r.TaskID,
		Title:       r.Title,
		Description: r.Description,
		Diff:        r.Diff,
		Summary:     r.Summary,
		Tags:        r.Tags,
		Author:      r.Author,
	}
}

// SummaryResponse aggregates the caller's records.
type SummaryResponse struct {
	Records       int64            `json:"records"`
	ByEnvironment map[string]int64 `json:"byEnvironment"`
	LinesAdded    int64            `json:"linesAdded"`
	LinesRemoved  int64            `json:"linesRemoved"`
	FilesChanged  int64            `json:"filesChanged"`
}

// NewSummaryResponse converts domain totals.
func NewSummaryResponse(t record.Totals) SummaryResponse {
	byEnv := make(map[string]int64, len(t.ByEnvironment))
	for env, n := range t.ByEnvironment {
		byEnv[env.String()] = n
	}
	return SummaryResponse{
		Records:       t.Records,
		ByEnvironment: byEnv,
		LinesAdded:    t.LinesAdded,
		LinesRemoved:  t.LinesRemoved,
		FilesChanged:  t.FilesChanged,
	}
}
