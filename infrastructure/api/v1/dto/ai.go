package dto

import "github.com/helixml/patchlog/domain/diffstat"

// GenerateRequest is the body of POST /ai/generate.
type GenerateRequest struct {
	Diff        string `json:"diff"`
	FullContext string `json:"fullContext,omitempty"`
}

// GenerateResponse is a generated summary.
type GenerateResponse struct {
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
	Analysis string   `json:"analysis"`
}

// DiffStatsRequest is the body of POST /diff/stats.
type DiffStatsRequest struct {
	Diff string `json:"diff"`
}

// DiffStatsResponse holds statistics derived from a diff.
type DiffStatsResponse struct {
	diffstat.Stats
	FileNames []string `json:"fileNames"`
}
