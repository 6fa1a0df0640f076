package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/patchlog/domain/diffstat"
)

// DiffSource fetches the unified diff of a single commit.
type DiffSource interface {
	CommitDiff(ctx context.Context, owner, repo, sha string) (string, error)
}

// CommitDiff is a fetched commit diff with its derived statistics.
type CommitDiff struct {
	Diff      string         `json:"diff"`
	Stats     diffstat.Stats `json:"stats"`
	FileNames []string       `json:"fileNames"`
}

// Importer pulls diffs from source hosting so they can prefill a record.
type Importer struct {
	logger *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{logger: logger}
}

// CommitStats fetches the diff of owner/repo@sha from source and derives its
// statistics.
func (i *Importer) CommitStats(ctx context.Context, source DiffSource, owner, repo, sha string) (CommitDiff, error) {
	diff, err := source.CommitDiff(ctx, owner, repo, sha)
	if err != nil {
		return CommitDiff{}, fmt.Errorf("fetch diff %s/%s@%s: %w", owner, repo, sha, err)
	}

	result := CommitDiff{
		Diff:      diff,
		Stats:     diffstat.Parse(diff),
		FileNames: diffstat.FileNames(diff),
	}

	i.logger.DebugContext(ctx, "commit diff imported",
		slog.String("repo", owner+"/"+repo),
		slog.String("sha", sha),
		slog.Int("files_changed", result.Stats.FilesChanged),
	)
	return result, nil
}
