package record

import (
	"errors"
	"testing"
	"time"

	"github.com/helixml/patchlog/domain/diffstat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = "diff --git a/t b/t\nindex 1..2\n--- a/t\n+++ b/t\n@@ -1,2 +1,2 @@\n-old\n+new\n+added"

func validDraft() Draft {
	return Draft{
		Environment: "UAT",
		Branch:      "feature/login",
		TaskID:      "PL-42",
		Title:       "Add login",
		Diff:        sampleDiff,
		Tags:        []string{"auth"},
		Author:      "Sam",
	}
}

func TestNewRecord_ComputesStats(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	r, err := NewRecord("id-1", "alice", validDraft(), now)
	require.NoError(t, err)

	assert.Equal(t, "id-1", r.ID())
	assert.Equal(t, "alice", r.User())
	assert.Equal(t, EnvironmentUAT, r.Environment())
	assert.Equal(t, diffstat.Stats{LinesAdded: 2, LinesRemoved: 1, FilesChanged: 1}, r.Stats())
	assert.Equal(t, []string{"t"}, r.FileNames())
	assert.Equal(t, now, r.CreatedAt())
	assert.Equal(t, now, r.UpdatedAt())
}

func TestNewRecord_MissingFields(t *testing.T) {
	mutations := map[string]func(*Draft){
		"environment": func(d *Draft) { d.Environment = "" },
		"branch":      func(d *Draft) { d.Branch = "" },
		"taskId":      func(d *Draft) { d.TaskID = "" },
		"title":       func(d *Draft) { d.Title = "  " },
		"diff":        func(d *Draft) { d.Diff = "" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			d := validDraft()
			mutate(&d)

			_, err := NewRecord("id", "alice", d, time.Now())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Equal(t, MsgMissingFields, err.Error())
		})
	}
}

func TestNewRecord_InvalidEnvironment(t *testing.T) {
	d := validDraft()
	d.Environment = "PROD"

	_, err := NewRecord("id", "alice", d, time.Now())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecord_TagsAreCopied(t *testing.T) {
	d := validDraft()
	r, err := NewRecord("id", "alice", d, time.Now())
	require.NoError(t, err)

	d.Tags[0] = "mutated"
	tags := r.Tags()
	tags[0] = "mutated"

	assert.Equal(t, []string{"auth"}, r.Tags())
}

func TestRecord_Apply(t *testing.T) {
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r, err := NewRecord("id", "alice", validDraft(), created)
	require.NoError(t, err)

	later := created.Add(time.Hour)
	title := "Add login page"
	tags := []string{"auth", "ui"}

	updated, err := r.Apply(Patch{Title: &title, Tags: &tags}, later)
	require.NoError(t, err)

	assert.Equal(t, "Add login page", updated.Title())
	assert.Equal(t, []string{"auth", "ui"}, updated.Tags())
	assert.Equal(t, r.Stats(), updated.Stats())
	assert.Equal(t, created, updated.CreatedAt())
	assert.Equal(t, later, updated.UpdatedAt())
	assert.Equal(t, "Add login", r.Title(), "original is unchanged")
}

func TestRecord_Apply_RecomputesStatsOnNewDiff(t *testing.T) {
	r, err := NewRecord("id", "alice", validDraft(), time.Now())
	require.NoError(t, err)

	diff := "diff --git a/a b/a\n+1\ndiff --git a/b b/b\n-2\n-3"
	updated, err := r.Apply(Patch{Diff: &diff}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, diffstat.Stats{LinesAdded: 1, LinesRemoved: 2, FilesChanged: 2}, updated.Stats())
	assert.Equal(t, []string{"a", "b"}, updated.FileNames())
}

func TestRecord_Apply_SameDiffKeepsStats(t *testing.T) {
	r := Reconstruct("id", "alice", EnvironmentDev, "b", "t", "title", "", sampleDiff, "", nil, "",
		diffstat.Stats{LinesAdded: 99}, []string{"kept"}, time.Now(), time.Now())

	diff := sampleDiff
	updated, err := r.Apply(Patch{Diff: &diff}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 99, updated.Stats().LinesAdded)
	assert.Equal(t, []string{"kept"}, updated.FileNames())
}

func TestRecord_Apply_RejectsClearingRequired(t *testing.T) {
	r, err := NewRecord("id", "alice", validDraft(), time.Now())
	require.NoError(t, err)

	empty := ""
	_, err = r.Apply(Patch{Branch: &empty}, time.Now())
	assert.ErrorIs(t, err, ErrValidation)

	bad := "STAGING"
	_, err = r.Apply(Patch{Environment: &bad}, time.Now())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseEnvironment(t *testing.T) {
	for _, e := range Environments() {
		got, err := ParseEnvironment(string(e))
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}

	_, err := ParseEnvironment("dev")
	assert.ErrorIs(t, err, ErrValidation)
}
