package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/helixml/patchlog/domain/repository"
)

type note struct {
	ID        string
	Owner     string
	Title     string
	CreatedAt time.Time
}

type noteModel struct {
	ID        string `gorm:"primaryKey"`
	Owner     string `gorm:"index"`
	Title     string
	CreatedAt time.Time
}

func (noteModel) TableName() string { return "notes" }

type noteMapper struct{}

func (noteMapper) ToDomain(m noteModel) note {
	return note{ID: m.ID, Owner: m.Owner, Title: m.Title, CreatedAt: m.CreatedAt}
}

func (noteMapper) ToModel(n note) noteModel {
	return noteModel{ID: n.ID, Owner: n.Owner, Title: n.Title, CreatedAt: n.CreatedAt}
}

func newTestDB(t *testing.T) Database {
	t.Helper()
	ctx := context.Background()

	db, err := NewDatabase(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Session(ctx).AutoMigrate(&noteModel{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func seedNotes(t *testing.T, repo Repository[note, noteModel]) {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	notes := []note{
		{ID: "a", Owner: "alice", Title: "Feature/Login", CreatedAt: base},
		{ID: "b", Owner: "alice", Title: "fix_100%", CreatedAt: base.Add(time.Hour)},
		{ID: "c", Owner: "bob", Title: "feature/search", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, n := range notes {
		if _, err := repo.Create(context.Background(), n); err != nil {
			t.Fatalf("Create(%s): %v", n.ID, err)
		}
	}
}

func TestRepository_FindWithOptions(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[note, noteModel](newTestDB(t), noteMapper{}, "note")
	seedNotes(t, repo)

	got, err := repo.Find(ctx,
		repository.WithContainsFold("title", "FEATURE"),
		repository.WithOrderDesc("created_at"),
	)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "a" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestRepository_ContainsFoldEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[note, noteModel](newTestDB(t), noteMapper{}, "note")
	seedNotes(t, repo)

	got, err := repo.Find(ctx, repository.WithContainsFold("title", "_100%"))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("expected only note b, got %+v", got)
	}

	got, err = repo.Find(ctx, repository.WithContainsFold("title", "%"))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("literal %% should match one note, got %d", len(got))
	}
}

func TestRepository_RangeConditions(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[note, noteModel](newTestDB(t), noteMapper{}, "note")
	seedNotes(t, repo)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	got, err := repo.Find(ctx,
		repository.WithConditionGTE("created_at", base.Add(30*time.Minute)),
		repository.WithConditionLTE("created_at", base.Add(90*time.Minute)),
	)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("expected only note b, got %+v", got)
	}
}

func TestRepository_FindOneNotFound(t *testing.T) {
	repo := NewRepository[note, noteModel](newTestDB(t), noteMapper{}, "note")

	_, err := repo.FindOne(context.Background(), repository.WithID("missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_SaveAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[note, noteModel](newTestDB(t), noteMapper{}, "note")
	seedNotes(t, repo)

	n, err := repo.FindOne(ctx, repository.WithID("a"))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	n.Title = "renamed"
	if _, err := repo.Save(ctx, n); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := repo.FindOne(ctx, repository.WithID("a"))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if reloaded.Title != "renamed" {
		t.Errorf("expected renamed, got %q", reloaded.Title)
	}

	deleted, err := repo.DeleteBy(ctx, repository.WithID("a"), repository.WithCondition("owner", "alice"))
	if err != nil {
		t.Fatalf("DeleteBy: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted row, got %d", deleted)
	}

	exists, err := repo.Exists(ctx, repository.WithID("a"))
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("note a should be gone")
	}

	deleted, err = repo.DeleteBy(ctx, repository.WithID("c"), repository.WithCondition("owner", "alice"))
	if err != nil {
		t.Fatalf("DeleteBy: %v", err)
	}
	if deleted != 0 {
		t.Errorf("owner mismatch should delete nothing, got %d", deleted)
	}
}
