package record

import (
	"testing"
	"time"

	"github.com/helixml/patchlog/domain/repository"
)

func TestNewFilter_Empty(t *testing.T) {
	f := NewFilter()

	if len(f.Options()) != 0 {
		t.Errorf("Options() length = %d, want 0", len(f.Options()))
	}
	if f.Limit() != 0 {
		t.Errorf("Limit() = %d, want 0", f.Limit())
	}
}

func TestFilter_Options(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	f := NewFilter().
		WithEnvironment("LIVE").
		WithBranch("feat").
		WithAuthor("sam").
		WithStartDate(start).
		WithEndDate(end).
		WithLimit(10)

	q := repository.Build(f.Options()...)
	conds := q.Conditions()
	if len(conds) != 5 {
		t.Fatalf("Conditions() length = %d, want 5", len(conds))
	}

	want := []struct {
		field string
		op    repository.Operator
	}{
		{"environment", repository.OpEqual},
		{"branch", repository.OpContainsFold},
		{"author", repository.OpContainsFold},
		{"created_at", repository.OpGreaterOrEqual},
		{"created_at", repository.OpLessOrEqual},
	}
	for i, w := range want {
		if conds[i].Field() != w.field || conds[i].Operator() != w.op {
			t.Errorf("condition %d = %s, want %s %s", i, conds[i], w.field, w.op)
		}
	}
	if f.Limit() != 10 {
		t.Errorf("Limit() = %d, want 10", f.Limit())
	}
	if q.LimitValue() != 0 {
		t.Error("Options() should not carry the limit")
	}
}
