package revision

import (
	"context"
	"testing"

	"codetour/internal/remap"
)

func TestHunkCache_QueriesOncePerPath(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("rev2").SetHunks("rev1", "rev2", "a.go", remap.Hunk{OldStart: 1, OldCount: 1, NewStart: 1, NewCount: 2})
	cache := NewHunkCache(m, "rev1", "rev2")

	for i := 0; i < 3; i++ {
		if got := cache.Hunks(ctx, "a.go"); len(got) != 1 {
			t.Fatalf("Hunks(a.go) = %v, want 1 hunk", got)
		}
		if got := cache.Hunks(ctx, "b.go"); len(got) != 0 {
			t.Fatalf("Hunks(b.go) = %v, want none", got)
		}
	}

	if m.DiffCalls("a.go") != 1 || m.DiffCalls("b.go") != 1 {
		t.Errorf("DiffCalls = %d/%d, want 1/1", m.DiffCalls("a.go"), m.DiffCalls("b.go"))
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()

	if _, ok := NewMemory("").CurrentRevision(ctx); ok {
		t.Error("empty current revision should be unavailable")
	}

	m := NewMemory("r2").AddPath("r1", "old.go").AddRename("r1", "r2", "old.go", "new.go")

	if rev, ok := m.CurrentRevision(ctx); !ok || rev != "r2" {
		t.Errorf("CurrentRevision() = %q, %v", rev, ok)
	}
	if !m.PathExistsAt(ctx, "r1", "old.go") || m.PathExistsAt(ctx, "r2", "old.go") {
		t.Error("PathExistsAt mismatch")
	}
	if p, ok := m.RenamedPath(ctx, "r1", "r2", "old.go"); !ok || p != "new.go" {
		t.Errorf("RenamedPath forward = %q, %v", p, ok)
	}
	if p, ok := m.RenamedPath(ctx, "r2", "r1", "new.go"); !ok || p != "old.go" {
		t.Errorf("RenamedPath reverse = %q, %v", p, ok)
	}
	if _, ok := m.RenamedPath(ctx, "r1", "r2", "other.go"); ok {
		t.Error("RenamedPath matched an unrelated path")
	}
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	var o Oracle = Unavailable{}

	if _, ok := o.CurrentRevision(ctx); ok {
		t.Error("CurrentRevision should be unavailable")
	}
	if o.PathExistsAt(ctx, "rev1", "a.go") {
		t.Error("PathExistsAt should be false")
	}
	if _, ok := o.RenamedPath(ctx, "rev1", "rev2", "a.go"); ok {
		t.Error("RenamedPath should find nothing")
	}
	if h := o.DiffHunks(ctx, "rev1", "rev2", "a.go"); len(h) != 0 {
		t.Errorf("DiffHunks = %v, want none", h)
	}
}
