package groups

import (
	"context"
	"errors"
	"testing"

	"github.com/projectflow-ai/projectflow/internal/state"
	"github.com/projectflow-ai/projectflow/internal/store"
	"github.com/projectflow-ai/projectflow/models"
)

func newTestManager(t *testing.T) (*Manager, store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	m, err := NewManager(dir, st)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, st, dir
}

func TestCreateGetDelete(t *testing.T) {
	m, _, _ := newTestManager(t)

	g, err := m.Create("Team Compost", []string{"ada", "lin"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.GroupID == "" {
		t.Fatalf("expected generated group id")
	}

	got, err := m.Get(g.GroupID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.GroupName != "Team Compost" || len(got.Students) != 2 {
		t.Fatalf("unexpected group: %+v", got)
	}

	if err := m.Delete(g.GroupID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(g.GroupID); !errors.Is(err, models.ErrGroupNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCreateDuplicateIDRejected(t *testing.T) {
	m, _, _ := newTestManager(t)

	if _, err := m.CreateWithID("g1", "A", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.CreateWithID("g1", "B", nil); !errors.Is(err, models.ErrGroupExists) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestDirectorySurvivesRestart(t *testing.T) {
	m, st, dir := newTestManager(t)
	if _, err := m.CreateWithID("g1", "Team Compost", nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	reloaded, err := NewManager(dir, st)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.Get("g1")
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if got.GroupName != "Team Compost" {
		t.Fatalf("unexpected reloaded group: %+v", got)
	}
}

func TestEnsureSessionIsStableUntilRotated(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.CreateWithID("g1", "Team", nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := m.EnsureSession("g1")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	second, err := m.EnsureSession("g1")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if first == "" || first != second {
		t.Fatalf("ensure must be stable, got %q then %q", first, second)
	}

	rotated, err := m.RotateSession("g1")
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated == first {
		t.Fatalf("rotate must mint a new session")
	}
	if got, _ := m.EnsureSession("g1"); got != rotated {
		t.Fatalf("ensure after rotate must return new session")
	}
}

func TestProgressReflectsSessionRecord(t *testing.T) {
	m, st, _ := newTestManager(t)
	ctx := context.Background()
	if _, err := m.CreateWithID("g1", "Team", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	sid, err := m.EnsureSession("g1")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	rec := state.NewRecord("g1", sid)
	rec.StageNumber = 2
	rec.ProjectContent = "cafeteria food waste"
	rec.AppendUser("hi")
	if err := st.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	p, err := m.Progress(ctx, "g1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if p.StageNumber != 2 || p.ProjectContent != "cafeteria food waste" || p.MessageCount != 1 {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestProgressWithoutSessionIsDefault(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.CreateWithID("g1", "Team", nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	p, err := m.Progress(context.Background(), "g1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if p.StageNumber != 1 || p.MessageCount != 0 {
		t.Fatalf("expected default progress, got %+v", p)
	}
}
