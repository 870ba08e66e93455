package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/projectflow-ai/projectflow/internal/state"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return fs
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()

	rec := state.NewRecord("g1", "s1")
	rec.Turn = 3
	rec.StageNumber = 2
	rec.ProjectContent = "cafeteria food waste"
	rec.AppendUser("hello")

	if err := fs.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := fs.Load(ctx, "g1", "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Turn != 3 || got.StageNumber != 2 || got.ProjectContent != "cafeteria food waste" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("messages lost: %+v", got.Messages)
	}
}

func TestFileStoreUnseenSessionIsDefault(t *testing.T) {
	fs := newTestStore(t)

	got, err := fs.Load(context.Background(), "", "never-saved")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.StageNumber != 1 || got.Turn != 0 || len(got.Messages) != 0 {
		t.Fatalf("expected fresh default record, got %+v", got)
	}
	if got.SessionID != "never-saved" {
		t.Fatalf("default record must carry the requested key, got %q", got.SessionID)
	}
}

func TestFileStoreGroupNamespacing(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()

	a := state.NewRecord("group-a", "shared")
	a.ProjectContent = "project A"
	b := state.NewRecord("group-b", "shared")
	b.ProjectContent = "project B"

	if err := fs.Save(ctx, a); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := fs.Save(ctx, b); err != nil {
		t.Fatalf("save b: %v", err)
	}

	gotA, _ := fs.Load(ctx, "group-a", "shared")
	gotB, _ := fs.Load(ctx, "group-b", "shared")
	if gotA.ProjectContent != "project A" || gotB.ProjectContent != "project B" {
		t.Fatalf("group records collided: %q vs %q", gotA.ProjectContent, gotB.ProjectContent)
	}

	// Un-scoped session with the same id is a third, separate record.
	gotFlat, _ := fs.Load(ctx, "", "shared")
	if gotFlat.ProjectContent != "" {
		t.Fatalf("flat namespace leaked a group record: %q", gotFlat.ProjectContent)
	}
}

func TestFileStoreCorruptedFileYieldsDefault(t *testing.T) {
	fs := newTestStore(t)
	path := filepath.Join(fs.dataDir, "state_bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	got, err := fs.Load(context.Background(), "", "bad")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.StageNumber != 1 || got.ProjectContent != "" {
		t.Fatalf("corrupt record must fall back to default, got %+v", got)
	}
}

func TestFileStoreLegacyNestedRecordFlattenedOnLoad(t *testing.T) {
	fs := newTestStore(t)
	legacy := `{
		"session_id": "legacy",
		"current_progress": "old table",
		"summary_agent": {"historical_log": "entered stage 2", "stage_number": 2},
		"score_agent": {"current_progress": "corrected table"}
	}`
	path := filepath.Join(fs.dataDir, "state_legacy.json")
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	got, err := fs.Load(context.Background(), "", "legacy")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.CurrentProgress != "corrected table" {
		t.Fatalf("score output must win on flatten, got %q", got.CurrentProgress)
	}
	if got.HistoricalLog != "entered stage 2" || got.StageNumber != 2 {
		t.Fatalf("summarize fields not lifted: %+v", got)
	}
}

func TestFileStoreRejectsPathTraversal(t *testing.T) {
	fs := newTestStore(t)
	if _, err := fs.Load(context.Background(), "", "../escape"); err == nil {
		t.Fatalf("expected error for traversal session id")
	}
	rec := state.NewRecord("..", "s1")
	if err := fs.Save(context.Background(), rec); err == nil {
		t.Fatalf("expected error for traversal group id")
	}
}
