package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/projectflow-ai/projectflow/internal/state"
)

// FileStore keeps one JSON file per session. Group-scoped sessions live in a
// per-group subdirectory; un-scoped sessions share the data dir root. Writes
// go through a temp file and rename so readers never see a partial record.
type FileStore struct {
	dataDir string
	logger  *log.Logger
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, fmt.Errorf("file store: empty data dir")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create data dir: %w", err)
	}
	return &FileStore{
		dataDir: dataDir,
		logger:  log.New(log.Writer(), "[STORE] ", log.LstdFlags),
	}, nil
}

func (f *FileStore) path(groupID, sessionID string) (string, error) {
	if err := validateKey(sessionID); err != nil {
		return "", err
	}
	for _, id := range []string{groupID, sessionID} {
		if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
			return "", fmt.Errorf("invalid id %q", id)
		}
	}
	name := "state_" + sessionID + ".json"
	if groupID == "" {
		return filepath.Join(f.dataDir, name), nil
	}
	return filepath.Join(f.dataDir, "groups", groupID, name), nil
}

// Load reads the persisted record, flattens any legacy nested stage payloads
// and fills defaults. Missing or unreadable records come back as fresh
// defaults; corruption is logged, never surfaced.
func (f *FileStore) Load(ctx context.Context, groupID, sessionID string) (*state.Record, error) {
	path, err := f.path(groupID, sessionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return state.NewRecord(groupID, sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: read %s: %w", path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		f.logger.Printf("corrupted record %s, starting fresh: %v", path, err)
		return state.NewRecord(groupID, sessionID), nil
	}
	rec, err := state.Decode(state.Flatten(raw))
	if err != nil {
		f.logger.Printf("undecodable record %s, starting fresh: %v", path, err)
		return state.NewRecord(groupID, sessionID), nil
	}
	rec.GroupID = groupID
	rec.SessionID = sessionID
	return rec, nil
}

// Save writes the full record atomically. Saves are last-write-wins; when an
// already persisted record carries a higher turn counter the overwrite is
// logged so out-of-order background completions stay observable.
func (f *FileStore) Save(ctx context.Context, rec *state.Record) error {
	path, err := f.path(rec.GroupID, rec.SessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("file store: create namespace: %w", err)
	}

	if prev, err := os.ReadFile(path); err == nil {
		var peek struct {
			Turn int `json:"turn"`
		}
		if json.Unmarshal(prev, &peek) == nil && peek.Turn > rec.Turn {
			f.logger.Printf("session %s: turn %d overwrites newer turn %d (last-write-wins)",
				rec.SessionID, rec.Turn, peek.Turn)
		}
	}

	rec.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state_*.tmp")
	if err != nil {
		return fmt.Errorf("file store: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: rename: %w", err)
	}
	return nil
}
