package groups

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/projectflow-ai/projectflow/internal/state"
	"github.com/projectflow-ai/projectflow/internal/store"
	"github.com/projectflow-ai/projectflow/models"
)

// Manager owns the group directory. Groups live in one JSON file under the
// data dir, loaded at startup and rewritten atomically on every change.
type Manager struct {
	path  string
	store store.Store

	mu     sync.RWMutex
	groups map[string]*models.Group
}

func NewManager(dataDir string, st store.Store) (*Manager, error) {
	m := &Manager{
		path:   filepath.Join(dataDir, "groups.json"),
		store:  st,
		groups: map[string]*models.Group{},
	}
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("groups: read directory: %w", err)
	}
	var list []*models.Group
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("groups: parse directory: %w", err)
	}
	for _, g := range list {
		m.groups[g.GroupID] = g
	}
	return m, nil
}

// Create registers a new group. An empty id gets a generated one.
func (m *Manager) Create(name string, students []string) (*models.Group, error) {
	return m.CreateWithID(uuid.NewString(), name, students)
}

func (m *Manager) CreateWithID(id, name string, students []string) (*models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[id]; ok {
		return nil, models.ErrGroupExists
	}
	g := &models.Group{
		GroupID:   id,
		GroupName: name,
		Students:  students,
		CreatedAt: time.Now().UTC(),
	}
	m.groups[id] = g
	if err := m.persistLocked(); err != nil {
		delete(m.groups, id)
		return nil, err
	}
	return g, nil
}

func (m *Manager) Get(id string) (*models.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, models.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

// List returns all groups ordered by creation time.
func (m *Manager) List() []*models.Group {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Group, 0, len(m.groups))
	for _, g := range m.groups {
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Update renames a group or replaces its roster. Empty arguments leave the
// existing value in place.
func (m *Manager) Update(id, name string, students []string) (*models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, models.ErrGroupNotFound
	}
	if name != "" {
		g.GroupName = name
	}
	if students != nil {
		g.Students = students
	}
	if err := m.persistLocked(); err != nil {
		return nil, err
	}
	cp := *g
	return &cp, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return models.ErrGroupNotFound
	}
	delete(m.groups, id)
	if err := m.persistLocked(); err != nil {
		m.groups[id] = g
		return err
	}
	return nil
}

// EnsureSession returns the group's active session id, minting one on first
// use so a group can start chatting without a separate setup call.
func (m *Manager) EnsureSession(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return "", models.ErrGroupNotFound
	}
	if g.SessionID != "" {
		return g.SessionID, nil
	}
	g.SessionID = uuid.NewString()
	if err := m.persistLocked(); err != nil {
		g.SessionID = ""
		return "", err
	}
	return g.SessionID, nil
}

// RotateSession abandons the current conversation and starts a fresh one.
// The old record stays on disk for audit; the group simply points elsewhere.
func (m *Manager) RotateSession(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return "", models.ErrGroupNotFound
	}
	old := g.SessionID
	g.SessionID = uuid.NewString()
	if err := m.persistLocked(); err != nil {
		g.SessionID = old
		return "", err
	}
	return g.SessionID, nil
}

// Progress assembles the teacher-facing view from the group's session record.
func (m *Manager) Progress(ctx context.Context, id string) (*models.GroupProgress, error) {
	g, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	p := &models.GroupProgress{
		GroupID:     g.GroupID,
		GroupName:   g.GroupName,
		StageNumber: 1,
	}
	if g.SessionID == "" {
		return p, nil
	}
	rec, err := m.store.Load(ctx, g.GroupID, g.SessionID)
	if err != nil {
		return nil, fmt.Errorf("groups: load progress: %w", err)
	}
	p.StageNumber = rec.StageNumber
	p.ProjectContent = rec.ProjectContent
	p.ActionPlan = rec.ActionPlan
	p.CurrentProgress = rec.CurrentProgress
	p.MessageCount = len(rec.Messages)
	p.LastUpdated = rec.UpdatedAt
	return p, nil
}

// AllProgress reports every group; per-group load failures are skipped so one
// bad record cannot hide the rest of the class.
func (m *Manager) AllProgress(ctx context.Context) []*models.GroupProgress {
	var out []*models.GroupProgress
	for _, g := range m.List() {
		p, err := m.Progress(ctx, g.GroupID)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Record fetches the raw session record behind a group's conversation.
func (m *Manager) Record(ctx context.Context, id string) (*state.Record, error) {
	g, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if g.SessionID == "" {
		return state.NewRecord(g.GroupID, ""), nil
	}
	return m.store.Load(ctx, g.GroupID, g.SessionID)
}

func (m *Manager) persistLocked() error {
	list := make([]*models.Group, 0, len(m.groups))
	for _, g := range m.groups {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("groups: marshal directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("groups: create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".groups_*.tmp")
	if err != nil {
		return fmt.Errorf("groups: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("groups: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("groups: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("groups: rename: %w", err)
	}
	return nil
}
