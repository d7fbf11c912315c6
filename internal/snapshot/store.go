// Package snapshot persists the last-known-good decoded state of each
// entity collection. It is shared across app surfaces on one device; the
// reconcile engine is the only writer of authoritative merged arrays.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/rpggio/focusboard/internal/domain/focus"
	"github.com/rpggio/focusboard/internal/domain/project"
)

// ErrNoValue is returned by a KV when a key has never been written.
var ErrNoValue = errors.New("no value stored")

// KV is the key-value persistence primitive: opaque bytes by string key,
// scoped to a namespace every app process on the device shares.
type KV interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// Logical collection keys in the shared namespace.
const (
	KeyProjects        = "shared_projects"
	KeyFocusedProjects = "shared_focusedProjects"
	KeyTasks           = "shared_focusTasks"
)

// Local-only fallback keys, read only when the shared keys have never
// been populated (first run after migrating from a single-surface app).
const (
	fallbackKeyProjects        = "local_projects"
	fallbackKeyFocusedProjects = "local_focusedProjects"
	fallbackKeyTasks           = "local_focusTasks"
)

// Store is the typed snapshot store over a shared KV, with an optional
// legacy KV consulted last.
type Store struct {
	shared KV
	legacy KV
	logger *slog.Logger
}

// NewStore creates a snapshot store. legacy may be nil when there is no
// migration source.
func NewStore(shared, legacy KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{shared: shared, legacy: legacy, logger: logger}
}

// Projects returns the cached project collection.
func (s *Store) Projects(ctx context.Context) ([]project.Project, error) {
	var projects []project.Project
	err := s.load(ctx, KeyProjects, fallbackKeyProjects, &projects)
	return projects, err
}

// SaveProjects replaces the cached project collection.
func (s *Store) SaveProjects(ctx context.Context, projects []project.Project) error {
	return s.save(ctx, KeyProjects, fallbackKeyProjects, projects)
}

// FocusedProjects returns the cached focus record collection.
func (s *Store) FocusedProjects(ctx context.Context) ([]focus.FocusedProject, error) {
	var focused []focus.FocusedProject
	err := s.load(ctx, KeyFocusedProjects, fallbackKeyFocusedProjects, &focused)
	return focused, err
}

// SaveFocusedProjects replaces the cached focus record collection.
func (s *Store) SaveFocusedProjects(ctx context.Context, focused []focus.FocusedProject) error {
	return s.save(ctx, KeyFocusedProjects, fallbackKeyFocusedProjects, focused)
}

// Tasks returns the cached task collection.
func (s *Store) Tasks(ctx context.Context) ([]focus.FocusTask, error) {
	var tasks []focus.FocusTask
	err := s.load(ctx, KeyTasks, fallbackKeyTasks, &tasks)
	return tasks, err
}

// SaveTasks replaces the cached task collection.
func (s *Store) SaveTasks(ctx context.Context, tasks []focus.FocusTask) error {
	return s.save(ctx, KeyTasks, fallbackKeyTasks, tasks)
}

func (s *Store) load(ctx context.Context, key, fallbackKey string, out any) error {
	data, source, err := Resolve(ctx, s.sources(key, fallbackKey))
	if errors.Is(err, ErrNoValue) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		// Corrupted cache counts as no data; the collection rebuilds from
		// the next remote fetch or rescan.
		s.logger.Warn("discarding corrupted snapshot", "key", key, "source", source, "error", err)
		return nil
	}
	return nil
}

func (s *Store) save(ctx context.Context, key, fallbackKey string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.shared.Save(ctx, key, data); err != nil {
		return err
	}
	// Keep the fallback copy warm for surfaces that predate the shared key.
	if err := s.shared.Save(ctx, fallbackKey, data); err != nil {
		s.logger.Warn("fallback snapshot write failed", "key", fallbackKey, "error", err)
	}
	return nil
}

func (s *Store) sources(key, fallbackKey string) []Source {
	sources := []Source{
		{Name: "shared", Load: func(ctx context.Context) ([]byte, error) { return s.shared.Load(ctx, key) }},
		{Name: "local-fallback", Load: func(ctx context.Context) ([]byte, error) { return s.shared.Load(ctx, fallbackKey) }},
	}
	if s.legacy != nil {
		sources = append(sources, Source{
			Name: "legacy",
			Load: func(ctx context.Context) ([]byte, error) { return s.legacy.Load(ctx, key) },
		})
	}
	return sources
}
