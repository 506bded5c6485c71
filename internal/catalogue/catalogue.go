// Package catalogue loads the static event catalogue and keeps it current
// while the process runs.
package catalogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cahcet/eloquence-api/internal/domain"
)

var ErrEventNotFound = errors.New("event not found in catalogue")

// File is the on-disk shape. Keys other than events are ignored.
type File struct {
	Events []domain.Event `json:"events"`
}

type Store struct {
	path string

	mu     sync.RWMutex
	events []domain.Event
	bySlug map[string]domain.Event
}

// Open reads the catalogue at path.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// New builds an in-memory catalogue, mostly for tests and the CLI.
func New(events []domain.Event) *Store {
	s := &Store{}
	s.set(events)
	return s
}

func Parse(data []byte) ([]domain.Event, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	seen := make(map[string]struct{}, len(f.Events))
	for _, e := range f.Events {
		if e.Slug == "" {
			return nil, fmt.Errorf("event %q has no id", e.Title)
		}
		if _, dup := seen[e.Slug]; dup {
			return nil, fmt.Errorf("duplicate event id %q", e.Slug)
		}
		if e.MinMembers < 1 || e.MaxMembers < e.MinMembers {
			return nil, fmt.Errorf("event %q has invalid team bounds [%d,%d]", e.Slug, e.MinMembers, e.MaxMembers)
		}
		seen[e.Slug] = struct{}{}
	}

	return f.Events, nil
}

// Reload re-reads the file. On error the previous catalogue is kept.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("os.ReadFile -> %w", err)
	}

	events, err := Parse(data)
	if err != nil {
		return fmt.Errorf("catalogue %s: %w", s.path, err)
	}

	s.set(events)

	return nil
}

func (s *Store) set(events []domain.Event) {
	bySlug := make(map[string]domain.Event, len(events))
	for _, e := range events {
		bySlug[e.Slug] = e
	}

	s.mu.Lock()
	s.events = events
	s.bySlug = bySlug
	s.mu.Unlock()
}

func (s *Store) Events() []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) Lookup(slug string) (domain.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.bySlug[slug]
	return e, ok
}

func (s *Store) Get(slug string) (domain.Event, error) {
	e, ok := s.Lookup(slug)
	if !ok {
		return domain.Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, slug)
	}
	return e, nil
}

// Watch reloads the catalogue whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher -> %w", err)
	}

	if err = watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watcher.Add -> %w", err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					zap.L().Error("catalogue reload failed, keeping previous", zap.Error(err))
					continue
				}
				zap.L().Info("catalogue reloaded", zap.Int("events", len(s.Events())))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				zap.L().Warn("catalogue watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
