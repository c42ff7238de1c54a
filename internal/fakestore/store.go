package fakestore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/suyash-sneo/lifeback/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu       sync.Mutex
	now      time.Time
	sessions map[string]time.Time
	patterns map[string][]byte
	watchers []chan store.PatternEvent

	// FailNext makes the next call return this error, then clears it.
	FailNext error
}

// New returns a fresh in-memory store.
func New() *Store {
	return &Store{
		now:      time.Now(),
		sessions: map[string]time.Time{},
		patterns: map[string][]byte{},
	}
}

// Advance moves the internal clock forward (useful for deterministic tests).
func (s *Store) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *Store) SavePattern(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if name == "" {
		return errors.New("save pattern: empty name")
	}
	s.patterns[name] = append([]byte(nil), data...)
	s.notify(store.PatternEvent{Name: name})
	return nil
}

func (s *Store) LoadPattern(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, false, err
	}
	data, ok := s.patterns[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (s *Store) ListPatterns(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.patterns))
	for name := range s.patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) DeletePattern(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return false, err
	}
	if _, ok := s.patterns[name]; !ok {
		return false, nil
	}
	delete(s.patterns, name)
	s.notify(store.PatternEvent{Name: name, Deleted: true})
	return true, nil
}

// WatchPatterns delivers events until ctx ends. Slow watchers drop events.
func (s *Store) WatchPatterns(ctx context.Context) (<-chan store.PatternEvent, error) {
	ch := make(chan store.PatternEvent, 16)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (s *Store) HeartbeatSession(_ context.Context, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = s.now.Add(ttl)
	return nil
}

func (s *Store) ListSessions(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id, exp := range s.sessions {
		if !exp.After(s.now) {
			delete(s.sessions, id)
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) notify(ev store.PatternEvent) {
	for _, w := range s.watchers {
		select {
		case w <- ev:
		default:
		}
	}
}

func (s *Store) takeFailure() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}
