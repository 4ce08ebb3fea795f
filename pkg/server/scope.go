package server

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/vango-dev/patchwire/pkg/render"
)

// Scope owns the snapshots of the component instances mounted over one
// connection. Ending the scope discards them.
type Scope struct {
	renderer *render.Renderer

	mu     sync.Mutex
	ids    map[string]struct{}
	closed bool
}

// NewScope creates an empty scope whose snapshots live in r.
func NewScope(r *render.Renderer) *Scope {
	return &Scope{
		renderer: r,
		ids:      make(map[string]struct{}),
	}
}

// Add records id as owned by the scope.
func (s *Scope) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrScopeClosed
	}
	s.ids[id] = struct{}{}
	return nil
}

// Remove forgets id without discarding its snapshot.
func (s *Scope) Remove(id string) {
	s.mu.Lock()
	delete(s.ids, id)
	s.mu.Unlock()
}

// IDs returns the owned ids, sorted.
func (s *Scope) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close discards the snapshot of every owned id. Later calls do nothing.
func (s *Scope) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ids := s.ids
	s.ids = nil
	s.mu.Unlock()

	var errs []error
	for id := range ids {
		if err := s.renderer.Discard(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
