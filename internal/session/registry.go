package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/zenreader/internal/entities"
)

var ErrViewNotFound = fmt.Errorf("%w: view not found", entities.ErrNotFound)

// Registry tracks the open views by id. Views that go unused are closed by
// EvictIdle, so a view whose browser session expired does not outlive it.
type Registry struct {
	host Host
	cfg  Config
	now  func() time.Time

	mu    sync.Mutex
	views map[string]*registered
}

type registered struct {
	view     *View
	lastUsed time.Time
}

func NewRegistry(host Host, cfg Config) *Registry {
	return &Registry{host: host, cfg: cfg, now: time.Now, views: make(map[string]*registered)}
}

// Create starts a new view.
func (r *Registry) Create() *View {
	v := newView(uuid.NewString(), r.host, r.cfg)

	r.mu.Lock()
	r.views[v.id] = &registered{view: v, lastUsed: r.now()}
	r.mu.Unlock()
	return v
}

// Get returns the view named by id and marks it used.
func (r *Registry) Get(id string) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	e.lastUsed = r.now()
	return e.view, nil
}

// GetOrCreate returns the view named by id, or a new one if id is unknown.
func (r *Registry) GetOrCreate(id string) *View {
	if id != "" {
		if v, err := r.Get(id); err == nil {
			return v
		}
	}
	return r.Create()
}

// Close flushes and removes a view. Unknown ids are ignored.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	e, ok := r.views[id]
	delete(r.views, id)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return e.view.Close()
}

// EvictIdle closes views unused for longer than maxIdle, flushing their
// pending saves, and returns how many were closed.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*View
	for id, e := range r.views {
		if e.lastUsed.Before(cutoff) {
			idle = append(idle, e.view)
			delete(r.views, id)
		}
	}
	r.mu.Unlock()

	for _, v := range idle {
		if err := v.Close(); err != nil {
			log.Printf("[session] failed to flush idle view %s: %v", v.id, err)
		}
	}
	if len(idle) > 0 {
		log.Printf("[session] closed %d idle views", len(idle))
	}
	return len(idle)
}

// CloseAll flushes every view. It is used on shutdown.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*registered)
	r.mu.Unlock()

	var errs []error
	for id, e := range views {
		if err := e.view.Close(); err != nil {
			log.Printf("[session] failed to close view %s: %v", id, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
