package mediafield

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"artlink_backend/pkg/apperrors"
)

// ErrDraftNotFound marks a lookup against an expired or unknown
// draft id.
var ErrDraftNotFound = apperrors.New(
	apperrors.CodeNotFound,
	"media",
	"Media draft not found or expired",
	http.StatusNotFound,
)

// Registry holds in-progress media drafts keyed by draft id. Each
// draft owns one field controller; abandoned drafts are evicted by a
// janitor after the TTL so selected images don't pin memory forever.
type Registry struct {
	mu     sync.Mutex
	drafts map[string]*draft
	ttl    time.Duration
	stop   chan struct{}
	once   sync.Once
}

type draft struct {
	controller Controller
	ownerID    string
	touched    time.Time
}

// NewRegistry builds a draft registry and starts its janitor.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	r := &Registry{
		drafts: make(map[string]*draft),
		ttl:    ttl,
		stop:   make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Create registers a controller owned by a profile and returns its
// draft id.
func (r *Registry) Create(ownerID string, c Controller) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.drafts[id] = &draft{controller: c, ownerID: ownerID, touched: time.Now()}
	r.mu.Unlock()
	return id
}

// Get returns the controller for a live draft and refreshes its TTL.
func (r *Registry) Get(id string) (Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	d.touched = time.Now()
	return d.controller, nil
}

// GetOwned is Get restricted to the draft's owner. A draft belonging
// to someone else reports not-found rather than leaking its existence.
func (r *Registry) GetOwned(id, ownerID string) (Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drafts[id]
	if !ok || d.ownerID != ownerID {
		return nil, ErrDraftNotFound
	}
	d.touched = time.Now()
	return d.controller, nil
}

// Discard removes a draft and clears its controller state.
func (r *Registry) Discard(id string) {
	r.mu.Lock()
	d, ok := r.drafts[id]
	delete(r.drafts, id)
	r.mu.Unlock()

	if ok {
		d.controller.Clear()
	}
}

// Len reports the number of live drafts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

// Close stops the janitor and clears all drafts.
func (r *Registry) Close() {
	r.once.Do(func() { close(r.stop) })

	r.mu.Lock()
	drafts := r.drafts
	r.drafts = make(map[string]*draft)
	r.mu.Unlock()

	for _, d := range drafts {
		d.controller.Clear()
	}
}

func (r *Registry) janitor() {
	ticker := time.NewTicker(r.ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep(time.Now())
		}
	}
}

// sweep evicts drafts idle past the TTL.
func (r *Registry) sweep(now time.Time) {
	var expired []*draft

	r.mu.Lock()
	for id, d := range r.drafts {
		if now.Sub(d.touched) > r.ttl {
			expired = append(expired, d)
			delete(r.drafts, id)
		}
	}
	r.mu.Unlock()

	for _, d := range expired {
		d.controller.Clear()
	}
}
