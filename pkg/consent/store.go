/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package consent

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultTTL = time.Hour

// Entry is one item waiting on the subject's decision.
type Entry[T any] struct {
	ID        string                 `json:"id"`
	Payload   T                      `json:"payload"`
	Summary   map[string]interface{} `json:"summary"`
	CreatedAt time.Time              `json:"created_at"`
}

// Store holds pending entries keyed by id. Expired entries are swept on every
// read and write.
type Store[T any] struct {
	ttl time.Duration
	now func() time.Time

	lock    sync.Mutex
	entries map[string]*Entry[T]
}

func NewStore[T any](ttl time.Duration) *Store[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]*Entry[T]{},
	}
}

// Add stages payload under id, generating one when id is empty. Staging an id
// that is already pending leaves the original entry untouched and reports
// false.
func (r *Store[T]) Add(id string, payload T, summary map[string]interface{}) (string, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sweep()

	if id == "" {
		id = uuid.New().String()
	}

	if _, ok := r.entries[id]; ok {
		return id, false
	}

	r.entries[id] = &Entry[T]{
		ID:        id,
		Payload:   payload,
		Summary:   summary,
		CreatedAt: r.now(),
	}

	return id, true
}

func (r *Store[T]) Get(id string) (*Entry[T], bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sweep()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

// Take atomically removes and returns the entry. Only one caller wins.
func (r *Store[T]) Take(id string) (*Entry[T], bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sweep()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	delete(r.entries, id)
	return e, true
}

// List returns pending entries oldest first.
func (r *Store[T]) List() []*Entry[T] {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sweep()

	out := make([]*Entry[T], 0, len(r.entries))
	for _, e := range r.entries {
		cp := *e
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Sweep drops expired entries and returns how many were removed.
func (r *Store[T]) Sweep() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.sweep()
}

func (r *Store[T]) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sweep()
	return len(r.entries)
}

func (r *Store[T]) sweep() int {
	cutoff := r.now().Add(-r.ttl)

	n := 0
	for id, e := range r.entries {
		if !e.CreatedAt.After(cutoff) {
			delete(r.entries, id)
			n++
		}
	}

	if n > 0 {
		logger.Debugf("expired %d pending entries", n)
	}
	return n
}
