/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package util

import "sync"

// KeyedMutex serializes work per key while letting distinct keys proceed in
// parallel. Entries are dropped once no goroutine holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: map[string]*keyedEntry{}}
}

// Lock blocks until key is free and returns the matching unlock func.
func (r *KeyedMutex) Lock(key string) func() {
	r.mu.Lock()
	if r.locks == nil {
		r.locks = map[string]*keyedEntry{}
	}
	e, ok := r.locks[key]
	if !ok {
		e = &keyedEntry{}
		r.locks[key] = e
	}
	e.refs++
	r.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		r.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}

// Len reports how many keys are currently tracked.
func (r *KeyedMutex) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
