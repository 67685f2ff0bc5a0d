// Key and encoder input queue
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package input

import (
	"sync"

	"babystep-go/pkg/babystep"
)

// maxQueuedKeys bounds the key backlog; older presses are dropped first.
const maxQueuedKeys = 32

// Queue collects key presses and encoder detents from any number of
// producers and hands them to the screen one at a time.
type Queue struct {
	mu    sync.Mutex
	keys  []babystep.Key
	ticks int
}

var _ babystep.InputDevice = (*Queue)(nil)

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// PushKey appends a key press.
func (q *Queue) PushKey(k babystep.Key) {
	if k == babystep.KeyNone {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.keys) >= maxQueuedKeys {
		q.keys = q.keys[1:]
	}
	q.keys = append(q.keys, k)
}

// AddTicks accumulates signed encoder detents.
func (q *Queue) AddTicks(n int) {
	q.mu.Lock()
	q.ticks += n
	q.mu.Unlock()
}

// NextKey pops the oldest key press, or KeyNone.
func (q *Queue) NextKey() babystep.Key {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.keys) == 0 {
		return babystep.KeyNone
	}
	k := q.keys[0]
	q.keys = q.keys[1:]
	return k
}

// ConsumeTicks returns and clears the accumulated detents.
func (q *Queue) ConsumeTicks() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.ticks
	q.ticks = 0
	return n
}

// Pending returns the number of queued keys plus one if detents are waiting.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.keys)
	if q.ticks != 0 {
		n++
	}
	return n
}
