// Parameter stores for the nozzle offset
//
// Writes are staged in memory, matching firmware behaviour where a changed
// setting lives in RAM until it is explicitly saved. Commit makes the
// staged values durable.
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package paramstore

import (
	"sync"

	"babystep-go/pkg/babystep"
	"babystep-go/pkg/errors"
)

// key identifies one per-axis parameter.
type key struct {
	param babystep.ParamID
	axis  babystep.Axis
}

// variableName is the flat name used by file-backed stores, e.g. nozzle_offset_z.
func variableName(param babystep.ParamID, axis babystep.Axis) string {
	return string(param) + "_" + string(axis)
}

// staged is the in-RAM view shared by all stores.
type staged struct {
	mu     sync.RWMutex
	values map[key]float64
	dirty  bool
}

func newStaged() staged {
	return staged{values: make(map[key]float64)}
}

func (s *staged) get(param babystep.ParamID, axis babystep.Axis) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key{param, axis}]
	return v, ok
}

func (s *staged) set(param babystep.ParamID, axis babystep.Axis, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key{param, axis}] = value
	s.dirty = true
}

// snapshot returns a copy of the staged values.
func (s *staged) snapshot() map[key]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[key]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *staged) markClean() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// Dirty reports whether staged values differ from the last commit.
func (s *staged) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Memory keeps parameters in process memory only.
type Memory struct {
	staged
	persistence bool

	mu      sync.Mutex
	commits int
}

// NewMemory creates a memory store. persistence controls whether Save is
// offered; Commit only counts calls.
func NewMemory(persistence bool) *Memory {
	return &Memory{staged: newStaged(), persistence: persistence}
}

// Read returns the value, or 0 when it was never written.
func (m *Memory) Read(param babystep.ParamID, axis babystep.Axis) (float64, error) {
	v, _ := m.get(param, axis)
	return v, nil
}

func (m *Memory) Write(param babystep.ParamID, axis babystep.Axis, value float64) error {
	m.set(param, axis, value)
	return nil
}

func (m *Memory) PersistenceEnabled() bool { return m.persistence }

func (m *Memory) Commit() error {
	m.mu.Lock()
	m.commits++
	m.mu.Unlock()
	m.markClean()
	return nil
}

// Commits returns how many times Commit was called.
func (m *Memory) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// gated hides persistence of a store that can persist but was configured
// not to.
type gated struct {
	babystep.ParameterStore
}

func (gated) PersistenceEnabled() bool { return false }

func (gated) Commit() error {
	return errors.RuntimeError("persistence is disabled")
}

// WithPersistence returns store unchanged when enabled, otherwise a view
// of it that reports no persistence and refuses Commit.
func WithPersistence(store babystep.ParameterStore, enabled bool) babystep.ParameterStore {
	if enabled {
		return store
	}
	return gated{store}
}
