// Simulated actuator for dry runs
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package babystep

import (
	"sync"
	"time"

	"babystep-go/pkg/log"
)

// SimulatedActuator accepts every delta, optionally sleeping per move to
// mimic the time a real Z move takes.
type SimulatedActuator struct {
	mu    sync.Mutex
	total float64
	moves int
	delay time.Duration
	log   *log.Logger
}

// NewSimulatedActuator starts at total with the given per-move delay.
func NewSimulatedActuator(total float64, delay time.Duration) *SimulatedActuator {
	return &SimulatedActuator{total: total, delay: delay, log: log.GetLogger("simulated")}
}

func (s *SimulatedActuator) ApplyDelta(delta float64) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total += delta
	s.moves++
	s.log.Debug("move z %+.3f -> %.3f", delta, s.total)
	return nil
}

func (s *SimulatedActuator) TotalApplied() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Moves returns how many deltas were applied.
func (s *SimulatedActuator) Moves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}
