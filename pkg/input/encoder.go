// Rotary encoder decoding
//
// Gray-code state machines for quadrature encoders. Each completed detent
// adds one tick to the queue: clockwise positive, counter-clockwise
// negative.
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package input

import "sync"

const (
	rStart  = 0x0
	rDirCW  = 0x10
	rDirCCW = 0x20
	rDirMsk = 0x30
)

// Full step states
const (
	rCWFinal  = 0x1
	rCWBegin  = 0x2
	rCWNext   = 0x3
	rCCWBegin = 0x4
	rCCWFinal = 0x5
	rCCWNext  = 0x6
)

// Half step states
const (
	hsCCWBegin  = 0x1
	hsCWBegin   = 0x2
	hsStartM    = 0x3
	hsCWBeginM  = 0x4
	hsCCWBeginM = 0x5
)

var fullStepTable = [][4]int{
	{rStart, rCWBegin, rCCWBegin, rStart},
	{rCWNext, rStart, rCWFinal, rStart | rDirCW},
	{rCWNext, rCWBegin, rStart, rStart},
	{rCWNext, rCWBegin, rCWFinal, rStart},
	{rCCWNext, rStart, rCCWBegin, rStart},
	{rCCWNext, rCCWFinal, rStart, rStart | rDirCCW},
	{rCCWNext, rCCWFinal, rCCWBegin, rStart},
}

var halfStepTable = [][4]int{
	{hsStartM, hsCWBegin, hsCCWBegin, rStart},
	{hsStartM | rDirCCW, rStart, hsCCWBegin, rStart},
	{hsStartM | rDirCW, hsCWBegin, rStart, rStart},
	{hsStartM, hsCCWBeginM, hsCWBeginM, rStart},
	{hsStartM, hsStartM, hsCWBeginM, rStart | rDirCW},
	{hsStartM, hsCCWBeginM, hsStartM, rStart | rDirCCW},
}

// TickSink receives decoded detents.
type TickSink interface {
	AddTicks(n int)
}

// RotaryEncoder turns A/B pin transitions into ticks.
type RotaryEncoder struct {
	mu    sync.Mutex
	table [][4]int
	state int
	sink  TickSink
	// Reverse swaps the rotation sense.
	Reverse bool
}

// NewRotaryEncoder creates a full-step decoder, or a half-step one for
// encoders with a detent at both 00 and 11.
func NewRotaryEncoder(sink TickSink, halfStep bool) *RotaryEncoder {
	table := fullStepTable
	if halfStep {
		table = halfStepTable
	}
	return &RotaryEncoder{table: table, sink: sink}
}

// Update feeds the pin levels as a two-bit value (A in bit 0, B in bit 1).
// It returns the detent produced, if any.
func (e *RotaryEncoder) Update(pins int) int {
	e.mu.Lock()
	next := e.table[e.state&0xf][pins&0x3]
	e.state = next
	e.mu.Unlock()

	tick := 0
	switch next & rDirMsk {
	case rDirCW:
		tick = 1
	case rDirCCW:
		tick = -1
	}
	if e.Reverse {
		tick = -tick
	}
	if tick != 0 && e.sink != nil {
		e.sink.AddTicks(tick)
	}
	return tick
}
