// Z baby-stepping through M290
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package marlin

import (
	"fmt"
	"sync"

	"babystep-go/pkg/errors"
)

// Actuator moves the Z axis with M290 and tracks the running total locally.
type Actuator struct {
	link *Link

	mu    sync.Mutex
	total float64
}

// NewActuator creates an actuator on link with a zero total.
func NewActuator(link *Link) *Actuator {
	return &Actuator{link: link}
}

// ApplyDelta issues one M290 Z move. The total only advances on "ok".
func (a *Actuator) ApplyDelta(delta float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.link.Command("M290 Z" + formatDistance(delta)); err != nil {
		return err
	}
	a.total += delta
	return nil
}

// TotalApplied returns the accumulated baby-step distance.
func (a *Actuator) TotalApplied() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// Sync replaces the local total with the firmware's own report. Firmware
// built without a babystep total report leaves the local total unchanged
// and returns false.
func (a *Actuator) Sync() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	lines, err := a.link.Command("M290")
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		r := parseReport(line)
		if r == nil || r.Name != "BABYSTEP" {
			continue
		}
		z, ok, err := r.floatArg("Z")
		if err != nil {
			return false, errors.TransportReplyError("M290", err.Error())
		}
		if ok {
			a.total = z
			return true, nil
		}
	}
	return false, nil
}

func (a *Actuator) String() string {
	return fmt.Sprintf("marlin M290 (total %.3f)", a.TotalApplied())
}
