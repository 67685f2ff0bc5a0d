// Nozzle offset parameters through M851 / M500
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package marlin

import (
	"fmt"
	"strings"

	"babystep-go/pkg/babystep"
	"babystep-go/pkg/errors"
)

// ParamStore reads and writes the nozzle offset in firmware RAM. Commit
// stores the firmware settings to EEPROM.
type ParamStore struct {
	link   *Link
	eeprom bool
}

// NewParamStore queries M115 for the EEPROM capability.
func NewParamStore(link *Link) (*ParamStore, error) {
	lines, err := link.Command("M115")
	if err != nil {
		return nil, err
	}
	caps := Capabilities(lines)
	return &ParamStore{link: link, eeprom: caps["EEPROM"]}, nil
}

// NewParamStoreWithPersistence skips the capability query.
func NewParamStoreWithPersistence(link *Link, eeprom bool) *ParamStore {
	return &ParamStore{link: link, eeprom: eeprom}
}

func axisLetter(axis babystep.Axis) (string, error) {
	switch axis {
	case babystep.AxisX, babystep.AxisY, babystep.AxisZ:
		return strings.ToUpper(string(axis)), nil
	}
	return "", fmt.Errorf("unknown axis %q", axis)
}

func checkParam(param babystep.ParamID) error {
	if param != babystep.ParamNozzleOffset {
		return fmt.Errorf("parameter %q is not supported by marlin", param)
	}
	return nil
}

// Read reports the nozzle offset of axis from the M851 reply.
func (p *ParamStore) Read(param babystep.ParamID, axis babystep.Axis) (float64, error) {
	if err := checkParam(param); err != nil {
		return 0, err
	}
	letter, err := axisLetter(axis)
	if err != nil {
		return 0, err
	}
	lines, err := p.link.Command("M851")
	if err != nil {
		return 0, err
	}
	for _, line := range lines {
		r := parseReport(line)
		if r == nil {
			continue
		}
		v, ok, err := r.floatArg(letter)
		if err != nil {
			return 0, errors.TransportReplyError("M851", err.Error())
		}
		if ok {
			return v, nil
		}
	}
	return 0, errors.TransportReplyError("M851", "no "+letter+" offset in reply: "+strings.Join(lines, " | "))
}

// Write sets the nozzle offset of axis with M851.
func (p *ParamStore) Write(param babystep.ParamID, axis babystep.Axis, value float64) error {
	if err := checkParam(param); err != nil {
		return err
	}
	letter, err := axisLetter(axis)
	if err != nil {
		return err
	}
	_, err = p.link.Command("M851 " + letter + formatDistance(value))
	return err
}

// PersistenceEnabled reports whether the firmware has EEPROM support.
func (p *ParamStore) PersistenceEnabled() bool { return p.eeprom }

// Commit stores the settings with M500.
func (p *ParamStore) Commit() error {
	if !p.eeprom {
		return errors.RuntimeError("firmware has no EEPROM support")
	}
	_, err := p.link.Command("M500")
	return err
}
