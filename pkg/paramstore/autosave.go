// Config autosave store
//
// Keeps nozzle offsets in the "#*#" autosave block of a config file, as
// [nozzle] x_offset / y_offset / z_offset.
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package paramstore

import (
	"strconv"

	"babystep-go/pkg/babystep"
	"babystep-go/pkg/config"
	"babystep-go/pkg/errors"
)

// offsetSection is the autosave section holding nozzle offsets.
const offsetSection = "nozzle"

// Autosave stores parameters in a config file's autosave block.
type Autosave struct {
	staged
	file *config.Autosave
}

// NewAutosave opens the config file at path.
func NewAutosave(path string) (*Autosave, error) {
	file, err := config.OpenAutosave(path)
	if err != nil {
		return nil, err
	}
	file.Backup = true
	return &Autosave{staged: newStaged(), file: file}, nil
}

func optionName(param babystep.ParamID, axis babystep.Axis) (string, string) {
	if param == babystep.ParamNozzleOffset {
		return offsetSection, string(axis) + "_offset"
	}
	return string(param), string(axis)
}

// Read returns the staged value, else the saved one, else 0.
func (a *Autosave) Read(param babystep.ParamID, axis babystep.Axis) (float64, error) {
	if v, ok := a.get(param, axis); ok {
		return v, nil
	}
	section, option := optionName(param, axis)
	raw, ok := a.file.Get(section, option)
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.ConfigTypeError(section, option, raw, "float", err)
	}
	return v, nil
}

func (a *Autosave) Write(param babystep.ParamID, axis babystep.Axis, value float64) error {
	a.set(param, axis, value)
	return nil
}

func (a *Autosave) PersistenceEnabled() bool { return true }

// Commit moves staged values into the autosave block and rewrites the file.
func (a *Autosave) Commit() error {
	for k, v := range a.snapshot() {
		section, option := optionName(k.param, k.axis)
		a.file.Set(section, option, strconv.FormatFloat(v, 'f', 3, 64))
	}
	if err := a.file.Save(); err != nil {
		return errors.ParamCommitError(err)
	}
	a.markClean()
	return nil
}
