// Variables file store
//
// Keeps parameters in a "[Variables]" file, one "name = value" line each,
// the format used by SAVE_VARIABLE.
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package paramstore

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"babystep-go/pkg/babystep"
	"babystep-go/pkg/errors"
	"babystep-go/pkg/log"
)

// VarFile stores parameters in a variables file.
type VarFile struct {
	staged
	filename string
	others   map[string]string // unrelated variables, kept verbatim
	log      *log.Logger
}

// NewVarFile opens filename, creating it when missing, and loads the
// parameters it already holds.
func NewVarFile(filename string) (*VarFile, error) {
	if strings.HasPrefix(filename, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			filename = home + filename[1:]
		}
	}
	vf := &VarFile{
		staged:   newStaged(),
		filename: filename,
		others:   make(map[string]string),
		log:      log.GetLogger("varfile"),
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		f, err := os.Create(filename)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrRuntimeInit, fmt.Sprintf("unable to create '%s'", filename))
		}
		f.Close()
	}
	if err := vf.load(); err != nil {
		return nil, err
	}
	vf.log.Info("loaded %d variables from %s", len(vf.values)+len(vf.others), filename)
	return vf, nil
}

func (vf *VarFile) load() error {
	f, err := os.Open(vf.filename)
	if err != nil {
		return errors.Wrap(err, errors.ErrParamRead, "open "+vf.filename)
	}
	defer f.Close()

	inVariables := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "[Variables]" {
			inVariables = true
			continue
		}
		if strings.HasPrefix(line, "[") {
			inVariables = false
			continue
		}
		if !inVariables {
			continue
		}
		name, raw, ok := strings.Cut(line, " = ")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		raw = strings.TrimSpace(raw)
		if k, ok := parseVariableName(name); ok {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				vf.values[k] = v
				continue
			}
		}
		vf.others[name] = raw
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.ErrParamRead, "read "+vf.filename)
	}
	return nil
}

// parseVariableName recognises names like nozzle_offset_z.
func parseVariableName(name string) (key, bool) {
	idx := strings.LastIndexByte(name, '_')
	if idx <= 0 || idx == len(name)-1 {
		return key{}, false
	}
	axis := babystep.Axis(name[idx+1:])
	switch axis {
	case babystep.AxisX, babystep.AxisY, babystep.AxisZ:
		return key{babystep.ParamID(name[:idx]), axis}, true
	}
	return key{}, false
}

// Read returns the staged value, or 0 when the file never held it.
func (vf *VarFile) Read(param babystep.ParamID, axis babystep.Axis) (float64, error) {
	v, _ := vf.get(param, axis)
	return v, nil
}

func (vf *VarFile) Write(param babystep.ParamID, axis babystep.Axis, value float64) error {
	vf.set(param, axis, value)
	return nil
}

func (vf *VarFile) PersistenceEnabled() bool { return true }

// Commit rewrites the file with every variable, sorted by name.
func (vf *VarFile) Commit() error {
	lines := make(map[string]string, len(vf.others))
	for name, raw := range vf.others {
		lines[name] = raw
	}
	for k, v := range vf.snapshot() {
		lines[variableName(k.param, k.axis)] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	names := make([]string, 0, len(lines))
	for name := range lines {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("[Variables]\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "%s = %s\n", name, lines[name])
	}
	if err := os.WriteFile(vf.filename, []byte(sb.String()), 0644); err != nil {
		return errors.ParamCommitError(err)
	}
	vf.markClean()
	vf.log.Info("saved %d variables to %s", len(names), vf.filename)
	return nil
}
