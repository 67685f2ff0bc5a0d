// Autosave block maintenance
//
// Values committed at runtime are kept in a "#*#" block at the end of the
// config file, leaving the hand-written part above it untouched.
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"babystep-go/pkg/errors"
)

const (
	autosaveMarker = "#*#"
	autosaveHeader = "#*# <---------------------- SAVE_CONFIG ---------------------->\n" +
		"#*# DO NOT EDIT THIS BLOCK OR BELOW. The contents are auto-generated.\n" +
		"#*#\n"
)

// Autosave tracks values destined for the autosave block of a config file.
type Autosave struct {
	mu   sync.Mutex
	path string

	body     string
	values   map[string]map[string]string
	modified bool

	// Backup keeps a timestamped copy of the file before each save.
	Backup bool
}

// OpenAutosave reads path and its existing autosave block. A missing file
// starts with an empty body.
func OpenAutosave(path string) (*Autosave, error) {
	a := &Autosave{path: path, values: make(map[string]map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, errors.ErrParamRead, fmt.Sprintf("read %s", path))
	}
	a.body, err = a.split(string(data))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// split separates the hand-written body from the autosave block and loads
// the block's values.
func (a *Autosave) split(data string) (string, error) {
	var body strings.Builder
	var block strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), autosaveMarker) {
			block.WriteString(line)
			block.WriteByte('\n')
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrap(err, errors.ErrParamRead, "scan autosave block")
	}

	cfg, err := LoadString(block.String())
	if err != nil {
		return "", err
	}
	for _, name := range cfg.GetSectionNames() {
		sec, _ := cfg.GetSection(name)
		a.values[name] = sec.RawOptions()
	}
	return strings.TrimRight(body.String(), "\n"), nil
}

// Get returns the saved or staged value of section.option.
func (a *Autosave) Get(section, option string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.values[section][strings.ToLower(option)]
	return v, ok
}

// Set stages a value. It is written by the next Save.
func (a *Autosave) Set(section, option, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.values[section] == nil {
		a.values[section] = make(map[string]string)
	}
	a.values[section][strings.ToLower(option)] = value
	a.modified = true
}

// HasChanges reports whether values were staged since the last Save.
func (a *Autosave) HasChanges() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.modified
}

// Path returns the config file path.
func (a *Autosave) Path() string {
	return a.path
}

// Save rewrites the file with the current autosave block. The write goes
// through a temp file and rename.
func (a *Autosave) Save() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Backup {
		if err := a.createBackup(); err != nil {
			return err
		}
	}

	dir := filepath.Dir(a.path)
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrParamCommit, "create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(a.content()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrParamCommit, "write config")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrParamCommit, "close temp file")
	}
	if err := os.Rename(tmpPath, a.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrParamCommit, "replace config")
	}
	a.modified = false
	return nil
}

func (a *Autosave) content() string {
	var sb strings.Builder
	if a.body != "" {
		sb.WriteString(a.body)
		sb.WriteString("\n\n")
	}
	if len(a.values) == 0 {
		return sb.String()
	}
	sb.WriteString(autosaveHeader)

	sections := make([]string, 0, len(a.values))
	for name := range a.values {
		sections = append(sections, name)
	}
	sort.Strings(sections)
	for i, name := range sections {
		if i > 0 {
			sb.WriteString("#*#\n")
		}
		fmt.Fprintf(&sb, "#*# [%s]\n", name)
		opts := a.values[name]
		keys := make([]string, 0, len(opts))
		for k := range opts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "#*# %s = %s\n", k, opts[k])
		}
	}
	return sb.String()
}

// createBackup copies printer.cfg to printer-20060102_150405.cfg.
func (a *Autosave) createBackup() error {
	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrParamCommit, "read for backup")
	}
	ext := filepath.Ext(a.path)
	base := strings.TrimSuffix(a.path, ext)
	backup := fmt.Sprintf("%s-%s%s", base, time.Now().Format("20060102_150405"), ext)
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrParamCommit, "write backup")
	}
	return nil
}
