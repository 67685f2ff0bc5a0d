// Environment overrides
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"babystep-go/pkg/errors"
)

// EnvPrefix starts every config override variable, as in
// BABYSTEP__BABYSTEP__MAX_CHUNK=0.5 for [babystep] max_chunk.
const EnvPrefix = "BABYSTEP__"

// LoadEnvFiles loads .env style files into the process environment.
// Variables already set take precedence. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrap(err, errors.ErrConfigSection, "load env file "+f)
		}
	}
	return nil
}

// ApplyEnv overrides options from environ entries of the form
// BABYSTEP__<SECTION>__<OPTION>=value. It returns the number applied.
func (c *Config) ApplyEnv(environ []string) int {
	applied := 0
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		rest, ok := strings.CutPrefix(key, EnvPrefix)
		if !ok {
			continue
		}
		section, option, ok := strings.Cut(rest, "__")
		if !ok || section == "" || option == "" {
			continue
		}
		c.Set(strings.ToLower(section), strings.ToLower(option), value)
		applied++
	}
	return applied
}

// ReadEnvFile parses a .env file without touching the environment and
// returns KEY=value pairs suitable for ApplyEnv.
func ReadEnvFile(path string) ([]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigSection, "read env file "+path)
	}
	out := make([]string, 0, len(vars))
	for k, v := range vars {
		out = append(out, k+"="+v)
	}
	return out, nil
}
