// G-code reply parsing
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package marlin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var reParenComment = regexp.MustCompile(`\([^)]*\)`)

// report is a parsed firmware line such as
// "echo:  M851 X-43.00 Y-9.00 Z-1.50 ; (mm)" or "echo:Babystep Z0.05".
type report struct {
	Name string            // leading word, upper-cased
	Args map[string]string // letter parameters, "Z" -> "-1.50"
	Raw  string
}

// parseReport splits a reply line into its leading word and letter
// parameters. Parameters written as "Z:-1.50" are accepted too.
func parseReport(line string) *report {
	ln := strings.TrimSpace(line)
	ln = strings.TrimPrefix(ln, "echo:")
	if idx := strings.IndexByte(ln, ';'); idx >= 0 {
		ln = ln[:idx]
	}
	ln = strings.TrimSpace(reParenComment.ReplaceAllString(ln, " "))

	fields := strings.Fields(ln)
	if len(fields) == 0 {
		return nil
	}
	r := &report{Name: strings.ToUpper(fields[0]), Args: map[string]string{}, Raw: line}
	rest := fields[1:]
	for i := 0; i < len(rest); i++ {
		f := rest[i]
		if len(f) < 1 {
			continue
		}
		k := strings.ToUpper(f[:1])
		if k < "A" || k > "Z" {
			continue
		}
		v := strings.TrimPrefix(f[1:], ":")
		// "Z: -1.50" carries the value in the next field.
		if v == "" && strings.HasSuffix(f, ":") && i+1 < len(rest) {
			i++
			v = rest[i]
		}
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			continue
		}
		r.Args[k] = v
	}
	return r
}

// floatArg returns the letter parameter key as a float.
func (r *report) floatArg(key string) (float64, bool, error) {
	v, ok := r.Args[strings.ToUpper(key)]
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, true, fmt.Errorf("bad float %s=%q in %q", key, v, r.Raw)
	}
	return f, true, nil
}

// Capabilities parses "Cap:NAME:0|1" lines from an M115 reply.
func Capabilities(lines []string) map[string]bool {
	caps := make(map[string]bool)
	for _, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "Cap:")
		if !ok {
			continue
		}
		name, val, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		caps[strings.ToUpper(name)] = strings.TrimSpace(val) == "1"
	}
	return caps
}

// formatDistance renders mm with at most three decimals, as Marlin parses them.
func formatDistance(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
