// Line-oriented command input
//
// Reads whitespace separated tokens such as "+ + > >5 <2 u s q" from a
// pipe or socket, plus encoder pin states "e3 e1 e0 e2 e3". Used when
// stdin is not a terminal.
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"babystep-go/pkg/babystep"
)

// Script applies whitespace separated input tokens to a queue.
type Script struct {
	Queue *Queue
	// Encoder decodes pin-state tokens "e0" to "e3" (A in bit 0, B in
	// bit 1), as printed by a GPIO line watcher. Without one they are
	// rejected.
	Encoder *RotaryEncoder
}

// Apply applies one token. Key names ("increase", "reset") are accepted
// as well as the single characters used by HandleKey. A tick token may
// carry a repeat count: ">5" or "<2".
func (s Script) Apply(tok string) (back bool, err error) {
	tok = strings.TrimSpace(strings.ToLower(tok))
	if tok == "" {
		return false, nil
	}
	if k, ok := babystep.ParseKey(tok); ok {
		s.Queue.PushKey(k)
		return k == babystep.KeyBack, nil
	}
	if len(tok) == 2 && tok[0] == 'e' {
		if tok[1] < '0' || tok[1] > '3' {
			return false, fmt.Errorf("bad pin state in %q", tok)
		}
		if s.Encoder == nil {
			return false, fmt.Errorf("pin state %q without an encoder", tok)
		}
		s.Encoder.Update(int(tok[1] - '0'))
		return false, nil
	}
	r := rune(tok[0])
	if n, ok := runeTicks[r]; ok {
		count := 1
		if len(tok) > 1 {
			count, err = strconv.Atoi(tok[1:])
			if err != nil || count < 0 {
				return false, fmt.Errorf("bad tick count in %q", tok)
			}
		}
		s.Queue.AddTicks(n * count)
		return false, nil
	}
	if len(tok) == 1 {
		if k, ok := runeKeys[r]; ok {
			s.Queue.PushKey(k)
			return k == babystep.KeyBack, nil
		}
	}
	return false, fmt.Errorf("unknown input %q", tok)
}

// Read applies tokens from r until EOF, Back or ctx is done. Unknown
// tokens are reported through onError and skipped.
func (s Script) Read(ctx context.Context, r io.Reader, onError func(error)) error {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		back, err := s.Apply(sc.Text())
		if err != nil {
			if onError != nil {
				onError(err)
			}
			continue
		}
		if back {
			return nil
		}
	}
	return sc.Err()
}
