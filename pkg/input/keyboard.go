// Terminal keyboard input
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package input

import (
	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"

	"babystep-go/pkg/babystep"
)

// runeKeys maps single characters to menu keys.
var runeKeys = map[rune]babystep.Key{
	'-': babystep.KeyDecrease,
	'+': babystep.KeyIncrease,
	'=': babystep.KeyIncrease,
	's': babystep.KeySave,
	'u': babystep.KeyUnit,
	'r': babystep.KeyReset,
	'q': babystep.KeyBack,
	'b': babystep.KeyBack,
}

// runeTicks maps characters to encoder detents.
var runeTicks = map[rune]int{
	'>': 1,
	'<': -1,
	'.': 1,
	',': -1,
}

// HandleKey routes one terminal key press into q. It returns true when
// the key ends the session.
func HandleKey(q *Queue, key keys.Key) bool {
	switch key.Code {
	case keys.Up:
		q.PushKey(babystep.KeyIncrease)
	case keys.Down:
		q.PushKey(babystep.KeyDecrease)
	case keys.Right:
		q.AddTicks(1)
	case keys.Left:
		q.AddTicks(-1)
	case keys.Escape, keys.CtrlC:
		q.PushKey(babystep.KeyBack)
		return true
	case keys.RuneKey:
		for _, r := range key.Runes {
			if k, ok := runeKeys[r]; ok {
				q.PushKey(k)
				if k == babystep.KeyBack {
					return true
				}
			} else if n, ok := runeTicks[r]; ok {
				q.AddTicks(n)
			}
		}
	}
	return false
}

// ListenKeyboard reads the terminal in raw mode until Back, Escape or
// Ctrl+C. It blocks, so callers run it on its own goroutine.
func ListenKeyboard(q *Queue) error {
	return keyboard.Listen(func(key keys.Key) (bool, error) {
		return HandleKey(q, key), nil
	})
}
