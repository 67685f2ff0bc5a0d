// Save confirmation dialogs
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package display

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pterm/pterm"

	"babystep-go/pkg/babystep"
)

// PromptConfirmer asks on the terminal. The default answer is No.
type PromptConfirmer struct{}

func (PromptConfirmer) Confirm(title, message string) (bool, error) {
	return pterm.DefaultInteractiveConfirm.
		WithDefaultValue(false).
		Show(title + ": " + message)
}

// FixedConfirmer answers every dialog with Answer, for scripted input.
type FixedConfirmer struct {
	Answer bool
}

func (f FixedConfirmer) Confirm(title, message string) (bool, error) {
	pterm.Info.Printfln("%s: %s (answered %t)", title, message, f.Answer)
	return f.Answer, nil
}

// KeySource yields queued menu keys.
type KeySource interface {
	NextKey() babystep.Key
}

// KeyConfirmer confirms with the menu keys while the keyboard is owned by
// the screen: pressing Save again confirms, any other key declines.
// Without an answer within Timeout the dialog declines.
type KeyConfirmer struct {
	Keys    KeySource
	Out     io.Writer
	Timeout time.Duration
}

func (k KeyConfirmer) Confirm(title, message string) (bool, error) {
	out := k.Out
	if out == nil {
		out = os.Stdout
	}
	timeout := k.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	fmt.Fprint(out, pterm.Warning.Sprintfln("%s: %s  [s] yes, any other key no", title, message))

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		switch key := k.Keys.NextKey(); key {
		case babystep.KeyNone:
			time.Sleep(20 * time.Millisecond)
		case babystep.KeySave:
			return true, nil
		default:
			return false, nil
		}
	}
	fmt.Fprint(out, pterm.Info.Sprintln("no answer, not saved"))
	return false, nil
}
