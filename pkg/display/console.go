// Terminal presenter for the baby-step screen
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"babystep-go/pkg/babystep"
)

// FormatOffset renders an offset the way the menu shows it: sign column,
// two decimals, six characters wide.
func FormatOffset(v float64) string {
	s := fmt.Sprintf("% 6.2f", v)
	if strings.TrimSpace(s) == "-0.00" {
		s = fmt.Sprintf("% 6.2f", 0.0)
	}
	return s
}

// Console draws the menu and offsets with pterm.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole writes to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// ShowPage draws the eight menu slots as two rows of four.
func (c *Console) ShowPage(page babystep.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := pterm.TableData{}
	for start := 0; start < len(page.Items); start += 4 {
		end := min(start+4, len(page.Items))
		row := make([]string, 0, 4)
		for _, item := range page.Items[start:end] {
			row = append(row, slotLabel(item))
		}
		rows = append(rows, row)
	}
	table, err := pterm.DefaultTable.WithBoxed().WithData(rows).Srender()
	if err != nil {
		fmt.Fprintf(c.w, "%s: %v\n", page.Title, err)
		return
	}
	fmt.Fprintln(c.w, pterm.DefaultBox.WithTitle(page.Title).WithTitleTopLeft().Sprint(table))
	fmt.Fprintln(c.w, pterm.FgGray.Sprint("keys: - + dec/inc  < > encoder  u unit  r reset  s save  q back"))
}

func slotLabel(item babystep.Item) string {
	if item.Key == babystep.KeyNone {
		return pterm.FgGray.Sprint("·")
	}
	return fmt.Sprintf("%s [%s]", item.Label, item.Key)
}

// ShowOffsets prints the pending and mirrored reference offsets.
func (c *Console) ShowOffsets(pending, reference float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.w, pterm.Info.Sprintfln("Z babystep %s mm   nozzle offset %s mm",
		pterm.FgCyan.Sprint(FormatOffset(pending)), FormatOffset(reference)))
}

// ShowUnit prints the selected increment.
func (c *Console) ShowUnit(unit babystep.Unit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.w, pterm.Info.Sprintfln("unit %s", pterm.FgYellow.Sprint(unit.Label)))
}

// Multi fans presenter calls out to several presenters in order.
type Multi []babystep.Presenter

func (m Multi) ShowPage(page babystep.Page) {
	for _, p := range m {
		p.ShowPage(page)
	}
}

func (m Multi) ShowOffsets(pending, reference float64) {
	for _, p := range m {
		p.ShowOffsets(pending, reference)
	}
}

func (m Multi) ShowUnit(unit babystep.Unit) {
	for _, p := range m {
		p.ShowUnit(unit)
	}
}
