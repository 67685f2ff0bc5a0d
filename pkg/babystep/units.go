// Baby-step increment selection
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package babystep

import "fmt"

// Unit is one selectable baby-step increment.
type Unit struct {
	Size  float64 // mm per tick or key press
	Label string
	Icon  string
}

// DefaultUnits is the 0.01 / 0.1 / 1 mm selector used by the menu.
var DefaultUnits = []Unit{
	{Size: 0.01, Label: "0.01mm", Icon: "001_mm"},
	{Size: 0.1, Label: "0.1mm", Icon: "01_mm"},
	{Size: 1, Label: "1mm", Icon: "1_mm"},
}

// UnitsFromSizes builds a unit set from plain sizes, labelling each in mm.
func UnitsFromSizes(sizes []float64) []Unit {
	units := make([]Unit, 0, len(sizes))
	for _, s := range sizes {
		units = append(units, Unit{
			Size:  s,
			Label: fmt.Sprintf("%gmm", s),
			Icon:  fmt.Sprintf("%g_mm", s),
		})
	}
	return units
}

// unitSelector cycles through an ordered, non-empty unit set.
type unitSelector struct {
	units []Unit
	index int
}

func newUnitSelector(units []Unit, index int) unitSelector {
	if index < 0 || index >= len(units) {
		index = 0
	}
	return unitSelector{units: units, index: index}
}

func (u *unitSelector) current() Unit {
	return u.units[u.index]
}

func (u *unitSelector) next() Unit {
	u.index = (u.index + 1) % len(u.units)
	return u.units[u.index]
}
