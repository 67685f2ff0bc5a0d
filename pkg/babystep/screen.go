// Baby-step menu screen
//
// Maps the eight-key menu and the rotary encoder onto controller
// operations. A Screen outlives individual sessions: the selected unit is
// kept between Open calls while offsets are re-read on every Open.
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package babystep

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"

	"babystep-go/pkg/errors"
	"babystep-go/pkg/log"
	"babystep-go/pkg/metrics"
)

// Key is a menu key press.
type Key int

const (
	KeyNone Key = iota
	KeyDecrease
	KeyIncrease
	KeySave
	KeyUnit
	KeyReset
	KeyBack
)

var keyNames = map[Key]string{
	KeyNone:     "none",
	KeyDecrease: "decrease",
	KeyIncrease: "increase",
	KeySave:     "save",
	KeyUnit:     "unit",
	KeyReset:    "reset",
	KeyBack:     "back",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKey maps a key name back to a Key.
func ParseKey(name string) (Key, bool) {
	for k, n := range keyNames {
		if n == name {
			return k, true
		}
	}
	return KeyNone, false
}

// InputDevice delivers key presses and encoder detents.
type InputDevice interface {
	// NextKey returns the next pending key, or KeyNone.
	NextKey() Key
	// ConsumeTicks returns and clears the accumulated encoder detents.
	ConsumeTicks() int
}

// Item is one menu slot.
type Item struct {
	Key   Key
	Icon  string
	Label string
}

// Page is the menu layout handed to the presenter.
type Page struct {
	Title string
	Items []Item
}

// ScreenConfig holds everything a Screen needs to open sessions.
type ScreenConfig struct {
	Actuator  Actuator
	Store     ParameterStore
	Presenter Presenter
	Confirmer Confirmer
	Input     InputDevice
	Limits    Limits
	Units     []Unit
	// UnitIndex selects the unit of the first session.
	UnitIndex int

	// FriendlyLabels shows "Down"/"Up" instead of "Dec"/"Inc".
	FriendlyLabels bool

	Logger  *log.Logger
	Metrics *metrics.BabystepMetrics
}

// Screen runs baby-step sessions.
type Screen struct {
	cfg       ScreenConfig
	unitIndex int

	mu         sync.Mutex
	controller *Controller
	session    string
	log        *log.Logger
}

// NewScreen creates a screen. No session is open until Open is called.
func NewScreen(cfg ScreenConfig) (*Screen, error) {
	if cfg.Actuator == nil || cfg.Store == nil || cfg.Input == nil {
		return nil, errors.RuntimeErrorInit("screen", "actuator, store and input are required")
	}
	if len(cfg.Units) == 0 {
		cfg.Units = DefaultUnits
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, err
	}
	if cfg.Presenter == nil {
		cfg.Presenter = nopPresenter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger("screen")
	}
	if cfg.UnitIndex < 0 || cfg.UnitIndex >= len(cfg.Units) {
		return nil, errors.RuntimeErrorInit("screen", "unit index out of range")
	}
	return &Screen{cfg: cfg, unitIndex: cfg.UnitIndex, log: cfg.Logger}, nil
}

// Open starts a session, seeding a new controller from the actuator total
// and the stored nozzle offset.
func (s *Screen) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.controller != nil {
		return nil
	}
	s.session = xid.New().String()
	s.log = s.cfg.Logger.With("session", s.session)

	opts := []Option{
		WithPresenter(s.cfg.Presenter),
		WithUnits(s.cfg.Units, s.unitIndex),
		WithLogger(s.log),
	}
	if s.cfg.Metrics != nil {
		opts = append(opts, WithMetrics(s.cfg.Metrics))
		s.cfg.Metrics.ScreenSessions.Inc(nil)
	}
	c, err := New(s.cfg.Actuator, s.cfg.Store, s.cfg.Limits, opts...)
	if err != nil {
		return err
	}
	s.controller = c

	// Encoder motion before the screen opened is discarded.
	s.cfg.Input.ConsumeTicks()

	s.draw()
	s.log.WithFields(log.Fields{
		"pending":   c.Pending(),
		"reference": c.Reference(),
		"unit":      c.Unit().Label,
	}).Info("babystep screen opened")
	return nil
}

// Close ends the session. The unit selection survives for the next Open.
func (s *Screen) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Screen) closeLocked() {
	if s.controller == nil {
		return
	}
	s.unitIndex = s.controller.UnitIndex()
	s.log.Info("babystep screen closed at %.2f", s.controller.Pending())
	s.controller = nil
	s.session = ""
}

// IsOpen reports whether a session is active.
func (s *Screen) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller != nil
}

// Session returns the current session id, empty when closed.
func (s *Screen) Session() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Poll handles one input event. It returns false once the screen closed.
func (s *Screen) Poll() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.controller
	if c == nil {
		return false, nil
	}

	var err error
	switch key := s.cfg.Input.NextKey(); key {
	case KeyDecrease:
		err = c.Decrease()
	case KeyIncrease:
		err = c.Increase()
	case KeySave:
		if !s.cfg.Store.PersistenceEnabled() || s.cfg.Confirmer == nil {
			break
		}
		var saved bool
		saved, err = c.Save(s.cfg.Confirmer)
		if err == nil && !saved {
			s.log.Debug("save declined")
		}
		// The dialog covered the menu.
		s.draw()
	case KeyUnit:
		c.CycleUnit()
		s.unitIndex = c.UnitIndex()
	case KeyReset:
		err = c.ResetToDefault()
	case KeyBack:
		s.closeLocked()
		return false, nil
	default:
		if ticks := s.cfg.Input.ConsumeTicks(); ticks != 0 {
			err = c.ApplyManualTick(ticks)
		}
	}
	return true, err
}

// Run opens a session and polls input every interval until Back is pressed
// or ctx is done. Operation errors are logged and the session continues.
func (s *Screen) Run(ctx context.Context, interval time.Duration) error {
	if err := s.Open(); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return ctx.Err()
		case <-ticker.C:
			for {
				open, err := s.Poll()
				if err != nil {
					s.logger().WithError(err).Error("babystep operation failed")
				}
				if !open {
					return nil
				}
				if !s.pending() {
					break
				}
			}
		}
	}
}

// pending reports whether the input device likely has more queued keys.
func (s *Screen) pending() bool {
	if q, ok := s.cfg.Input.(interface{ Pending() int }); ok {
		return q.Pending() > 0
	}
	return false
}

func (s *Screen) logger() *log.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log
}

// Status returns the controller snapshot with session details.
func (s *Screen) Status() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.controller == nil {
		return map[string]any{
			"open":       false,
			"unit_index": s.unitIndex,
		}
	}
	status := s.controller.Status()
	status["open"] = true
	status["session"] = s.session
	status["persistence"] = s.cfg.Store.PersistenceEnabled()
	return status
}

// Page returns the menu layout for the current unit selection.
func (s *Screen) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page()
}

func (s *Screen) page() Page {
	dec := Item{Key: KeyDecrease, Icon: "dec", Label: "Dec"}
	inc := Item{Key: KeyIncrease, Icon: "inc", Label: "Inc"}
	if s.cfg.FriendlyLabels {
		dec = Item{Key: KeyDecrease, Icon: "nozzle_down", Label: "Down"}
		inc = Item{Key: KeyIncrease, Icon: "nozzle_up", Label: "Up"}
	}
	save := Item{Key: KeyNone, Icon: "background"}
	if s.cfg.Store.PersistenceEnabled() {
		save = Item{Key: KeySave, Icon: "eeprom_save", Label: "Save"}
	}
	unit := s.cfg.Units[s.unitIndex]
	if s.controller != nil {
		unit = s.controller.Unit()
	}
	return Page{
		Title: "Babystep",
		Items: []Item{
			dec,
			{Key: KeyNone, Icon: "background"},
			{Key: KeyNone, Icon: "background"},
			inc,
			save,
			{Key: KeyUnit, Icon: unit.Icon, Label: unit.Label},
			{Key: KeyReset, Icon: "reset_value", Label: "Reset"},
			{Key: KeyBack, Icon: "back", Label: "Back"},
		},
	}
}

func (s *Screen) draw() {
	s.cfg.Presenter.ShowPage(s.page())
	s.controller.Redraw()
}
