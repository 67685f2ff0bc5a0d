// Z-axis baby-step offset controller
//
// Accumulates operator nudges into a pending offset, pushes every change
// into an actuator that only accepts bounded deltas, and keeps a mirrored
// reference offset in step with the persisted nozzle Z offset.
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package babystep

import (
	"math"

	"babystep-go/pkg/errors"
	"babystep-go/pkg/log"
	"babystep-go/pkg/metrics"
)

// offsetEpsilon is the smallest magnitude treated as a real offset. Chunk
// remainders below it are float residue from repeated subtraction.
const offsetEpsilon = 1e-6

// ParamID names a persisted machine parameter.
type ParamID string

// ParamNozzleOffset is the nozzle Z offset parameter.
const ParamNozzleOffset ParamID = "nozzle_offset"

// Axis selects the per-axis slot of a parameter.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Actuator applies bounded baby-step moves. Callers never pass a delta
// larger in magnitude than the configured chunk cap.
type Actuator interface {
	ApplyDelta(delta float64) error
	TotalApplied() float64
}

// ParameterStore reads and writes persisted machine parameters.
type ParameterStore interface {
	Read(param ParamID, axis Axis) (float64, error)
	Write(param ParamID, axis Axis, value float64) error
	// PersistenceEnabled reports whether Commit can make values survive a reboot.
	PersistenceEnabled() bool
	Commit() error
}

// Presenter renders the screen. Offsets are shown as "% 6.2f", right aligned.
type Presenter interface {
	ShowPage(page Page)
	ShowOffsets(pending, reference float64)
	ShowUnit(unit Unit)
}

// Confirmer asks the operator to confirm a persistence write.
type Confirmer interface {
	Confirm(title, message string) (bool, error)
}

// State is the controller's conceptual activity.
type State int

const (
	StateIdle State = iota
	StateAdjusting
	StateResetting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAdjusting:
		return "adjusting"
	case StateResetting:
		return "resetting"
	default:
		return "unknown"
	}
}

// Limits bounds the pending offset and the per-call actuator move.
type Limits struct {
	Min      float64
	Max      float64
	Default  float64
	MaxChunk float64
}

// DefaultLimits matches the stock touch-screen firmware: +/-1 mm around
// zero, at most 1 mm per actuator call.
func DefaultLimits() Limits {
	return Limits{Min: -1, Max: 1, Default: 0, MaxChunk: 1}
}

// Validate checks that the limits describe a usable range.
func (l Limits) Validate() error {
	switch {
	case !(l.MaxChunk > 0):
		return errors.LimitsError("max chunk must be above 0")
	case l.Min > l.Max:
		return errors.LimitsError("min must not exceed max")
	case l.Default < l.Min || l.Default > l.Max:
		return errors.LimitsError("default must lie within [min, max]")
	}
	return nil
}

// Controller owns the baby-step state for one screen session.
type Controller struct {
	actuator  Actuator
	store     ParameterStore
	presenter Presenter
	limits    Limits
	units     unitSelector

	pending   float64
	reference float64
	shown     float64
	// unsaved is set while the store lacks the current reference.
	unsaved bool
	state   State

	log     *log.Logger
	metrics *metrics.BabystepMetrics
}

// Option configures a Controller.
type Option func(*Controller)

// WithPresenter sets the renderer for offsets and the unit indicator.
func WithPresenter(p Presenter) Option {
	return func(c *Controller) { c.presenter = p }
}

// WithUnits replaces the unit set and selects index.
func WithUnits(units []Unit, index int) Option {
	return func(c *Controller) {
		if len(units) > 0 {
			c.units = newUnitSelector(units, index)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithMetrics enables metric recording.
func WithMetrics(m *metrics.BabystepMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// New creates a controller seeded from the actuator's running total and the
// persisted nozzle Z offset.
func New(actuator Actuator, store ParameterStore, limits Limits, opts ...Option) (*Controller, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		actuator:  actuator,
		store:     store,
		presenter: nopPresenter{},
		limits:    limits,
		units:     newUnitSelector(DefaultUnits, 0),
		log:       log.GetLogger("babystep"),
	}
	for _, opt := range opts {
		opt(c)
	}

	ref, err := store.Read(ParamNozzleOffset, AxisZ)
	if err != nil {
		return nil, errors.ParamReadError(string(ParamNozzleOffset), string(AxisZ), err)
	}
	c.pending = actuator.TotalApplied()
	c.reference = ref
	c.shown = c.pending

	if c.pending < limits.Min || c.pending > limits.Max {
		c.log.WithFields(log.Fields{
			"pending": c.pending,
			"min":     limits.Min,
			"max":     limits.Max,
		}).Warn("actuator total outside offset bounds")
	}
	if c.metrics != nil {
		c.metrics.SetOffsets(c.pending, c.reference)
		c.metrics.UnitSize.Set(nil, c.units.current().Size)
	}
	return c, nil
}

// Pending returns the accumulated baby-step offset.
func (c *Controller) Pending() float64 { return c.pending }

// Reference returns the mirrored persisted nozzle Z offset.
func (c *Controller) Reference() float64 { return c.reference }

// Unit returns the selected increment.
func (c *Controller) Unit() Unit { return c.units.current() }

// UnitIndex returns the position of the selected increment.
func (c *Controller) UnitIndex() int { return c.units.index }

// Limits returns the configured limits.
func (c *Controller) Limits() Limits { return c.limits }

// State returns the current activity.
func (c *Controller) State() State { return c.state }

// Increase nudges the offset up by one unit, stopping at Max.
func (c *Controller) Increase() error {
	return c.AdjustBy(c.units.current().Size, c.limits.Max)
}

// Decrease nudges the offset down by one unit, stopping at Min.
func (c *Controller) Decrease() error {
	return c.AdjustBy(-c.units.current().Size, c.limits.Min)
}

// AdjustBy moves the offset by delta without crossing bound. The move is
// shortened to the remaining headroom and is a no-op at the bound.
func (c *Controller) AdjustBy(delta, bound float64) error {
	c.begin(StateAdjusting, "adjust")
	defer c.end()

	applied := c.clampToBound(delta, bound)
	if applied == 0 {
		return c.mirrorAndPersist()
	}
	done, err := c.push(applied)
	c.pending += done
	c.reference += done
	if serr := c.mirrorAndPersist(); err == nil {
		err = serr
	}
	return err
}

// clampToBound returns delta shortened so pending+delta does not pass bound.
func (c *Controller) clampToBound(delta, bound float64) float64 {
	headroom := bound - c.pending
	if delta == 0 || headroom == 0 || math.Signbit(headroom) != math.Signbit(delta) {
		return 0
	}
	if math.Abs(delta) <= math.Abs(headroom) {
		return delta
	}
	if c.metrics != nil {
		c.metrics.ClampedRequests.Inc(nil)
	}
	return headroom
}

// CycleUnit selects the next increment, wrapping after the last one.
func (c *Controller) CycleUnit() Unit {
	c.recordOp("cycle_unit")
	u := c.units.next()
	c.presenter.ShowUnit(u)
	if c.metrics != nil {
		c.metrics.UnitSize.Set(nil, u.Size)
	}
	c.log.Debug("unit %s selected", u.Label)
	return u
}

// ApplyManualTick applies ticks encoder detents of the selected unit.
// The move is clamped to [Min, Max] and mirrored into the reference offset
// like any other adjustment.
func (c *Controller) ApplyManualTick(ticks int) error {
	if ticks == 0 {
		return nil
	}
	delta := float64(ticks) * c.units.current().Size
	bound := c.limits.Max
	if delta < 0 {
		bound = c.limits.Min
	}
	return c.AdjustBy(delta, bound)
}

// ResetToDefault drives the offset back to Default through a sequence of
// capped actuator moves. It is a no-op when already at Default.
func (c *Controller) ResetToDefault() error {
	target := c.pending - c.limits.Default
	if math.Abs(target) <= offsetEpsilon {
		return c.mirrorAndPersist()
	}
	c.begin(StateResetting, "reset")
	defer c.end()

	done, err := c.push(-target)
	c.pending += done
	c.reference += done
	c.log.WithFields(log.Fields{
		"applied": done,
		"pending": c.pending,
	}).Info("offset reset to default")
	if serr := c.mirrorAndPersist(); err == nil {
		err = serr
	}
	return err
}

// Save commits the stored parameters after the operator confirms. It
// returns false when persistence is unavailable or the operator declines.
func (c *Controller) Save(confirmer Confirmer) (bool, error) {
	if !c.store.PersistenceEnabled() {
		return false, nil
	}
	ok, err := confirmer.Confirm("Babystep", "Save settings to EEPROM?")
	if err != nil {
		return false, err
	}
	if !ok {
		if c.metrics != nil {
			c.metrics.SavesDeclined.Inc(nil)
		}
		return false, nil
	}
	if err := c.store.Commit(); err != nil {
		return false, errors.ParamCommitError(err)
	}
	if c.metrics != nil {
		c.metrics.ParamCommits.Inc(nil)
	}
	c.log.Info("nozzle offset %.2f committed", c.reference)
	return true, nil
}

// Redraw forces both offset fields and the unit indicator to be drawn.
func (c *Controller) Redraw() {
	c.shown = c.pending
	c.presenter.ShowOffsets(c.pending, c.reference)
	c.presenter.ShowUnit(c.units.current())
}

// Status returns a snapshot for status queries.
func (c *Controller) Status() map[string]any {
	u := c.units.current()
	return map[string]any{
		"pending_offset":   c.pending,
		"reference_offset": c.reference,
		"unit":             u.Size,
		"unit_label":       u.Label,
		"unit_index":       c.units.index,
		"state":            c.state.String(),
		"min":              c.limits.Min,
		"max":              c.limits.Max,
		"default":          c.limits.Default,
	}
}

// push sends delta to the actuator as capped chunks and returns the total
// actually applied. On error the total covers only the chunks that succeeded.
func (c *Controller) push(delta float64) (float64, error) {
	var done float64
	for _, chunk := range Decompose(delta, c.limits.MaxChunk) {
		err := c.actuator.ApplyDelta(chunk)
		if c.metrics != nil {
			c.metrics.RecordChunk(chunk, err)
		}
		if err != nil {
			c.log.WithField("delta", chunk).WithError(err).Error("actuator rejected chunk")
			return done, errors.ActuatorError(chunk, err)
		}
		done += chunk
	}
	return done, nil
}

// mirrorAndPersist ends every mutating operation: when the pending offset
// moved it redraws, and it writes the mirrored reference to the store until
// a write succeeds.
func (c *Controller) mirrorAndPersist() error {
	moved := c.pending != c.shown
	if !moved && !c.unsaved {
		return nil
	}
	if moved {
		c.shown = c.pending
		c.presenter.ShowOffsets(c.pending, c.reference)
		if c.metrics != nil {
			c.metrics.SetOffsets(c.pending, c.reference)
		}
	}
	if c.metrics != nil {
		c.metrics.ParamWrites.Inc(nil)
	}
	if err := c.store.Write(ParamNozzleOffset, AxisZ, c.reference); err != nil {
		c.unsaved = true
		return errors.ParamWriteError(string(ParamNozzleOffset), string(AxisZ), c.reference, err)
	}
	c.unsaved = false
	return nil
}

func (c *Controller) begin(s State, op string) {
	c.state = s
	c.recordOp(op)
}

func (c *Controller) end() {
	c.state = StateIdle
}

func (c *Controller) recordOp(op string) {
	if c.metrics != nil {
		c.metrics.RecordOperation(op)
	}
}

// Decompose splits total into actuator moves of at most maxChunk each, full
// chunks first and the remainder last, all carrying the sign of total.
// Remainders below offsetEpsilon are dropped. maxChunk must be above zero.
func Decompose(total, maxChunk float64) []float64 {
	if math.Abs(total) <= offsetEpsilon {
		return nil
	}
	sign := 1.0
	if total < 0 {
		sign = -1
	}
	magnitude := math.Abs(total)

	var chunks []float64
	for magnitude > maxChunk {
		chunks = append(chunks, sign*maxChunk)
		magnitude -= maxChunk
	}
	if magnitude > offsetEpsilon {
		chunks = append(chunks, sign*math.Min(magnitude, maxChunk))
	}
	return chunks
}

type nopPresenter struct{}

func (nopPresenter) ShowPage(Page)                {}
func (nopPresenter) ShowOffsets(float64, float64) {}
func (nopPresenter) ShowUnit(Unit)                {}
