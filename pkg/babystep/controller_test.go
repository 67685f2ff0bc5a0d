// Baby-step controller tests
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package babystep

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"babystep-go/pkg/errors"
	"babystep-go/pkg/metrics"
)

const tolerance = 1e-9

// fakeActuator records every delta it receives.
type fakeActuator struct {
	chunks []float64
	total  float64
}

func (a *fakeActuator) ApplyDelta(delta float64) error {
	a.chunks = append(a.chunks, delta)
	a.total += delta
	return nil
}

func (a *fakeActuator) TotalApplied() float64 { return a.total }

// fakeStore keeps parameters in a map and records writes.
type fakeStore struct {
	values      map[Axis]float64
	writes      []float64
	persistence bool
	commits     int
}

func newFakeStore(z float64) *fakeStore {
	return &fakeStore{values: map[Axis]float64{AxisZ: z}, persistence: true}
}

func (s *fakeStore) Read(_ ParamID, axis Axis) (float64, error) {
	return s.values[axis], nil
}

func (s *fakeStore) Write(_ ParamID, axis Axis, value float64) error {
	s.values[axis] = value
	s.writes = append(s.writes, value)
	return nil
}

func (s *fakeStore) PersistenceEnabled() bool { return s.persistence }

func (s *fakeStore) Commit() error {
	s.commits++
	return nil
}

type staticConfirmer bool

func (c staticConfirmer) Confirm(string, string) (bool, error) { return bool(c), nil }

func newTestController(t *testing.T, total, ref float64, limits Limits, opts ...Option) (*Controller, *fakeActuator, *fakeStore) {
	t.Helper()
	act := &fakeActuator{total: total}
	store := newFakeStore(ref)
	c, err := New(act, store, limits, opts...)
	require.NoError(t, err)
	return c, act, store
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

func TestLimitsValidate(t *testing.T) {
	tests := []struct {
		name   string
		limits Limits
		ok     bool
	}{
		{"default", DefaultLimits(), true},
		{"zero chunk", Limits{Min: -1, Max: 1, MaxChunk: 0}, false},
		{"negative chunk", Limits{Min: -1, Max: 1, MaxChunk: -1}, false},
		{"NaN chunk", Limits{Min: -1, Max: 1, MaxChunk: math.NaN()}, false},
		{"inverted range", Limits{Min: 1, Max: -1, MaxChunk: 1}, false},
		{"default outside", Limits{Min: -1, Max: 1, Default: 2, MaxChunk: 1}, false},
		{"degenerate range", Limits{Min: 0, Max: 0, Default: 0, MaxChunk: 0.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.limits.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, errors.ErrLimits), "got %v", err)
		})
	}
}

func TestNewRejectsBadLimits(t *testing.T) {
	_, err := New(&fakeActuator{}, newFakeStore(0), Limits{Min: -1, Max: 1, MaxChunk: 0})
	require.Error(t, err)
}

func TestNewSeedsFromCollaborators(t *testing.T) {
	c, act, store := newTestController(t, 0.25, -1.8, DefaultLimits())

	assert.InDelta(t, 0.25, c.Pending(), tolerance)
	assert.InDelta(t, -1.8, c.Reference(), tolerance)
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, act.chunks)
	assert.Empty(t, store.writes)
	assert.Equal(t, DefaultUnits[0], c.Unit())
}

func TestNewWrapsReadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockParameterStore(ctrl)
	act := NewMockActuator(ctrl)

	store.EXPECT().Read(ParamNozzleOffset, AxisZ).Return(0.0, stderrors.New("no reply"))

	_, err := New(act, store, DefaultLimits())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParamRead))
}

func TestDecompose(t *testing.T) {
	tests := []struct {
		total    float64
		maxChunk float64
		want     []float64
	}{
		{0.92, 0.5, []float64{0.5, 0.42}},
		{-0.92, 0.5, []float64{-0.5, -0.42}},
		{2.5, 1, []float64{1, 1, 0.5}},
		{3, 1, []float64{1, 1, 1}},
		{0.3, 1, []float64{0.3}},
		{0, 1, nil},
		{1e-9, 1, nil},
		{1.0000005, 1, []float64{1}},
		{2.0000008, 1, []float64{1, 1}},
		{1.0000000000001, 1, []float64{1}},
		{-1.000002, 1, []float64{-1, -0.000002}},
	}
	for _, tt := range tests {
		got := Decompose(tt.total, tt.maxChunk)
		require.Len(t, got, len(tt.want), "Decompose(%v, %v) = %v", tt.total, tt.maxChunk, got)
		if len(tt.want) > 0 {
			assert.InDeltaSlice(t, tt.want, got, tolerance)
		}
	}
}

func TestDecomposeConservesTotal(t *testing.T) {
	for _, maxChunk := range []float64{0.01, 0.1, 0.25, 0.5, 1} {
		for _, total := range []float64{-2.37, -1, -0.05, 0.01, 0.42, 0.99, 1.0000005, 1.5, 2.0000008, 4.2} {
			chunks := Decompose(total, maxChunk)
			assert.InDelta(t, total, sum(chunks), 1e-6, "total %v cap %v", total, maxChunk)
			for _, ch := range chunks {
				assert.LessOrEqual(t, math.Abs(ch), maxChunk)
				assert.Equal(t, math.Signbit(total), math.Signbit(ch))
			}
		}
	}
}

func TestResetInTwoChunks(t *testing.T) {
	limits := Limits{Min: -1, Max: 1, Default: 0, MaxChunk: 0.5}
	c, act, store := newTestController(t, 0.92, -1.5, limits)

	require.NoError(t, c.ResetToDefault())

	assert.InDeltaSlice(t, []float64{-0.5, -0.42}, act.chunks, tolerance)
	assert.InDelta(t, 0, c.Pending(), tolerance)
	assert.InDelta(t, -2.42, c.Reference(), tolerance)
	require.Len(t, store.writes, 1)
	assert.InDelta(t, -2.42, store.writes[0], tolerance)
	assert.Equal(t, StateIdle, c.State())
}

func TestResetIsIdempotent(t *testing.T) {
	c, act, store := newTestController(t, -0.73, 0, DefaultLimits())

	require.NoError(t, c.ResetToDefault())
	calls, writes := len(act.chunks), len(store.writes)

	require.NoError(t, c.ResetToDefault())
	assert.Len(t, act.chunks, calls)
	assert.Len(t, store.writes, writes)
	assert.InDelta(t, 0, c.Pending(), tolerance)
}

func TestResetToNonZeroDefault(t *testing.T) {
	limits := Limits{Min: -2, Max: 2, Default: 0.5, MaxChunk: 1}
	c, act, _ := newTestController(t, -1.75, 0, limits)

	require.NoError(t, c.ResetToDefault())
	assert.InDeltaSlice(t, []float64{1, 1, 0.25}, act.chunks, tolerance)
	assert.InDelta(t, 0.5, c.Pending(), tolerance)
	assert.InDelta(t, 2.25, c.Reference(), tolerance)
}

func TestAdjustStopsAtMax(t *testing.T) {
	c, act, _ := newTestController(t, 0.99, 0, DefaultLimits())

	require.NoError(t, c.AdjustBy(0.02, c.Limits().Max))
	require.Len(t, act.chunks, 1)
	assert.InDelta(t, 0.01, act.chunks[0], tolerance)
	assert.InDelta(t, 1.0, c.Pending(), tolerance)

	require.NoError(t, c.Increase())
	assert.Len(t, act.chunks, 1, "no actuator call at the bound")
}

func TestDecreaseStopsAtMin(t *testing.T) {
	c, act, store := newTestController(t, -1, 0.3, DefaultLimits())

	require.NoError(t, c.Decrease())
	assert.Empty(t, act.chunks)
	assert.Empty(t, store.writes)
	assert.InDelta(t, -1, c.Pending(), tolerance)
}

func TestAdjustIgnoresDeltaAwayFromBound(t *testing.T) {
	c, act, _ := newTestController(t, 0, 0, DefaultLimits())

	require.NoError(t, c.AdjustBy(-0.1, c.Limits().Max))
	assert.Empty(t, act.chunks)
}

func TestAdjustMirrorsReference(t *testing.T) {
	c, _, store := newTestController(t, 0, -1.2, DefaultLimits())

	require.NoError(t, c.Increase())
	require.NoError(t, c.Increase())
	require.NoError(t, c.Decrease())

	assert.InDelta(t, 0.01, c.Pending(), tolerance)
	assert.InDelta(t, -1.19, c.Reference(), tolerance)
	require.Len(t, store.writes, 3)
	assert.InDelta(t, c.Reference(), store.writes[2], tolerance)
}

func TestAdjustChunksLargeUnits(t *testing.T) {
	limits := Limits{Min: -5, Max: 5, Default: 0, MaxChunk: 0.5}
	c, act, _ := newTestController(t, 0, 0, limits, WithUnits(DefaultUnits, 2))

	require.NoError(t, c.Increase())
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, act.chunks, tolerance)
	assert.InDelta(t, 1, c.Pending(), tolerance)
}

func TestCycleUnitWraps(t *testing.T) {
	c, _, _ := newTestController(t, 0, 0, DefaultLimits())

	assert.InDelta(t, 0.1, c.CycleUnit().Size, tolerance)
	assert.InDelta(t, 1, c.CycleUnit().Size, tolerance)
	assert.InDelta(t, 0.01, c.CycleUnit().Size, tolerance)
	assert.Equal(t, 0, c.UnitIndex())
}

func TestCycleUnitLeavesOffsetsAlone(t *testing.T) {
	c, act, store := newTestController(t, 0.37, -1.25, DefaultLimits(), WithUnits(DefaultUnits, 1))

	for i := 0; i < len(DefaultUnits); i++ {
		c.CycleUnit()
		assert.Equal(t, 0.37, c.Pending())
		assert.Equal(t, -1.25, c.Reference())
	}
	assert.Equal(t, 1, c.UnitIndex())
	assert.Empty(t, act.chunks)
	assert.Empty(t, store.writes)
	assert.Equal(t, 0.37, act.TotalApplied())
}

func TestCycleUnitChangesIncrement(t *testing.T) {
	c, act, _ := newTestController(t, 0, 0, DefaultLimits())

	c.CycleUnit()
	require.NoError(t, c.Increase())
	assert.InDeltaSlice(t, []float64{0.1}, act.chunks, tolerance)
}

func TestApplyManualTick(t *testing.T) {
	c, act, store := newTestController(t, 0, 0.4, DefaultLimits(), WithUnits(DefaultUnits, 1))

	require.NoError(t, c.ApplyManualTick(3))
	assert.InDelta(t, 0.3, c.Pending(), tolerance)
	assert.InDelta(t, 0.7, c.Reference(), tolerance)

	require.NoError(t, c.ApplyManualTick(-5))
	assert.InDelta(t, -0.2, c.Pending(), tolerance)
	assert.Len(t, act.chunks, 2)
	assert.Len(t, store.writes, 2)

	require.NoError(t, c.ApplyManualTick(0))
	assert.Len(t, act.chunks, 2)
}

func TestApplyManualTickClampsToBounds(t *testing.T) {
	c, _, _ := newTestController(t, 0.8, 0, DefaultLimits(), WithUnits(DefaultUnits, 1))

	require.NoError(t, c.ApplyManualTick(7))
	assert.InDelta(t, 1, c.Pending(), tolerance)

	require.NoError(t, c.ApplyManualTick(-30))
	assert.InDelta(t, -1, c.Pending(), tolerance)
}

func TestSaveRequiresPersistence(t *testing.T) {
	ctrl := gomock.NewController(t)
	confirmer := NewMockConfirmer(ctrl)

	c, _, store := newTestController(t, 0, 0, DefaultLimits())
	store.persistence = false

	saved, err := c.Save(confirmer)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Zero(t, store.commits)
}

func TestSaveDeclined(t *testing.T) {
	m := metrics.NewBabystepMetrics()
	c, _, store := newTestController(t, 0, 0, DefaultLimits(), WithMetrics(m))

	saved, err := c.Save(staticConfirmer(false))
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Zero(t, store.commits)
	assert.Equal(t, uint64(1), m.SavesDeclined.Get(nil))
}

func TestSaveConfirmed(t *testing.T) {
	ctrl := gomock.NewController(t)
	confirmer := NewMockConfirmer(ctrl)
	confirmer.EXPECT().Confirm("Babystep", gomock.Any()).Return(true, nil)

	c, _, store := newTestController(t, 0, 0, DefaultLimits())

	saved, err := c.Save(confirmer)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, 1, store.commits)
}

func TestSaveCommitFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	act := NewMockActuator(ctrl)
	store := NewMockParameterStore(ctrl)

	act.EXPECT().TotalApplied().Return(0.0)
	store.EXPECT().Read(ParamNozzleOffset, AxisZ).Return(-1.0, nil)
	store.EXPECT().PersistenceEnabled().Return(true)
	store.EXPECT().Commit().Return(stderrors.New("eeprom busy"))

	c, err := New(act, store, DefaultLimits())
	require.NoError(t, err)

	saved, err := c.Save(staticConfirmer(true))
	assert.False(t, saved)
	assert.True(t, errors.Is(err, errors.ErrParamCommit))
}

func TestResetStopsOnActuatorError(t *testing.T) {
	ctrl := gomock.NewController(t)
	act := NewMockActuator(ctrl)
	store := NewMockParameterStore(ctrl)
	limits := Limits{Min: -3, Max: 3, Default: 0, MaxChunk: 1}

	act.EXPECT().TotalApplied().Return(2.5)
	store.EXPECT().Read(ParamNozzleOffset, AxisZ).Return(0.0, nil)
	gomock.InOrder(
		act.EXPECT().ApplyDelta(-1.0).Return(nil),
		act.EXPECT().ApplyDelta(-1.0).Return(stderrors.New("busy")),
	)
	store.EXPECT().Write(ParamNozzleOffset, AxisZ, -1.0).Return(nil)

	c, err := New(act, store, limits)
	require.NoError(t, err)

	err = c.ResetToDefault()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrActuator))
	assert.InDelta(t, 1.5, c.Pending(), tolerance)
	assert.InDelta(t, -1, c.Reference(), tolerance)
	assert.Equal(t, StateIdle, c.State())
}

func TestWriteFailureIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	act := NewMockActuator(ctrl)
	store := NewMockParameterStore(ctrl)

	act.EXPECT().TotalApplied().Return(0.0)
	store.EXPECT().Read(ParamNozzleOffset, AxisZ).Return(0.0, nil)
	act.EXPECT().ApplyDelta(0.01).Return(nil)
	store.EXPECT().Write(ParamNozzleOffset, AxisZ, 0.01).Return(stderrors.New("disk full"))

	c, err := New(act, store, DefaultLimits())
	require.NoError(t, err)

	err = c.Increase()
	assert.True(t, errors.Is(err, errors.ErrParamWrite))
	assert.InDelta(t, 0.01, c.Pending(), tolerance)
}

func TestFailedWriteIsRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	act := NewMockActuator(ctrl)
	store := NewMockParameterStore(ctrl)

	act.EXPECT().TotalApplied().Return(0.0)
	store.EXPECT().Read(ParamNozzleOffset, AxisZ).Return(0.0, nil)
	gomock.InOrder(
		act.EXPECT().ApplyDelta(0.01).Return(nil),
		store.EXPECT().Write(ParamNozzleOffset, AxisZ, 0.01).Return(stderrors.New("disk full")),
		store.EXPECT().Write(ParamNozzleOffset, AxisZ, 0.01).Return(nil),
	)

	c, err := New(act, store, DefaultLimits())
	require.NoError(t, err)

	require.Error(t, c.Increase())
	// No headroom toward the bound, so only the pending write goes out.
	require.NoError(t, c.AdjustBy(0.01, c.Pending()))
	// Nothing left to write.
	require.NoError(t, c.AdjustBy(0.01, c.Pending()))
	assert.InDelta(t, 0.01, c.Reference(), tolerance)
}

func TestPresenterRedrawSuppressed(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := NewMockPresenter(ctrl)

	c, _, _ := newTestController(t, 0, 0, DefaultLimits(), WithPresenter(p))

	p.EXPECT().ShowOffsets(gomock.Any(), gomock.Any()).Times(0)
	require.NoError(t, c.ResetToDefault())
	require.NoError(t, c.AdjustBy(-0.1, c.Limits().Max))
	require.NoError(t, c.ApplyManualTick(0))
}

func TestPresenterRedrawOnChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := NewMockPresenter(ctrl)

	c, _, _ := newTestController(t, 0, 0.5, DefaultLimits(), WithPresenter(p))

	p.EXPECT().ShowUnit(DefaultUnits[1])
	c.CycleUnit()

	p.EXPECT().ShowOffsets(gomock.Any(), gomock.Any()).Do(func(pending, reference float64) {
		assert.InDelta(t, 0.1, pending, tolerance)
		assert.InDelta(t, 0.6, reference, tolerance)
	})
	require.NoError(t, c.Increase())
}

func TestMetricsRecordChunks(t *testing.T) {
	m := metrics.NewBabystepMetrics()
	limits := Limits{Min: -1, Max: 1, Default: 0, MaxChunk: 0.5}
	c, _, _ := newTestController(t, 0.92, 0, limits, WithMetrics(m))

	require.NoError(t, c.ResetToDefault())
	require.NoError(t, c.AdjustBy(2, 1))

	assert.Equal(t, uint64(4), m.ActuatorCalls.Get(nil))
	assert.Equal(t, uint64(1), m.ClampedRequests.Get(nil))
	assert.Equal(t, uint64(1), m.Operations.Get(map[string]string{"op": "reset"}))
	assert.Equal(t, uint64(2), m.ParamWrites.Get(nil))
	assert.InDelta(t, 1, m.PendingOffset.Get(nil), tolerance)
}

func TestStatus(t *testing.T) {
	c, _, _ := newTestController(t, 0.2, -0.9, DefaultLimits())

	status := c.Status()
	assert.Equal(t, 0.2, status["pending_offset"])
	assert.Equal(t, -0.9, status["reference_offset"])
	assert.Equal(t, "0.01mm", status["unit_label"])
	assert.Equal(t, "idle", status["state"])
}
