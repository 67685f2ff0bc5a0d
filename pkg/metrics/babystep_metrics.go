// Baby-step controller metrics definitions
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"io"
	"sync"
)

// BabystepMetrics holds the controller metrics
type BabystepMetrics struct {
	// Offsets
	PendingOffset   *Gauge
	ReferenceOffset *Gauge
	UnitSize        *Gauge

	// Actuator traffic
	ActuatorCalls   *Counter
	ActuatorErrors  *Counter
	ChunkMagnitude  *Histogram
	ClampedRequests *Counter

	// Operations
	Operations     *Counter
	ParamWrites    *Counter
	ParamCommits   *Counter
	SavesDeclined  *Counter
	ScreenSessions *Counter

	registry *Registry
}

// NewBabystepMetrics creates and registers all controller metrics
func NewBabystepMetrics() *BabystepMetrics {
	m := &BabystepMetrics{registry: NewRegistry()}

	m.PendingOffset = NewGauge("babystep_pending_offset_mm",
		"Accumulated baby-step offset applied to the Z axis")
	m.ReferenceOffset = NewGauge("babystep_reference_offset_mm",
		"Mirrored nozzle Z offset last written to the parameter store")
	m.UnitSize = NewGauge("babystep_unit_mm",
		"Currently selected baby-step increment")

	m.ActuatorCalls = NewCounter("babystep_actuator_calls_total",
		"Bounded deltas sent to the actuator")
	m.ActuatorErrors = NewCounter("babystep_actuator_errors_total",
		"Actuator calls that returned an error")
	m.ChunkMagnitude = NewHistogram("babystep_chunk_magnitude_mm",
		"Magnitude of each delta sent to the actuator",
		[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5})
	m.ClampedRequests = NewCounter("babystep_clamped_requests_total",
		"Adjustments shortened by the offset bounds")

	m.Operations = NewCounter("babystep_operations_total",
		"Controller operations by kind")
	m.ParamWrites = NewCounter("babystep_param_writes_total",
		"Reference offset writes to the parameter store")
	m.ParamCommits = NewCounter("babystep_param_commits_total",
		"Commits of the parameter store to persistent storage")
	m.SavesDeclined = NewCounter("babystep_saves_declined_total",
		"Save requests declined at the confirmation dialog")
	m.ScreenSessions = NewCounter("babystep_screen_sessions_total",
		"Times the baby-step screen was opened")

	for _, metric := range []Metric{
		m.PendingOffset, m.ReferenceOffset, m.UnitSize,
		m.ActuatorCalls, m.ActuatorErrors, m.ChunkMagnitude, m.ClampedRequests,
		m.Operations, m.ParamWrites, m.ParamCommits, m.SavesDeclined, m.ScreenSessions,
	} {
		m.registry.MustRegister(metric)
	}
	return m
}

// RecordChunk records one delta handed to the actuator
func (m *BabystepMetrics) RecordChunk(delta float64, err error) {
	m.ActuatorCalls.Inc(nil)
	if err != nil {
		m.ActuatorErrors.Inc(nil)
		return
	}
	if delta < 0 {
		delta = -delta
	}
	m.ChunkMagnitude.Observe(nil, delta)
}

// RecordOperation counts a controller operation
func (m *BabystepMetrics) RecordOperation(kind string) {
	m.Operations.Inc(Labels{"op": kind})
}

// SetOffsets updates the offset gauges
func (m *BabystepMetrics) SetOffsets(pending, reference float64) {
	m.PendingOffset.Set(nil, pending)
	m.ReferenceOffset.Set(nil, reference)
}

// Gather returns all metrics in Prometheus text format
func (m *BabystepMetrics) Gather() string {
	return m.registry.Gather()
}

// Export writes all metrics in Prometheus text format to w
func (m *BabystepMetrics) Export(w io.Writer) {
	m.registry.Export(w)
}

var globalMetrics *BabystepMetrics
var globalMetricsOnce sync.Once

// GlobalMetrics returns the process-wide metrics instance
func GlobalMetrics() *BabystepMetrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = NewBabystepMetrics()
	})
	return globalMetrics
}
