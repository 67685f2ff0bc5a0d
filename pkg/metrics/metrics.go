// Metrics collection for the baby-step controller
//
// Counters, gauges and histograms keyed by label set, rendered in the
// Prometheus text exposition format. Series are written in label order so
// the output is stable between scrapes.
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// MetricType is the exposition type of a metric
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
	TypeHistogram
)

var typeNames = [...]string{"counter", "gauge", "histogram"}

func (t MetricType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Labels represents metric labels as key-value pairs
type Labels map[string]string

func (l Labels) keys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// key identifies a label set inside a metric
func (l Labels) key() string {
	var sb strings.Builder
	for _, k := range l.keys() {
		sb.WriteString(k)
		sb.WriteByte(0)
		sb.WriteString(l[k])
		sb.WriteByte(0)
	}
	return sb.String()
}

func (l Labels) with(key, value string) Labels {
	out := make(Labels, len(l)+1)
	for k, v := range l {
		out[k] = v
	}
	out[key] = value
	return out
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// formatLabels renders {a="1",b="2"}, or nothing for an empty set
func formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, k := range labels.keys() {
		parts = append(parts, k+`="`+labelEscaper.Replace(labels[k])+`"`)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Metric is implemented by every metric kind
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	Write(w io.Writer)
}

// desc carries the parts shared by all metric kinds
type desc struct {
	name string
	help string
	kind MetricType
}

func (d desc) Name() string     { return d.name }
func (d desc) Help() string     { return d.help }
func (d desc) Type() MetricType { return d.kind }

func (d desc) header(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", d.name, d.help, d.name, d.kind)
}

// series is the per-label-set storage of one metric
type series[V any] struct {
	mu   sync.Mutex
	data map[string]*entry[V]
}

type entry[V any] struct {
	labels Labels
	value  V
}

// update runs fn on the entry for labels, creating it with init if needed
func (s *series[V]) update(labels Labels, init func() V, fn func(*V)) {
	k := labels.key()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]*entry[V])
	}
	e, ok := s.data[k]
	if !ok {
		e = &entry[V]{labels: labels, value: init()}
		s.data[k] = e
	}
	fn(&e.value)
}

func (s *series[V]) get(labels Labels, read func(V)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[labels.key()]
	if ok {
		read(e.value)
	}
	return ok
}

// each visits entries in label-key order
func (s *series[V]) each(fn func(Labels, V)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn(s.data[k].labels, s.data[k].value)
	}
}

func zeroOf[V any]() V {
	var v V
	return v
}

// Counter is a monotonically increasing metric
type Counter struct {
	desc
	values series[uint64]
}

// NewCounter creates a new counter metric
func NewCounter(name, help string) *Counter {
	return &Counter{desc: desc{name, help, TypeCounter}}
}

// Inc increments the counter by 1
func (c *Counter) Inc(labels Labels) { c.Add(labels, 1) }

// Add increments the counter by delta
func (c *Counter) Add(labels Labels, delta uint64) {
	c.values.update(labels, zeroOf[uint64], func(v *uint64) { *v += delta })
}

// Get returns the current value for labels
func (c *Counter) Get(labels Labels) uint64 {
	var out uint64
	c.values.get(labels, func(v uint64) { out = v })
	return out
}

func (c *Counter) Write(w io.Writer) {
	c.header(w)
	c.values.each(func(l Labels, v uint64) {
		fmt.Fprintf(w, "%s%s %d\n", c.name, formatLabels(l), v)
	})
}

// Gauge is a metric that can go up and down
type Gauge struct {
	desc
	values series[float64]
}

// NewGauge creates a new gauge metric
func NewGauge(name, help string) *Gauge {
	return &Gauge{desc: desc{name, help, TypeGauge}}
}

// Set sets the gauge
func (g *Gauge) Set(labels Labels, value float64) {
	g.values.update(labels, zeroOf[float64], func(v *float64) { *v = value })
}

// Add adds delta to the gauge
func (g *Gauge) Add(labels Labels, delta float64) {
	g.values.update(labels, zeroOf[float64], func(v *float64) { *v += delta })
}

// Get returns the current value for labels
func (g *Gauge) Get(labels Labels) float64 {
	var out float64
	g.values.get(labels, func(v float64) { out = v })
	return out
}

func (g *Gauge) Write(w io.Writer) {
	g.header(w)
	g.values.each(func(l Labels, v float64) {
		fmt.Fprintf(w, "%s%s %s\n", g.name, formatLabels(l), formatFloat(v))
	})
}

// Histogram tracks the distribution of observations
type Histogram struct {
	desc
	bounds []float64
	values series[histogramData]
}

type histogramData struct {
	count  uint64
	sum    float64
	counts []uint64 // per bucket, not cumulative
}

// NewHistogram creates a histogram with the given bucket upper bounds
func NewHistogram(name, help string, bounds []float64) *Histogram {
	sorted := append([]float64(nil), bounds...)
	sort.Float64s(sorted)
	return &Histogram{desc: desc{name, help, TypeHistogram}, bounds: sorted}
}

// Observe records one value
func (h *Histogram) Observe(labels Labels, value float64) {
	init := func() histogramData {
		return histogramData{counts: make([]uint64, len(h.bounds))}
	}
	h.values.update(labels, init, func(d *histogramData) {
		d.count++
		d.sum += value
		if i := sort.SearchFloat64s(h.bounds, value); i < len(h.bounds) {
			d.counts[i]++
		}
	})
}

// Count returns how many observations were recorded for labels
func (h *Histogram) Count(labels Labels) uint64 {
	var out uint64
	h.values.get(labels, func(d histogramData) { out = d.count })
	return out
}

func (h *Histogram) Write(w io.Writer) {
	h.header(w)
	h.values.each(func(l Labels, d histogramData) {
		var cumulative uint64
		for i, bound := range h.bounds {
			cumulative += d.counts[i]
			fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, formatLabels(l.with("le", formatFloat(bound))), cumulative)
		}
		fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, formatLabels(l.with("le", "+Inf")), d.count)
		fmt.Fprintf(w, "%s_sum%s %s\n", h.name, formatLabels(l), formatFloat(d.sum))
		fmt.Fprintf(w, "%s_count%s %d\n", h.name, formatLabels(l), d.count)
	})
}

// Registry holds metrics in registration order
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Metric
	ordered []Metric
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Metric)}
}

// Register adds a metric; names must be unique
func (r *Registry) Register(m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[m.Name()]; dup {
		return fmt.Errorf("metric %q already registered", m.Name())
	}
	r.byName[m.Name()] = m
	r.ordered = append(r.ordered, m)
	return nil
}

// MustRegister is Register that panics on error
func (r *Registry) MustRegister(m Metric) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Export writes every metric in text format
func (r *Registry) Export(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.ordered {
		m.Write(w)
	}
}

// Gather returns every metric in text format
func (r *Registry) Gather() string {
	var sb strings.Builder
	r.Export(&sb)
	return sb.String()
}
