// Package metrics provides lightweight counters and timers for
// tracking bootstrap and runtime statistics of an instance.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one instance.
// A nil Collector is safe to use — all methods become no-ops.
type Collector struct {
	stepsRun          atomic.Int64
	targetsEnqueued   atomic.Int64
	interfacesStarted atomic.Int64
	forwardedItems    atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	timers       map[string]time.Duration
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{
		startTime: time.Now(),
		timers:    make(map[string]time.Duration),
	}
}

// ── Bootstrap metrics ────────────────────────────────────────────────

// StepRun records one completed bootstrap step.
func (c *Collector) StepRun() {
	if c == nil {
		return
	}
	c.stepsRun.Add(1)
}

// StepsRun returns the number of bootstrap steps completed so far.
func (c *Collector) StepsRun() int64 {
	if c == nil {
		return 0
	}
	return c.stepsRun.Load()
}

// Time records the elapsed duration of a named phase.  Repeated
// recordings under the same name accumulate.
func (c *Collector) Time(name string, d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.timers[name] += d
	c.mu.Unlock()
}

// Timed runs fn and accumulates its wall time under name.
func (c *Collector) Timed(name string, fn func() error) error {
	if c == nil {
		return fn()
	}
	start := time.Now()
	err := fn()
	c.Time(name, time.Since(start))
	return err
}

// ── Playlist metrics ─────────────────────────────────────────────────

// TargetEnqueued records one target added to the local playlist.
func (c *Collector) TargetEnqueued() {
	if c == nil {
		return
	}
	c.targetsEnqueued.Add(1)
}

// TargetsEnqueued returns the lifetime target count.
func (c *Collector) TargetsEnqueued() int64 {
	if c == nil {
		return 0
	}
	return c.targetsEnqueued.Load()
}

// ItemForwarded records one work item handed to a running peer.
func (c *Collector) ItemForwarded() {
	if c == nil {
		return
	}
	c.forwardedItems.Add(1)
}

// ItemsForwarded returns the lifetime forwarded item count.
func (c *Collector) ItemsForwarded() int64 {
	if c == nil {
		return 0
	}
	return c.forwardedItems.Load()
}

// ── Interface metrics ────────────────────────────────────────────────

// InterfaceStarted records one launched interface module.
func (c *Collector) InterfaceStarted() {
	if c == nil {
		return
	}
	c.interfacesStarted.Add(1)
}

// InterfacesStarted returns the lifetime interface count.
func (c *Collector) InterfacesStarted() int64 {
	if c == nil {
		return 0
	}
	return c.interfacesStarted.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Phase is one named timer in a snapshot.
type Phase struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
}

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string  `json:"uptime"`
	StepsRun          int64   `json:"steps_run"`
	TargetsEnqueued   int64   `json:"targets_enqueued"`
	InterfacesStarted int64   `json:"interfaces_started"`
	ForwardedItems    int64   `json:"forwarded_items"`
	ErrorsTotal       int64   `json:"errors_total"`
	Phases            []Phase `json:"phases,omitempty"`
	LastError         string  `json:"last_error,omitempty"`
	LastErrorMessage  string  `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.  Phases are sorted
// by name for stable output.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Millisecond).String(),
		StepsRun:          c.stepsRun.Load(),
		TargetsEnqueued:   c.targetsEnqueued.Load(),
		InterfacesStarted: c.interfacesStarted.Load(),
		ForwardedItems:    c.forwardedItems.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	for name, d := range c.timers {
		s.Phases = append(s.Phases, Phase{Name: name, Duration: d.String()})
	}
	sort.Slice(s.Phases, func(i, j int) bool { return s.Phases[i].Name < s.Phases[j].Name })
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
