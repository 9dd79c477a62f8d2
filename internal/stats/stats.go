// Package stats records per-operation counters and latency quantiles for the
// document service.
//
// Latencies go into a DDSketch per operation, so quantiles stay within 1%
// relative error without keeping raw samples.
package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/xtxerr/docservice/internal/errors"
)

// relativeAccuracy of each latency sketch.
const relativeAccuracy = 0.01

// =============================================================================
// Operation Statistics
// =============================================================================

// OpStats tracks one operation. Counters are atomic; the sketch is guarded
// by mu.
type OpStats struct {
	Name string

	Total        atomic.Int64
	Failed       atomic.Int64
	ClientErrors atomic.Int64

	mu     sync.Mutex
	sketch *ddsketch.DDSketch
	maxMs  float64
}

func newOpStats(name string) *OpStats {
	sketch, err := ddsketch.NewDefaultDDSketch(relativeAccuracy)
	if err != nil {
		// Only reachable with an invalid accuracy constant.
		panic(err)
	}
	return &OpStats{Name: name, sketch: sketch}
}

func (s *OpStats) observe(d time.Duration, err error) {
	s.Total.Add(1)
	switch {
	case err == nil:
	case errors.IsValidation(err) || errors.IsNotFound(err):
		s.ClientErrors.Add(1)
	default:
		s.Failed.Add(1)
	}

	ms := float64(d) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}

	s.mu.Lock()
	_ = s.sketch.Add(ms)
	if ms > s.maxMs {
		s.maxMs = ms
	}
	s.mu.Unlock()
}

// OpSnapshot is a point-in-time copy of OpStats.
type OpSnapshot struct {
	Name         string  `json:"name"`
	Total        int64   `json:"total"`
	Failed       int64   `json:"failed"`
	ClientErrors int64   `json:"client_errors"`
	P50Ms        float64 `json:"p50_ms"`
	P90Ms        float64 `json:"p90_ms"`
	P99Ms        float64 `json:"p99_ms"`
	MaxMs        float64 `json:"max_ms"`
}

func (s *OpStats) snapshot() OpSnapshot {
	snap := OpSnapshot{
		Name:         s.Name,
		Total:        s.Total.Load(),
		Failed:       s.Failed.Load(),
		ClientErrors: s.ClientErrors.Load(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sketch.IsEmpty() {
		return snap
	}
	snap.P50Ms, _ = s.sketch.GetValueAtQuantile(0.50)
	snap.P90Ms, _ = s.sketch.GetValueAtQuantile(0.90)
	snap.P99Ms, _ = s.sketch.GetValueAtQuantile(0.99)
	snap.MaxMs = s.maxMs
	return snap
}

// =============================================================================
// Recorder
// =============================================================================

// Recorder holds statistics for every operation it has seen.
//
// Recorder is safe for concurrent use.
type Recorder struct {
	started time.Time

	mu  sync.RWMutex
	ops map[string]*OpStats
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{
		started: time.Now(),
		ops:     make(map[string]*OpStats),
	}
}

// Observe records one call of op that took d and returned err.
func (r *Recorder) Observe(op string, d time.Duration, err error) {
	r.get(op).observe(d, err)
}

// Since is shorthand for Observe(op, time.Since(start), err), for use with
// defer.
func (r *Recorder) Since(op string, start time.Time, err error) {
	r.Observe(op, time.Since(start), err)
}

func (r *Recorder) get(op string) *OpStats {
	r.mu.RLock()
	s, ok := r.ops[op]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.ops[op]; ok {
		return s
	}
	s = newOpStats(op)
	r.ops[op] = s
	return s
}

// Snapshot is the payload of /debug/stats.
type Snapshot struct {
	UptimeSec  int64        `json:"uptime_sec"`
	Operations []OpSnapshot `json:"operations"`
}

// Snapshot returns the current statistics ordered by operation name.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.RLock()
	ops := make([]*OpStats, 0, len(r.ops))
	for _, s := range r.ops {
		ops = append(ops, s)
	}
	r.mu.RUnlock()

	out := Snapshot{
		UptimeSec:  int64(time.Since(r.started).Seconds()),
		Operations: make([]OpSnapshot, 0, len(ops)),
	}
	for _, s := range ops {
		out.Operations = append(out.Operations, s.snapshot())
	}
	sort.Slice(out.Operations, func(i, j int) bool {
		return out.Operations[i].Name < out.Operations[j].Name
	})
	return out
}
