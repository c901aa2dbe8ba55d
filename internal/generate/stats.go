package generate

import (
	"errors"
	"slices"
	"sync"
	"time"
)

// Outcome classifies a finished generation call.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeRetryable  Outcome = "retryable"
	OutcomeNoSections Outcome = "no_sections"
	OutcomeFailed     Outcome = "failed"
)

// OutcomeOf maps a Generate error to its outcome.
func OutcomeOf(err error) Outcome {
	var retryErr *RetryableError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &retryErr):
		return OutcomeRetryable
	case errors.Is(err, ErrNoSections):
		return OutcomeNoSections
	}
	return OutcomeFailed
}

type call struct {
	at      time.Time
	model   string
	ms      int64
	outcome Outcome
}

// ModelStats aggregates recent generation calls.
type ModelStats struct {
	Calls    int             `json:"calls"`
	Outcomes map[Outcome]int `json:"outcomes"`
	MinMs    int64           `json:"min_ms"`
	MaxMs    int64           `json:"max_ms"`
	AvgMs    float64         `json:"avg_ms"`
	P50Ms    float64         `json:"p50_ms"`
	P95Ms    float64         `json:"p95_ms"`
	P99Ms    float64         `json:"p99_ms"`
}

// StatsSnapshot holds totals across every model plus a breakdown per model.
type StatsSnapshot struct {
	ModelStats
	Models map[string]ModelStats `json:"models"`
}

// LLMStats keeps generation calls from a rolling window. Both clients record
// into it, so one instance can serve a server that switches providers. A nil
// *LLMStats ignores Record.
type LLMStats struct {
	mu     sync.Mutex
	calls  []call
	maxAge time.Duration
}

func NewLLMStats(maxAge time.Duration) *LLMStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LLMStats{calls: make([]call, 0, 256), maxAge: maxAge}
}

// Record adds one call to model that took d and ended with err.
func (s *LLMStats) Record(model string, d time.Duration, err error) {
	if s == nil {
		return
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	s.calls = append(s.calls, call{
		at:      now,
		model:   model,
		ms:      max(d.Milliseconds(), 0),
		outcome: OutcomeOf(err),
	})
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	now := time.Now()
	s.mu.Lock()
	s.pruneLocked(now)
	calls := slices.Clone(s.calls)
	s.mu.Unlock()

	byModel := make(map[string][]call)
	for _, c := range calls {
		byModel[c.model] = append(byModel[c.model], c)
	}
	snap := StatsSnapshot{
		ModelStats: aggregate(calls),
		Models:     make(map[string]ModelStats, len(byModel)),
	}
	for model, cs := range byModel {
		snap.Models[model] = aggregate(cs)
	}
	return snap
}

func (s *LLMStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	s.calls = slices.DeleteFunc(s.calls, func(c call) bool { return c.at.Before(cutoff) })
}

func aggregate(calls []call) ModelStats {
	st := ModelStats{Calls: len(calls), Outcomes: make(map[Outcome]int)}
	if len(calls) == 0 {
		return st
	}
	ms := make([]int64, len(calls))
	var sum int64
	for i, c := range calls {
		ms[i] = c.ms
		sum += c.ms
		st.Outcomes[c.outcome]++
	}
	slices.Sort(ms)
	st.MinMs = ms[0]
	st.MaxMs = ms[len(ms)-1]
	st.AvgMs = float64(sum) / float64(len(ms))
	st.P50Ms = percentile(ms, 50)
	st.P95Ms = percentile(ms, 95)
	st.P99Ms = percentile(ms, 99)
	return st
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := pct / 100 * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return float64(sorted[len(sorted)-1])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
