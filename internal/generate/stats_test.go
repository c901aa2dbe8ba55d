package generate

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestLLMStats_Percentiles(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		stats.Record("claude", time.Duration(ms)*time.Millisecond, nil)
	}

	snap := stats.Snapshot()
	tests := []struct {
		name      string
		got, want float64
	}{
		{"calls", float64(snap.Calls), 5},
		{"min", float64(snap.MinMs), 100},
		{"max", float64(snap.MaxMs), 500},
		{"avg", snap.AvgMs, 300},
		{"p50", snap.P50Ms, 300},
		{"p95", snap.P95Ms, 480},
		{"p99", snap.P99Ms, 496},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
	}
}

func TestLLMStats_PerModelOutcomes(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record("claude", 100*time.Millisecond, nil)
	stats.Record("claude", 50*time.Millisecond, &RetryableError{StatusCode: 529})
	stats.Record("gpt-4o", 300*time.Millisecond, ErrNoSections)
	stats.Record("gpt-4o", 10*time.Millisecond, errors.New("bad request"))

	snap := stats.Snapshot()
	if snap.Calls != 4 || len(snap.Models) != 2 {
		t.Fatalf("expected 4 calls across 2 models, got %d across %d", snap.Calls, len(snap.Models))
	}
	claude := snap.Models["claude"]
	if claude.Calls != 2 || claude.Outcomes[OutcomeOK] != 1 || claude.Outcomes[OutcomeRetryable] != 1 {
		t.Errorf("unexpected claude stats: %+v", claude)
	}
	gpt := snap.Models["gpt-4o"]
	if gpt.MaxMs != 300 || gpt.Outcomes[OutcomeNoSections] != 1 || gpt.Outcomes[OutcomeFailed] != 1 {
		t.Errorf("unexpected gpt-4o stats: %+v", gpt)
	}
}

func TestLLMStats_PrunesExpiredCalls(t *testing.T) {
	stats := NewLLMStats(10 * time.Millisecond)
	stats.Record("claude", 100*time.Millisecond, nil)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Calls != 0 || len(snap.Models) != 0 {
		t.Fatalf("expected no calls after prune, got %+v", snap)
	}

	stats.Record("claude", -time.Second, nil)
	snap := stats.Snapshot()
	if snap.Calls != 1 || snap.MinMs != 0 {
		t.Errorf("expected one clamped call, got %+v", snap.ModelStats)
	}
}

func TestLLMStats_NilRecord(t *testing.T) {
	var stats *LLMStats
	stats.Record("claude", time.Second, nil)
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeOK},
		{&RetryableError{StatusCode: 429}, OutcomeRetryable},
		{ErrNoSections, OutcomeNoSections},
		{errors.New("x"), OutcomeFailed},
	}
	for _, tt := range tests {
		if got := OutcomeOf(tt.err); got != tt.want {
			t.Errorf("%v: expected %s, got %s", tt.err, tt.want, got)
		}
	}
}
