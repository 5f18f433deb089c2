package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "Experienced engineer", limit: 0, expect: ""},
		{name: "shorter than limit", input: "Go", limit: 10, expect: "Go"},
		{name: "truncated", input: "Data Scientist", limit: 4, expect: "Data..."},
		{name: "trims whitespace first", input: "  profile  ", limit: 4, expect: "prof..."},
		{name: "counts runes", input: "Инженер данных", limit: 7, expect: "Инженер..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestWaitFor(t *testing.T) {
	original := after
	t.Cleanup(func() { after = original })

	var waited []time.Duration
	after = func(d time.Duration) <-chan time.Time {
		waited = append(waited, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	if err := WaitFor(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(waited) != 1 || waited[0] != 2*time.Second {
		t.Fatalf("unexpected waits: %v", waited)
	}

	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("zero duration must not wait: %v", err)
	}
	if len(waited) != 1 {
		t.Fatalf("zero duration must not start a timer, got %v", waited)
	}
}

func TestWaitForCanceled(t *testing.T) {
	original := after
	t.Cleanup(func() { after = original })

	// never fires
	after = func(time.Duration) <-chan time.Time { return make(chan time.Time) }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := WaitFor(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("zero wait on a canceled context must report it, got %v", err)
	}
}
