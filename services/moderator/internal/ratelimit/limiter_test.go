package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestPacer_FirstWaitImmediate(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}
}

func TestPacer_ZeroIntervalNeverSleeps(t *testing.T) {
	p := NewPacer(0)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if time.Since(start) > time.Second {
		t.Fatal("zero-interval pacer slept")
	}
}

func TestPacer_CancelledContext(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Fatal("expected context error on second wait")
	}
}

func TestPacer_NilSafe(t *testing.T) {
	var p *Pacer
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("nil pacer: %v", err)
	}
}
