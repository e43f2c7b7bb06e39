package ratelimit

import (
	"context"
	"time"
)

// Pacer enforces a minimum spacing between successive operations.
// The first Wait returns immediately; later calls sleep out the remainder
// of the interval since the previous Wait returned.
type Pacer struct {
	interval time.Duration
	last     time.Time
}

// NewPacer creates a pacer with the given spacing. A non-positive interval
// yields a pacer whose Wait never sleeps, which tests rely on.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return nil
	}
	if !p.last.IsZero() {
		if remaining := p.interval - time.Since(p.last); remaining > 0 {
			t := time.NewTimer(remaining)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	p.last = time.Now()
	return nil
}
