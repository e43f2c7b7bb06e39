package events

import (
	"testing"

	"go.uber.org/zap"
)

func TestPublisher_NilReceiverIsNoOp(t *testing.T) {
	var p *Publisher
	// Must not panic.
	p.Publish(SubjectPassCompleted, "pass_completed", nil)
}

func TestPublisher_NilJetStreamIsNoOp(t *testing.T) {
	p := New(nil, zap.NewNop())
	p.Publish(SubjectViolationDetected, "violation_detected", map[string]any{"uid": int64(1)})
}
