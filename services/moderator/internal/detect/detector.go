// Package detect consumes the harvest stream and turns pattern matches into
// ledger updates and pending platform actions.
package detect

import (
	"go.uber.org/zap"

	"github.com/example/moderation-platform/services/moderator/internal/events"
	"github.com/example/moderation-platform/services/moderator/internal/harvest"
	"github.com/example/moderation-platform/services/moderator/internal/ledger"
)

// blockThreshold is the violation count at which a user is queued for
// blocking. The trigger is deliberately "exactly equals", not ">=": a user
// whose count is already past the threshold was queued (and normally
// blocked and pinned to the sentinel) in an earlier pass.
const blockThreshold = 3

// Outcome summarizes one pass's detection phase. Removals and Blocks are
// FIFO in detection order and feed the action executor untouched.
type Outcome struct {
	Scanned  int
	Matched  int
	Removals []int64
	Blocks   []int64
}

// Detector is the single consumer of the harvest channel. It owns the
// ledger exclusively while running; nothing else may touch the ledger until
// Run returns.
type Detector struct {
	Log     *zap.Logger
	Matcher *Matcher
	Ledger  *ledger.Ledger
	Events  *events.Publisher
}

// Run drains items until the channel is closed, which is the harvester's
// completion signal. Items are processed strictly in emission order; the
// escalation rule is order-sensitive, so there is exactly one consumer.
func (d *Detector) Run(items <-chan harvest.Item) Outcome {
	var out Outcome
	for it := range items {
		out.Scanned++
		if !d.Matcher.Matches(it.Body) {
			continue
		}
		out.Matched++

		rec := d.Ledger.RecordViolation(it.UID, it.Username, it.RPID, it.Body)
		d.Log.Info("violation detected",
			zap.String("username", it.Username),
			zap.Int64("uid", it.UID),
			zap.Int64("rpid", it.RPID),
			zap.Int64("parent_rpid", it.ParentID),
			zap.Int("violation_count", rec.ViolationCount))
		d.Events.Publish(events.SubjectViolationDetected, "violation_detected", map[string]any{
			"uid":             it.UID,
			"rpid":            it.RPID,
			"violation_count": rec.ViolationCount,
		})

		out.Removals = append(out.Removals, it.RPID)
		if rec.ViolationCount == blockThreshold {
			out.Blocks = append(out.Blocks, it.UID)
		}
	}
	return out
}
