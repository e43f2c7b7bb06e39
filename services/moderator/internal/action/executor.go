// Package action drains the pending removal and block queues against the
// platform, one call at a time with fixed spacing between calls.
package action

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/moderation-platform/services/moderator/internal/bili"
	"github.com/example/moderation-platform/services/moderator/internal/events"
	"github.com/example/moderation-platform/services/moderator/internal/ledger"
	"github.com/example/moderation-platform/services/moderator/internal/ratelimit"
)

// OperatorUID is the account running the moderation bot. It must never be
// blocked, whatever its violation count says.
const OperatorUID int64 = 621240130

const (
	defaultRemovalDelay = 500 * time.Millisecond
	defaultBlockDelay   = 100 * time.Millisecond
)

type Executor struct {
	Log      *zap.Logger
	Platform bili.Provider
	Ledger   *ledger.Ledger
	Events   *events.Publisher
	AID      int64

	// Spacing between successive actions in the same queue,
	// overridable so tests can zero them.
	RemovalDelay time.Duration
	BlockDelay   time.Duration
}

func New(log *zap.Logger, platform bili.Provider, led *ledger.Ledger, ev *events.Publisher, aid int64) *Executor {
	return &Executor{
		Log:          log,
		Platform:     platform,
		Ledger:       led,
		Events:       ev,
		AID:          aid,
		RemovalDelay: defaultRemovalDelay,
		BlockDelay:   defaultBlockDelay,
	}
}

// ExecuteRemovals deletes the queued comments in FIFO order. A failed
// delete is logged and skipped: the comment is still on the platform, so
// the next pass re-detects and re-queues it.
func (e *Executor) ExecuteRemovals(ctx context.Context, rpids []int64) int {
	pace := ratelimit.NewPacer(e.RemovalDelay)
	removed := 0
	for _, rpid := range rpids {
		if err := pace.Wait(ctx); err != nil {
			return removed
		}
		if err := e.Platform.DeleteComment(ctx, e.AID, rpid); err != nil {
			e.Log.Warn("comment removal failed", zap.Int64("rpid", rpid), zap.Error(err))
			continue
		}
		removed++
		e.Log.Info("comment removed", zap.Int64("rpid", rpid))
		e.Events.Publish(events.SubjectCommentRemoved, "comment_removed", map[string]any{"rpid": rpid})
	}
	return removed
}

// ExecuteBlocks blocks the queued users in FIFO order, skipping the
// operator allow-list. A successful block pins the user's ledger record to
// the blocked sentinel so later passes never re-escalate them.
func (e *Executor) ExecuteBlocks(ctx context.Context, uids []int64) int {
	pace := ratelimit.NewPacer(e.BlockDelay)
	blocked := 0
	for _, uid := range uids {
		if uid == OperatorUID {
			e.Log.Warn("refusing to block operator account", zap.Int64("uid", uid))
			continue
		}
		if err := pace.Wait(ctx); err != nil {
			return blocked
		}
		if err := e.Platform.BlockUser(ctx, uid); err != nil {
			e.Log.Warn("user block failed", zap.Int64("uid", uid), zap.Error(err))
			continue
		}
		e.Ledger.MarkBlocked(uid)
		blocked++
		e.Log.Info("user blocked", zap.Int64("uid", uid))
		e.Events.Publish(events.SubjectUserBlocked, "user_blocked", map[string]any{"uid": uid})
	}
	return blocked
}
