// Package harvest walks a video's comment section page by page and emits
// every comment and nested reply onto a channel as soon as it is fetched,
// so violation screening can overlap with the ongoing harvest.
package harvest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/moderation-platform/services/moderator/internal/bili"
	"github.com/example/moderation-platform/services/moderator/internal/ratelimit"
)

// Item is one harvested comment. ParentID is zero for top-level comments
// and the root comment's rpid for nested replies.
type Item struct {
	RPID     int64
	UID      int64
	Username string
	Body     string
	ParentID int64
}

// Default pacing between successive API reads. These are deliberately not
// configuration: they exist to stay under the platform's abuse-rate
// threshold, not to be tuned.
const (
	defaultPageDelay      = 500 * time.Millisecond
	defaultThreadDelay    = 800 * time.Millisecond
	defaultReplyPageDelay = time.Second
)

type Harvester struct {
	Log      *zap.Logger
	Source   bili.Provider
	AID      int64
	MaxPages int

	// Pacing intervals, overridable so tests can zero them.
	PageDelay      time.Duration
	ThreadDelay    time.Duration
	ReplyPageDelay time.Duration
}

func New(log *zap.Logger, src bili.Provider, aid int64, maxPages int) *Harvester {
	if maxPages <= 0 {
		maxPages = 5
	}
	return &Harvester{
		Log:            log,
		Source:         src,
		AID:            aid,
		MaxPages:       maxPages,
		PageDelay:      defaultPageDelay,
		ThreadDelay:    defaultThreadDelay,
		ReplyPageDelay: defaultReplyPageDelay,
	}
}

// Run performs one full harvest and closes out before returning. Each call
// starts over from page 1. A top-level pagination failure is returned and
// fails the pass; a failure inside one reply thread only abandons the
// remainder of that thread.
func (h *Harvester) Run(ctx context.Context, out chan<- Item) error {
	defer close(out)

	roots, err := h.harvestTopLevel(ctx, out)
	if err != nil {
		return err
	}

	threadPace := ratelimit.NewPacer(h.ThreadDelay)
	for _, root := range roots {
		if err := threadPace.Wait(ctx); err != nil {
			return err
		}
		if err := h.harvestThread(ctx, root, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.Log.Warn("reply thread fetch failed, skipping remainder",
				zap.Int64("root_rpid", root), zap.Error(err))
		}
	}
	return nil
}

// harvestTopLevel pages through top-level comments, emitting each and
// returning the rpids whose reply threads need a follow-up walk.
func (h *Harvester) harvestTopLevel(ctx context.Context, out chan<- Item) ([]int64, error) {
	pace := ratelimit.NewPacer(h.PageDelay)
	var roots []int64

	for page := 1; page <= h.MaxPages; page++ {
		if err := pace.Wait(ctx); err != nil {
			return nil, err
		}
		replies, err := h.Source.GetComments(ctx, h.AID, page)
		if err != nil {
			return nil, fmt.Errorf("top-level page %d: %w", page, err)
		}
		if len(replies) == 0 {
			h.Log.Info("top-level comments exhausted", zap.Int("pages", page-1))
			break
		}
		for _, r := range replies {
			if err := h.emit(ctx, out, Item{
				RPID:     r.RPID,
				UID:      r.MID,
				Username: r.Member.Uname,
				Body:     r.Content.Message,
			}); err != nil {
				return nil, err
			}
			if r.HasReplies() {
				roots = append(roots, r.RPID)
			}
		}
	}
	return roots, nil
}

// harvestThread pages through one comment's nested replies. The thread is
// finished when a page comes back short of the fixed page capacity.
func (h *Harvester) harvestThread(ctx context.Context, root int64, out chan<- Item) error {
	pace := ratelimit.NewPacer(h.ReplyPageDelay)
	total := 0

	for page := 1; ; page++ {
		if err := pace.Wait(ctx); err != nil {
			return err
		}
		replies, err := h.Source.GetReplies(ctx, h.AID, root, page)
		if err != nil {
			return fmt.Errorf("replies of %d page %d: %w", root, page, err)
		}
		if len(replies) == 0 {
			break
		}
		for _, r := range replies {
			if err := h.emit(ctx, out, Item{
				RPID:     r.RPID,
				UID:      r.MID,
				Username: r.Member.Uname,
				Body:     r.Content.Message,
				ParentID: root,
			}); err != nil {
				return err
			}
		}
		total += len(replies)
		if len(replies) < bili.ReplyPageSize {
			break
		}
	}

	h.Log.Debug("reply thread harvested", zap.Int64("root_rpid", root), zap.Int("replies", total))
	return nil
}

func (h *Harvester) emit(ctx context.Context, out chan<- Item, it Item) error {
	select {
	case out <- it:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
