// Package pass coordinates one full moderation cycle (harvest, detect,
// drain, persist, act) and repeats it on a fixed interval.
package pass

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/moderation-platform/services/moderator/internal/action"
	"github.com/example/moderation-platform/services/moderator/internal/detect"
	"github.com/example/moderation-platform/services/moderator/internal/events"
	"github.com/example/moderation-platform/services/moderator/internal/harvest"
	"github.com/example/moderation-platform/services/moderator/internal/ledger"
)

// Stage is where the current (or idle) pass sits in its lifecycle.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageHarvesting Stage = "harvesting"
	StageDraining   Stage = "draining"
	StagePersisting Stage = "persisting"
	StageActing     Stage = "acting"
)

// Snapshot records the outcome of one completed (or failed) pass.
type Snapshot struct {
	PassID     string    `json:"pass_id"`
	Seq        int       `json:"seq"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Scanned    int       `json:"scanned"`
	Matched    int       `json:"matched"`
	Removed    int       `json:"removed"`
	Blocked    int       `json:"blocked"`
	Error      string    `json:"error,omitempty"`
}

// Runner owns the pass loop. Passes never overlap: the loop runs one pass
// to completion, then sleeps the interval (or a manual trigger) before the
// next. The harvester, detector and executor are reusable across passes;
// the ledger accumulates for the process lifetime.
type Runner struct {
	Log       *zap.Logger
	Harvester *harvest.Harvester
	Detector  *detect.Detector
	Executor  *action.Executor
	Ledger    *ledger.Ledger
	Store     ledger.Store
	Events    *events.Publisher
	Interval  time.Duration
	QueueSize int

	mu      sync.Mutex
	running bool
	stage   Stage
	last    *Snapshot
	seq     int

	triggerOnce sync.Once
	trigger     chan struct{}
}

// Status is the ops view served over HTTP.
type Status struct {
	Running  bool      `json:"running"`
	Stage    Stage     `json:"stage"`
	LastPass *Snapshot `json:"last_pass,omitempty"`
}

// Run executes passes until ctx is cancelled. A pass that fails (or
// panics) is logged and the loop simply waits for the next tick: one bad
// pass must never take the process down.
func (r *Runner) Run(ctx context.Context) error {
	if r.QueueSize <= 0 {
		r.QueueSize = 256
	}
	for {
		r.runPass(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.Interval):
		case <-r.triggerCh():
			r.Log.Info("manual pass trigger received")
		}
	}
}

// TriggerNow requests an immediate pass. It reports false when a pass is
// already executing; the request is otherwise queued for the sleeping loop.
func (r *Runner) TriggerNow() bool {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if running {
		return false
	}
	select {
	case r.triggerCh() <- struct{}{}:
		return true
	default:
		// A trigger is already pending; treat as accepted.
		return true
	}
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{Running: r.running, Stage: r.stage}
	if st.Stage == "" {
		st.Stage = StageIdle
	}
	if r.last != nil {
		cp := *r.last
		st.LastPass = &cp
	}
	return st
}

func (r *Runner) runPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	r.mu.Lock()
	r.running = true
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	snap := Snapshot{PassID: uuid.NewString(), Seq: seq, StartedAt: time.Now().UTC()}
	log := r.Log.With(zap.String("pass_id", snap.PassID), zap.Int("seq", seq))

	defer func() {
		if p := recover(); p != nil {
			log.Error("pass panicked", zap.Any("panic", p))
			snap.Error = "panic"
		}
		snap.FinishedAt = time.Now().UTC()
		r.mu.Lock()
		r.running = false
		r.stage = StageIdle
		r.last = &snap
		r.mu.Unlock()
	}()

	log.Info("pass starting")
	r.setStage(StageHarvesting)

	// Harvester produces, detector consumes; the channel close is the
	// completion signal and the drain guarantee comes from waiting for the
	// detector's outcome, never from a timed guess.
	items := make(chan harvest.Item, r.QueueSize)
	outCh := make(chan detect.Outcome, 1)
	go func() {
		outCh <- r.Detector.Run(items)
	}()

	harvestErr := r.Harvester.Run(ctx, items)

	r.setStage(StageDraining)
	out := <-outCh
	snap.Scanned = out.Scanned
	snap.Matched = out.Matched

	if harvestErr != nil {
		// The ledger may hold partial updates from items emitted before the
		// failure; they are kept in memory but the pass does not persist or
		// act. The next pass re-detects anything still on the platform.
		log.Error("harvest failed, abandoning pass", zap.Error(harvestErr))
		snap.Error = harvestErr.Error()
		return
	}

	r.setStage(StagePersisting)
	if err := r.Store.Save(ctx, r.Ledger.Records()); err != nil {
		log.Warn("ledger save failed, keeping in-memory state for next attempt", zap.Error(err))
	}

	r.setStage(StageActing)
	snap.Removed = r.Executor.ExecuteRemovals(ctx, out.Removals)
	snap.Blocked = r.Executor.ExecuteBlocks(ctx, out.Blocks)

	r.Events.Publish(events.SubjectPassCompleted, "pass_completed", map[string]any{
		"pass_id": snap.PassID,
		"scanned": snap.Scanned,
		"matched": snap.Matched,
		"removed": snap.Removed,
		"blocked": snap.Blocked,
	})
	log.Info("pass completed",
		zap.Int("scanned", snap.Scanned),
		zap.Int("matched", snap.Matched),
		zap.Int("removed", snap.Removed),
		zap.Int("blocked", snap.Blocked))
}

func (r *Runner) setStage(s Stage) {
	r.mu.Lock()
	r.stage = s
	r.mu.Unlock()
}

func (r *Runner) triggerCh() chan struct{} {
	r.triggerOnce.Do(func() {
		r.trigger = make(chan struct{}, 1)
	})
	return r.trigger
}
