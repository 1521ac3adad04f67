// internal/batch/runner.go

// Package batch walks the daily work list against the reference table,
// driving one retry ladder per code through a TicketFlow. Retry, recovery
// and pacing policy live here; the browser mechanics stay behind the
// interface.
package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/dpbot/internal/config"
	"github.com/xkilldash9x/dpbot/internal/data"
	"github.com/xkilldash9x/dpbot/internal/wait"
	"github.com/xkilldash9x/dpbot/internal/workflow"
)

// TicketFlow is the slice of the session workflow the runner drives.
// *workflow.Workflow satisfies it.
type TicketFlow interface {
	Bootstrap(ctx context.Context) error
	ProcessRecord(ctx context.Context, entry data.ReferenceEntry) (workflow.Outcome, error)
	Recover(ctx context.Context) error
}

var _ TicketFlow = (*workflow.Workflow)(nil)

// Pacer spaces attempted items apart. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

var _ Pacer = (*rate.Limiter)(nil)

// ItemResult is one work-list entry's final disposition.
type ItemResult struct {
	Code     string
	Outcome  string // success, fail, timeout or skipped
	Attempts int
	Reason   string // set for skips and timeouts
}

// Result is the complete account of one run: aggregate stats plus the
// per-item dispositions in work-list order. Items stops at the point a
// cancelled run stopped; Stats.Remaining covers the rest.
type Result struct {
	Stats Stats
	Items []ItemResult
}

// Runner executes the work list serially over one browser session.
type Runner struct {
	flow  TicketFlow
	pacer Pacer
	clk   wait.Clock
	log   *zap.Logger

	maxAttempts int
	retryDelay  time.Duration
}

// New builds a Runner. A nil pacer gets a limiter from the configured item
// pause; a nil clock selects the system clock.
func New(flow TicketFlow, cfg *config.Config, pacer Pacer, clk wait.Clock, logger *zap.Logger) *Runner {
	if flow == nil {
		panic("batch: flow must not be nil")
	}
	if cfg == nil {
		panic("batch: config must not be nil")
	}
	if pacer == nil {
		pacer = rate.NewLimiter(rate.Every(cfg.Batch.ItemPause), 1)
	}
	if clk == nil {
		clk = wait.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		flow:        flow,
		pacer:       pacer,
		clk:         clk,
		log:         logger.Named("batch"),
		maxAttempts: cfg.Retry.MaxAttempts,
		retryDelay:  cfg.Retry.Delay,
	}
}

// Run boots the session, then processes worklist in order. The returned
// Result is complete even when the run stops early; the error is non-nil
// only when bootstrap fails or the context ends the run. The summary banner
// is always logged once processing has started.
func (r *Runner) Run(ctx context.Context, reference map[string]data.ReferenceEntry, worklist []string) (Result, error) {
	if err := r.flow.Bootstrap(ctx); err != nil {
		return Result{}, fmt.Errorf("bootstrap session: %w", err)
	}

	res := Result{
		Stats: Stats{Total: len(worklist), StartedAt: r.clk.Now()},
		Items: make([]ItemResult, 0, len(worklist)),
	}
	// Codes enter the set on SUCCESS only, so a failed code that somehow
	// reappears is attempted again while a created ticket never is.
	processed := make(map[string]struct{}, len(worklist))
	r.log.Info("Processing work list.", zap.Int("total", res.Stats.Total))

	var runErr error
	for i, code := range worklist {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		progress := zap.String("progress", fmt.Sprintf("[%d/%d]", i+1, res.Stats.Total))

		if _, done := processed[code]; done {
			r.log.Info("Skipping code already processed this run.", progress, zap.String("code", code))
			res.Stats.Skipped++
			res.Items = append(res.Items, ItemResult{Code: code, Outcome: "skipped", Reason: "already processed"})
			continue
		}
		entry, ok := reference[code]
		if !ok {
			r.log.Warn("Skipping code missing from the master table.", progress, zap.String("code", code))
			res.Stats.Skipped++
			res.Items = append(res.Items, ItemResult{Code: code, Outcome: "skipped", Reason: "not in master table"})
			continue
		}

		// Skipped items consume no pacing token.
		if err := r.pacer.Wait(ctx); err != nil {
			runErr = err
			break
		}
		r.log.Info("Processing code.", progress, zap.String("code", code))

		outcome, attempts, err := r.attemptRecord(ctx, entry)
		if err != nil {
			runErr = err
			break
		}
		item := ItemResult{Code: code, Outcome: outcome.String(), Attempts: attempts}
		switch outcome {
		case workflow.OutcomeSuccess:
			processed[code] = struct{}{}
			res.Stats.Successful++
			r.log.Info("Code succeeded.", progress, zap.String("code", code), zap.Int("attempts", attempts))
		case workflow.OutcomeTimeout:
			// The ticket may exist server-side, so the code is neither
			// retried nor marked processed.
			res.Stats.Skipped++
			item.Reason = "no creation response; verify in the intranet ticket list"
			r.log.Warn("Code skipped on response timeout. Check the intranet ticket list to see whether it appeared before rerunning it.",
				progress, zap.String("code", code))
		default:
			res.Stats.Failed++
			r.log.Error("Code failed.", progress, zap.String("code", code), zap.Int("attempts", attempts))
		}
		res.Items = append(res.Items, item)
	}

	res.Stats.Remaining = res.Stats.Total - res.Stats.Successful - res.Stats.Failed - res.Stats.Skipped
	res.Stats.FinishedAt = r.clk.Now()
	r.logSummary(res.Stats)
	return res, runErr
}

// attemptRecord runs the retry ladder for one record. A FAIL before the
// final attempt triggers session recovery; when recovery itself fails the
// record is abandoned with the FAIL standing. SUCCESS and TIMEOUT end the
// ladder at once. The error return is cancellation only.
func (r *Runner) attemptRecord(ctx context.Context, entry data.ReferenceEntry) (workflow.Outcome, int, error) {
	log := r.log.With(zap.String("code", entry.Code))
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		outcome, err := r.flow.ProcessRecord(ctx, entry)
		if err != nil {
			return workflow.OutcomeFail, attempt, err
		}
		if outcome != workflow.OutcomeFail {
			return outcome, attempt, nil
		}
		if attempt == r.maxAttempts {
			break
		}
		log.Warn("Attempt failed; recovering the session before the retry.", zap.Int("attempt", attempt))
		if err := r.flow.Recover(ctx); err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return workflow.OutcomeFail, attempt, cerr
			}
			log.Error("Session recovery failed; abandoning the code.", zap.Error(err))
			return workflow.OutcomeFail, attempt, nil
		}
		if err := r.clk.Sleep(ctx, r.retryDelay); err != nil {
			return workflow.OutcomeFail, attempt, err
		}
	}
	return workflow.OutcomeFail, r.maxAttempts, nil
}
