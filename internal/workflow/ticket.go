// internal/workflow/ticket.go
package workflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dpbot/internal/data"
	"github.com/xkilldash9x/dpbot/internal/interact"
	"github.com/xkilldash9x/dpbot/internal/wait"
)

const (
	filterRounds     = 3
	filterRetryPause = time.Second
)

// Outcome classifies one end-to-end attempt at a record.
type Outcome int

const (
	// OutcomeFail means a step failed before the remote outcome was known.
	// The attempt is retryable.
	OutcomeFail Outcome = iota
	// OutcomeSuccess means the creation endpoint confirmed the ticket.
	OutcomeSuccess
	// OutcomeTimeout means no confirmation arrived in time. Terminal for the
	// record: the ticket may exist remotely, so retrying risks a duplicate.
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "fail"
	}
}

// ProcessRecord runs the whole creation sequence for one record: the three
// dependent dropdowns, filter submit with result validation, the creation
// click chain, then the correlated endpoint response. A non-nil error is
// cancellation only; every UI-level failure resolves to OutcomeFail so the
// caller owns the retry policy.
func (w *Workflow) ProcessRecord(ctx context.Context, entry data.ReferenceEntry) (Outcome, error) {
	log := w.log.With(zap.String("code", entry.Code))
	defer w.setPhase(PhaseReady)

	fail := func(step string, err error) (Outcome, error) {
		if cerr := ctx.Err(); cerr != nil {
			return OutcomeFail, cerr
		}
		log.Warn("Record step failed.", zap.String("step", step), zap.Error(err))
		return OutcomeFail, nil
	}

	w.setPhase(PhaseFiltering)
	if err := w.ui.SelectSearchable(ctx, w.sel.cityInput, entry.City); err != nil {
		return fail("select city", err)
	}
	if err := w.clk.Sleep(ctx, betweenSelectsPause); err != nil {
		return OutcomeFail, err
	}
	if err := w.ui.SelectSearchable(ctx, w.sel.rkInput, entry.RegionCode); err != nil {
		return fail("select region", err)
	}
	if err := w.clk.Sleep(ctx, betweenSelectsPause); err != nil {
		return OutcomeFail, err
	}
	if err := w.ui.SelectSearchable(ctx, w.sel.dpInput, entry.Code); err != nil {
		return fail("select dp code", err)
	}
	if err := w.clk.Sleep(ctx, beforeFilterPause); err != nil {
		return OutcomeFail, err
	}

	filter, err := w.ui.WaitLocate(ctx, w.sel.filterButton, interact.LocateOptions{})
	if err != nil {
		return fail("locate filter button", err)
	}
	passed, err := w.confirmFilter(ctx, filter, entry.Code, log)
	if err != nil {
		return OutcomeFail, err
	}
	if !passed {
		log.Warn("Filter never confirmed the record; creation not attempted.")
		return OutcomeFail, nil
	}

	w.setPhase(PhaseCreating)
	if err := w.ui.ClickReliably(ctx, w.sel.createIcon, interact.ClickOptions{ViaJS: true}); err != nil {
		return fail("open creation modal", err)
	}
	if err := w.ui.AwaitSettled(ctx, w.timeouts.Default); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return OutcomeFail, cerr
		}
		log.Debug("Screen not confirmed settled behind the modal.", zap.Error(err))
	}
	if err := w.clk.Sleep(ctx, modalRenderPause); err != nil {
		return OutcomeFail, err
	}
	if err := w.ui.ClickReliably(ctx, w.sel.finalCreate, interact.ClickOptions{ViaJS: true}); err != nil {
		return fail("modal create button", err)
	}
	if err := w.clk.Sleep(ctx, preConfirmPause); err != nil {
		return OutcomeFail, err
	}

	w.setPhase(PhaseConfirming)
	// The confirm click fires the request, so the slot must be empty first
	// or Await could read the previous record's reply.
	if err := w.corr.Clear(ctx); err != nil {
		return fail("reset response slot", err)
	}
	if err := w.ui.ClickReliably(ctx, w.sel.confirmCreate, interact.ClickOptions{ViaJS: true}); err != nil {
		return fail("confirm dialog", err)
	}

	w.setPhase(PhaseAwaitingResponse)
	resp, err := w.corr.Await(ctx)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return OutcomeFail, cerr
		}
		if errors.Is(err, wait.ErrTimeout) {
			log.Error("No creation response before the deadline; remote outcome unknown.")
			return OutcomeTimeout, nil
		}
		log.Warn("Response watch failed.", zap.Error(err))
		return OutcomeFail, nil
	}
	if !resp.OK() {
		log.Error("Creation endpoint rejected the ticket.",
			zap.Int64("code", resp.Code()), zap.String("response", resp.Raw))
		return OutcomeFail, nil
	}
	log.Info("Ticket created.", zap.String("message", resp.Message()))
	return OutcomeSuccess, nil
}

// confirmFilter submits the filter and validates the grid, up to three
// rounds. Returns true once the first row shows code. NO_DATA ends the
// ladder at once: the remote table has no such row and resubmitting the
// same filter cannot change that.
func (w *Workflow) confirmFilter(ctx context.Context, filter interact.Locator, code string, log *zap.Logger) (bool, error) {
	for round := 1; round <= filterRounds; round++ {
		if cerr := ctx.Err(); cerr != nil {
			return false, cerr
		}
		if err := w.ui.ClickReliably(ctx, []interact.Locator{filter}, interact.ClickOptions{ViaJS: true}); err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return false, cerr
			}
			log.Debug("Filter click failed.", zap.Int("round", round), zap.Error(err))
			continue
		}
		if err := w.ui.AwaitSettled(ctx, w.timeouts.Default); err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return false, cerr
			}
			log.Debug("Screen not confirmed settled after filter submit.", zap.Error(err))
		}

		w.setPhase(PhaseValidating)
		verdict, err := w.validateFilter(ctx, code)
		w.setPhase(PhaseFiltering)
		if err != nil {
			return false, err
		}
		switch verdict {
		case VerdictMatch:
			return true, nil
		case VerdictNoData:
			log.Warn("Grid reports no data for this code.")
			return false, nil
		}
		log.Debug("Filter result not confirmed.",
			zap.Stringer("verdict", verdict), zap.Int("round", round))
		if err := w.clk.Sleep(ctx, filterRetryPause); err != nil {
			return false, err
		}
	}
	return false, nil
}
