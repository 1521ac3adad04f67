// internal/workflow/validate.go
package workflow

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dpbot/internal/interact"
)

const (
	validateAttempts   = 3
	validateGrace      = 2 * time.Second
	validateRetryPause = time.Second

	// The grid re-renders asynchronously after a filter submit; the first
	// row can lag the rest of the page by several seconds.
	resultCellTimeout = 10 * time.Second
)

// Verdict classifies one filter validation.
type Verdict int

const (
	// VerdictFailed means no definitive answer after every attempt.
	VerdictFailed Verdict = iota
	// VerdictMatch means the first result row shows the expected code.
	VerdictMatch
	// VerdictMismatch means the first row shows a different code, usually
	// stale state from the previous filter.
	VerdictMismatch
	// VerdictNoData means the grid reports no rows at all: the remote side
	// has no such record and retrying cannot help.
	VerdictNoData
)

func (v Verdict) String() string {
	switch v {
	case VerdictMatch:
		return "match"
	case VerdictMismatch:
		return "mismatch"
	case VerdictNoData:
		return "no-data"
	default:
		return "failed"
	}
}

// validateFilter reads the filtered grid and decides whether it shows
// exactly the expected code. A non-nil error is cancellation only; every
// page-level wobble resolves to a Verdict.
func (w *Workflow) validateFilter(ctx context.Context, want string) (Verdict, error) {
	for attempt := 1; attempt <= validateAttempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return VerdictFailed, cerr
		}
		if err := w.clk.Sleep(ctx, validateGrace); err != nil {
			return VerdictFailed, err
		}

		noData, err := w.noDataShowing(ctx)
		if err != nil {
			return VerdictFailed, err
		}
		if noData {
			return VerdictNoData, nil
		}

		cell, err := w.ui.WaitLocate(ctx, w.sel.resultCodeCell, interact.LocateOptions{
			Timeout:      resultCellTimeout,
			PresenceOnly: true,
		})
		if err == nil {
			got, terr := w.page.Text(ctx, cell)
			if terr == nil {
				got = strings.TrimSpace(got)
				if got == want {
					return VerdictMatch, nil
				}
				w.log.Debug("First row shows a different code.",
					zap.String("want", want), zap.String("got", got))
				return VerdictMismatch, nil
			}
			if cerr := ctx.Err(); cerr != nil {
				return VerdictFailed, cerr
			}
			w.log.Debug("Result cell unreadable.", zap.Int("attempt", attempt), zap.Error(terr))
		} else {
			if cerr := ctx.Err(); cerr != nil {
				return VerdictFailed, cerr
			}
			w.log.Debug("Result cell not present yet.", zap.Int("attempt", attempt))
		}

		if attempt < validateAttempts {
			if err := w.clk.Sleep(ctx, validateRetryPause); err != nil {
				return VerdictFailed, err
			}
		}
	}
	return VerdictFailed, nil
}

// noDataShowing probes the empty-grid indicators. A candidate whose probe
// errors is skipped; the grid may be mid-render.
func (w *Workflow) noDataShowing(ctx context.Context) (bool, error) {
	for _, loc := range w.sel.noDataMessage {
		st, err := w.page.Inspect(ctx, loc)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return false, cerr
			}
			continue
		}
		if st.Found && st.Visible {
			return true, nil
		}
	}
	return false, nil
}
