// internal/interact/dropdown.go
package interact

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

// Timings for the vue-select widget. The option list is rebuilt after every
// keystroke, so the settle pause has to outlast the backend round trip.
const (
	dropdownInputTimeout  = 10 * time.Second
	dropdownReopenTimeout = 3 * time.Second
	dropdownSettle        = 1500 * time.Millisecond
	exactOptionTimeout    = 5 * time.Second
	containsOptionTimeout = 3 * time.Second
	postSelectPause       = 500 * time.Millisecond
	dropdownRecoveryPause = time.Second
)

const dropdownMenu = "//ul[contains(@class, 'vs__dropdown-menu')]//li"

// SelectSearchable drives a type-ahead dropdown to value: focus the search
// input, clear it, type the value rune by rune, then pick the option. Each
// round walks a ladder of strategies, exact text match first, substring match
// second, ArrowDown plus Enter last, and presses Escape before giving the
// widget another round. Errors out when every round fails.
func (a *Actor) SelectSearchable(ctx context.Context, inputCandidates []Locator, value string) error {
	exact := Locator{
		Strategy: XPath,
		Query:    fmt.Sprintf("%s[normalize-space()=%s]", dropdownMenu, xpathLiteral(value)),
	}
	contains := Locator{
		Strategy: XPath,
		Query:    fmt.Sprintf("%s[contains(normalize-space(), %s)]", dropdownMenu, xpathLiteral(value)),
	}

	log := a.log.With(zap.String("value", value))
	for attempt := 1; attempt <= a.cfg.DropdownAttempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		input, err := a.WaitLocate(ctx, inputCandidates, LocateOptions{Timeout: dropdownInputTimeout})
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			log.Debug("Dropdown input not found.", zap.Int("attempt", attempt))
			continue
		}

		picked, err := a.searchAndPick(ctx, input, exact, contains, value)
		if picked {
			return nil
		}
		if err == nil {
			// Clean miss; the ladder already closed the list.
			log.Debug("No dropdown option matched.", zap.Int("attempt", attempt))
			continue
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		log.Debug("Dropdown round failed.", zap.Int("attempt", attempt), zap.Error(err))
		// The widget may be stuck half-open. Close it before retrying.
		if in, lerr := a.WaitLocate(ctx, inputCandidates, LocateOptions{Timeout: dropdownReopenTimeout}); lerr == nil {
			_ = a.page.SendKeys(ctx, in, kb.Escape)
		}
		if serr := a.clk.Sleep(ctx, dropdownRecoveryPause); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("dropdown: no option matched %q after %d attempts", value, a.cfg.DropdownAttempts)
}

// searchAndPick runs one round of the dance. Returns (false, nil) on a clean
// miss where the ladder was walked to the end, and an error when a page
// operation broke mid-round.
func (a *Actor) searchAndPick(ctx context.Context, input, exact, contains Locator, value string) (bool, error) {
	if err := a.page.ScrollIntoView(ctx, input); err != nil {
		return false, err
	}
	if err := a.clk.Sleep(ctx, scrollPause); err != nil {
		return false, err
	}
	if err := a.page.ClickNative(ctx, input); err != nil {
		return false, err
	}
	if err := a.clk.Sleep(ctx, 300*time.Millisecond); err != nil {
		return false, err
	}
	if err := a.resetInput(ctx, input); err != nil {
		return false, err
	}
	if err := a.TypePaced(ctx, input, value); err != nil {
		return false, err
	}
	if err := a.clk.Sleep(ctx, dropdownSettle); err != nil {
		return false, err
	}

	// Exact text match wins outright.
	if err := a.pickOption(ctx, exact, exactOptionTimeout); err == nil {
		return true, nil
	} else if cerr := ctx.Err(); cerr != nil {
		return false, cerr
	}

	// Fall back to a substring match for options with decorations.
	if err := a.pickOption(ctx, contains, containsOptionTimeout); err == nil {
		return true, nil
	} else if cerr := ctx.Err(); cerr != nil {
		return false, cerr
	}

	// Last resort: take whatever the widget highlights first. The widget
	// filters as we type, so the top entry is the best remaining guess.
	if err := a.page.SendKeys(ctx, input, kb.ArrowDown); err == nil {
		if serr := a.clk.Sleep(ctx, 300*time.Millisecond); serr != nil {
			return false, serr
		}
		if err := a.page.SendKeys(ctx, input, kb.Enter); err == nil {
			if serr := a.clk.Sleep(ctx, postSelectPause); serr != nil {
				return false, serr
			}
			return true, nil
		}
	}
	if cerr := ctx.Err(); cerr != nil {
		return false, cerr
	}

	// Nothing matched. Close the list so the next round starts clean.
	if err := a.page.SendKeys(ctx, input, kb.Escape); err == nil {
		if serr := a.clk.Sleep(ctx, postSelectPause); serr != nil {
			return false, serr
		}
	}
	return false, nil
}

// pickOption waits for one option locator and reliable-clicks it, then gives
// the widget a beat to close.
func (a *Actor) pickOption(ctx context.Context, option Locator, timeout time.Duration) error {
	if _, err := a.WaitLocate(ctx, []Locator{option}, LocateOptions{Timeout: timeout}); err != nil {
		return err
	}
	if err := a.ClickReliably(ctx, []Locator{option}, ClickOptions{Timeout: timeout}); err != nil {
		return err
	}
	return a.clk.Sleep(ctx, postSelectPause)
}

// resetInput empties the search input before typing. The widget rebinds its
// input between renders and sometimes rejects part of the sequence; a partial
// reset is fine since typing overwrites the filter anyway. Cancellation still
// aborts.
func (a *Actor) resetInput(ctx context.Context, input Locator) error {
	if err := a.page.Clear(ctx, input); err != nil {
		return ctx.Err()
	}
	if err := a.clk.Sleep(ctx, 200*time.Millisecond); err != nil {
		return err
	}
	if err := a.page.SelectAll(ctx, input); err != nil {
		return ctx.Err()
	}
	if err := a.clk.Sleep(ctx, 100*time.Millisecond); err != nil {
		return err
	}
	if err := a.page.SendKeys(ctx, input, kb.Delete); err != nil {
		return ctx.Err()
	}
	return a.clk.Sleep(ctx, 200*time.Millisecond)
}
