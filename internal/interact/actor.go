// internal/interact/actor.go
package interact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dpbot/internal/wait"
)

// Pacing constants tuned against the target application. The page is a
// Vue SPA whose widgets drop events that arrive faster than these.
const (
	pollInterval    = 500 * time.Millisecond
	scrollPause     = 500 * time.Millisecond
	typeDelay       = 50 * time.Millisecond
	clickRetryPause = time.Second
	settleGrace     = time.Second

	clickAttempts = 3
)

// Config carries the tunable knobs. Zero fields fall back to the
// production defaults.
type Config struct {
	DefaultTimeout time.Duration
	ShortTimeout   time.Duration
	LongTimeout    time.Duration

	// DropdownAttempts bounds the rounds of the searchable dropdown dance.
	DropdownAttempts int

	// Overlays are the loading indicator candidates AwaitSettled watches.
	Overlays []Locator
}

func (c Config) normalized() Config {
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 15 * time.Second
	}
	if c.ShortTimeout <= 0 {
		c.ShortTimeout = 5 * time.Second
	}
	if c.LongTimeout <= 0 {
		c.LongTimeout = 30 * time.Second
	}
	if c.DropdownAttempts <= 0 {
		c.DropdownAttempts = 3
	}
	return c
}

// Actor layers resilient interaction primitives over a Page: candidate
// fallback, retried clicks, paced typing and page-settle detection. All
// waiting goes through the injected clock so tests run instantly.
type Actor struct {
	page Page
	clk  wait.Clock
	log  *zap.Logger
	cfg  Config
}

// NewActor wires an Actor. page is required; a nil clock means wall time.
func NewActor(page Page, clk wait.Clock, logger *zap.Logger, cfg Config) *Actor {
	if page == nil {
		panic("interact: NewActor called with nil Page")
	}
	if clk == nil {
		clk = wait.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Actor{
		page: page,
		clk:  clk,
		log:  logger.Named("interact"),
		cfg:  cfg.normalized(),
	}
}

// LocateOptions tunes WaitLocate.
type LocateOptions struct {
	// Timeout applies per candidate; zero means the default timeout.
	Timeout time.Duration
	// PresenceOnly accepts an element that exists but is not yet
	// interactable. The default requires visible and enabled.
	PresenceOnly bool
}

// WaitLocate polls the candidates strictly in order until one matches.
// A candidate that never matches, or whose probe errors, is skipped and the
// next one gets a full timeout window. Returns the winning locator, or
// ErrNoElement once every candidate is exhausted.
func (a *Actor) WaitLocate(ctx context.Context, candidates []Locator, opts LocateOptions) (Locator, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = a.cfg.DefaultTimeout
	}
	for _, loc := range candidates {
		err := wait.Until(ctx, a.clk, pollInterval, timeout, func(ctx context.Context) (bool, error) {
			st, perr := a.page.Inspect(ctx, loc)
			if perr != nil {
				return false, perr
			}
			if opts.PresenceOnly {
				return st.Found, nil
			}
			return st.Interactable(), nil
		})
		if err == nil {
			return loc, nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return Locator{}, cerr
		}
		a.log.Debug("Locator candidate exhausted, trying next.",
			zap.String("locator", loc.String()), zap.Error(err))
	}
	return Locator{}, fmt.Errorf("%w (tried %d candidates)", ErrNoElement, len(candidates))
}

// ClickOptions tunes ClickReliably.
type ClickOptions struct {
	// Timeout is the locate timeout; zero means the default.
	Timeout time.Duration
	// ViaJS forces the scripted click from the first attempt. Retries use
	// the scripted click regardless.
	ViaJS bool
}

// ClickReliably resolves the first live candidate and clicks it, retrying up
// to three times. Each attempt scrolls the element to center first. A native
// click that lands on an overlay falls back to the scripted click; an element
// that vanished is re-resolved from the original candidates.
func (a *Actor) ClickReliably(ctx context.Context, candidates []Locator, opts ClickOptions) error {
	loc, err := a.WaitLocate(ctx, candidates, LocateOptions{Timeout: opts.Timeout})
	if err != nil {
		return fmt.Errorf("click: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < clickAttempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		err := a.clickOnce(ctx, loc, opts.ViaJS || attempt > 0)
		if err == nil {
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		lastErr = err

		if errors.Is(err, ErrNoElement) {
			// The DOM moved under us. Resolve again and retry at once.
			loc, err = a.WaitLocate(ctx, candidates, LocateOptions{Timeout: opts.Timeout})
			if err != nil {
				return fmt.Errorf("click: target vanished: %w", err)
			}
			continue
		}

		a.log.Debug("Click attempt failed.",
			zap.String("locator", loc.String()), zap.Int("attempt", attempt+1), zap.Error(err))
		if serr := a.clk.Sleep(ctx, clickRetryPause); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("click %s: attempts exhausted: %w", loc, lastErr)
}

func (a *Actor) clickOnce(ctx context.Context, loc Locator, scripted bool) error {
	if err := a.page.ScrollIntoView(ctx, loc); err != nil {
		return err
	}
	if err := a.clk.Sleep(ctx, scrollPause); err != nil {
		return err
	}
	if scripted {
		return a.page.ClickScript(ctx, loc)
	}
	err := a.page.ClickNative(ctx, loc)
	if errors.Is(err, ErrClickIntercepted) {
		return a.page.ClickScript(ctx, loc)
	}
	return err
}

// FillField clears the input the candidates resolve to and types text into it
// one rune at a time, so the framework's per-key listeners all fire.
func (a *Actor) FillField(ctx context.Context, candidates []Locator, text string) error {
	loc, err := a.WaitLocate(ctx, candidates, LocateOptions{})
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	if err := a.clearField(ctx, loc); err != nil {
		return fmt.Errorf("fill %s: clear: %w", loc, err)
	}
	if err := a.TypePaced(ctx, loc, text); err != nil {
		return fmt.Errorf("fill %s: %w", loc, err)
	}
	return nil
}

// clearField empties an input. Widgets that ignore the native clear get the
// select-all plus Delete treatment instead.
func (a *Actor) clearField(ctx context.Context, loc Locator) error {
	if err := a.page.Clear(ctx, loc); err == nil {
		return nil
	}
	if err := a.page.SelectAll(ctx, loc); err != nil {
		return err
	}
	return a.page.SendKeys(ctx, loc, kb.Delete)
}

// TypePaced sends text one rune at a time with a fixed inter-key delay.
func (a *Actor) TypePaced(ctx context.Context, loc Locator, text string) error {
	for _, r := range text {
		if err := a.page.SendKeys(ctx, loc, string(r)); err != nil {
			return err
		}
		if err := a.clk.Sleep(ctx, typeDelay); err != nil {
			return err
		}
	}
	return nil
}

// AwaitSettled waits for the page to go quiet: every loading overlay gone or
// invisible, document.readyState complete, then a grace pause for late
// renders. An overlay that never clears is logged and tolerated; a document
// that never finishes loading is an error.
func (a *Actor) AwaitSettled(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = a.cfg.DefaultTimeout
	}
	for _, loc := range a.cfg.Overlays {
		err := wait.Until(ctx, a.clk, pollInterval, timeout, func(ctx context.Context) (bool, error) {
			st, perr := a.page.Inspect(ctx, loc)
			if perr != nil {
				return false, perr
			}
			return !st.Found || !st.Visible, nil
		})
		if err == nil {
			continue
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		a.log.Debug("Loading overlay still visible after timeout, continuing.",
			zap.String("locator", loc.String()))
	}

	err := wait.Until(ctx, a.clk, pollInterval, timeout, func(ctx context.Context) (bool, error) {
		var state string
		if perr := a.page.Eval(ctx, "document.readyState", &state); perr != nil {
			return false, perr
		}
		return state == "complete", nil
	})
	if err != nil {
		return fmt.Errorf("page never settled: %w", err)
	}
	return a.clk.Sleep(ctx, settleGrace)
}
