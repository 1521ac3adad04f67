// internal/browser/driver.go
package browser

import (
	"context"
	_ "embed" // Required for the go:embed directive
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dpbot/internal/config"
	"github.com/xkilldash9x/dpbot/internal/interact"
)

//go:embed stealth.js
var stealthScript string

const startupTimeout = 30 * time.Second

// Driver owns one Chrome process with a single persistent tab and implements
// interact.Page on top of it. All element operations resolve their locator
// inside the page on every call, so callers never hold stale references.
type Driver struct {
	log *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

var _ interact.Page = (*Driver)(nil)

// New launches the browser process, opens the tab and registers the
// automation-masking script so it runs before any page script on every
// navigation. The tab lives until Close or until ctx itself is cancelled;
// per-operation deadlines never tear it down.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Driver{log: logger.Named("browser")}

	d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	d.tabCtx, d.tabCancel = chromedp.NewContext(d.allocCtx)

	// Listeners must be registered before the first Run starts the browser,
	// or early console output is lost.
	chromedp.ListenTarget(d.tabCtx, d.pumpEvent)

	startCtx, cancel := context.WithTimeout(d.tabCtx, startupTimeout)
	defer cancel()

	err := chromedp.Run(startCtx,
		runtime.Enable(),
		registerStealth(),
		chromedp.Navigate("about:blank"),
	)
	if err != nil {
		d.allocCancel()
		return nil, fmt.Errorf("browser failed to start: %w", err)
	}

	d.log.Info("Browser launched", zap.Bool("headless", cfg.Headless))
	return d, nil
}

// registerStealth arranges for the masking script to run in every new
// document before the page's own scripts get a chance to sniff.
func registerStealth() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if _, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx); err != nil {
			return fmt.Errorf("register stealth script: %w", err)
		}
		return nil
	})
}

// run executes actions on the tab, bounded by opCtx's deadline without tying
// the tab's lifetime to it.
func (d *Driver) run(opCtx context.Context, actions ...chromedp.Action) error {
	ctx, cancel := combineContext(d.tabCtx, opCtx)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// eval evaluates script in the page and unmarshals its result into out.
func (d *Driver) eval(ctx context.Context, script string, out any) error {
	return d.run(ctx, chromedp.Evaluate(script, out))
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.log.Debug("Navigating", zap.String("url", url))
	return d.run(ctx, chromedp.Navigate(url))
}

func (d *Driver) Reload(ctx context.Context) error {
	d.log.Debug("Reloading page")
	return d.run(ctx, chromedp.Reload())
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := d.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (d *Driver) Inspect(ctx context.Context, loc interact.Locator) (interact.ElementState, error) {
	var res stateResult
	if err := d.eval(ctx, inspectScript(loc), &res); err != nil {
		return interact.ElementState{}, err
	}
	return interact.ElementState{Found: res.Found, Visible: res.Visible, Enabled: res.Enabled}, nil
}

func (d *Driver) ScrollIntoView(ctx context.Context, loc interact.Locator) error {
	var res foundResult
	if err := d.eval(ctx, scrollScript(loc), &res); err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("scroll %s: %w", loc, interact.ErrNoElement)
	}
	return nil
}

// ClickNative dispatches real mouse events at the element's viewport center.
// When another element covers that point the click is not attempted and
// ErrClickIntercepted comes back, letting the caller fall through to a
// scripted click instead of silently pressing the overlay.
func (d *Driver) ClickNative(ctx context.Context, loc interact.Locator) error {
	var res pointResult
	if err := d.eval(ctx, clickPointScript(loc), &res); err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("click %s: %w", loc, interact.ErrNoElement)
	}
	if !res.Hit {
		return fmt.Errorf("click %s: %w", loc, interact.ErrClickIntercepted)
	}
	return d.run(ctx, chromedp.MouseClickXY(res.X, res.Y))
}

func (d *Driver) ClickScript(ctx context.Context, loc interact.Locator) error {
	var res foundResult
	if err := d.eval(ctx, scriptClickScript(loc), &res); err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("click %s: %w", loc, interact.ErrNoElement)
	}
	return nil
}

func (d *Driver) Clear(ctx context.Context, loc interact.Locator) error {
	var res foundResult
	if err := d.eval(ctx, clearScript(loc), &res); err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("clear %s: %w", loc, interact.ErrNoElement)
	}
	return nil
}

func (d *Driver) SelectAll(ctx context.Context, loc interact.Locator) error {
	var res foundResult
	if err := d.eval(ctx, selectAllScript(loc), &res); err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("select all %s: %w", loc, interact.ErrNoElement)
	}
	return nil
}

// SendKeys focuses the element in-page, then dispatches the keystrokes
// through the browser's input pipeline so the frontend's key handlers fire
// the same way they do for a human.
func (d *Driver) SendKeys(ctx context.Context, loc interact.Locator, keys string) error {
	var res foundResult
	if err := d.eval(ctx, focusScript(loc), &res); err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("send keys %s: %w", loc, interact.ErrNoElement)
	}
	return d.run(ctx, chromedp.KeyEvent(keys))
}

func (d *Driver) Text(ctx context.Context, loc interact.Locator) (string, error) {
	var res textResult
	if err := d.eval(ctx, textScript(loc), &res); err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("text %s: %w", loc, interact.ErrNoElement)
	}
	return strings.TrimSpace(res.Text), nil
}

func (d *Driver) Eval(ctx context.Context, expr string, out any) error {
	return d.eval(ctx, expr, out)
}

// Close shuts the tab down gracefully, then terminates the browser process.
// Safe to call more than once.
func (d *Driver) Close() error {
	d.closeOnce.Do(func() {
		d.log.Debug("Closing browser")
		if err := chromedp.Cancel(d.tabCtx); err != nil {
			d.closeErr = fmt.Errorf("close tab: %w", err)
		}
		d.tabCancel()
		d.allocCancel()
	})
	return d.closeErr
}

// pumpEvent forwards browser-side diagnostics into the log.
func (d *Driver) pumpEvent(ev interface{}) {
	switch e := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		d.log.Debug("Page console",
			zap.String("type", string(e.Type)),
			zap.String("text", consoleText(e.Args)),
		)
	case *runtime.EventExceptionThrown:
		d.log.Warn("Page exception", zap.String("text", exceptionText(e)))
	}
}

// consoleText flattens console call arguments into one line.
func consoleText(args []*runtime.RemoteObject) string {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteString(" ")
		}
		var val interface{}
		if arg.Value != nil && json.Unmarshal(arg.Value, &val) == nil {
			fmt.Fprintf(&b, "%v", val)
		} else if arg.Description != "" {
			b.WriteString(arg.Description)
		} else {
			fmt.Fprintf(&b, "[%s]", arg.Type)
		}
	}
	return b.String()
}

// exceptionText pulls the most descriptive text out of a thrown exception,
// which usually includes the stack trace.
func exceptionText(e *runtime.EventExceptionThrown) string {
	if e.ExceptionDetails == nil {
		return ""
	}
	text := e.ExceptionDetails.Text
	if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
		text = e.ExceptionDetails.Exception.Description
	}
	return text
}
