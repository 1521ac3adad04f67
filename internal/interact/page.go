// internal/interact/page.go
package interact

import (
	"context"
	"errors"
)

// Sentinel errors Page implementations return so callers can branch on the
// failure mode rather than on message text.
var (
	// ErrNoElement indicates the locator matched nothing in the current
	// document. Also returned when a previously resolved element vanished.
	ErrNoElement = errors.New("no element matched locator")

	// ErrClickIntercepted indicates another element covered the target's
	// center at click time, so the native click would have hit the overlay.
	ErrClickIntercepted = errors.New("click intercepted by overlapping element")
)

// ElementState is a one-shot probe of the first element a locator matches.
type ElementState struct {
	Found   bool
	Visible bool
	Enabled bool
}

// Interactable reports whether the element can receive clicks and keys.
func (s ElementState) Interactable() bool {
	return s.Found && s.Visible && s.Enabled
}

// Page is the browser control surface the interaction helpers drive. All
// element operations act on the first match of the locator and return
// ErrNoElement when there is none. Implementations resolve locators fresh on
// every call, so callers never hold stale element references.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)

	// Inspect probes presence, visibility and enablement without failing
	// on absence. An error means the probe itself could not run.
	Inspect(ctx context.Context, loc Locator) (ElementState, error)

	ScrollIntoView(ctx context.Context, loc Locator) error

	// ClickNative dispatches real mouse events at the element's center and
	// returns ErrClickIntercepted when another element would receive them.
	ClickNative(ctx context.Context, loc Locator) error
	// ClickScript invokes the element's click() handler directly.
	ClickScript(ctx context.Context, loc Locator) error

	Clear(ctx context.Context, loc Locator) error
	SelectAll(ctx context.Context, loc Locator) error
	SendKeys(ctx context.Context, loc Locator, keys string) error
	Text(ctx context.Context, loc Locator) (string, error)

	// Eval evaluates a JavaScript expression and unmarshals the result
	// into out. A nil out discards the result.
	Eval(ctx context.Context, expr string, out any) error

	Close() error
}
