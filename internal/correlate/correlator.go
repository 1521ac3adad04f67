// internal/correlate/correlator.go

// Package correlate observes the board's ticket-creation endpoint from inside
// the page. The frontend calls the endpoint over XHR; a hook injected into the
// document records the reply body in a window slot, and the Correlator gives
// the Go side an explicit clear / poll / await contract over that slot. This
// passive approach sees exactly what the page saw, with no second network
// channel to keep consistent.
package correlate

import (
	"context"
	_ "embed" // Required for the go:embed directive
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dpbot/internal/config"
	"github.com/xkilldash9x/dpbot/internal/wait"
)

//go:embed hook.js
var hookScript string

// Window-scoped names shared with hook.js.
const (
	watchVar    = "window.__dpbotWatch"
	captureSlot = "window.__dpbotCapture"
)

// parseErrMarker is the value hook.js stores under "error" when the endpoint
// reply was not valid JSON.
const parseErrMarker = "JSON parse error"

// Evaler evaluates JavaScript in the live page. *browser.Driver satisfies it.
type Evaler interface {
	Eval(ctx context.Context, expr string, out any) error
}

// Response is one captured reply from the watched endpoint. Raw holds the
// body exactly as the hook stored it; the accessors read it lazily.
type Response struct {
	Raw string
}

// Code is the application-level status carried in the reply body.
func (r Response) Code() int64 { return gjson.Get(r.Raw, "code").Int() }

// Message is the human-readable status text in the reply body.
func (r Response) Message() string { return gjson.Get(r.Raw, "message").String() }

// OK reports a successful creation.
func (r Response) OK() bool { return r.Code() == 200 }

// ParseError reports that the endpoint replied with something other than
// JSON; Raw then holds the hook's marker object with the body under "data".
func (r Response) ParseError() bool {
	return gjson.Get(r.Raw, "error").String() == parseErrMarker
}

// Correlator drives the injected hook for a single page.
type Correlator struct {
	page     Evaler
	fragment string
	timeout  time.Duration
	interval time.Duration
	clk      wait.Clock
	log      *zap.Logger
}

// New wires a correlator for the endpoint identified by cfg.URLFragment.
// A nil clock selects the system clock.
func New(page Evaler, cfg config.CorrelateConfig, clk wait.Clock, logger *zap.Logger) *Correlator {
	if page == nil {
		panic("correlate: page must not be nil")
	}
	if clk == nil {
		clk = wait.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Correlator{
		page:     page,
		fragment: cfg.URLFragment,
		timeout:  cfg.ResponseTimeout,
		interval: cfg.PollInterval,
		clk:      clk,
		log:      logger.Named("correlate"),
	}
}

// installScript composes the fragment prelude with the embedded hook. The
// prelude uses assignment, not declaration, so re-evaluating in the same
// document never throws.
func installScript(fragment string) string {
	frag, _ := json.Marshal(fragment)
	return fmt.Sprintf("%s = %s;\n%s", watchVar, frag, hookScript)
}

// Install evaluates the hook in the current document. Idempotent within one
// document; a navigation or reload wipes the hook and Install must run again.
func (c *Correlator) Install(ctx context.Context) error {
	if err := c.page.Eval(ctx, installScript(c.fragment), nil); err != nil {
		return fmt.Errorf("install response hook: %w", err)
	}
	c.log.Debug("Response hook installed", zap.String("fragment", c.fragment))
	return nil
}

// Clear empties the capture slot. Call it right before the action whose
// reply you want, or a stale capture from an earlier submission would be
// attributed to this one.
func (c *Correlator) Clear(ctx context.Context) error {
	if err := c.page.Eval(ctx, captureSlot+" = null", nil); err != nil {
		return fmt.Errorf("clear capture slot: %w", err)
	}
	return nil
}

// Poll reads the capture slot once. ok is false while no reply has arrived.
func (c *Correlator) Poll(ctx context.Context) (Response, bool, error) {
	// Stringify in-page: the slot travels as one JSON string, and a missing
	// slot (fresh document, hook not installed) degrades to "null" instead
	// of an undefined-result error.
	var raw string
	if err := c.page.Eval(ctx, "JSON.stringify("+captureSlot+" || null)", &raw); err != nil {
		return Response{}, false, fmt.Errorf("read capture slot: %w", err)
	}
	if raw == "" || raw == "null" {
		return Response{}, false, nil
	}
	return Response{Raw: raw}, true, nil
}

// Await blocks until the endpoint replies or the response window closes.
// Returns wait.ErrTimeout (wrapped) when nothing arrived in time.
func (c *Correlator) Await(ctx context.Context) (Response, error) {
	c.log.Info("Waiting for endpoint response", zap.Duration("timeout", c.timeout))
	start := c.clk.Now()

	var resp Response
	err := wait.Until(ctx, c.clk, c.interval, c.timeout, func(ctx context.Context) (bool, error) {
		r, ok, err := c.Poll(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			resp = r
		}
		return ok, nil
	})
	if err != nil {
		if errors.Is(err, wait.ErrTimeout) {
			return Response{}, fmt.Errorf("no response from endpoint after %s: %w", c.timeout, err)
		}
		return Response{}, err
	}

	c.log.Info("Endpoint response received",
		zap.Duration("waited", c.clk.Now().Sub(start)),
		zap.Int64("code", resp.Code()),
	)
	return resp, nil
}
