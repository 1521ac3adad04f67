// internal/workflow/fakes_test.go
package workflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dpbot/internal/config"
	"github.com/xkilldash9x/dpbot/internal/correlate"
	"github.com/xkilldash9x/dpbot/internal/interact"
	"github.com/xkilldash9x/dpbot/internal/wait"
)

// testConfig keeps every catalog entry to one short candidate so fake traces
// stay readable.
func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{LoginURL: "https://intranet.example/login"},
		Auth: config.AuthConfig{Username: "ops", Password: "hunter2"},
		Timeouts: config.TimeoutConfig{
			Default: 15 * time.Second,
			Short:   5 * time.Second,
			Long:    30 * time.Second,
		},
		Retry: config.RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second, DropdownAttempts: 3},
		Selectors: config.Selectors{
			UsernameInput:       []string{"#user"},
			PasswordInput:       []string{"#pass"},
			LoginButton:         []string{"#login-btn"},
			Sidebar:             []string{"#sidebar"},
			ConfiguringMenu:     []string{"#menu-configuring"},
			DPMenu:              []string{"#menu-dp"},
			CityInput:           []string{"#city"},
			RKInput:             []string{"#rk"},
			DPInput:             []string{"#dp"},
			FilterButton:        []string{"#filter"},
			DataRow:             []string{"#rows"},
			ResultCodeCell:      []string{"#first-cell"},
			NoDataMessage:       []string{"#no-data"},
			CreateTicketIcon:    []string{"#create-icon"},
			FinalCreateButton:   []string{"#modal-create"},
			ConfirmCreateButton: []string{"#confirm"},
			LoadingOverlay:      []string{".overlay"},
		},
	}
}

// fakePage covers the slice of interact.Page the workflow calls directly:
// navigation and the validator's probes. Element interaction goes through
// fakeUI instead, so the remaining methods are inert.
type fakePage struct {
	navigated []string
	reloads   int

	navigateErr error
	reloadErr   error
	currentURL  func() (string, error)
	inspect     func(loc interact.Locator) (interact.ElementState, error)
	text        func(loc interact.Locator) (string, error)
}

var _ interact.Page = (*fakePage)(nil)

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return p.navigateErr
}

func (p *fakePage) Reload(context.Context) error {
	p.reloads++
	return p.reloadErr
}

func (p *fakePage) CurrentURL(context.Context) (string, error) {
	if p.currentURL != nil {
		return p.currentURL()
	}
	return "https://intranet.example/dashboard", nil
}

func (p *fakePage) Inspect(_ context.Context, loc interact.Locator) (interact.ElementState, error) {
	if p.inspect != nil {
		return p.inspect(loc)
	}
	return interact.ElementState{}, nil
}

func (p *fakePage) Text(_ context.Context, loc interact.Locator) (string, error) {
	if p.text != nil {
		return p.text(loc)
	}
	return "", nil
}

func (p *fakePage) ScrollIntoView(context.Context, interact.Locator) error   { return nil }
func (p *fakePage) ClickNative(context.Context, interact.Locator) error      { return nil }
func (p *fakePage) ClickScript(context.Context, interact.Locator) error      { return nil }
func (p *fakePage) Clear(context.Context, interact.Locator) error            { return nil }
func (p *fakePage) SelectAll(context.Context, interact.Locator) error        { return nil }
func (p *fakePage) SendKeys(context.Context, interact.Locator, string) error { return nil }
func (p *fakePage) Eval(context.Context, string, any) error                  { return nil }
func (p *fakePage) Close() error                                             { return nil }

// fakeUI records every interaction as a readable trace entry and pops
// scripted errors per key. Keys: "locate <query>", "click <query>",
// "fill <query>", "select <value>", "settle". Unscripted calls succeed.
type fakeUI struct {
	trace          []string
	script         map[string][]error
	clicksViaJS    []string
	locatePresence []string
	onCall         func(key string)
}

var _ Interactor = (*fakeUI)(nil)

func newFakeUI() *fakeUI {
	return &fakeUI{script: map[string][]error{}}
}

// fail queues errs for key, consumed one per call.
func (u *fakeUI) fail(key string, errs ...error) {
	u.script[key] = append(u.script[key], errs...)
}

func (u *fakeUI) next(key string) error {
	u.trace = append(u.trace, key)
	if u.onCall != nil {
		u.onCall(key)
	}
	queue := u.script[key]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	u.script[key] = queue[1:]
	return err
}

func (u *fakeUI) count(prefix string) int {
	n := 0
	for _, entry := range u.trace {
		if strings.HasPrefix(entry, prefix) {
			n++
		}
	}
	return n
}

func (u *fakeUI) WaitLocate(_ context.Context, candidates []interact.Locator, opts interact.LocateOptions) (interact.Locator, error) {
	if opts.PresenceOnly {
		u.locatePresence = append(u.locatePresence, candidates[0].Query)
	}
	if err := u.next("locate " + candidates[0].Query); err != nil {
		return interact.Locator{}, err
	}
	return candidates[0], nil
}

func (u *fakeUI) ClickReliably(_ context.Context, candidates []interact.Locator, opts interact.ClickOptions) error {
	key := "click " + candidates[0].Query
	if opts.ViaJS {
		u.clicksViaJS = append(u.clicksViaJS, key)
	}
	return u.next(key)
}

func (u *fakeUI) FillField(_ context.Context, candidates []interact.Locator, _ string) error {
	return u.next("fill " + candidates[0].Query)
}

func (u *fakeUI) SelectSearchable(_ context.Context, _ []interact.Locator, value string) error {
	return u.next("select " + value)
}

func (u *fakeUI) AwaitSettled(context.Context, time.Duration) error {
	return u.next("settle")
}

// fakeResponder scripts the correlator. When wired to a shared trace its
// calls interleave with the UI ones, so ordering is assertable.
type fakeResponder struct {
	installs, clears, awaits int

	installErr error
	clearErr   error
	awaitResp  correlate.Response
	awaitErr   error

	onEvent func(name string)
}

var _ Correlator = (*fakeResponder)(nil)

func (r *fakeResponder) event(name string) {
	if r.onEvent != nil {
		r.onEvent(name)
	}
}

func (r *fakeResponder) Install(context.Context) error {
	r.installs++
	r.event("corr.install")
	return r.installErr
}

func (r *fakeResponder) Clear(context.Context) error {
	r.clears++
	r.event("corr.clear")
	return r.clearErr
}

func (r *fakeResponder) Await(context.Context) (correlate.Response, error) {
	r.awaits++
	r.event("corr.await")
	if r.awaitErr != nil {
		return correlate.Response{}, r.awaitErr
	}
	return r.awaitResp, nil
}

type fixture struct {
	page *fakePage
	ui   *fakeUI
	corr *fakeResponder
	clk  *wait.FakeClock
	wf   *Workflow
}

func setup(t *testing.T) *fixture {
	t.Helper()
	page := &fakePage{}
	ui := newFakeUI()
	corr := &fakeResponder{}
	corr.onEvent = func(name string) { ui.trace = append(ui.trace, name) }
	clk := wait.NewFake()
	wf := New(page, ui, corr, testConfig(), clk, zap.NewNop())
	return &fixture{page: page, ui: ui, corr: corr, clk: clk, wf: wf}
}
