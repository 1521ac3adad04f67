// internal/workflow/workflow.go

// Package workflow drives the logged-in screen lifecycle: login, menu
// navigation to the ticket board, and the per-record filter, validate,
// create, confirm, await-response sequence. It layers session policy over
// the interact primitives; element-level resilience lives there, outcome
// policy lives here.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dpbot/internal/config"
	"github.com/xkilldash9x/dpbot/internal/correlate"
	"github.com/xkilldash9x/dpbot/internal/interact"
	"github.com/xkilldash9x/dpbot/internal/wait"
)

const (
	loginAttempts = 3

	// Pauses carried over from the production tuning of the board. The menus
	// animate, the filter form re-renders between dependent selects, and the
	// creation modal fades in.
	menuTransitionPause = 2 * time.Second
	betweenSelectsPause = 500 * time.Millisecond
	beforeFilterPause   = time.Second
	modalRenderPause    = 2 * time.Second
	preConfirmPause     = time.Second
)

// Phase tracks where in the screen lifecycle the workflow currently is.
// Transitions are logged at debug level.
type Phase int

const (
	PhaseLoggedOut Phase = iota
	PhaseLoggingIn
	PhaseReady
	PhaseFiltering
	PhaseValidating
	PhaseCreating
	PhaseConfirming
	PhaseAwaitingResponse
)

func (p Phase) String() string {
	switch p {
	case PhaseLoggingIn:
		return "logging-in"
	case PhaseReady:
		return "ready"
	case PhaseFiltering:
		return "filtering"
	case PhaseValidating:
		return "validating"
	case PhaseCreating:
		return "creating"
	case PhaseConfirming:
		return "confirming"
	case PhaseAwaitingResponse:
		return "awaiting-response"
	default:
		return "logged-out"
	}
}

// Interactor is the slice of the interaction layer the workflow drives.
// *interact.Actor satisfies it.
type Interactor interface {
	WaitLocate(ctx context.Context, candidates []interact.Locator, opts interact.LocateOptions) (interact.Locator, error)
	ClickReliably(ctx context.Context, candidates []interact.Locator, opts interact.ClickOptions) error
	FillField(ctx context.Context, candidates []interact.Locator, text string) error
	SelectSearchable(ctx context.Context, inputCandidates []interact.Locator, value string) error
	AwaitSettled(ctx context.Context, timeout time.Duration) error
}

var _ Interactor = (*interact.Actor)(nil)

// Correlator watches the creation endpoint from inside the page.
// *correlate.Correlator satisfies it.
type Correlator interface {
	Install(ctx context.Context) error
	Clear(ctx context.Context) error
	Await(ctx context.Context) (correlate.Response, error)
}

var _ Correlator = (*correlate.Correlator)(nil)

// selectorSet is config.Selectors parsed into locator lists once at
// construction.
type selectorSet struct {
	usernameInput   []interact.Locator
	passwordInput   []interact.Locator
	loginButton     []interact.Locator
	sidebar         []interact.Locator
	configuringMenu []interact.Locator
	dpMenu          []interact.Locator
	cityInput       []interact.Locator
	rkInput         []interact.Locator
	dpInput         []interact.Locator
	filterButton    []interact.Locator
	resultCodeCell  []interact.Locator
	noDataMessage   []interact.Locator
	createIcon      []interact.Locator
	finalCreate     []interact.Locator
	confirmCreate   []interact.Locator
}

func parseSelectors(s config.Selectors) selectorSet {
	return selectorSet{
		usernameInput:   interact.ParseLocators(s.UsernameInput),
		passwordInput:   interact.ParseLocators(s.PasswordInput),
		loginButton:     interact.ParseLocators(s.LoginButton),
		sidebar:         interact.ParseLocators(s.Sidebar),
		configuringMenu: interact.ParseLocators(s.ConfiguringMenu),
		dpMenu:          interact.ParseLocators(s.DPMenu),
		cityInput:       interact.ParseLocators(s.CityInput),
		rkInput:         interact.ParseLocators(s.RKInput),
		dpInput:         interact.ParseLocators(s.DPInput),
		filterButton:    interact.ParseLocators(s.FilterButton),
		resultCodeCell:  interact.ParseLocators(s.ResultCodeCell),
		noDataMessage:   interact.ParseLocators(s.NoDataMessage),
		createIcon:      interact.ParseLocators(s.CreateTicketIcon),
		finalCreate:     interact.ParseLocators(s.FinalCreateButton),
		confirmCreate:   interact.ParseLocators(s.ConfirmCreateButton),
	}
}

// Workflow owns one browser session's journey through the intranet. Not safe
// for concurrent use: the engine is strictly serial, one record at a time on
// one shared page.
type Workflow struct {
	page interact.Page
	ui   Interactor
	corr Correlator

	sel        selectorSet
	loginURL   string
	creds      config.AuthConfig
	timeouts   config.TimeoutConfig
	retryDelay time.Duration

	clk   wait.Clock
	log   *zap.Logger
	phase Phase
}

// New wires a workflow over an already-started page. A nil clock selects the
// system clock.
func New(page interact.Page, ui Interactor, corr Correlator, cfg *config.Config, clk wait.Clock, logger *zap.Logger) *Workflow {
	if page == nil {
		panic("workflow: page must not be nil")
	}
	if ui == nil {
		panic("workflow: interactor must not be nil")
	}
	if corr == nil {
		panic("workflow: correlator must not be nil")
	}
	if cfg == nil {
		panic("workflow: config must not be nil")
	}
	if clk == nil {
		clk = wait.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		page:       page,
		ui:         ui,
		corr:       corr,
		sel:        parseSelectors(cfg.Selectors),
		loginURL:   cfg.App.LoginURL,
		creds:      cfg.Auth,
		timeouts:   cfg.Timeouts,
		retryDelay: cfg.Retry.Delay,
		clk:        clk,
		log:        logger.Named("workflow"),
	}
}

// Phase returns the current lifecycle phase.
func (w *Workflow) Phase() Phase { return w.phase }

func (w *Workflow) setPhase(p Phase) {
	if p == w.phase {
		return
	}
	w.log.Debug("Phase transition.", zap.Stringer("from", w.phase), zap.Stringer("to", p))
	w.phase = p
}

// Bootstrap takes a fresh session to a ready board: login, then menu
// navigation.
func (w *Workflow) Bootstrap(ctx context.Context) error {
	if err := w.Login(ctx); err != nil {
		return err
	}
	return w.NavigateToBoard(ctx)
}

// Login authenticates against the intranet, retrying the whole sequence up
// to three times. Success means the post-login landmark rendered and the
// URL left the login screen.
func (w *Workflow) Login(ctx context.Context) error {
	w.setPhase(PhaseLoggingIn)
	for attempt := 1; attempt <= loginAttempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		w.log.Info("Logging in.", zap.Int("attempt", attempt))
		err := w.loginOnce(ctx)
		if err == nil {
			w.log.Info("Login confirmed.")
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		w.log.Warn("Login attempt failed.", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < loginAttempts {
			if serr := w.clk.Sleep(ctx, w.retryDelay); serr != nil {
				return serr
			}
		}
	}
	w.setPhase(PhaseLoggedOut)
	return fmt.Errorf("login failed after %d attempts", loginAttempts)
}

func (w *Workflow) loginOnce(ctx context.Context) error {
	if err := w.page.Navigate(ctx, w.loginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := w.ui.AwaitSettled(ctx, w.timeouts.Long); err != nil {
		return fmt.Errorf("login page never settled: %w", err)
	}
	if err := w.ui.FillField(ctx, w.sel.usernameInput, w.creds.Username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := w.ui.FillField(ctx, w.sel.passwordInput, w.creds.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := w.ui.ClickReliably(ctx, w.sel.loginButton, interact.ClickOptions{ViaJS: true}); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	if _, err := w.ui.WaitLocate(ctx, w.sel.sidebar, interact.LocateOptions{
		Timeout:      w.timeouts.Long,
		PresenceOnly: true,
	}); err != nil {
		return fmt.Errorf("post-login landmark: %w", err)
	}
	url, err := w.page.CurrentURL(ctx)
	if err != nil {
		return fmt.Errorf("read current url: %w", err)
	}
	if strings.Contains(strings.ToLower(url), "login") {
		return fmt.Errorf("still on the login screen (%s)", url)
	}
	return nil
}

// NavigateToBoard clicks through the menu hierarchy to the DP ticket board
// and confirms arrival by probing the city filter input. On arrival the
// response hook is (re)installed; an installation failure is tolerated but
// every creation would then end in TIMEOUT, so it is logged loudly.
func (w *Workflow) NavigateToBoard(ctx context.Context) error {
	w.log.Info("Navigating to the ticket board.")
	if err := w.ui.ClickReliably(ctx, w.sel.configuringMenu, interact.ClickOptions{ViaJS: true}); err != nil {
		return fmt.Errorf("open configuring menu: %w", err)
	}
	if err := w.clk.Sleep(ctx, menuTransitionPause); err != nil {
		return err
	}
	if err := w.ui.ClickReliably(ctx, w.sel.dpMenu, interact.ClickOptions{ViaJS: true}); err != nil {
		return fmt.Errorf("open DP menu: %w", err)
	}
	if err := w.ui.AwaitSettled(ctx, w.timeouts.Long); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		w.log.Warn("Board is loading slowly, probing the filter form anyway.")
	}
	if _, err := w.ui.WaitLocate(ctx, w.sel.cityInput, interact.LocateOptions{Timeout: w.timeouts.Short}); err != nil {
		return fmt.Errorf("city input never became ready: %w", err)
	}
	if err := w.corr.Install(ctx); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		w.log.Warn("Response hook installation failed; creations will not be confirmable.", zap.Error(err))
	}
	w.setPhase(PhaseReady)
	w.log.Info("Ticket board ready.")
	return nil
}

// Recover resets latent screen state between attempts at the same record:
// hard refresh, settle, then the full menu navigation again. The refresh
// wipes the injected hook; NavigateToBoard reinstalls it.
func (w *Workflow) Recover(ctx context.Context) error {
	w.log.Info("Recovering screen state: refresh and renavigate.")
	if err := w.page.Reload(ctx); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	if err := w.clk.Sleep(ctx, w.retryDelay); err != nil {
		return err
	}
	if err := w.ui.AwaitSettled(ctx, w.timeouts.Long); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		w.log.Debug("Post-refresh settle not confirmed.", zap.Error(err))
	}
	return w.NavigateToBoard(ctx)
}
