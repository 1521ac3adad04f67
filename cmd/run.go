package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dpbot/internal/batch"
	"github.com/xkilldash9x/dpbot/internal/browser"
	"github.com/xkilldash9x/dpbot/internal/config"
	"github.com/xkilldash9x/dpbot/internal/correlate"
	"github.com/xkilldash9x/dpbot/internal/data"
	"github.com/xkilldash9x/dpbot/internal/interact"
	"github.com/xkilldash9x/dpbot/internal/observability"
	"github.com/xkilldash9x/dpbot/internal/reporting"
	"github.com/xkilldash9x/dpbot/internal/wait"
	"github.com/xkilldash9x/dpbot/internal/workflow"
)

// newRunCmd creates the command that drives a full ticket-creation run.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Processes the daily work list and creates a ticket for each code",
		Long: `Logs into the intranet, navigates to the DP ticket board, and walks the
daily work list, creating one ticket per code with retry and session recovery.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to the viper keys they override. Only flags the user
			// actually set take precedence over config file and env values.
			if err := viper.BindPFlag("data.master_file", cmd.Flags().Lookup("master")); err != nil {
				return err
			}
			if err := viper.BindPFlag("data.worklist_file", cmd.Flags().Lookup("worklist")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: runAutomation,
	}

	runCmd.Flags().String("master", "", "Master reference CSV path. (Overrides config/env)")
	runCmd.Flags().String("worklist", "", "Daily work list path. (Overrides config/env)")
	runCmd.Flags().Bool("headless", false, "Run the browser headless. (Overrides config/env)")
	runCmd.Flags().StringP("output", "o", "", "Report artifact path. No artifact is written when unset.")
	runCmd.Flags().StringP("format", "f", "text", "Report format ('text' or 'json').")

	return runCmd
}

func runAutomation(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	// Re-unmarshal now that PreRunE has bound the command's flags.
	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	outputPath := viper.GetString("output")
	format := viper.GetString("format")

	logger.Info("Starting ticket run",
		zap.String("runID", runID),
		zap.String("master", cfg.Data.MasterFile),
		zap.String("worklist", cfg.Data.WorklistFile),
		zap.Bool("headless", cfg.Browser.Headless),
	)

	// Load both data files before spending anything on a browser.
	reference, worklist, err := loadRunData(cfg, logger)
	if err != nil {
		return err
	}

	components, err := initializeRunComponents(ctx, cfg, logger)
	if err != nil {
		if components != nil {
			components.Shutdown()
		}
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer components.Shutdown()

	result, runErr := components.Runner.Run(ctx, reference, worklist)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}

	// An interrupted run still gets its artifact; it covers what ran.
	// Total is zero only when cancellation landed during bootstrap.
	if outputPath != "" && result.Stats.Total > 0 {
		if err := writeReport(runID, result, format, outputPath, logger); err != nil {
			return err
		}
	}

	if runErr != nil {
		logger.Warn("Run aborted by user or signal.", zap.String("runID", runID))
		return runErr
	}

	fmt.Printf("\nRun complete. Run ID: %s\n", runID)
	return nil
}

// runComponents holds the browser session and the services built on top of it.
type runComponents struct {
	Driver *browser.Driver
	Runner *batch.Runner
}

// Shutdown closes the browser session.
func (rc *runComponents) Shutdown() {
	if rc.Driver != nil {
		if err := rc.Driver.Close(); err != nil {
			observability.GetLogger().Warn("Error during browser shutdown", zap.Error(err))
		}
	}
}

// initializeRunComponents handles the dependency injection for a run. On error
// the partially built components are returned so the caller can shut them down.
func initializeRunComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*runComponents, error) {
	components := &runComponents{}

	driver, err := browser.New(ctx, cfg.Browser, logger)
	if err != nil {
		return components, fmt.Errorf("failed to start browser: %w", err)
	}
	components.Driver = driver

	clk := wait.System()
	actor := interact.NewActor(driver, clk, logger, interact.Config{
		DefaultTimeout:   cfg.Timeouts.Default,
		ShortTimeout:     cfg.Timeouts.Short,
		LongTimeout:      cfg.Timeouts.Long,
		DropdownAttempts: cfg.Retry.DropdownAttempts,
		Overlays:         interact.ParseLocators(cfg.Selectors.LoadingOverlay),
	})
	correlator := correlate.New(driver, cfg.Correlate, clk, logger)
	flow := workflow.New(driver, actor, correlator, cfg, clk, logger)
	components.Runner = batch.New(flow, cfg, nil, clk, logger)

	return components, nil
}

// loadRunData resolves and loads the reference table and the work list.
func loadRunData(cfg *config.Config, logger *zap.Logger) (map[string]data.ReferenceEntry, []string, error) {
	fsys := afero.NewOsFs()

	masterPath, err := homedir.Expand(cfg.Data.MasterFile)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve master path: %w", err)
	}
	worklistPath, err := homedir.Expand(cfg.Data.WorklistFile)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve worklist path: %w", err)
	}

	reference, err := data.LoadReference(fsys, masterPath, logger)
	if err != nil {
		return nil, nil, err
	}
	worklist, err := data.LoadWorklist(fsys, worklistPath, logger)
	if err != nil {
		return nil, nil, err
	}
	return reference, worklist, nil
}

// writeReport renders the finished run into the requested artifact.
func writeReport(runID string, res batch.Result, format, outputPath string, logger *zap.Logger) error {
	logger.Info("Writing run report", zap.String("format", format), zap.String("path", outputPath))

	path, err := homedir.Expand(outputPath)
	if err != nil {
		return fmt.Errorf("resolve report path: %w", err)
	}
	reporter, err := reporting.New(format, path)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	defer func() {
		if cerr := reporter.Close(); cerr != nil {
			logger.Error("Failed to close reporter", zap.Error(cerr))
		}
	}()

	if err := reporter.Write(reporting.Summarize(runID, res)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info("Report written.", zap.String("path", path))
	return nil
}
