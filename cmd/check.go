package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dpbot/internal/config"
	"github.com/xkilldash9x/dpbot/internal/data"
	"github.com/xkilldash9x/dpbot/internal/observability"
)

// newCheckCmd creates the preflight command. It validates everything a run
// needs without launching a browser.
func newCheckCmd() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validates configuration and data files without launching a browser",
		Long: `Loads the configuration, the master reference table, and the daily work
list, then reports the row counts and any work-list codes the reference table
does not know. Exits non-zero when any of them fail to load.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("data.master_file", cmd.Flags().Lookup("master")); err != nil {
				return err
			}
			return viper.BindPFlag("data.worklist_file", cmd.Flags().Lookup("worklist"))
		},
		RunE: runPreflight,
	}

	checkCmd.Flags().String("master", "", "Master reference CSV path. (Overrides config/env)")
	checkCmd.Flags().String("worklist", "", "Daily work list path. (Overrides config/env)")

	return checkCmd
}

func runPreflight(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return err
	}

	reference, worklist, err := loadRunData(cfg, logger)
	if err != nil {
		return err
	}

	missing := missingCodes(reference, worklist)
	logger.Info("Preflight passed",
		zap.Int("reference_rows", len(reference)),
		zap.Int("worklist_codes", len(worklist)),
		zap.Int("missing_codes", len(missing)),
	)

	fmt.Printf("Reference table: %d rows (%s)\n", len(reference), cfg.Data.MasterFile)
	fmt.Printf("Work list: %d codes (%s)\n", len(worklist), cfg.Data.WorklistFile)
	if len(missing) > 0 {
		// The run would skip these, so they are a warning, not a failure.
		fmt.Printf("Missing from the reference table (%d): %s\n", len(missing), strings.Join(missing, ", "))
	} else {
		fmt.Println("Every work-list code is present in the reference table.")
	}
	return nil
}

// missingCodes returns the work-list codes absent from the reference table,
// in work-list order, first occurrence only.
func missingCodes(reference map[string]data.ReferenceEntry, worklist []string) []string {
	seen := make(map[string]struct{}, len(worklist))
	var missing []string
	for _, code := range worklist {
		if _, ok := reference[code]; ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		missing = append(missing, code)
	}
	return missing
}
