package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pacdeck/internal/ui"
	"pacdeck/pkg/pacman"
)

var statusCmd = &cobra.Command{
	Use:   "status <packages...>",
	Short: "Show installed and repository versions of packages",
	Long: `Check each package concurrently with "pacman -Q" and "pacman -Si" and
report whether it is installed, its versions and whether an update is
available. One record is printed per requested name, in order.

Examples:
  pacdeck status git vim nano      # Table of three packages
  pacdeck status -o json linux     # Machine-readable output`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	names := cfg.ResolveAliases(args)
	var statuses []pacman.PackageStatus
	withProgress(fmt.Sprintf("Checking %d packages...", len(names)), func() {
		statuses = mgr.CheckStatus(cmd.Context(), names)
	})

	if err := printResult(statuses, func(w io.Writer) { ui.PrintStatuses(w, statuses) }); err != nil {
		return err
	}
	if err := cmd.Context().Err(); err != nil {
		return fmt.Errorf("status check interrupted: %w", err)
	}

	installed, updates := statusSummary(statuses)
	if cfg.Output.Verbose && !ui.Structured(cfg.Output.Format) {
		ui.MutedMsg("%d checked, %d installed, %d with updates", len(statuses), installed, updates)
	}
	log.Debug().Int("packages", len(statuses)).Int("updates", updates).Msg("Status check finished")
	return nil
}

// statusSummary counts checked packages by outcome.
func statusSummary(statuses []pacman.PackageStatus) (installed, updates int) {
	for _, st := range statuses {
		if st.Installed {
			installed++
		}
		if st.AvailableUpdate {
			updates++
		}
	}
	return installed, updates
}
