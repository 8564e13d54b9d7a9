package cli

import (
	"github.com/spf13/cobra"

	"pacdeck/pkg/pacman"
)

var upgradeCmd = &cobra.Command{
	Use:     "upgrade",
	Aliases: []string{"update"},
	Short:   "Synchronize databases and upgrade all packages",
	Long: `Run a full system upgrade with "pacman -Syu --noconfirm".

Examples:
  pacdeck upgrade                  # Upgrade with confirmation
  pacdeck upgrade -y --tui         # Upgrade in the live progress view`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd.Context(), pacman.KindUpdate, "")
	},
}
