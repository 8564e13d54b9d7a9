package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pacdeck/internal/tui"
	"pacdeck/internal/ui"
	"pacdeck/pkg/pacman"
)

var installCmd = &cobra.Command{
	Use:   "install <package>",
	Short: "Install a package from the sync repositories",
	Long: `Install one package with "pacman -S --noconfirm" through the
configured elevation helper.

Examples:
  pacdeck install ripgrep          # Install with confirmation
  pacdeck install -y neovim        # Install without confirmation
  pacdeck install -n htop          # Show the command without running it
  pacdeck install --tui firefox    # Follow progress in a live view
  pacdeck install code             # Uses alias if configured`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd.Context(), pacman.KindInstall, cfg.ResolveAlias(args[0]))
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <package>",
	Aliases: []string{"uninstall"},
	Short:   "Remove an installed package",
	Long: `Remove one package and its unneeded dependencies with "pacman -Rns
--noconfirm" through the
configured elevation helper.

Examples:
  pacdeck remove ripgrep           # Remove with confirmation
  pacdeck uninstall -y htop        # Remove without confirmation`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd.Context(), pacman.KindRemove, cfg.ResolveAlias(args[0]))
	},
}

func init() {
	for _, c := range []*cobra.Command{installCmd, removeCmd, upgradeCmd} {
		c.Flags().BoolVar(&useTUI, "tui", false, "show a live progress view")
	}
}

// runOperation confirms, runs and reports one mutating operation.
func runOperation(ctx context.Context, kind pacman.Kind, pkg string) error {
	req := pacman.Request{Kind: kind, Package: pkg}
	if err := req.Validate(); err != nil {
		return usageError("%v", err)
	}

	if !cfg.General.DryRun {
		if err := elevator.Check(); err != nil {
			return err
		}
		if !cfg.General.AutoConfirm {
			confirmed, err := ui.Confirm(confirmLabel(req), true)
			if err != nil {
				return err
			}
			if !confirmed {
				return ErrAborted
			}
		}
	}

	result, err := execute(ctx, req)
	if err != nil {
		return err
	}

	if err := printResult(result, func(w io.Writer) { ui.PrintResult(w, result) }); err != nil {
		return err
	}
	if !result.Success {
		return ErrOperationFailed
	}
	return nil
}

// execute runs req either inline, with events on the terminal, or inside
// the live progress view.
func execute(ctx context.Context, req pacman.Request) (pacman.Result, error) {
	ctrl := mgr.Controller()
	if !useTUI {
		var result pacman.Result
		withProgress(title(req), func() { result = ctrl.Run(ctx, req) })
		return result, nil
	}

	events, unsubscribe := broadcaster.Subscribe(cfg.Events.Channel, cfg.Events.Buffer)
	defer unsubscribe()

	return tui.RunOperation(ctx, title(req), events, func(ctx context.Context) pacman.Result {
		return ctrl.Run(ctx, req)
	})
}

func title(req pacman.Request) string {
	if req.Package == "" {
		return req.Kind.Description()
	}
	return fmt.Sprintf("%s %s", req.Kind, req.Package)
}

func confirmLabel(req pacman.Request) string {
	switch req.Kind {
	case pacman.KindInstall:
		return fmt.Sprintf("Install %s?", req.Package)
	case pacman.KindRemove:
		return fmt.Sprintf("Remove %s?", req.Package)
	}
	return "Upgrade all packages?"
}
