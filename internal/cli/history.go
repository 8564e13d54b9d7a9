package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pacdeck/internal/history"
	"pacdeck/internal/ui"
)

var (
	historyLimit int
	historyClear bool
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the operation journal",
	Long: `Display install, remove and upgrade operations run by pacdeck,
newest first, including failures and dry runs.

Examples:
  pacdeck history              # Show recent history
  pacdeck history -l 20        # Show last 20 operations
  pacdeck history -o json      # Full entries as JSON
  pacdeck history --prune 720h # Drop entries older than 30 days
  pacdeck history --clear      # Empty the journal`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of entries to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "remove all entries")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "remove entries older than this age")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if store == nil {
		return fmt.Errorf("operation journal unavailable")
	}

	switch {
	case historyClear:
		return clearHistory()
	case historyPrune > 0:
		n, err := store.Prune(historyPrune)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		ui.SuccessMsg("Removed %d entries older than %s", n, historyPrune)
		return nil
	}

	entries, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	return printResult(entries, func(w io.Writer) {
		ui.PrintHistory(w, entries)
		if total, err := store.Count(); err == nil && len(entries) > 0 {
			ui.MutedMsg("\nShowing %d of %d total entries", len(entries), total)
		}
	})
}

func clearHistory() error {
	if !cfg.General.AutoConfirm {
		confirmed, err := ui.Confirm("Remove all history entries?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	ui.SuccessMsg("History cleared")
	return nil
}
