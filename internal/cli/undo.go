package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pacdeck/internal/history"
	"pacdeck/internal/ui"
)

var undoPick bool

var undoCmd = &cobra.Command{
	Use:   "undo [id]",
	Short: "Reverse a journaled install or remove",
	Long: `Undo a successful install by removing the package again, or a
successful remove by reinstalling it. Upgrades, failures and dry runs
cannot be undone.

By default the most recent reversible operation is undone. Pass an
entry ID (or a unique prefix of one) or use --pick to choose.

Examples:
  pacdeck undo                 # Undo last reversible operation
  pacdeck undo 3f2a9c1b        # Undo a specific entry
  pacdeck undo --pick          # Choose from recent entries
  pacdeck undo -n              # Show what would run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUndo,
}

func init() {
	undoCmd.Flags().BoolVarP(&undoPick, "pick", "p", false, "choose the entry interactively")
}

func runUndo(cmd *cobra.Command, args []string) error {
	if store == nil {
		return fmt.Errorf("operation journal unavailable")
	}

	entry, err := undoTarget(args)
	if err != nil {
		return err
	}

	req, err := entry.UndoRequest()
	if err != nil {
		return usageError("%v", err)
	}

	ui.InfoMsg("Undoing %s of %s (%s)", entry.Operation, ui.Bold(entry.Package), entry.FormatTime())
	return runOperation(cmd.Context(), req.Kind, req.Package)
}

func undoTarget(args []string) (*history.Entry, error) {
	switch {
	case len(args) == 1:
		return findEntry(args[0])
	case undoPick:
		entries, err := store.List(50)
		if err != nil {
			return nil, err
		}
		var undoable []history.Entry
		for _, e := range entries {
			if e.CanUndo() {
				undoable = append(undoable, e)
			}
		}
		if len(undoable) == 0 {
			return nil, ErrNothingToUndo
		}
		return ui.SelectEntry(undoable, "Select an operation to undo")
	}

	entry, err := store.LastUndoable()
	if errors.Is(err, history.ErrNotFound) {
		return nil, ErrNothingToUndo
	}
	return entry, err
}

// findEntry resolves a full entry ID or a unique prefix of one.
func findEntry(id string) (*history.Entry, error) {
	entry, err := store.Get(id)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, history.ErrNotFound) {
		return nil, err
	}

	entries, err := store.List(0)
	if err != nil {
		return nil, err
	}
	var match *history.Entry
	for i := range entries {
		if !strings.HasPrefix(entries[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, usageError("entry prefix %q is ambiguous", id)
		}
		match = &entries[i]
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", history.ErrNotFound, id)
	}
	return match, nil
}
