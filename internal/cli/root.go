// Package cli implements the command-line interface for pacdeck.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pacdeck/internal/config"
	"pacdeck/internal/executor"
	"pacdeck/internal/history"
	"pacdeck/internal/logging"
	"pacdeck/internal/progress"
	"pacdeck/internal/ui"
	"pacdeck/pkg/pacman"
)

var log = logging.GetLogger("cli")

var (
	// Global flags
	cfgFile      string
	dryRun       bool
	yes          bool
	verbose      bool
	noColor      bool
	eventsFormat string
	outputFormat string

	// Set by commands that draw their own progress view.
	useTUI bool

	// Global state
	cfg         *config.Config
	broadcaster *progress.Broadcaster
	emitter     *progress.Emitter
	elevator    *executor.Elevator
	mgr         *pacman.Manager
	store       *history.Store
	logCloser   io.Closer
	spin        *ui.Spinner
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pacdeck",
	Short: "Pacman front end with live progress and an operation journal",
	Long: `pacdeck drives pacman on Arch-based systems. It installs, removes and
upgrades packages through an elevation helper, checks package status
against the sync repositories and summarizes pending system updates.

Every step and every line pacman prints is streamed as a progress event,
and every operation is recorded in a local journal that can be undone.

Examples:
  pacdeck install ripgrep            # Install a package
  pacdeck status git vim nano        # Check several packages at once
  pacdeck updates                    # Summarize pending updates
  pacdeck upgrade --tui              # Full system upgrade with a live view
  pacdeck undo                       # Reverse the last install or remove`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp(cmd)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&eventsFormat, "events", "", "progress events: text, json, spinner or none")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "result format: table, json or yaml")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(updatesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command. SIGINT and SIGTERM cancel whatever
// operation is in flight.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if closeErr := shutdownApp(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil && !errors.Is(err, ErrOperationFailed) {
		ui.ErrorMsg("%v", err)
	}
	return err
}

// initializeApp sets up the application state.
func initializeApp(cmd *cobra.Command) error {
	// Load configuration
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if err := applyFlags(cfg); err != nil {
		return err
	}

	// Initialize UI
	ui.Init(cfg.ShouldUseColor(), cfg.Output.Unicode)

	logCloser, err = logging.Setup(logging.Options{
		Level:   cfg.Log.Level,
		Verbose: cfg.Output.Verbose,
		File:    cfg.Log.File,
		NoColor: !cfg.ShouldUseColor(),
	})
	if err != nil {
		return err
	}

	broadcaster = progress.NewBroadcaster()
	emitter = progress.NewEmitter(progress.Multi(broadcaster, eventDisplay()), cfg.Events.Channel)
	elevator = executor.NewElevator(cfg.Pacman.ElevationHelper, cfg.Pacman.SkipElevationAsRoot)

	opts := managerOptions(cfg)
	if needsJournal(cmd) {
		store, err = history.Open()
		if err != nil {
			// The journal is optional; operations still run without it.
			log.Warn().Err(err).Msg("Operation journal unavailable")
			ui.WarningMsg("Operation journal unavailable: %v", err)
		} else {
			opts.OnResult = store.RecordResult
		}
	}

	mgr = pacman.NewManager(executor.New(emitter), emitter, opts)

	log.Debug().Str("command", cmd.Name()).Bool("dry_run", cfg.General.DryRun).Msg("Initialized")
	return nil
}

// applyFlags overrides configuration values with global flags.
func applyFlags(c *config.Config) error {
	if verbose {
		c.Output.Verbose = true
	}
	if noColor {
		c.Output.Color = false
	}
	if eventsFormat != "" {
		c.Events.Format = eventsFormat
	}
	if outputFormat != "" {
		c.Output.Format = outputFormat
	}
	if yes {
		c.General.AutoConfirm = true
	}
	if dryRun {
		c.General.DryRun = true
	}
	return c.Validate()
}

// eventDisplay returns the sink that shows progress on the terminal.
func eventDisplay() progress.Sink {
	if useTUI {
		return progress.Discard
	}
	switch cfg.Events.Format {
	case "json":
		return progress.NewJSONSink(os.Stderr)
	case "spinner":
		spin = ui.NewSpinner("Working...")
		return spin
	case "none":
		return progress.Discard
	}
	return ui.NewEventPrinter(os.Stderr, cfg.Output.Verbose)
}

func managerOptions(c *config.Config) pacman.Options {
	return pacman.Options{
		Binary: c.Pacman.Binary,
		Timeouts: pacman.Timeouts{
			Operation: c.Timeouts.Operation.Duration,
			Query:     c.Timeouts.Query.Duration,
			Pending:   c.Timeouts.Pending.Duration,
		},
		MaxConcurrentChecks: c.Concurrency.MaxConcurrentChecks,
		PendingCommand:      c.Pacman.PendingCommand,
		LogFile:             c.Pacman.LogFile,
		DryRun:              c.General.DryRun,
		Elevator:            elevator,
	}
}

// needsJournal reports whether cmd runs or reads journaled operations.
func needsJournal(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "install", "remove", "upgrade", "history", "undo":
		return true
	}
	return false
}

// shutdownApp releases resources opened by initializeApp.
func shutdownApp() error {
	if broadcaster != nil {
		broadcaster.Close()
	}
	if store != nil {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close journal")
		}
		store = nil
	}
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}

// withProgress runs fn while the spinner, if selected, shows the latest event.
func withProgress(message string, fn func()) {
	if spin == nil {
		fn()
		return
	}
	spin.UpdateMessage(message)
	spin.Start()
	defer spin.Stop()
	fn()
}

// printResult writes v in the configured structured format, or calls table
// for the default human-readable output.
func printResult(v any, table func(w io.Writer)) error {
	if ui.Structured(cfg.Output.Format) {
		return ui.Render(os.Stdout, cfg.Output.Format, v)
	}
	table(os.Stdout)
	return nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print pacdeck version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("pacdeck version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUsage}, args...)...)
}
