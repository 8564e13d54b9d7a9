package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"pacdeck/internal/ui"
	"pacdeck/pkg/pacman"
)

var updatesEvery string

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Summarize pending system updates",
	Long: `Count pending updates without touching the system databases and report
the time of the last completed pacman transaction.

With --every the check repeats on a cron schedule until interrupted.

Examples:
  pacdeck updates                       # One-shot summary
  pacdeck updates -v                    # Also list pending packages
  pacdeck updates --every "@every 30m"  # Re-check every 30 minutes
  pacdeck updates --every "0 9 * * *"   # Re-check daily at 09:00`,
	Args: cobra.NoArgs,
	RunE: runUpdates,
}

func init() {
	updatesCmd.Flags().StringVar(&updatesEvery, "every", "", "repeat on a cron schedule (e.g. \"@hourly\")")
}

func runUpdates(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if updatesEvery == "" {
		return checkUpdatesOnce(ctx)
	}
	return watchUpdates(ctx, updatesEvery)
}

func checkUpdatesOnce(ctx context.Context) error {
	var status pacman.SystemUpdateStatus
	withProgress("Checking for updates...", func() {
		status = mgr.CheckSystemUpdates(ctx)
	})
	if err := printResult(status, func(w io.Writer) {
		ui.PrintUpdateSummary(w, status, cfg.Output.Verbose)
	}); err != nil {
		return err
	}
	if !status.CheckSuccess {
		return ErrOperationFailed
	}
	return nil
}

// watchUpdates runs the check immediately and then on schedule until ctx ends.
func watchUpdates(ctx context.Context, expr string) error {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return usageError("invalid schedule %q: %v", expr, err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(schedule, cron.FuncJob(func() {
		reportUpdates(ctx)
	}))

	reportUpdates(ctx)
	c.Start()
	ui.MutedMsg("Next check at %s (Ctrl+C to stop)", schedule.Next(time.Now()).Format(time.Kitchen))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func reportUpdates(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	status := mgr.CheckSystemUpdates(ctx)
	if ui.Structured(cfg.Output.Format) {
		if err := ui.Render(ui.Out, cfg.Output.Format, status); err != nil {
			log.Error().Err(err).Msg("Failed to render update summary")
		}
		return
	}
	ui.HeaderMsg("%s", time.Now().Format("2006-01-02 15:04:05"))
	ui.PrintUpdateSummary(ui.Out, status, cfg.Output.Verbose)
	logUpdateStatus(status)
}

func logUpdateStatus(status pacman.SystemUpdateStatus) {
	ev := log.Info()
	if !status.CheckSuccess {
		ev = log.Warn()
	}
	ev.Int("pending", status.PendingUpdatesCount).
		Str("last_update", status.LastUpdateDate).
		Msg(fmt.Sprintf("Scheduled update check: %s", status.Message))
}
