package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"

	"pacdeck/internal/config"
	"pacdeck/internal/executor"
	"pacdeck/internal/ui"
)

const (
	dbLockFile   = "/var/lib/pacman/db.lck"
	pkgCacheDir  = "/var/cache/pacman/pkg"
	minCacheFree = 1 << 30
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose system issues",
	Long: `Check that pacman, the elevation helper and the pending-update
command are usable, and look for common causes of failed transactions.

Examples:
  pacdeck doctor               # Run diagnostics`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	issues := 0

	ui.HeaderMsg("System")
	if info, err := host.InfoWithContext(ctx); err != nil {
		ui.WarningMsg("System detection failed: %v", err)
	} else {
		ui.SuccessMsg("%s %s (%s, kernel %s)", info.Platform, info.PlatformVersion, info.KernelArch, info.KernelVersion)
		if info.PlatformFamily != "arch" && info.Platform != "arch" {
			ui.WarningMsg("This does not look like an Arch-based system")
		}
	}

	ui.HeaderMsg("Programs")
	issues += checkProgram("pacman", cfg.Pacman.Binary, true)
	issues += checkProgram("pending updates", cfg.Pacman.PendingCommand[0], false)

	ui.HeaderMsg("Privileges")
	switch {
	case executor.IsRoot() && cfg.Pacman.SkipElevationAsRoot:
		ui.SuccessMsg("Running as root; operations run without %s", elevator.Helper())
	case elevator.Available():
		ui.SuccessMsg("Elevation helper: %s", elevator.Helper())
	default:
		ui.ErrorMsg("%v (helper %q not found)", executor.ErrNoPrivileges, elevator.Helper())
		issues++
	}

	ui.HeaderMsg("Database")
	issues += checkLock(ctx)
	checkCache()
	if f, err := os.Open(cfg.Pacman.LogFile); err != nil {
		ui.WarningMsg("Transaction log %s unreadable: %v", cfg.Pacman.LogFile, err)
	} else {
		f.Close()
		ui.SuccessMsg("Transaction log: %s", cfg.Pacman.LogFile)
	}

	ui.HeaderMsg("Configuration")
	ui.SuccessMsg("Config file: %s", configPathInUse())
	ui.MutedMsg("  Data dir: %s", config.DataDir())
	ui.MutedMsg("  Timeouts: operation %s, query %s, pending %s",
		cfg.Timeouts.Operation.Duration, cfg.Timeouts.Query.Duration, cfg.Timeouts.Pending.Duration)

	// Summary
	ui.HeaderMsg("Summary")
	if issues == 0 {
		ui.SuccessMsg("No issues found! pacdeck is ready to use.")
		return nil
	}
	ui.WarningMsg("Found %d issue(s). Some features may not work correctly.", issues)
	return fmt.Errorf("%d issue(s) found", issues)
}

func checkProgram(label, name string, required bool) int {
	path, err := exec.LookPath(name)
	if err == nil {
		ui.SuccessMsg("%s: %s", label, path)
		return 0
	}
	if required {
		ui.ErrorMsg("%s: %s not found", label, name)
		return 1
	}
	ui.WarningMsg("%s: %s not found (install pacman-contrib)", label, name)
	return 0
}

// checkLock reports a database lock and whether a pacman process still holds it.
func checkLock(ctx context.Context) int {
	if _, err := os.Stat(dbLockFile); errors.Is(err, os.ErrNotExist) {
		ui.SuccessMsg("Database is not locked")
		return 0
	}

	if pids := pacmanProcesses(ctx); len(pids) > 0 {
		ui.WarningMsg("Database locked by running pacman (pid %s)", strings.Join(pids, ", "))
		return 0
	}

	ui.ErrorMsg("Stale lock file %s; remove it if no pacman is running", dbLockFile)
	return 1
}

func pacmanProcesses(ctx context.Context) []string {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to list processes")
		return nil
	}

	binary := filepath.Base(cfg.Pacman.Binary)
	var pids []string
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name != binary {
			continue
		}
		pids = append(pids, fmt.Sprint(p.Pid))
	}
	return pids
}

func checkCache() {
	usage, err := disk.Usage(pkgCacheDir)
	if err != nil {
		ui.MutedMsg("Package cache %s: %v", pkgCacheDir, err)
		return
	}
	free := fmt.Sprintf("%.1f GiB free", float64(usage.Free)/(1<<30))
	if usage.Free < minCacheFree {
		ui.WarningMsg("Package cache low on space: %s", free)
		return
	}
	ui.SuccessMsg("Package cache: %s", free)
}

func configPathInUse() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ConfigPath()
}
