package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/homebridge/uix/internal/config"
	"github.com/homebridge/uix/internal/constants"
	"github.com/homebridge/uix/internal/procutil"
	"github.com/homebridge/uix/internal/store"
	"github.com/homebridge/uix/internal/update"
	"github.com/spf13/cobra"
)

const helperBinary = "uix-update"

func newUpdateCommand(loadEnv func() config.Environment) *cobra.Command {
	updateCmd := &cobra.Command{
		Use:           "update",
		Short:         "Offline package update commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	startCmd := &cobra.Command{
		Use:           "start <package>",
		Short:         "Start a detached offline update of a package",
		Long:          `Takes the update lock and starts uix-update detached from this process. Updatable packages: homebridge, homebridge-config-ui-x, homebridge-hue.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateStart(cmd, loadEnv, args[0])
		},
	}
	startCmd.Flags().String("helper", "", "Path to the uix-update binary (defaults to the one next to uix)")

	statusCmd := &cobra.Command{
		Use:           "status",
		Short:         "Report whether an update holds the lock",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return updateStatus(cmd, loadEnv)
		},
	}

	cancelCmd := &cobra.Command{
		Use:           "cancel",
		Short:         "Ask the running update helper to stop",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return updateCancel(cmd, loadEnv)
		},
	}

	historyCmd := &cobra.Command{
		Use:           "history",
		Short:         "List recorded update runs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return updateHistory(cmd, loadEnv)
		},
	}
	historyCmd.Flags().Int("limit", 20, "Maximum runs to show (0 for all)")

	updateCmd.AddCommand(startCmd, statusCmd, cancelCmd, historyCmd)
	return updateCmd
}

func updateStart(cmd *cobra.Command, loadEnv func() config.Environment, pkg string) error {
	out := newOutputFormatter(cmd)
	_, cfg, err := resolveInstance(cmd, loadEnv)
	if err != nil {
		return out.Error("Failed to resolve configuration", err)
	}

	helper, _ := cmd.Flags().GetString("helper")
	if helper == "" {
		if helper, err = defaultHelperPath(); err != nil {
			return out.Error("Failed to locate "+helperBinary, err)
		}
	}

	job, err := update.Launch(update.LaunchOptions{
		Package:     pkg,
		StoragePath: cfg.StoragePath,
		HelperPath:  helper,
	})
	switch {
	case errors.Is(err, update.ErrUpdateInProgress):
		return out.Error("An update is already running", err)
	case err != nil:
		return out.Error("Failed to start update", err)
	}

	if !out.structured() {
		fmt.Fprintf(out.out, "Update of %s started (job %s)\n", job.Package, job.ID)
		fmt.Fprintf(out.out, "Follow progress in %s\n", job.LogPath)
		return nil
	}
	return out.Success("Update started", map[string]interface{}{
		"jobId":   job.ID,
		"package": job.Package,
		"log":     job.LogPath,
	})
}

// defaultHelperPath returns the helper installed next to the running binary.
func defaultHelperPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	name := helperBinary
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	helper := filepath.Join(filepath.Dir(exe), name)
	if _, err := os.Stat(helper); err != nil {
		return "", err
	}
	return helper, nil
}

type statusView struct {
	InProgress    bool             `json:"inProgress" yaml:"inProgress"`
	Lock          *update.LockInfo `json:"lock,omitempty" yaml:"lock,omitempty"`
	HelperRunning bool             `json:"helperRunning" yaml:"helperRunning"`
	Stale         bool             `json:"stale" yaml:"stale"`
}

func updateStatus(cmd *cobra.Command, loadEnv func() config.Environment) error {
	out := newOutputFormatter(cmd)
	_, cfg, err := resolveInstance(cmd, loadEnv)
	if err != nil {
		return out.Error("Failed to resolve configuration", err)
	}

	var view statusView
	info, err := update.ReadLock(cfg.StoragePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Nothing holds the lock.
	case err != nil:
		return out.Error("Failed to read update lock", err)
	default:
		view.InProgress = true
		view.Lock = &info
		if info.HelperPID > 0 {
			view.HelperRunning = procutil.IsProcessAlive(info.HelperPID)
			view.Stale = !view.HelperRunning
		}
	}

	if out.structured() {
		return out.Print(view)
	}
	switch {
	case !view.InProgress:
		return out.Print("No update in progress")
	case view.Stale:
		return out.Print(fmt.Sprintf("Stale update lock for %s: helper %d is gone; remove %s to retry",
			info.Package, info.HelperPID, filepath.Join(cfg.StoragePath, constants.UpdateLockFileName)))
	default:
		return out.Print(fmt.Sprintf("Update of %s in progress since %s (job %s)",
			info.Package, info.StartedAt.Local().Format(time.DateTime), info.JobID))
	}
}

func updateCancel(cmd *cobra.Command, loadEnv func() config.Environment) error {
	out := newOutputFormatter(cmd)
	_, cfg, err := resolveInstance(cmd, loadEnv)
	if err != nil {
		return out.Error("Failed to resolve configuration", err)
	}

	info, err := update.ReadLock(cfg.StoragePath)
	if errors.Is(err, fs.ErrNotExist) {
		return out.Error("No update in progress", nil)
	}
	if err != nil {
		return out.Error("Failed to read update lock", err)
	}
	if info.HelperPID <= 0 || !procutil.IsProcessAlive(info.HelperPID) {
		return out.Error("Update helper is not running", nil)
	}
	if err := procutil.TerminateByPID(info.HelperPID); err != nil {
		return out.Error("Failed to stop update helper", err)
	}
	return out.Success("Termination requested", map[string]interface{}{
		"jobId":     info.JobID,
		"helperPid": info.HelperPID,
	})
}

func updateHistory(cmd *cobra.Command, loadEnv func() config.Environment) error {
	out := newOutputFormatter(cmd)
	_, cfg, err := resolveInstance(cmd, loadEnv)
	if err != nil {
		return out.Error("Failed to resolve configuration", err)
	}
	limit, _ := cmd.Flags().GetInt("limit")

	var runs []store.Run
	history, err := store.Open(cmd.Context(), store.Options{StoragePath: cfg.StoragePath, ReadOnly: true})
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No update has run yet.
	case err != nil:
		return out.Error("Failed to open update history", err)
	default:
		defer history.Close()
		if runs, err = history.ListRuns(cmd.Context(), limit); err != nil {
			return out.Error("Failed to read update history", err)
		}
	}

	if out.structured() {
		if runs == nil {
			runs = []store.Run{}
		}
		return out.Print(map[string]any{"runs": runs})
	}
	if len(runs) == 0 {
		return out.Print("No update runs recorded")
	}

	w := tabwriter.NewWriter(out.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tPACKAGE\tOUTCOME\tEXIT\tID\t")
	for _, run := range runs {
		exit := "-"
		if run.ChildExitCode != nil {
			exit = strconv.Itoa(*run.ChildExitCode)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			run.StartedAt.Local().Format(time.DateTime), run.Package, run.Outcome, exit, run.ID)
	}
	return w.Flush()
}
