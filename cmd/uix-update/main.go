package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/homebridge/uix/internal/store"
	"github.com/homebridge/uix/internal/update"
	uixversion "github.com/homebridge/uix/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args[1:], os.Getenv, os.Stderr))
}

// run executes the helper and returns its process exit code.
func run(args []string, getenv func(string) string, stderr io.Writer) int {
	code := update.ExitFailed
	rootCmd := newRootCommand(getenv, stderr, &code)
	rootCmd.SetArgs(args)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return update.ExitFailed
	}
	return code
}

func newRootCommand(getenv func(string) string, stderr io.Writer, code *int) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "uix-update",
		Short:         "Offline package updater for homebridge-config-ui-x",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Long = `uix-update installs one homebridge package with npm while the UI is
stopped. The job is normally handed over through UIX_OFFLINE_UPDATE_*
environment variables; flags take precedence over them.`
	rootCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		*code = runUpdate(cmd, getenv, stderr)
		return nil
	}
	rootCmd.Version = uixversion.String()
	rootCmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	flags := rootCmd.Flags()
	flags.String("package", "", "Package to install")
	flags.String("storage-path", "", "Bridge storage directory")
	flags.String("lock-file", "", "Update lock file to release when done")
	flags.String("log", "", "Update log file (appended)")
	flags.String("self", "", "Launcher artifact to remove when done")
	flags.String("job-id", "", "Job identifier recorded in the update history")
	flags.Bool("no-history", false, "Do not record the run in the update history")
	return rootCmd
}

func runUpdate(cmd *cobra.Command, getenv func(string) string, stderr io.Writer) int {
	job := jobFromFlags(cmd, update.JobFromEnv(getenv))

	ctx, cancel := context.WithCancelCause(cmd.Context())
	defer cancel(nil)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			cancel(fmt.Errorf("received signal %s", sig))
		case <-ctx.Done():
		}
	}()

	orchestrator := &update.Orchestrator{Stderr: stderr}
	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory && job.StoragePath != "" {
		history, err := store.Open(ctx, store.Options{StoragePath: job.StoragePath})
		if err != nil {
			log.New(stderr, "[Update] ", log.LstdFlags).Printf("WARNING: history unavailable: %v", err)
		} else {
			defer history.Close()
			orchestrator.History = history
		}
	}

	return orchestrator.Run(ctx, job)
}

// jobFromFlags overrides job with every flag set on the command line.
func jobFromFlags(cmd *cobra.Command, job update.Job) update.Job {
	flags := cmd.Flags()
	for name, field := range map[string]*string{
		"package":      &job.Package,
		"storage-path": &job.StoragePath,
		"lock-file":    &job.LockFilePath,
		"log":          &job.LogPath,
		"self":         &job.SelfPath,
		"job-id":       &job.ID,
	} {
		if flags.Changed(name) {
			*field, _ = flags.GetString(name)
		}
	}
	return job
}
