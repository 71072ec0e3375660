package update

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/homebridge/uix/internal/constants"
	"github.com/homebridge/uix/internal/store"
)

func newTestJob(t *testing.T, pkg string) Job {
	t.Helper()
	dir := t.TempDir()
	job := Job{
		ID:           "job-" + strings.ReplaceAll(t.Name(), "/", "-"),
		Package:      pkg,
		StoragePath:  dir,
		LockFilePath: filepath.Join(dir, constants.UpdateLockFileName),
		SelfPath:     filepath.Join(dir, ".uix-offline-update-test.sh"),
		LogPath:      filepath.Join(dir, constants.UpdateLogFileName),
	}
	touch(t, job.LockFilePath)
	touch(t, job.SelfPath)
	return job
}

func openHistory(t *testing.T, dir string) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Options{DBPath: filepath.Join(dir, "history.db")})
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func readLog(t *testing.T, job Job) string {
	t.Helper()
	data, err := os.ReadFile(job.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func assertCleanedUp(t *testing.T, job Job) {
	t.Helper()
	if exists(job.LockFilePath) {
		t.Error("lock file left behind")
	}
	if exists(job.SelfPath) {
		t.Error("launcher artifact left behind")
	}
}

func TestRunSuccess(t *testing.T) {
	t.Parallel()

	job := newTestJob(t, constants.PackageHomebridge)
	launcher := NewMockLauncher()
	launcher.SetExit(3, "added 1 package\n")
	history := openHistory(t, t.TempDir())
	var stderr bytes.Buffer

	o := &Orchestrator{Launcher: launcher, Locator: PathLocator{}, History: history, Stderr: &stderr}
	if code := o.Run(context.Background(), job); code != ExitOK {
		t.Fatalf("exit code = %d, want %d", code, ExitOK)
	}
	assertCleanedUp(t, job)

	records := launcher.Records()
	if len(records) != 1 {
		t.Fatalf("expected one launch, got %d", len(records))
	}
	want := []string{"npm", "--no-update-notifier", "install", "-g", "--unsafe-perm", "homebridge"}
	if !reflect.DeepEqual(records[0].Argv, want) {
		t.Fatalf("argv = %v, want %v", records[0].Argv, want)
	}

	logText := readLog(t, job)
	for _, fragment := range []string{
		"Running update command: npm --no-update-notifier install -g --unsafe-perm homebridge",
		"added 1 package",
		"exited with code 3",
	} {
		if !strings.Contains(logText, fragment) {
			t.Errorf("log missing %q:\n%s", fragment, logText)
		}
	}
	if !strings.Contains(stderr.String(), "Running update command") {
		t.Errorf("stderr should mirror the log, got %q", stderr.String())
	}

	run, err := history.GetRun(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Outcome != store.OutcomeCompleted {
		t.Fatalf("outcome = %q", run.Outcome)
	}
	if run.ChildExitCode == nil || *run.ChildExitCode != 3 {
		t.Fatalf("child exit code = %v, want 3", run.ChildExitCode)
	}
}

func TestRunAppendsToExistingLog(t *testing.T) {
	t.Parallel()

	job := newTestJob(t, constants.PackageHomebridgeConfigUIX)
	if err := os.WriteFile(job.LogPath, []byte("previous run\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	o := &Orchestrator{Launcher: NewMockLauncher(), Locator: PathLocator{}, Stderr: &bytes.Buffer{}}
	if code := o.Run(context.Background(), job); code != ExitOK {
		t.Fatalf("exit code = %d", code)
	}
	if logText := readLog(t, job); !strings.HasPrefix(logText, "previous run\n") {
		t.Fatalf("log was truncated:\n%s", logText)
	}
}

func TestRunRejectsUnknownPackage(t *testing.T) {
	t.Parallel()

	job := newTestJob(t, "left-pad")
	launcher := NewMockLauncher()
	history := openHistory(t, t.TempDir())
	var stderr bytes.Buffer

	o := &Orchestrator{Launcher: launcher, Locator: PathLocator{}, History: history, Stderr: &stderr}
	if code := o.Run(context.Background(), job); code != ExitFailed {
		t.Fatalf("exit code = %d, want %d", code, ExitFailed)
	}
	assertCleanedUp(t, job)
	if n := len(launcher.Records()); n != 0 {
		t.Fatalf("package manager launched %d times for a rejected package", n)
	}
	if exists(job.LogPath) {
		t.Error("rejected job should not create the update log")
	}
	if !strings.Contains(stderr.String(), "left-pad") {
		t.Errorf("stderr should name the rejected package: %q", stderr.String())
	}

	run, err := history.GetRun(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Outcome != store.OutcomeRejected {
		t.Fatalf("outcome = %q, want %q", run.Outcome, store.OutcomeRejected)
	}
}

func TestRunLaunchFailure(t *testing.T) {
	t.Parallel()

	job := newTestJob(t, constants.PackageHomebridge)
	launcher := NewMockLauncher()
	launcher.SetError(errors.New("exec: \"npm\": executable file not found in $PATH"))
	history := openHistory(t, t.TempDir())

	o := &Orchestrator{Launcher: launcher, Locator: PathLocator{}, History: history, Stderr: &bytes.Buffer{}}
	if code := o.Run(context.Background(), job); code != ExitFailed {
		t.Fatalf("exit code = %d, want %d", code, ExitFailed)
	}
	assertCleanedUp(t, job)
	if !strings.Contains(readLog(t, job), "executable file not found") {
		t.Error("launch error should be written to the log")
	}

	run, err := history.GetRun(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Outcome != store.OutcomeFailed || run.ChildExitCode != nil {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestRunLogOpenFailure(t *testing.T) {
	t.Parallel()

	job := newTestJob(t, constants.PackageHomebridge)
	job.LogPath = filepath.Join(job.StoragePath, "missing", "update.log")
	launcher := NewMockLauncher()

	o := &Orchestrator{Launcher: launcher, Locator: PathLocator{}, Stderr: &bytes.Buffer{}}
	if code := o.Run(context.Background(), job); code != ExitFailed {
		t.Fatalf("exit code = %d, want %d", code, ExitFailed)
	}
	assertCleanedUp(t, job)
	if n := len(launcher.Records()); n != 0 {
		t.Fatalf("expected no launch, got %d", n)
	}
}

func TestRunRecoversFromPanic(t *testing.T) {
	t.Parallel()

	job := newTestJob(t, constants.PackageHomebridge)
	launcher := NewMockLauncher()
	launcher.OnLaunch(func() { panic("boom") })
	history := openHistory(t, t.TempDir())
	var stderr bytes.Buffer

	o := &Orchestrator{Launcher: launcher, Locator: PathLocator{}, History: history, Stderr: &stderr}
	if code := o.Run(context.Background(), job); code != ExitFailed {
		t.Fatalf("exit code = %d, want %d", code, ExitFailed)
	}
	assertCleanedUp(t, job)
	if !strings.Contains(stderr.String(), "boom") {
		t.Errorf("panic value should be logged: %q", stderr.String())
	}

	run, err := history.GetRun(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Outcome != store.OutcomeFailed {
		t.Fatalf("outcome = %q", run.Outcome)
	}
}

func TestRunInterrupted(t *testing.T) {
	t.Parallel()

	job := newTestJob(t, constants.PackageHomebridge)
	launcher := NewMockLauncher()
	launcher.SetBlocking(true)
	history := openHistory(t, t.TempDir())

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	go func() {
		<-launcher.Started()
		cancel(errors.New("received terminated"))
	}()

	done := make(chan int, 1)
	o := &Orchestrator{Launcher: launcher, Locator: PathLocator{}, History: history, Stderr: &bytes.Buffer{}}
	go func() { done <- o.Run(ctx, job) }()

	select {
	case code := <-done:
		if code != ExitFailed {
			t.Fatalf("exit code = %d, want %d", code, ExitFailed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assertCleanedUp(t, job)

	run, err := history.GetRun(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Outcome != store.OutcomeInterrupted {
		t.Fatalf("outcome = %q, want %q", run.Outcome, store.OutcomeInterrupted)
	}
	if run.Error != "received terminated" {
		t.Fatalf("error = %q", run.Error)
	}
}

type launcherFunc func(ctx context.Context, argv []string, out io.Writer) (ProcessHandle, error)

func (f launcherFunc) Launch(ctx context.Context, argv []string, out io.Writer) (ProcessHandle, error) {
	return f(ctx, argv, out)
}

func TestRunInterruptedAroundLaunch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		cancelBefore bool
	}{
		{name: "before launch", cancelBefore: true},
		{name: "during launch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job := newTestJob(t, constants.PackageHomebridge)
			history := openHistory(t, t.TempDir())
			ctx, cancel := context.WithCancelCause(context.Background())
			defer cancel(nil)

			launches := 0
			launcher := launcherFunc(func(ctx context.Context, argv []string, out io.Writer) (ProcessHandle, error) {
				launches++
				cancel(errors.New("received signal interrupt"))
				return nil, errors.New("exec: context canceled")
			})
			if tt.cancelBefore {
				cancel(errors.New("received signal interrupt"))
			}

			o := &Orchestrator{Launcher: launcher, Locator: PathLocator{}, History: history, Stderr: &bytes.Buffer{}}
			if code := o.Run(ctx, job); code != ExitFailed {
				t.Fatalf("exit code = %d, want %d", code, ExitFailed)
			}
			assertCleanedUp(t, job)
			if tt.cancelBefore && launches != 0 {
				t.Fatalf("expected no launch after cancellation, got %d", launches)
			}

			run, err := history.GetRun(context.Background(), job.ID)
			if err != nil {
				t.Fatalf("GetRun: %v", err)
			}
			if run.Outcome != store.OutcomeInterrupted || run.Error != "received signal interrupt" {
				t.Fatalf("unexpected run %+v", run)
			}
		})
	}
}

func TestRunContinuesWithoutLocatedPackageManager(t *testing.T) {
	t.Parallel()

	job := newTestJob(t, constants.PackageHomebridgeHue)
	launcher := NewMockLauncher()
	locator := SearchLocator{Candidates: []string{filepath.Join(t.TempDir(), "npm.cmd")}}

	o := &Orchestrator{Launcher: launcher, Locator: locator, Stderr: &bytes.Buffer{}}
	if code := o.Run(context.Background(), job); code != ExitOK {
		t.Fatalf("exit code = %d, want %d", code, ExitOK)
	}
	assertCleanedUp(t, job)

	records := launcher.Records()
	if len(records) != 1 || records[0].Argv[0] != "npm" {
		t.Fatalf("expected fallback to npm on the search path, got %+v", records)
	}
	logText := readLog(t, job)
	if !strings.Contains(logText, "cannot find npm binary") || !strings.Contains(logText, "npm install -g npm") {
		t.Fatalf("log should carry the remediation hint:\n%s", logText)
	}
}

func TestRunToleratesHistoryFailure(t *testing.T) {
	t.Parallel()

	job := newTestJob(t, constants.PackageHomebridge)
	history := openHistory(t, t.TempDir())
	history.Close()
	var stderr bytes.Buffer

	o := &Orchestrator{Launcher: NewMockLauncher(), Locator: PathLocator{}, History: history, Stderr: &stderr}
	if code := o.Run(context.Background(), job); code != ExitOK {
		t.Fatalf("exit code = %d, want %d", code, ExitOK)
	}
	assertCleanedUp(t, job)
	if !strings.Contains(stderr.String(), "WARNING: history unavailable") {
		t.Fatalf("expected history warning, got %q", stderr.String())
	}
}
