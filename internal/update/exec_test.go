//go:build !windows

package update

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/homebridge/uix/internal/constants"
)

// installFakeNPM puts an npm script ahead of everything else on PATH.
func installFakeNPM(t *testing.T, body string) {
	t.Helper()
	bin := t.TempDir()
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(filepath.Join(bin, "npm"), []byte(script), 0o755); err != nil {
		t.Fatalf("write fake npm: %v", err)
	}
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestExecLauncherEmptyCommand(t *testing.T) {
	t.Parallel()

	if _, err := (ExecLauncher{}).Launch(context.Background(), nil, &bytes.Buffer{}); !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("expected ErrEmptyCommand, got %v", err)
	}
}

func TestExecLauncherReportsExitCode(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	handle, err := (ExecLauncher{}).Launch(context.Background(), []string{"/bin/sh", "-c", "echo out; echo err >&2; exit 3"}, &out)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if handle.PID() <= 0 {
		t.Fatalf("PID = %d", handle.PID())
	}
	code, err := handle.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	if got := out.String(); !strings.Contains(got, "out") || !strings.Contains(got, "err") {
		t.Fatalf("expected both streams, got %q", got)
	}
}

func TestExecLauncherMissingBinary(t *testing.T) {
	t.Parallel()

	_, err := (ExecLauncher{}).Launch(context.Background(), []string{filepath.Join(t.TempDir(), "npm")}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected start error")
	}
}

func TestRunWithRealPackageManager(t *testing.T) {
	installFakeNPM(t, `echo "installing $5"
echo "npm warn deprecated" >&2
exit 7`)

	job := newTestJob(t, constants.PackageHomebridge)
	o := &Orchestrator{Locator: PathLocator{}, Stderr: &bytes.Buffer{}}
	if code := o.Run(context.Background(), job); code != ExitOK {
		t.Fatalf("exit code = %d, want %d", code, ExitOK)
	}
	assertCleanedUp(t, job)

	logText := readLog(t, job)
	for _, fragment := range []string{"installing homebridge", "npm warn deprecated", "exited with code 7"} {
		if !strings.Contains(logText, fragment) {
			t.Errorf("log missing %q:\n%s", fragment, logText)
		}
	}
}

func TestRunTerminatesPackageManager(t *testing.T) {
	installFakeNPM(t, `echo started
sleep 30`)

	job := newTestJob(t, constants.PackageHomebridge)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	started := time.Now()
	o := &Orchestrator{Locator: PathLocator{}, Stderr: &bytes.Buffer{}}
	if code := o.Run(ctx, job); code != ExitFailed {
		t.Fatalf("exit code = %d, want %d", code, ExitFailed)
	}
	if elapsed := time.Since(started); elapsed > constants.UpdateChildWaitDelay {
		t.Fatalf("Run took %s; child was not terminated", elapsed)
	}
	assertCleanedUp(t, job)
	if logText := readLog(t, job); !strings.Contains(logText, "interrupted") {
		t.Fatalf("log should record the interruption:\n%s", logText)
	}
}
