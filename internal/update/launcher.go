package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/homebridge/uix/internal/constants"
	"github.com/homebridge/uix/internal/procutil"
)

// ErrEmptyCommand indicates a launch without an executable.
var ErrEmptyCommand = errors.New("update: empty package manager command")

// Launcher starts the package manager with both output streams attached to out.
type Launcher interface {
	Launch(ctx context.Context, argv []string, out io.Writer) (ProcessHandle, error)
}

// ProcessHandle is a started package manager process.
type ProcessHandle interface {
	// Wait blocks until the process ends. It reports the exit status when the
	// process terminated and an error only when waiting itself failed.
	Wait() (int, error)
	PID() int
}

// ExecLauncher runs the package manager as a real child process. Cancelling
// the launch context sends the child's process group a termination signal.
type ExecLauncher struct{}

func (ExecLauncher) Launch(ctx context.Context, argv []string, out io.Writer) (ProcessHandle, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	// An *os.File is handed to the child directly, so output reaches the log
	// without passing through this process.
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.SysProcAttr = procutil.GroupAttr()
	cmd.Cancel = func() error {
		return procutil.GracefulTerminate(cmd.Process)
	}
	cmd.WaitDelay = constants.UpdateChildWaitDelay

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("update: start %s: %w", argv[0], err)
	}
	return &execHandle{cmd: cmd}, nil
}

type execHandle struct {
	cmd *exec.Cmd
}

func (h *execHandle) Wait() (int, error) {
	err := h.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func (h *execHandle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}
