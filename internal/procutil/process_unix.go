//go:build !windows

package procutil

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// GroupAttr places a child in its own process group so that termination
// reaches the package manager and anything it spawned.
func GroupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// DetachedAttr starts a child in a new session, detached from the caller's
// controlling terminal, so it outlives the process that launched it.
func DetachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

// GracefulTerminate sends SIGTERM to the process group led by p, falling back
// to the process itself when it is not a group leader.
func GracefulTerminate(p *os.Process) error {
	if p == nil {
		return os.ErrProcessDone
	}
	if err := unix.Kill(-p.Pid, unix.SIGTERM); err == nil {
		return nil
	}
	return p.Signal(unix.SIGTERM)
}

// TerminateByPID sends SIGTERM to the process identified by pid.
func TerminateByPID(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

// IsProcessAlive checks whether a process with the given pid is still running.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
