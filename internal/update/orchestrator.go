package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/homebridge/uix/internal/store"
)

// Exit codes of a helper run.
const (
	ExitOK     = 0
	ExitFailed = 1
)

// History records the lifecycle of update runs. *store.Store implements it.
type History interface {
	RecordStart(ctx context.Context, run store.Run) error
	RecordFinish(ctx context.Context, id string, fin store.Finish) error
}

// Orchestrator executes one Job. The zero value uses the real package
// manager, the platform locator and stderr.
type Orchestrator struct {
	Launcher Launcher
	Locator  Locator
	History  History   // Optional run ledger
	Stderr   io.Writer // Diagnostics before the update log is open
	Now      func() time.Time
}

// Run performs job and returns the process exit code. The lock file and the
// launcher artifact are removed exactly once on every path out of Run,
// including rejected jobs, launch failures, cancellation of ctx and panics.
// The child's own exit status does not affect the result.
func (o *Orchestrator) Run(ctx context.Context, job Job) (code int) {
	logger := log.New(o.stderr(), "[Update] ", log.LstdFlags)
	final := newFinalizer(job.LockFilePath, job.SelfPath)
	var logFile *os.File

	defer func() {
		if r := recover(); r != nil {
			logger.Printf("ERROR: update aborted: %v", r)
			if logFile != nil {
				o.finish(ctx, job, logger, store.Finish{Outcome: store.OutcomeFailed, Error: fmt.Sprint(r)})
			}
			code = ExitFailed
		}
		if err := final.Run(); err != nil {
			logger.Printf("ERROR: cleanup incomplete: %v", err)
		}
		if logFile != nil {
			logFile.Close()
		}
	}()

	if err := job.Validate(); err != nil {
		logger.Printf("ERROR: %v", err)
		o.start(ctx, job, logger)
		o.finish(ctx, job, logger, store.Finish{Outcome: store.OutcomeRejected, Error: err.Error()})
		return ExitFailed
	}

	f, err := openLog(job.LogPath)
	if err != nil {
		logger.Printf("ERROR: %v", err)
		return ExitFailed
	}
	logFile = f
	logger.SetOutput(io.MultiWriter(o.stderr(), logFile))

	o.start(ctx, job, logger)

	prefix, err := o.locator().Command()
	if err != nil {
		logger.Printf("ERROR: %v. You will not be able to manage plugins or update homebridge.", err)
		logger.Printf("ERROR: You might be able to fix this problem by running: npm install -g npm")
	}
	argv := append(append([]string(nil), prefix...), installArgs(job.Package)...)

	if ctx.Err() != nil {
		return o.interrupted(ctx, job, logger)
	}
	logger.Printf("Running update command: %s", strings.Join(argv, " "))
	handle, err := o.launcher().Launch(ctx, argv, logFile)
	if err != nil {
		if ctx.Err() != nil {
			return o.interrupted(ctx, job, logger)
		}
		logger.Printf("ERROR: %v", err)
		o.finish(ctx, job, logger, store.Finish{Outcome: store.OutcomeFailed, Error: err.Error()})
		return ExitFailed
	}

	exitCode, waitErr := handle.Wait()
	if ctx.Err() != nil {
		return o.interrupted(ctx, job, logger)
	}
	if waitErr != nil {
		logger.Printf("ERROR: waiting for package manager: %v", waitErr)
		o.finish(ctx, job, logger, store.Finish{Outcome: store.OutcomeFailed, Error: waitErr.Error()})
		return ExitFailed
	}

	logger.Printf("Package manager exited with code %d", exitCode)
	o.finish(ctx, job, logger, store.Finish{Outcome: store.OutcomeCompleted, ChildExitCode: &exitCode})
	return ExitOK
}

func (o *Orchestrator) interrupted(ctx context.Context, job Job, logger *log.Logger) int {
	cause := context.Cause(ctx)
	logger.Printf("ERROR: update of %s interrupted: %v", job.Package, cause)
	o.finish(ctx, job, logger, store.Finish{Outcome: store.OutcomeInterrupted, Error: cause.Error()})
	return ExitFailed
}

func openLog(path string) (*os.File, error) {
	if path == "" {
		return nil, errors.New("update: log path is required")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("update: open log: %w", err)
	}
	return f, nil
}

func (o *Orchestrator) start(ctx context.Context, job Job, logger *log.Logger) {
	if o.History == nil {
		return
	}
	run := store.Run{ID: job.ID, Package: job.Package, LogPath: job.LogPath, StartedAt: o.now()}
	if err := o.History.RecordStart(context.WithoutCancel(ctx), run); err != nil {
		logger.Printf("WARNING: history unavailable: %v", err)
	}
}

// finish runs at most once per job: every caller returns right after it.
func (o *Orchestrator) finish(ctx context.Context, job Job, logger *log.Logger, fin store.Finish) {
	if o.History == nil {
		return
	}
	fin.FinishedAt = o.now()
	if err := o.History.RecordFinish(context.WithoutCancel(ctx), job.ID, fin); err != nil {
		logger.Printf("WARNING: history unavailable: %v", err)
	}
}

func (o *Orchestrator) launcher() Launcher {
	if o.Launcher == nil {
		return ExecLauncher{}
	}
	return o.Launcher
}

func (o *Orchestrator) locator() Locator {
	if o.Locator == nil {
		return DefaultLocator()
	}
	return o.Locator
}

func (o *Orchestrator) stderr() io.Writer {
	if o.Stderr == nil {
		return os.Stderr
	}
	return o.Stderr
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
