package update

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/homebridge/uix/internal/constants"
	"github.com/homebridge/uix/internal/procutil"
)

// LaunchOptions configures a detached update.
type LaunchOptions struct {
	Package     string
	StoragePath string
	HelperPath  string // uix-update executable
	LogPath     string // Defaults to the update log beneath StoragePath
}

// LockInfo is the content of the update lock file. Only the file's existence
// guards against concurrent updates; the fields describe the holder.
type LockInfo struct {
	JobID     string    `json:"jobId" yaml:"jobId"`
	Package   string    `json:"package" yaml:"package"`
	StartedAt time.Time `json:"startedAt" yaml:"startedAt"`
	LockedBy  int       `json:"lockedBy" yaml:"lockedBy"`
	HelperPID int       `json:"helperPid,omitempty" yaml:"helperPid,omitempty"`
}

// Launch takes the update lock, writes a single-use launcher artifact and
// starts the helper through it, detached from the caller. The helper owns
// the lock and artifact once Launch returns; on error neither is left behind.
func Launch(opts LaunchOptions) (Job, error) {
	if !Allowed(opts.Package) {
		return Job{}, fmt.Errorf("%w: %q", ErrPackageNotAllowed, opts.Package)
	}
	if opts.StoragePath == "" {
		return Job{}, errors.New("update: storage path is required")
	}
	if opts.HelperPath == "" {
		return Job{}, errors.New("update: helper path is required")
	}

	id := uuid.NewString()
	job := Job{
		ID:           id,
		Package:      opts.Package,
		StoragePath:  opts.StoragePath,
		LockFilePath: filepath.Join(opts.StoragePath, constants.UpdateLockFileName),
		SelfPath:     filepath.Join(opts.StoragePath, fmt.Sprintf(constants.UpdateLauncherTemplate, id)+artifactExt),
		LogPath:      opts.LogPath,
	}
	if job.LogPath == "" {
		job.LogPath = filepath.Join(opts.StoragePath, constants.UpdateLogFileName)
	}

	info, err := acquireLock(job)
	if err != nil {
		return Job{}, err
	}
	release := newFinalizer(job.LockFilePath, job.SelfPath)

	if err := os.WriteFile(job.SelfPath, []byte(renderArtifact(opts.HelperPath)), 0o700); err != nil {
		return Job{}, errors.Join(fmt.Errorf("update: write launcher: %w", err), release.Run())
	}

	cmd := exec.Command(job.SelfPath)
	cmd.Env = append(os.Environ(), job.Environ()...)
	cmd.Dir = opts.StoragePath
	cmd.SysProcAttr = procutil.DetachedAttr()
	if err := cmd.Start(); err != nil {
		return Job{}, errors.Join(fmt.Errorf("update: start helper: %w", err), release.Run())
	}
	info.HelperPID = cmd.Process.Pid
	_ = cmd.Process.Release()

	if err := recordHelper(job.LockFilePath, info); err != nil {
		log.Printf("[Update] WARNING: record helper pid: %v", err)
	}
	return job, nil
}

func acquireLock(job Job) (LockInfo, error) {
	f, err := os.OpenFile(job.LockFilePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return LockInfo{}, fmt.Errorf("%w: %s exists", ErrUpdateInProgress, job.LockFilePath)
		}
		return LockInfo{}, fmt.Errorf("update: create lock: %w", err)
	}

	info := LockInfo{
		JobID:     job.ID,
		Package:   job.Package,
		StartedAt: time.Now().UTC(),
		LockedBy:  os.Getpid(),
	}
	err = json.NewEncoder(f).Encode(info)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(job.LockFilePath)
		return LockInfo{}, fmt.Errorf("update: write lock: %w", err)
	}
	return info, nil
}

// recordHelper rewrites the lock with the helper's pid. The lock is never
// re-created: a helper that already finished has released it.
func recordHelper(path string, info LockInfo) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	err = json.NewEncoder(f).Encode(info)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadLock returns the holder of the update lock beneath storagePath. Without
// a lock the error matches fs.ErrNotExist.
func ReadLock(storagePath string) (LockInfo, error) {
	path := filepath.Join(storagePath, constants.UpdateLockFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return LockInfo{}, err
	}
	var info LockInfo
	if len(bytes.TrimSpace(data)) == 0 {
		// Held, but the holder has not been written yet.
		return info, nil
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return LockInfo{}, fmt.Errorf("update: parse lock %s: %w", path, err)
	}
	return info, nil
}
