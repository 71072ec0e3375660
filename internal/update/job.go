// Package update runs the offline package updater: a short-lived helper
// that installs one allow-listed package with the system package manager,
// streams its output to a log and always releases the update lock.
package update

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/homebridge/uix/internal/constants"
)

var (
	// ErrPackageNotAllowed indicates a package outside the updatable set.
	ErrPackageNotAllowed = errors.New("update: package is not in the updatable set")
	// ErrUpdateInProgress indicates an existing lock file.
	ErrUpdateInProgress = errors.New("update: an update is already in progress")
)

// Job is the single update performed by one helper invocation.
type Job struct {
	ID           string
	Package      string
	StoragePath  string
	LockFilePath string
	SelfPath     string // Launcher artifact that started the helper
	LogPath      string
}

// Allowed reports whether pkg may be installed by the updater.
func Allowed(pkg string) bool {
	return slices.Contains(constants.UpdatablePackages, pkg)
}

// Validate checks the job's package against the updatable set.
func (j Job) Validate() error {
	if !Allowed(j.Package) {
		return fmt.Errorf("%w: %q", ErrPackageNotAllowed, j.Package)
	}
	return nil
}

// JobFromEnv reads the job handed over by the launcher. Paths are trusted as
// given; only the package name is checked, later, by Validate.
func JobFromEnv(getenv func(string) string) Job {
	id := getenv(constants.EnvUpdateJobID)
	if id == "" {
		id = uuid.NewString()
	}
	return Job{
		ID:           id,
		Package:      getenv(constants.EnvUpdatePackage),
		StoragePath:  getenv(constants.EnvUpdateStoragePath),
		LockFilePath: getenv(constants.EnvUpdateLockFile),
		SelfPath:     getenv(constants.EnvUpdateSelf),
		LogPath:      getenv(constants.EnvUpdateLog),
	}
}

// Environ returns the job as KEY=value pairs understood by JobFromEnv.
func (j Job) Environ() []string {
	return []string{
		constants.EnvUpdateJobID + "=" + j.ID,
		constants.EnvUpdatePackage + "=" + j.Package,
		constants.EnvUpdateStoragePath + "=" + j.StoragePath,
		constants.EnvUpdateLockFile + "=" + j.LockFilePath,
		constants.EnvUpdateSelf + "=" + j.SelfPath,
		constants.EnvUpdateLog + "=" + j.LogPath,
	}
}

// installArgs are appended to the package manager prefix.
func installArgs(pkg string) []string {
	return []string{"install", "-g", "--unsafe-perm", pkg}
}
