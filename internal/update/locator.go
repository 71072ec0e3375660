package update

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	npmBinary        = "npm"
	noUpdateNotifier = "--no-update-notifier"
)

// ErrPackageManagerNotFound indicates none of a locator's candidates exist.
// The returned command still falls back to the search path.
var ErrPackageManagerNotFound = errors.New("update: cannot find npm binary")

// Locator finds the package manager for the current platform. Command always
// returns a usable argv prefix; a non-nil error is a warning to surface.
type Locator interface {
	Command() ([]string, error)
}

// PathLocator relies on the executable search path.
type PathLocator struct{}

func (PathLocator) Command() ([]string, error) {
	return []string{npmBinary, noUpdateNotifier}, nil
}

// SearchLocator probes fixed installation paths in order.
type SearchLocator struct {
	Candidates []string
}

// NewSearchLocator returns the Windows installation candidates derived from
// APPDATA and ProgramFiles. Unset variables contribute no candidate.
func NewSearchLocator(getenv func(string) string) SearchLocator {
	var candidates []string
	if dir := getenv("APPDATA"); dir != "" {
		candidates = append(candidates, filepath.Join(dir, "npm", "npm.cmd"))
	}
	if dir := getenv("ProgramFiles"); dir != "" {
		candidates = append(candidates, filepath.Join(dir, "nodejs", "npm.cmd"))
	}
	return SearchLocator{Candidates: candidates}
}

func (l SearchLocator) Command() ([]string, error) {
	for _, candidate := range l.Candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return []string{candidate, noUpdateNotifier}, nil
		}
	}
	return []string{npmBinary, noUpdateNotifier}, ErrPackageManagerNotFound
}
