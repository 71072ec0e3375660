package update

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// finalizer removes the lock file and launcher artifact. Every exit path of
// a run funnels into Run; only the first call does any work.
type finalizer struct {
	paths []string

	once     sync.Once
	attempts int
	err      error
}

func newFinalizer(paths ...string) *finalizer {
	return &finalizer{paths: paths}
}

// Run removes every path, continuing past failures. Paths that are already
// gone are not errors. Later calls return the first call's result.
func (f *finalizer) Run() error {
	f.once.Do(func() {
		f.attempts++
		var errs []error
		for _, path := range f.paths {
			if path == "" {
				continue
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			}
		}
		f.err = errors.Join(errs...)
	})
	return f.err
}
