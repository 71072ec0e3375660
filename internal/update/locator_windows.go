//go:build windows

package update

import "os"

// DefaultLocator searches the usual npm installation directories.
func DefaultLocator() Locator {
	return NewSearchLocator(os.Getenv)
}
