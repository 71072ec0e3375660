//go:build !windows

package update

// DefaultLocator uses npm from the search path.
func DefaultLocator() Locator {
	return PathLocator{}
}
