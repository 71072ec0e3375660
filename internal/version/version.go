package version

import (
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

var version = "dev"

// String returns the build version for the current binary.
func String() string {
	return version
}

// ForTesting overrides the version string and returns a cleanup function
// that restores the original value. Must not be called concurrently.
func ForTesting(v string) func() {
	original := version
	version = v
	return func() { version = original }
}

// gitDescribeSuffix matches the trailing "-N-gHASH" added by git describe
// (e.g., "4.5.0-5-gabcdef" → strip "-5-gabcdef").
var gitDescribeSuffix = regexp.MustCompile(`-\d+-g[0-9a-f]+$`)

// normalizeVersion strips any git-describe suffix and ensures the "v" prefix
// that golang.org/x/mod/semver expects.
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "v")
	v = gitDescribeSuffix.ReplaceAllString(v, "")
	return "v" + v
}

// FormatVersion returns a display-friendly version string. For normal versions
// it ensures a "v" prefix (e.g. "4.5.0" → "v4.5.0"). Special values like
// "dev" and empty strings are returned as-is.
func FormatVersion(v string) string {
	if v == "" || v == "dev" {
		return v
	}
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// AtLeast reports whether v is a valid semantic version greater than or
// equal to minimum. Invalid or empty versions never satisfy the check.
func AtLeast(v, minimum string) bool {
	if strings.TrimSpace(v) == "" {
		return false
	}
	nv := normalizeVersion(v)
	nm := normalizeVersion(minimum)
	if !semver.IsValid(nv) || !semver.IsValid(nm) {
		return false
	}
	return semver.Compare(nv, nm) >= 0
}
