//go:build !windows

package update

import "strings"

const artifactExt = ".sh"

// renderArtifact returns a shell script that replaces itself with helper.
func renderArtifact(helper string) string {
	return "#!/bin/sh\nexec " + shellQuote(helper) + " \"$@\"\n"
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
