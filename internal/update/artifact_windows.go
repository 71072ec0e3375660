//go:build windows

package update

const artifactExt = ".cmd"

// renderArtifact returns a batch file that runs helper with its arguments.
func renderArtifact(helper string) string {
	return "@echo off\r\n\"" + helper + "\" %*\r\n"
}
