package config

import (
	"os"
	"runtime"

	"github.com/homebridge/uix/internal/constants"
)

// Environment is the process environment the resolver depends on, captured
// once so resolution is repeatable and testable.
type Environment struct {
	Multimode        string // Multimode root directory; empty in single-instance mode
	ConfigPath       string // Bridge config override (single-instance mode)
	StoragePath      string // Storage root override (single-instance mode)
	CustomPluginPath string // Plugin directory override (single-instance mode)
	InsecureMode     bool
	NoTimestamps     bool
	HomeDir          string

	Docker               bool // Running inside the homebridge container image
	DockerInsecure       bool
	TerminalAccess       bool
	DockerPort           string
	DockerTheme          string
	DockerAuth           string
	DockerTemp           string
	DockerLoginWallpaper string

	Branding  string
	UIVersion string
	GOOS      string
}

// LoadEnvironment builds an Environment from getenv. Presence flags follow
// the bridge's convention: any non-empty value enables UIX_* booleans, while
// the container flags must equal "1".
func LoadEnvironment(getenv func(string) string) Environment {
	home, _ := os.UserHomeDir()
	return Environment{
		Multimode:        getenv(constants.EnvMultimode),
		ConfigPath:       getenv(constants.EnvConfigPath),
		StoragePath:      getenv(constants.EnvStoragePath),
		CustomPluginPath: getenv(constants.EnvCustomPluginPath),
		InsecureMode:     getenv(constants.EnvInsecureMode) != "",
		NoTimestamps:     getenv(constants.EnvNoTimestamps) != "",
		HomeDir:          home,

		Docker:               getenv(constants.EnvDocker) == "1",
		DockerInsecure:       getenv(constants.EnvDockerInsecure) == "1",
		TerminalAccess:       getenv(constants.EnvDockerTerminal) == "1",
		DockerPort:           getenv(constants.EnvDockerPort),
		DockerTheme:          getenv(constants.EnvDockerTheme),
		DockerAuth:           getenv(constants.EnvDockerAuth),
		DockerTemp:           getenv(constants.EnvDockerTemp),
		DockerLoginWallpaper: getenv(constants.EnvDockerLoginWallpaper),

		Branding:  getenv(constants.EnvBranding),
		UIVersion: getenv(constants.EnvUIVersion),
		GOOS:      runtime.GOOS,
	}
}

// EnvironmentFromOS captures the current process environment.
func EnvironmentFromOS() Environment {
	return LoadEnvironment(os.Getenv)
}
