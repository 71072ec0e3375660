package config

import (
	"os"
	"path/filepath"

	"github.com/homebridge/uix/internal/constants"
)

// Paths contains every filesystem location derived for one instance.
type Paths struct {
	StoragePath         string // Storage root of the bridge instance
	ConfigPath          string // Bridge config.json
	SecretPath          string // Signing secret file
	AuthPath            string // UI user database
	CustomPluginPath    string // Optional extra plugin directory
	AccessoryLayoutPath string // Saved accessory layout
	StartupScript       string // Container startup script
	DockerEnvFile       string // Container environment file
}

// derivePaths lays out an instance beneath storage. configPath may point
// elsewhere when overridden; pluginPath is kept only when non-empty.
func derivePaths(storage, configPath, pluginPath string) Paths {
	storage = absPath(storage)
	if configPath == "" {
		configPath = filepath.Join(storage, constants.BridgeConfigFileName)
	}
	if pluginPath != "" {
		pluginPath = absPath(pluginPath)
	}
	return Paths{
		StoragePath:         storage,
		ConfigPath:          absPath(configPath),
		SecretPath:          filepath.Join(storage, constants.SecretsFileName),
		AuthPath:            filepath.Join(storage, constants.AuthFileName),
		CustomPluginPath:    pluginPath,
		AccessoryLayoutPath: filepath.Join(storage, constants.AccessoriesDirName, constants.AccessoryLayoutName),
		StartupScript:       filepath.Join(storage, constants.StartupScriptFileName),
		DockerEnvFile:       filepath.Join(storage, constants.DockerEnvFileName),
	}
}

// DefaultStoragePath returns the single-instance storage root (~/.homebridge).
func DefaultStoragePath(home string) string {
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, constants.DefaultStorageDirName)
}

// ExpandPath expands ~ to the user home directory.
func ExpandPath(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) == 1 {
			return home
		}
		if path[1] == '/' || path[1] == os.PathSeparator {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func absPath(path string) string {
	path = ExpandPath(path)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
