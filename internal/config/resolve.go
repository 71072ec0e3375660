package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strconv"

	"github.com/homebridge/uix/internal/constants"
	"github.com/homebridge/uix/internal/secrets"
	"github.com/homebridge/uix/internal/version"
)

// minSelfConfigureVersion is the first container image release that lets
// the UI manage its own package.
const minSelfConfigureVersion = "3.5.5"

// InstanceConfig is a fully resolved snapshot of one bridge instance. It is
// never mutated after Resolve returns; switching instances builds a new one.
type InstanceConfig struct {
	Paths

	// Instance is the selected multimode instance; empty in single-instance mode.
	Instance     string
	InsecureMode bool
	NoTimestamps bool

	Bridge *BridgeConfig
	UI     UIConfig

	Secrets    secrets.Record
	InstanceID string

	RunningInDocker      bool
	RunningInLinux       bool
	EnableTerminalAccess bool
	AbleToConfigureSelf  bool
	Branding             string
}

// Multimode reports whether the snapshot belongs to a multimode instance.
func (c *InstanceConfig) Multimode() bool {
	return c.Instance != ""
}

// Resolve computes the configuration for instance. In multimode an empty
// instance selects the first registry entry; outside multimode instance must
// be empty.
func Resolve(env Environment, instance string) (*InstanceConfig, error) {
	cfg := &InstanceConfig{
		RunningInDocker:      env.Docker,
		RunningInLinux:       !env.Docker && env.GOOS == "linux",
		EnableTerminalAccess: env.Docker || env.TerminalAccess,
		AbleToConfigureSelf:  !env.Docker || version.AtLeast(env.UIVersion, minSelfConfigureVersion),
		Branding:             env.Branding,
	}

	var registry *Registry
	if env.Multimode != "" {
		reg, err := LoadRegistry(RegistryPath(env))
		if err != nil {
			return nil, err
		}
		desc, err := reg.Lookup(instance)
		if err != nil {
			return nil, err
		}
		registry = reg
		cfg.Instance = desc.Name
		cfg.Paths = derivePaths(desc.Path, "", desc.CustomPluginPath)
		cfg.InsecureMode = desc.Insecure
		cfg.NoTimestamps = desc.NoTimestamps
	} else {
		if instance != "" {
			return nil, fmt.Errorf("%w: cannot select instance %q", ErrNotMultimode, instance)
		}
		storage := env.StoragePath
		if storage == "" {
			storage = DefaultStoragePath(env.HomeDir)
		}
		cfg.Paths = derivePaths(storage, env.ConfigPath, env.CustomPluginPath)
		cfg.InsecureMode = env.InsecureMode
		cfg.NoTimestamps = env.NoTimestamps
	}

	bridge, err := LoadBridgeConfig(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Bridge = bridge

	ui, ok := bridge.ConfigPlatform()
	if !ok {
		ui = UIConfig{Name: synthesizedName}
	}
	if registry != nil {
		registry.applyShared(&ui)
	}
	if env.Docker {
		ui = applyDocker(ui, env, cfg)
	}
	cfg.UI = MergeUI(ui, defaultUI())

	rec, err := secrets.GetOrCreate(cfg.SecretPath)
	if err != nil {
		return nil, err
	}
	cfg.Secrets = rec
	cfg.InstanceID = secrets.DeriveIdentity(rec)

	return cfg, nil
}

// RegistryPath returns the location of the multimode registry, or "" when
// multimode is disabled.
func RegistryPath(env Environment) string {
	if env.Multimode == "" {
		return ""
	}
	return filepath.Join(absPath(env.Multimode), constants.RegistryFileName)
}

// applyDocker forces the settings the container image depends on and lets
// the container environment fill settings left unset on disk.
func applyDocker(ui UIConfig, env Environment, cfg *InstanceConfig) UIConfig {
	sudo := false
	ui.Restart = constants.DockerRestartScript
	ui.Sudo = &sudo
	ui.Log = &LogConfig{Method: "file", Path: constants.DockerLogPath}
	cfg.InsecureMode = env.DockerInsecure

	seeded := UIConfig{
		Theme:          env.DockerTheme,
		Auth:           env.DockerAuth,
		Temp:           env.DockerTemp,
		LoginWallpaper: env.DockerLoginWallpaper,
	}
	if env.DockerPort != "" {
		port, err := strconv.Atoi(env.DockerPort)
		if err != nil || port <= 0 {
			log.Printf("[Config] ignoring invalid %s=%q", constants.EnvDockerPort, env.DockerPort)
		} else {
			seeded.Port = port
		}
	}
	return MergeUI(ui, seeded)
}
