package config

import "github.com/homebridge/uix/internal/constants"

// Settings defaults applied when neither the bridge config, the registry
// nor the container environment set a value.
const (
	DefaultPort            = 8080
	DefaultSessionTimeout  = 28800
	DefaultTheme           = "teal"
	DefaultAuth            = constants.AuthModeForm
	DefaultPluginName      = constants.PackageHomebridgeConfigUIX
	DefaultTemperatureUnit = "c"
	synthesizedName        = "Config"
)

// UIConfig holds the UI settings stored as the "config" platform entry.
type UIConfig struct {
	Name                       string       `json:"name,omitempty"`
	Port                       int          `json:"port,omitempty"`
	Host                       string       `json:"host,omitempty"`
	Auth                       string       `json:"auth,omitempty"`
	Theme                      string       `json:"theme,omitempty"`
	Sudo                       *bool        `json:"sudo,omitempty"`
	Restart                    string       `json:"restart,omitempty"`
	Log                        *LogConfig   `json:"log,omitempty"`
	SSL                        *SSLConfig   `json:"ssl,omitempty"`
	Temp                       string       `json:"temp,omitempty"`
	TempUnits                  string       `json:"tempUnits,omitempty"`
	LoginWallpaper             string       `json:"loginWallpaper,omitempty"`
	NoFork                     bool         `json:"noFork,omitempty"`
	Linux                      *LinuxConfig `json:"linux,omitempty"`
	Debug                      bool         `json:"debug,omitempty"`
	ProxyHost                  string       `json:"proxyHost,omitempty"`
	SessionTimeout             int          `json:"sessionTimeout,omitempty"`
	WebsocketCompatibilityMode bool         `json:"websocketCompatibilityMode,omitempty"`
	HomebridgePackagePath      string       `json:"homebridgePackagePath,omitempty"`
}

// LogConfig selects how the UI reads the bridge log.
type LogConfig struct {
	Method  string `json:"method"`
	Command string `json:"command,omitempty"`
	Path    string `json:"path,omitempty"`
	Service string `json:"service,omitempty"`
}

// SSLConfig references the TLS material served by the UI.
type SSLConfig struct {
	Key        string `json:"key,omitempty"`
	Cert       string `json:"cert,omitempty"`
	PFX        string `json:"pfx,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
}

// LinuxConfig holds host power commands.
type LinuxConfig struct {
	Shutdown string `json:"shutdown,omitempty"`
	Restart  string `json:"restart,omitempty"`
}

func defaultUI() UIConfig {
	return UIConfig{
		Name:           DefaultPluginName,
		Port:           DefaultPort,
		Auth:           DefaultAuth,
		Theme:          DefaultTheme,
		SessionTimeout: DefaultSessionTimeout,
	}
}

// MergeUI returns base with every unset field taken from fallback. It is the
// single place where layered settings are combined; callers order the layers.
func MergeUI(base, fallback UIConfig) UIConfig {
	out := base.clone()
	fb := fallback.clone()

	if out.Name == "" {
		out.Name = fb.Name
	}
	if out.Port == 0 {
		out.Port = fb.Port
	}
	if out.Host == "" {
		out.Host = fb.Host
	}
	if out.Auth == "" {
		out.Auth = fb.Auth
	}
	if out.Theme == "" {
		out.Theme = fb.Theme
	}
	if out.Sudo == nil {
		out.Sudo = fb.Sudo
	}
	if out.Restart == "" {
		out.Restart = fb.Restart
	}
	if out.Log == nil {
		out.Log = fb.Log
	}
	if out.SSL == nil {
		out.SSL = fb.SSL
	}
	if out.Temp == "" {
		out.Temp = fb.Temp
	}
	if out.TempUnits == "" {
		out.TempUnits = fb.TempUnits
	}
	if out.LoginWallpaper == "" {
		out.LoginWallpaper = fb.LoginWallpaper
	}
	out.NoFork = out.NoFork || fb.NoFork
	if out.Linux == nil {
		out.Linux = fb.Linux
	}
	out.Debug = out.Debug || fb.Debug
	if out.ProxyHost == "" {
		out.ProxyHost = fb.ProxyHost
	}
	if out.SessionTimeout == 0 {
		out.SessionTimeout = fb.SessionTimeout
	}
	out.WebsocketCompatibilityMode = out.WebsocketCompatibilityMode || fb.WebsocketCompatibilityMode
	if out.HomebridgePackagePath == "" {
		out.HomebridgePackagePath = fb.HomebridgePackagePath
	}
	return out
}

// FormAuth reports whether the UI requires a login form.
func (u UIConfig) FormAuth() bool {
	return u.Auth != constants.AuthModeNone
}

// clone copies u so that pointer members are not shared between snapshots.
func (u UIConfig) clone() UIConfig {
	out := u
	if u.Sudo != nil {
		v := *u.Sudo
		out.Sudo = &v
	}
	if u.Log != nil {
		v := *u.Log
		out.Log = &v
	}
	if u.SSL != nil {
		v := *u.SSL
		out.SSL = &v
	}
	if u.Linux != nil {
		v := *u.Linux
		out.Linux = &v
	}
	return out
}
