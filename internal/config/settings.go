package config

import (
	"runtime"
	"time"

	"github.com/homebridge/uix/internal/constants"
	"github.com/homebridge/uix/internal/version"
)

// Settings is the payload the API layer serves to the web UI.
type Settings struct {
	Env             SettingsEnv `json:"env" yaml:"env"`
	FormAuth        bool        `json:"formAuth" yaml:"formAuth"`
	Theme           string      `json:"theme" yaml:"theme"`
	ServerTimestamp string      `json:"serverTimestamp" yaml:"serverTimestamp"`
}

// SettingsEnv describes the host and instance the UI is talking to.
type SettingsEnv struct {
	AbleToConfigureSelf        bool   `json:"ableToConfigureSelf" yaml:"ableToConfigureSelf"`
	EnableAccessories          bool   `json:"enableAccessories" yaml:"enableAccessories"`
	EnableTerminalAccess       bool   `json:"enableTerminalAccess" yaml:"enableTerminalAccess"`
	HomebridgeInstanceName     string `json:"homebridgeInstanceName" yaml:"homebridgeInstanceName"`
	RuntimeVersion             string `json:"runtimeVersion" yaml:"runtimeVersion"`
	PackageName                string `json:"packageName" yaml:"packageName"`
	PackageVersion             string `json:"packageVersion" yaml:"packageVersion"`
	RunningInDocker            bool   `json:"runningInDocker" yaml:"runningInDocker"`
	RunningInLinux             bool   `json:"runningInLinux" yaml:"runningInLinux"`
	TemperatureUnits           string `json:"temperatureUnits" yaml:"temperatureUnits"`
	WebsocketCompatibilityMode bool   `json:"websocketCompatibilityMode" yaml:"websocketCompatibilityMode"`
	Branding                   string `json:"branding,omitempty" yaml:"branding,omitempty"`
	InstanceID                 string `json:"instanceId" yaml:"instanceId"`
	MultimodeInstance          string `json:"multimodeInstance,omitempty" yaml:"multimodeInstance,omitempty"`
}

// Settings builds the UI payload for the snapshot at time now.
func (c *InstanceConfig) Settings(now time.Time) Settings {
	units := c.UI.TempUnits
	if units == "" {
		units = DefaultTemperatureUnit
	}
	var bridgeName string
	if c.Bridge != nil {
		bridgeName = c.Bridge.Bridge.Name
	}

	return Settings{
		Env: SettingsEnv{
			AbleToConfigureSelf:        c.AbleToConfigureSelf,
			EnableAccessories:          c.InsecureMode,
			EnableTerminalAccess:       c.EnableTerminalAccess,
			HomebridgeInstanceName:     bridgeName,
			RuntimeVersion:             runtime.Version(),
			PackageName:                constants.PackageHomebridgeConfigUIX,
			PackageVersion:             version.String(),
			RunningInDocker:            c.RunningInDocker,
			RunningInLinux:             c.RunningInLinux,
			TemperatureUnits:           units,
			WebsocketCompatibilityMode: c.UI.WebsocketCompatibilityMode,
			Branding:                   c.Branding,
			InstanceID:                 c.InstanceID,
			MultimodeInstance:          c.Instance,
		},
		FormAuth:        c.UI.FormAuth(),
		Theme:           c.UI.Theme,
		ServerTimestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
