package constants

// File and directory names beneath a storage root.
const (
	DefaultStorageDirName  = ".homebridge"
	BridgeConfigFileName   = "config.json"
	RegistryFileName       = "ui.json"
	SecretsFileName        = ".uix-secrets"
	AuthFileName           = "auth.json"
	StartupScriptFileName  = "startup.sh"
	DockerEnvFileName      = ".docker.env"
	AccessoriesDirName     = "accessories"
	AccessoryLayoutName    = "uiAccessoriesLayout.json"
	UpdateLockFileName     = ".uix-offline-update.lock"
	UpdateLogFileName      = "homebridge-config-ui-x-update.log"
	UpdateHistoryFileName  = ".uix-update-history.db"
	UpdateLauncherTemplate = ".uix-offline-update-%s"
)

// Fixed locations inside the homebridge container image.
const (
	DockerLogPath       = "/homebridge/logs/homebridge.log"
	DockerRestartScript = "killall -9 homebridge && killall -9 homebridge-config-ui-x"
)
