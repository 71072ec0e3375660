package constants

// Environment variables read by the configuration resolver.
const (
	EnvMultimode        = "UIX_MULTIMODE"
	EnvConfigPath       = "UIX_CONFIG_PATH"
	EnvStoragePath      = "UIX_STORAGE_PATH"
	EnvCustomPluginPath = "UIX_CUSTOM_PLUGIN_PATH"
	EnvInsecureMode     = "UIX_INSECURE_MODE"
	EnvNoTimestamps     = "UIX_LOG_NO_TIMESTAMPS"
	EnvBranding         = "CONFIG_UI_BRANDING"
	EnvUIVersion        = "CONFIG_UI_VERSION"
)

// Environment variables set by the homebridge container image.
const (
	EnvDocker               = "HOMEBRIDGE_CONFIG_UI"
	EnvDockerInsecure       = "HOMEBRIDGE_INSECURE"
	EnvDockerTerminal       = "HOMEBRIDGE_CONFIG_UI_TERMINAL"
	EnvDockerPort           = "HOMEBRIDGE_CONFIG_UI_PORT"
	EnvDockerTheme          = "HOMEBRIDGE_CONFIG_UI_THEME"
	EnvDockerAuth           = "HOMEBRIDGE_CONFIG_UI_AUTH"
	EnvDockerTemp           = "HOMEBRIDGE_CONFIG_UI_TEMP"
	EnvDockerLoginWallpaper = "HOMEBRIDGE_CONFIG_UI_LOGIN_WALLPAPER"
)

// Environment variables passed to the offline update helper.
const (
	EnvUpdatePackage     = "UIX_OFFLINE_UPDATE_PACKAGE"
	EnvUpdateStoragePath = "UIX_OFFLINE_UPDATE_STORAGE_PATH"
	EnvUpdateLockFile    = "UIX_OFFLINE_UPDATE_LOCKFILE"
	EnvUpdateLog         = "UIX_OFFLINE_UPDATE_LOG"
	EnvUpdateSelf        = "UIX_OFFLINE_UPDATE_SELF"
	EnvUpdateJobID       = "UIX_OFFLINE_UPDATE_JOB_ID"
)
