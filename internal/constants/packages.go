package constants

const (
	PackageHomebridgeHue       = "homebridge-hue"
	PackageHomebridgeConfigUIX = "homebridge-config-ui-x"
	PackageHomebridge          = "homebridge"
)

// UpdatablePackages is the fixed set of packages the offline updater may
// install. Nothing outside this list is ever passed to the package manager.
var UpdatablePackages = []string{
	PackageHomebridgeHue,
	PackageHomebridgeConfigUIX,
	PackageHomebridge,
}
