package constants

const (
	AuthModeForm = "form"
	AuthModeNone = "none"
)

var AllowedAuthModes = []string{
	AuthModeForm,
	AuthModeNone,
}
