package docsync

import "github.com/goliatone/go-docsync/internal/runtimeconfig"

var (
	ErrModeInvalid            = runtimeconfig.ErrModeInvalid
	ErrTargetInvalid          = runtimeconfig.ErrTargetInvalid
	ErrLocalDSNRequired       = runtimeconfig.ErrLocalDSNRequired
	ErrRequirementStyles      = runtimeconfig.ErrRequirementStyles
	ErrTestCaseStyleRequired  = runtimeconfig.ErrTestCaseStyleRequired
	ErrTaskStyleRequired      = runtimeconfig.ErrTaskStyleRequired
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
	ErrConfigRead             = runtimeconfig.ErrConfigRead
)

type (
	Config        = runtimeconfig.Config
	ServerConfig  = runtimeconfig.ServerConfig
	ProjectConfig = runtimeconfig.ProjectConfig
	SyncConfig    = runtimeconfig.SyncConfig
	LoggingConfig = runtimeconfig.LoggingConfig
)

const (
	TargetRemote = runtimeconfig.TargetRemote
	TargetLocal  = runtimeconfig.TargetLocal
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML config file layered over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
