package cli

import "github.com/temirov/craftline/internal/utils"

const (
	defaultVerbosityValueConstant        = "brief"
	defaultLogMaxFilesValueConstant      = 5
	defaultSpinnerIntervalValueConstant  = 100
	defaultSpinnerThresholdValueConstant = 2
)

// DefaultConfigurationValues returns the configuration defaults applied before
// any configuration file or environment override.
func DefaultConfigurationValues() map[string]any {
	return map[string]any{
		commonVerbosityConfigKeyConstant:  defaultVerbosityValueConstant,
		commonLogLevelConfigKeyConstant:   string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:  string(utils.LogFormatStructured),
		logDirectoryConfigKeyConstant:     "",
		logMaxFilesConfigKeyConstant:      defaultLogMaxFilesValueConstant,
		spinnerIntervalConfigKeyConstant:  defaultSpinnerIntervalValueConstant,
		spinnerThresholdConfigKeyConstant: defaultSpinnerThresholdValueConstant,
	}
}
