package stash

import (
	"strings"
	"time"
)

// CommandConfiguration captures the stash section of the configuration file.
type CommandConfiguration struct {
	Label      string        `mapstructure:"label"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// DefaultCommandConfiguration provides baseline stash settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Label: DefaultLabelConstant, RetryDelay: DefaultRetryDelay}
}

// Sanitize trims the label and restores defaults for missing values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Label = strings.TrimSpace(configuration.Label)
	if len(sanitized.Label) == 0 {
		sanitized.Label = DefaultLabelConstant
	}
	if sanitized.RetryDelay <= 0 {
		sanitized.RetryDelay = DefaultRetryDelay
	}
	return sanitized
}
