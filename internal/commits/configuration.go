package commits

import "strings"

// CommandConfiguration captures the commit section of the configuration file.
type CommandConfiguration struct {
	Message         string   `mapstructure:"message"`
	Flags           []string `mapstructure:"flags"`
	IgnoreUntracked bool     `mapstructure:"ignore_untracked"`
}

// DefaultCommandConfiguration provides baseline commit settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Message: DefaultCommitMessageConstant}
}

// Sanitize trims values and drops empty flags.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Message = strings.TrimSpace(configuration.Message)
	if len(sanitized.Message) == 0 {
		sanitized.Message = DefaultCommitMessageConstant
	}
	sanitized.Flags = make([]string, 0, len(configuration.Flags))
	for _, flag := range configuration.Flags {
		trimmedFlag := strings.TrimSpace(flag)
		if len(trimmedFlag) == 0 {
			continue
		}
		sanitized.Flags = append(sanitized.Flags, trimmedFlag)
	}
	return sanitized
}
