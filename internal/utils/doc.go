// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses ConfigurationLoader, which layers embedded defaults, an optional
// file and GITKEEPER_ environment variables through Viper, LoggerFactory for
// zap loggers, and CommandContextAccessor for values shared between Cobra
// commands.
package utils
