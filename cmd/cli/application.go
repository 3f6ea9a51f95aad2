package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/branches"
	"github.com/temirov/gitkeeper/internal/commits"
	"github.com/temirov/gitkeeper/internal/dependencies"
	"github.com/temirov/gitkeeper/internal/stash"
	"github.com/temirov/gitkeeper/internal/utils"
	pathutils "github.com/temirov/gitkeeper/internal/utils/path"
	"github.com/temirov/gitkeeper/internal/worklock"
	"github.com/temirov/gitkeeper/internal/workspace"
)

const (
	applicationNameConstant                 = "gitkeeper"
	applicationShortDescriptionConstant     = "Keep a git working directory in a known, reproducible state"
	applicationLongDescriptionConstant      = "gitkeeper drives the git command-line tool to verify a repository, switch branches safely, commit tracked paths and carry uncommitted work across runs through a labeled stash entry. Run without a subcommand it restores the most recent stash entry."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	repositoryFlagNameConstant              = "repository"
	repositoryFlagUsageConstant             = "Repository working directory (defaults to the configured path)."
	environmentPrefixConstant               = "GITKEEPER"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	repositoryFieldConstant                 = "repository"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	repositoryPathErrorTemplateConstant     = "unable to resolve repository path: %w"
	lockerCreationErrorTemplateConstant     = "unable to prepare repository lock: %w"
	lockUnavailableMessageConstant          = "repository lock skipped; git directory not found"
	defaultConfigurationSearchPathConstant  = "."
	configurationKeySeparatorConstant       = "."
	commonSectionKeyConstant                = "common"
	repositorySectionKeyConstant            = "repository"
	logLevelKeyConstant                     = "log_level"
	logFormatKeyConstant                    = "log_format"
	repositoryPathKeyConstant               = "path"
	commonLogLevelConfigKeyConstant         = commonSectionKeyConstant + configurationKeySeparatorConstant + logLevelKeyConstant
	commonLogFormatConfigKeyConstant        = commonSectionKeyConstant + configurationKeySeparatorConstant + logFormatKeyConstant
	repositoryPathConfigKeyConstant         = repositorySectionKeyConstant + configurationKeySeparatorConstant + repositoryPathKeyConstant
	lockExemptAnnotationConstant            = "gitkeeper.lock_exempt"
	lockExemptAnnotationValueConstant       = "true"
	defaultApplicationVersionConstant       = "dev"
)

// applicationVersion is overridden at build time through -ldflags "-X".
var applicationVersion = defaultApplicationVersionConstant

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common     ApplicationCommonConfiguration     `mapstructure:"common"`
	Repository ApplicationRepositoryConfiguration `mapstructure:"repository"`
	Stash      stash.CommandConfiguration         `mapstructure:"stash"`
	Commit     commits.CommandConfiguration       `mapstructure:"commit"`
	Lock       ApplicationLockConfiguration       `mapstructure:"lock"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationRepositoryConfiguration selects the working directory.
type ApplicationRepositoryConfiguration struct {
	Path string `mapstructure:"path"`
}

// ApplicationLockConfiguration controls the cross-process repository lock.
type ApplicationLockConfiguration struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	repositoryPathResolver *pathutils.RepositoryPathResolver
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	repositoryFlagValue    string
	sessionIdentifier      string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		repositoryPathResolver: pathutils.NewRepositoryPathResolver(),
		logger:                 zap.NewNop(),
		sessionIdentifier:      uuid.NewString(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	loggerProvider := func() *zap.Logger {
		return application.logger
	}

	workspaceBuilder := workspace.CommandBuilder{
		LoggerProvider:               loggerProvider,
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		StashConfigurationProvider:   application.stashConfiguration,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       applicationVersion,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: workspaceBuilder.RunBootstrap,
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.repositoryFlagValue, repositoryFlagNameConstant, "", repositoryFlagUsageConstant)

	commandBuilders := []func() (*cobra.Command, error){
		workspaceBuilder.BuildInit,
		workspaceBuilder.BuildStatus,
		(&branches.CommandBuilder{
			LoggerProvider:               loggerProvider,
			HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		}).Build,
		(&branches.CommandBuilder{
			LoggerProvider:               loggerProvider,
			HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		}).BuildRestoreFile,
		(&commits.CommandBuilder{
			LoggerProvider:               loggerProvider,
			HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
			ConfigurationProvider:        application.commitConfiguration,
		}).Build,
		(&stash.CommandBuilder{
			LoggerProvider:               loggerProvider,
			HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
			ConfigurationProvider:        application.stashConfiguration,
		}).Build,
		(&ConfigCommandBuilder{
			SettingsProvider: application.effectiveSettings,
		}).Build,
	}
	for _, buildCommand := range commandBuilders {
		subcommand, buildError := buildCommand()
		if buildError != nil {
			continue
		}
		cobraCommand.AddCommand(subcommand)
	}

	application.guardWithRepositoryLock(cobraCommand)
	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
		repositoryPathConfigKeyConstant:  defaultConfigurationSearchPathConstant,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, repositoryFlagNameConstant) {
		application.configuration.Repository.Path = application.repositoryFlagValue
	}

	logLevel, levelError := utils.ParseLogLevel(application.configuration.Common.LogLevel)
	if levelError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, levelError)
	}
	logFormat, formatError := utils.ParseLogFormat(application.configuration.Common.LogFormat)
	if formatError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, formatError)
	}
	logger, loggerCreationError := application.loggerFactory.CreateLogger(utils.LoggerOptions{
		Level:             logLevel,
		Format:            logFormat,
		SessionIdentifier: application.sessionIdentifier,
	})
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	repositoryPath, resolveError := application.repositoryPathResolver.Resolve(application.configuration.Repository.Path)
	if resolveError != nil {
		return fmt.Errorf(repositoryPathErrorTemplateConstant, resolveError)
	}
	application.configuration.Repository.Path = repositoryPath

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(repositoryFieldConstant, repositoryPath),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
		updatedContext = application.commandContextAccessor.WithRepositoryPath(updatedContext, repositoryPath)
		updatedContext = application.commandContextAccessor.WithSessionIdentifier(updatedContext, application.sessionIdentifier)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

// guardWithRepositoryLock wraps every runnable command so that it executes while holding the repository lock.
func (application *Application) guardWithRepositoryLock(command *cobra.Command) {
	for _, subcommand := range command.Commands() {
		application.guardWithRepositoryLock(subcommand)
	}
	if command.RunE == nil || command.Annotations[lockExemptAnnotationConstant] == lockExemptAnnotationValueConstant {
		return
	}

	unguardedRun := command.RunE
	command.RunE = func(command *cobra.Command, arguments []string) error {
		if !application.configuration.Lock.Enabled {
			return unguardedRun(command, arguments)
		}
		gitExecutor, executorError := dependencies.ResolveGitExecutor(nil, application.logger, false)
		if executorError != nil {
			return executorError
		}
		locker, lockerError := worklock.NewLocker(worklock.Dependencies{
			Logger:      application.logger,
			GitExecutor: gitExecutor,
			Timeout:     application.configuration.Lock.Timeout,
		})
		if lockerError != nil {
			return fmt.Errorf(lockerCreationErrorTemplateConstant, lockerError)
		}

		repositoryPath := application.commandContextAccessor.RepositoryPathOrCurrent(command.Context())
		runError := locker.Run(command.Context(), repositoryPath, func(context.Context) error {
			return unguardedRun(command, arguments)
		})
		if errors.Is(runError, worklock.ErrGitDirectoryUnavailable) {
			application.logger.Debug(lockUnavailableMessageConstant, zap.String(repositoryFieldConstant, repositoryPath))
			return unguardedRun(command, arguments)
		}
		return runError
	}
}

func (application *Application) stashConfiguration() stash.CommandConfiguration {
	return application.configuration.Stash
}

func (application *Application) commitConfiguration() commits.CommandConfiguration {
	return application.configuration.Commit
}

// effectiveSettings returns the loaded settings with command-line overrides applied.
func (application *Application) effectiveSettings() map[string]any {
	settings := map[string]any{}
	for settingKey, settingValue := range application.configurationMetadata.Settings {
		settings[settingKey] = settingValue
	}
	settings[commonSectionKeyConstant] = map[string]any{
		logLevelKeyConstant:  application.configuration.Common.LogLevel,
		logFormatKeyConstant: application.configuration.Common.LogFormat,
	}
	settings[repositorySectionKeyConstant] = map[string]any{
		repositoryPathKeyConstant: application.configuration.Repository.Path,
	}
	return settings
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
