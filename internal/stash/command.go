package stash

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/dependencies"
	"github.com/temirov/gitkeeper/internal/shared"
	"github.com/temirov/gitkeeper/internal/utils"
)

const (
	commandUseConstant                     = "stash"
	commandShortDescriptionConstant        = "Save and restore uncommitted work"
	saveCommandUseConstant                 = "save"
	saveCommandShortDescriptionConstant    = "Stash local changes under the configured label"
	restoreCommandUseConstant              = "restore"
	restoreCommandShortDescriptionConstant = "Pop a stash entry, retrying once when local modifications block it"
	restoreCommandLongDescriptionConstant  = "restore pops stash@{index}. When git refuses because local modifications would be overwritten, all changes are staged and the pop is attempted exactly once more. A failed restore is reported, not treated as a command error."
	listCommandUseConstant                 = "list"
	listCommandShortDescriptionConstant    = "List stash entries"
	flagIndexNameConstant                  = "index"
	flagIndexUsageConstant                 = "Zero-based stash index to restore"
	savedOutputConstant                    = "STASHED\n"
	nothingToSaveOutputConstant            = "NOTHING TO STASH\n"
	saveFailedOutputTemplateConstant       = "NOT STASHED: %v\n"
	restoredOutputTemplateConstant         = "RESTORED: %s (attempts: %d)\n"
	restoreFailedOutputTemplateConstant    = "NOT RESTORED: %s (attempts: %d): %v\n"
	retryConflictOutputTemplateConstant    = "WARNING: all changes were staged before the retry; the working tree may hold conflict markers and %s may still be listed\n"
	entryOutputTemplateConstant            = "%s: %s\n"
	invalidIndexTemplateConstant           = "stash index must not be negative: %d"
)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the stash command tree.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the stash command with its save, restore and list subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Args:  cobra.NoArgs,
	}

	saveCommand := &cobra.Command{
		Use:   saveCommandUseConstant,
		Short: saveCommandShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runSave,
	}

	restoreCommand := &cobra.Command{
		Use:   restoreCommandUseConstant,
		Short: restoreCommandShortDescriptionConstant,
		Long:  restoreCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runRestore,
	}
	restoreCommand.Flags().Int(flagIndexNameConstant, 0, flagIndexUsageConstant)

	listCommand := &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runList,
	}

	command.AddCommand(saveCommand, restoreCommand, listCommand)
	return command, nil
}

func (builder *CommandBuilder) runSave(command *cobra.Command, _ []string) error {
	service, serviceError := builder.buildService()
	if serviceError != nil {
		return serviceError
	}

	repositoryPath := utils.NewCommandContextAccessor().RepositoryPathOrCurrent(command.Context())
	result := service.Save(command.Context(), repositoryPath)

	reporter := shared.NewWriterReporter(command.OutOrStdout())
	switch {
	case result.Failure != nil:
		reporter.Printf(saveFailedOutputTemplateConstant, result.Failure)
	case result.Created:
		reporter.Printf(savedOutputConstant)
	default:
		reporter.Printf(nothingToSaveOutputConstant)
	}
	return nil
}

func (builder *CommandBuilder) runRestore(command *cobra.Command, _ []string) error {
	index, flagError := command.Flags().GetInt(flagIndexNameConstant)
	if flagError != nil {
		return flagError
	}
	if index < 0 {
		return fmt.Errorf(invalidIndexTemplateConstant, index)
	}

	service, serviceError := builder.buildService()
	if serviceError != nil {
		return serviceError
	}

	repositoryPath := utils.NewCommandContextAccessor().RepositoryPathOrCurrent(command.Context())
	result := service.Restore(command.Context(), repositoryPath, index)

	ReportRestore(shared.NewWriterReporter(command.OutOrStdout()), StashReference(index), result)
	return nil
}

// ReportRestore prints the outcome of a restore attempt on stash reference.
func ReportRestore(reporter shared.Reporter, reference string, result RestoreResult) {
	if result.Restored {
		reporter.Printf(restoredOutputTemplateConstant, reference, result.Attempts)
		return
	}
	reporter.Printf(restoreFailedOutputTemplateConstant, reference, result.Attempts, result.Failure)
	ReportRetryConflict(reporter, reference, result)
}

// ReportRetryConflict warns when a failed restore staged all changes before
// its second pop, since that pop may have left the tree conflicted.
func ReportRetryConflict(reporter shared.Reporter, reference string, result RestoreResult) {
	if result.RetriedAfterStaging() {
		reporter.Printf(retryConflictOutputTemplateConstant, reference)
	}
}

func (builder *CommandBuilder) runList(command *cobra.Command, _ []string) error {
	service, serviceError := builder.buildService()
	if serviceError != nil {
		return serviceError
	}

	repositoryPath := utils.NewCommandContextAccessor().RepositoryPathOrCurrent(command.Context())
	reporter := shared.NewWriterReporter(command.OutOrStdout())
	for _, entry := range service.List(command.Context(), repositoryPath) {
		reporter.Printf(entryOutputTemplateConstant, entry.Reference, entry.Description)
	}
	return nil
}

func (builder *CommandBuilder) buildService() (*Service, error) {
	logger := builder.resolveLogger()
	humanReadableLogging := builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider()
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return nil, executorError
	}
	configuration := builder.resolveConfiguration()
	return NewService(ServiceDependencies{
		Logger:      logger,
		GitExecutor: gitExecutor,
		Label:       configuration.Label,
		RetryDelay:  configuration.RetryDelay,
	})
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
