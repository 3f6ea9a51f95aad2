package branches

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/dependencies"
	"github.com/temirov/gitkeeper/internal/shared"
	"github.com/temirov/gitkeeper/internal/utils"
)

const (
	branchCommandUseConstant               = "branch <name>"
	branchCommandShortDescriptionConstant  = "Check out a branch, creating it when missing"
	branchCommandLongDescriptionConstant   = "branch switches the repository to the named branch. A branch that does not resolve is created from the current HEAD. The previously checked-out branch is printed so it can be restored later."
	branchCommandExampleConstant           = "gitkeeper branch tracking/notes --repository ~/notes"
	restoreCommandUseConstant              = "restore-file <branch> <path>"
	restoreCommandShortDescriptionConstant = "Restore one file from another branch"
	restoreCommandLongDescriptionConstant  = "restore-file overwrites the working copy of a path with its version on the given branch. A failed restore is reported but does not fail the command."
	branchSwitchedTemplateConstant         = "SWITCHED: %s -> %s\n"
	branchCreatedTemplateConstant          = "SWITCHED: %s -> %s (created)\n"
	fileRestoredTemplateConstant           = "RESTORED: %s from %s\n"
	fileNotRestoredTemplateConstant        = "NOT RESTORED: %s from %s\n"
	unknownBranchPlaceholderConstant       = "(none)"
)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the branch and restore-file commands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	RepositoryState              shared.RepositoryStateReader
	HumanReadableLoggingProvider func() bool
}

// Build constructs the branch command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:     branchCommandUseConstant,
		Short:   branchCommandShortDescriptionConstant,
		Long:    branchCommandLongDescriptionConstant,
		Example: branchCommandExampleConstant,
		Args:    cobra.ExactArgs(1),
		RunE:    builder.runEnsureBranch,
	}, nil
}

// BuildRestoreFile constructs the restore-file command.
func (builder *CommandBuilder) BuildRestoreFile() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   restoreCommandUseConstant,
		Short: restoreCommandShortDescriptionConstant,
		Long:  restoreCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(2),
		RunE:  builder.runRestoreFile,
	}, nil
}

func (builder *CommandBuilder) runEnsureBranch(command *cobra.Command, arguments []string) error {
	service, serviceError := builder.buildService()
	if serviceError != nil {
		return serviceError
	}

	repositoryPath := utils.NewCommandContextAccessor().RepositoryPathOrCurrent(command.Context())
	result, ensureError := service.EnsureBranch(command.Context(), repositoryPath, arguments[0])
	if ensureError != nil {
		return ensureError
	}

	previousBranch := result.PreviousBranch
	if len(previousBranch) == 0 {
		previousBranch = unknownBranchPlaceholderConstant
	}
	messageTemplate := branchSwitchedTemplateConstant
	if result.Created {
		messageTemplate = branchCreatedTemplateConstant
	}
	shared.NewWriterReporter(command.OutOrStdout()).Printf(messageTemplate, previousBranch, result.BranchName)
	return nil
}

func (builder *CommandBuilder) runRestoreFile(command *cobra.Command, arguments []string) error {
	service, serviceError := builder.buildService()
	if serviceError != nil {
		return serviceError
	}

	repositoryPath := utils.NewCommandContextAccessor().RepositoryPathOrCurrent(command.Context())
	restored, restoreError := service.RestoreFileFromBranch(command.Context(), repositoryPath, arguments[0], arguments[1])
	if restoreError != nil {
		return restoreError
	}

	messageTemplate := fileNotRestoredTemplateConstant
	if restored {
		messageTemplate = fileRestoredTemplateConstant
	}
	shared.NewWriterReporter(command.OutOrStdout()).Printf(messageTemplate, arguments[1], arguments[0])
	return nil
}

func (builder *CommandBuilder) buildService() (*Service, error) {
	logger := builder.resolveLogger()
	humanReadableLogging := builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider()

	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return nil, executorError
	}
	repositoryState, stateError := dependencies.ResolveRepositoryState(builder.RepositoryState, gitExecutor)
	if stateError != nil {
		return nil, stateError
	}
	return NewService(ServiceDependencies{Logger: logger, GitExecutor: gitExecutor, RepositoryState: repositoryState})
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
