package commits

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/dependencies"
	"github.com/temirov/gitkeeper/internal/shared"
	"github.com/temirov/gitkeeper/internal/utils"
)

const (
	commandUseConstant                   = "commit [paths...]"
	commandShortDescriptionConstant      = "Stage the given paths and commit them"
	commandLongDescriptionConstant       = "commit stages each path separately and records them in one commit. A rejected commit is reported and leaves HEAD unchanged without failing the command. With --ignore-untracked the report also lists untracked files."
	commandExampleConstant               = "gitkeeper commit notes.txt todo.md -m \"Update notes\" --flag=--no-verify"
	flagMessageNameConstant              = "message"
	flagMessageShorthandConstant         = "m"
	flagMessageUsageConstant             = "Commit message"
	flagCommitFlagNameConstant           = "flag"
	flagCommitFlagUsageConstant          = "Extra argument passed to git commit (repeatable)"
	flagIgnoreUntrackedNameConstant      = "ignore-untracked"
	flagIgnoreUntrackedUsageConstant     = "List untracked files when the commit is rejected"
	commitSkippedOutputConstant          = "SKIPPED: no paths given\n"
	commitCreatedOutputTemplateConstant  = "COMMITTED: %s\n"
	commitRejectedOutputTemplateConstant = "NOT COMMITTED: HEAD remains %s: %v\n"
	untrackedFileOutputTemplateConstant  = "UNTRACKED: %s\n"
)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the commit command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	RepositoryState              shared.RepositoryStateReader
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the commit command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.ArbitraryArgs,
		RunE:    builder.run,
	}

	command.Flags().StringP(flagMessageNameConstant, flagMessageShorthandConstant, "", flagMessageUsageConstant)
	command.Flags().StringArray(flagCommitFlagNameConstant, nil, flagCommitFlagUsageConstant)
	command.Flags().Bool(flagIgnoreUntrackedNameConstant, false, flagIgnoreUntrackedUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	request, requestError := builder.buildRequest(command, arguments)
	if requestError != nil {
		return requestError
	}

	logger := builder.resolveLogger()
	humanReadableLogging := builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider()
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return executorError
	}
	repositoryState, stateError := dependencies.ResolveRepositoryState(builder.RepositoryState, gitExecutor)
	if stateError != nil {
		return stateError
	}
	service, serviceError := NewService(ServiceDependencies{Logger: logger, GitExecutor: gitExecutor, RepositoryState: repositoryState})
	if serviceError != nil {
		return serviceError
	}

	repositoryPath := utils.NewCommandContextAccessor().RepositoryPathOrCurrent(command.Context())
	result, commitError := service.Commit(command.Context(), repositoryPath, request)
	if commitError != nil {
		return commitError
	}

	reporter := shared.NewWriterReporter(command.OutOrStdout())
	switch {
	case result.Skipped:
		reporter.Printf(commitSkippedOutputConstant)
	case result.CommitFailed:
		reporter.Printf(commitRejectedOutputTemplateConstant, result.CommitHash, result.Failure)
		for _, untrackedFile := range result.UntrackedFiles {
			reporter.Printf(untrackedFileOutputTemplateConstant, untrackedFile)
		}
	default:
		reporter.Printf(commitCreatedOutputTemplateConstant, result.CommitHash)
	}
	return nil
}

func (builder *CommandBuilder) buildRequest(command *cobra.Command, arguments []string) (Request, error) {
	configuration := builder.resolveConfiguration()
	request := Request{
		Paths:           arguments,
		Message:         configuration.Message,
		Flags:           configuration.Flags,
		IgnoreUntracked: configuration.IgnoreUntracked,
	}

	flagSet := command.Flags()
	if flagSet.Changed(flagMessageNameConstant) {
		message, flagError := flagSet.GetString(flagMessageNameConstant)
		if flagError != nil {
			return Request{}, flagError
		}
		request.Message = message
	}
	if flagSet.Changed(flagCommitFlagNameConstant) {
		commitFlags, flagError := flagSet.GetStringArray(flagCommitFlagNameConstant)
		if flagError != nil {
			return Request{}, flagError
		}
		request.Flags = commitFlags
	}
	if flagSet.Changed(flagIgnoreUntrackedNameConstant) {
		ignoreUntracked, flagError := flagSet.GetBool(flagIgnoreUntrackedNameConstant)
		if flagError != nil {
			return Request{}, flagError
		}
		request.IgnoreUntracked = ignoreUntracked
	}
	return request, nil
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
