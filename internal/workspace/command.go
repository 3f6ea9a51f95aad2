package workspace

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/dependencies"
	"github.com/temirov/gitkeeper/internal/gitrepo"
	"github.com/temirov/gitkeeper/internal/shared"
	"github.com/temirov/gitkeeper/internal/stash"
	"github.com/temirov/gitkeeper/internal/utils"
)

const (
	initCommandUseConstant                  = "init"
	initCommandShortDescriptionConstant     = "Verify the repository and give an empty history its first commit"
	statusCommandUseConstant                = "status [paths...]"
	statusCommandShortDescriptionConstant   = "Report branch, origin, untracked files, stash entries and per-path state"
	initialCommitOutputTemplateConstant     = "INITIALIZED: %s\n"
	existingHistoryOutputTemplateConstant   = "READY: %s\n"
	bootstrapRestoredOutputTemplateConstant = "RESTORED: %s (attempts: %d)\n"
	bootstrapSkippedOutputTemplateConstant  = "NOTHING RESTORED: %s (attempts: %d)\n"
	repositoryOutputTemplateConstant        = "REPOSITORY: %s\n"
	notRepositoryOutputTemplateConstant     = "REPOSITORY: %s (not a git repository)\n"
	branchOutputTemplateConstant            = "BRANCH: %s\n"
	originOutputTemplateConstant            = "ORIGIN: %s\n"
	headOutputTemplateConstant              = "HEAD: %s\n"
	untrackedOutputTemplateConstant         = "UNTRACKED: %s\n"
	pathOutputTemplateConstant              = "PATH: %s tracked=%t unstaged=%t staged=%t last_commit=%s\n"
	stashOutputTemplateConstant             = "STASH: %s: %s\n"
	missingValuePlaceholderConstant         = "(none)"
)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the init and status commands and the bootstrap run of the root command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	Inspector                    RepositoryInspector
	HumanReadableLoggingProvider func() bool
	StashConfigurationProvider   func() stash.CommandConfiguration
}

// BuildInit constructs the init command.
func (builder *CommandBuilder) BuildInit() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   initCommandUseConstant,
		Short: initCommandShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runInit,
	}, nil
}

// BuildStatus constructs the status command.
func (builder *CommandBuilder) BuildStatus() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   statusCommandUseConstant,
		Short: statusCommandShortDescriptionConstant,
		Args:  cobra.ArbitraryArgs,
		RunE:  builder.runStatus,
	}, nil
}

// RunBootstrap restores the most recent stash entry and reports the outcome.
// It is used as the action of the root command.
func (builder *CommandBuilder) RunBootstrap(command *cobra.Command, _ []string) error {
	orchestrator, orchestratorError := builder.buildOrchestrator(command)
	if orchestratorError != nil {
		return orchestratorError
	}

	result := orchestrator.Bootstrap(command.Context())
	reporter := shared.NewWriterReporter(command.OutOrStdout())
	reference := stash.StashReference(bootstrapStashIndexConstant)
	if result.Restored {
		reporter.Printf(bootstrapRestoredOutputTemplateConstant, reference, result.Attempts)
		return nil
	}
	reporter.Printf(bootstrapSkippedOutputTemplateConstant, reference, result.Attempts)
	stash.ReportRetryConflict(reporter, reference, result)
	return nil
}

func (builder *CommandBuilder) runInit(command *cobra.Command, _ []string) error {
	orchestrator, orchestratorError := builder.buildOrchestrator(command)
	if orchestratorError != nil {
		return orchestratorError
	}

	result, initializeError := orchestrator.Initialize(command.Context())
	if initializeError != nil {
		return initializeError
	}

	reporter := shared.NewWriterReporter(command.OutOrStdout())
	if result.CreatedInitialCommit {
		reporter.Printf(initialCommitOutputTemplateConstant, result.HeadCommit)
		return nil
	}
	reporter.Printf(existingHistoryOutputTemplateConstant, result.HeadCommit)
	return nil
}

func (builder *CommandBuilder) runStatus(command *cobra.Command, arguments []string) error {
	orchestrator, orchestratorError := builder.buildOrchestrator(command)
	if orchestratorError != nil {
		return orchestratorError
	}

	status := orchestrator.Status(command.Context(), arguments)
	reporter := shared.NewWriterReporter(command.OutOrStdout())
	if !status.IsRepository {
		reporter.Printf(notRepositoryOutputTemplateConstant, status.RepositoryPath)
		return nil
	}

	reporter.Printf(repositoryOutputTemplateConstant, status.RepositoryPath)
	reporter.Printf(branchOutputTemplateConstant, valueOrPlaceholder(status.Branch))
	reporter.Printf(originOutputTemplateConstant, valueOrPlaceholder(status.Origin))
	reporter.Printf(headOutputTemplateConstant, valueOrPlaceholder(status.HeadCommit))
	for _, untrackedFile := range status.UntrackedFiles {
		reporter.Printf(untrackedOutputTemplateConstant, untrackedFile)
	}
	for _, pathStatus := range status.Paths {
		reporter.Printf(pathOutputTemplateConstant, pathStatus.Path, pathStatus.Tracked, pathStatus.UnstagedChange, pathStatus.StagedChange, valueOrPlaceholder(pathStatus.LastCommit))
	}
	for _, entry := range status.StashEntries {
		reporter.Printf(stashOutputTemplateConstant, entry.Reference, entry.Description)
	}
	return nil
}

func (builder *CommandBuilder) buildOrchestrator(command *cobra.Command) (*Orchestrator, error) {
	logger := builder.resolveLogger()
	humanReadableLogging := builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider()
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return nil, executorError
	}

	inspector := builder.Inspector
	if inspector == nil {
		repositoryInspector, inspectorError := gitrepo.NewRepositoryInspector(gitExecutor)
		if inspectorError != nil {
			return nil, inspectorError
		}
		inspector = repositoryInspector
	}

	stashConfiguration := builder.resolveStashConfiguration()
	stashService, stashError := stash.NewService(stash.ServiceDependencies{
		Logger:      logger,
		GitExecutor: gitExecutor,
		Label:       stashConfiguration.Label,
		RetryDelay:  stashConfiguration.RetryDelay,
	})
	if stashError != nil {
		return nil, stashError
	}

	return NewOrchestrator(Dependencies{
		Logger:         logger,
		GitExecutor:    gitExecutor,
		Inspector:      inspector,
		Stash:          stashService,
		RepositoryPath: utils.NewCommandContextAccessor().RepositoryPathOrCurrent(command.Context()),
	})
}

func (builder *CommandBuilder) resolveStashConfiguration() stash.CommandConfiguration {
	if builder.StashConfigurationProvider == nil {
		return stash.DefaultCommandConfiguration()
	}
	return builder.StashConfigurationProvider().Sanitize()
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

func valueOrPlaceholder(value string) string {
	if len(value) == 0 {
		return missingValuePlaceholderConstant
	}
	return value
}
