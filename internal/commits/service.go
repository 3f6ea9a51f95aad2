package commits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/execshell"
	"github.com/temirov/gitkeeper/internal/shared"
)

const (
	// DefaultCommitMessageConstant is used when a request carries no message.
	DefaultCommitMessageConstant = "File tracking commit"

	repositoryPathRequiredMessageConstant  = "repository path must be provided"
	gitExecutorMissingMessageConstant      = "git executor not configured"
	repositoryStateMissingMessageConstant  = "repository state reader not configured"
	gitAddFailureTemplateConstant          = "failed to stage %q: %w"
	gitAddSubcommandConstant               = "add"
	gitCommitSubcommandConstant            = "commit"
	gitMessageFlagConstant                 = "-m"
	commitSkippedMessageConstant           = "no paths to commit"
	commitRejectedMessageConstant          = "commit rejected; HEAD left unchanged"
	untrackedAfterRejectionMessageConstant = "untracked files present after rejected commit"
	commitCreatedMessageConstant           = "commit created"
	logFieldRepositoryConstant             = "repository"
	logFieldPathsConstant                  = "paths"
	logFieldUntrackedFilesConstant         = "untracked_files"
	logFieldCommitHashConstant             = "commit"
)

// ErrRepositoryPathRequired indicates the repository path was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryStateNotConfigured indicates the repository state dependency was missing.
var ErrRepositoryStateNotConfigured = errors.New(repositoryStateMissingMessageConstant)

// ServiceDependencies enumerates collaborators required by the service.
type ServiceDependencies struct {
	Logger          *zap.Logger
	GitExecutor     shared.GitExecutor
	RepositoryState shared.RepositoryStateReader
}

// Request describes one commit.
type Request struct {
	Paths           []string
	Message         string
	Flags           []string
	IgnoreUntracked bool
}

// Result captures the outcome of Commit. CommitHash is HEAD after the attempt,
// which is the previous commit when CommitFailed is set. UntrackedFiles is only
// collected for a rejected commit whose request set IgnoreUntracked.
type Result struct {
	CommitHash     string
	Skipped        bool
	CommitFailed   bool
	Failure        error
	UntrackedFiles []string
}

// Service stages and commits paths in a working directory.
type Service struct {
	logger          *zap.Logger
	executor        shared.GitExecutor
	repositoryState shared.RepositoryStateReader
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryState == nil {
		return nil, ErrRepositoryStateNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, executor: dependencies.GitExecutor, repositoryState: dependencies.RepositoryState}, nil
}

// Commit stages each path with its own git add and commits them together.
// An empty path list is a no-op that issues no git commands. Staging failures
// are returned; a rejected commit is not, so callers that must know whether a
// commit happened check CommitFailed or compare HEAD.
func (service *Service) Commit(executionContext context.Context, repositoryPath string, request Request) (Result, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}

	if len(request.Paths) == 0 {
		service.logger.Debug(commitSkippedMessageConstant, zap.String(logFieldRepositoryConstant, trimmedRepositoryPath))
		return Result{Skipped: true}, nil
	}

	for _, path := range request.Paths {
		if _, addError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        []string{gitAddSubcommandConstant, path},
			WorkingDirectory: trimmedRepositoryPath,
		}); addError != nil {
			return Result{}, fmt.Errorf(gitAddFailureTemplateConstant, path, addError)
		}
	}

	message := request.Message
	if len(strings.TrimSpace(message)) == 0 {
		message = DefaultCommitMessageConstant
	}

	commitArguments := append([]string{gitCommitSubcommandConstant, gitMessageFlagConstant, message}, request.Flags...)
	result := Result{}
	if _, commitError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        commitArguments,
		WorkingDirectory: trimmedRepositoryPath,
	}); commitError != nil {
		result.CommitFailed = true
		result.Failure = commitError
		service.logger.Warn(
			commitRejectedMessageConstant,
			zap.String(logFieldRepositoryConstant, trimmedRepositoryPath),
			zap.Strings(logFieldPathsConstant, request.Paths),
			zap.Error(commitError),
		)
		if request.IgnoreUntracked {
			result.UntrackedFiles = service.repositoryState.UntrackedFiles(executionContext, trimmedRepositoryPath)
			service.logger.Info(
				untrackedAfterRejectionMessageConstant,
				zap.String(logFieldRepositoryConstant, trimmedRepositoryPath),
				zap.Strings(logFieldUntrackedFilesConstant, result.UntrackedFiles),
			)
		}
	}

	result.CommitHash = service.repositoryState.HeadCommit(executionContext, trimmedRepositoryPath)
	if !result.CommitFailed {
		service.logger.Info(
			commitCreatedMessageConstant,
			zap.String(logFieldRepositoryConstant, trimmedRepositoryPath),
			zap.Strings(logFieldPathsConstant, request.Paths),
			zap.String(logFieldCommitHashConstant, result.CommitHash),
		)
	}
	return result, nil
}
