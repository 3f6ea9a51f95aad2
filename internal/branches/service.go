package branches

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
	repositoryPathRequiredMessageConstant  = "repository path must be provided"
	branchNameRequiredMessageConstant      = "branch name must be provided"
	filePathRequiredMessageConstant        = "file path must be provided"
	gitExecutorMissingMessageConstant      = "git executor not configured"
	repositoryStateMissingMessageConstant  = "repository state reader not configured"
	gitCreateBranchFailureTemplateConstant = "failed to create branch %q: %w"
	gitCheckoutFailureTemplateConstant     = "failed to checkout branch %q: %w"
	gitCheckoutSubcommandConstant          = "checkout"
	gitCreateBranchFlagConstant            = "-b"
	gitPathSeparatorConstant               = "--"
	branchSwitchedMessageConstant          = "branch ensured"
	fileRestoreFailedMessageConstant       = "file could not be restored from branch"
	logFieldRepositoryConstant             = "repository"
	logFieldBranchConstant                 = "branch"
	logFieldPreviousBranchConstant         = "previous_branch"
	logFieldCreatedConstant                = "created"
	logFieldFilePathConstant               = "file_path"
)

// ErrRepositoryPathRequired indicates the repository path was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrBranchNameRequired indicates the branch name was empty.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrFilePathRequired indicates the file path was empty.
var ErrFilePathRequired = errors.New(filePathRequiredMessageConstant)

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

// EnsureResult captures the outcome of EnsureBranch.
type EnsureResult struct {
	PreviousBranch string
	BranchName     string
	Created        bool
}

// Service checks out branches in a single working directory.
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

// EnsureBranch checks out branchName, creating it from the current HEAD when it
// does not resolve. The branch active before the switch is reported in both cases.
func (service *Service) EnsureBranch(executionContext context.Context, repositoryPath string, branchName string) (EnsureResult, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return EnsureResult{}, ErrRepositoryPathRequired
	}
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return EnsureResult{}, ErrBranchNameRequired
	}

	previousBranch := service.repositoryState.CurrentBranch(executionContext, trimmedRepositoryPath)
	result := EnsureResult{PreviousBranch: previousBranch, BranchName: trimmedBranchName}

	if !service.repositoryState.BranchExists(executionContext, trimmedRepositoryPath, trimmedBranchName) {
		if _, createError := service.checkout(executionContext, trimmedRepositoryPath, gitCreateBranchFlagConstant, trimmedBranchName); createError != nil {
			return EnsureResult{}, fmt.Errorf(gitCreateBranchFailureTemplateConstant, trimmedBranchName, createError)
		}
		result.Created = true
	} else if _, checkoutError := service.checkout(executionContext, trimmedRepositoryPath, trimmedBranchName); checkoutError != nil {
		return EnsureResult{}, fmt.Errorf(gitCheckoutFailureTemplateConstant, trimmedBranchName, checkoutError)
	}

	service.logger.Info(
		branchSwitchedMessageConstant,
		zap.String(logFieldRepositoryConstant, trimmedRepositoryPath),
		zap.String(logFieldBranchConstant, trimmedBranchName),
		zap.String(logFieldPreviousBranchConstant, previousBranch),
		zap.Bool(logFieldCreatedConstant, result.Created),
	)
	return result, nil
}

// RestoreFileFromBranch overwrites filePath with its version on branchName.
// Failures are logged and reported through the boolean result only.
func (service *Service) RestoreFileFromBranch(executionContext context.Context, repositoryPath string, branchName string, filePath string) (bool, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return false, ErrRepositoryPathRequired
	}
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return false, ErrBranchNameRequired
	}
	if len(strings.TrimSpace(filePath)) == 0 {
		return false, ErrFilePathRequired
	}

	queryResult := service.executor.QueryGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, trimmedBranchName, gitPathSeparatorConstant, filePath},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if !queryResult.Succeeded() {
		service.logger.Warn(
			fileRestoreFailedMessageConstant,
			zap.String(logFieldRepositoryConstant, trimmedRepositoryPath),
			zap.String(logFieldBranchConstant, trimmedBranchName),
			zap.String(logFieldFilePathConstant, filePath),
			zap.Error(queryResult.Failure),
		)
		return false, nil
	}
	return true, nil
}

func (service *Service) checkout(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        append([]string{gitCheckoutSubcommandConstant}, arguments...),
		WorkingDirectory: repositoryPath,
	})
}
