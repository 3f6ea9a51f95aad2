package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/execshell"
	"github.com/temirov/gitkeeper/internal/shared"
	"github.com/temirov/gitkeeper/internal/stash"
)

const (
	// InitialCommitMessageConstant is used for the empty commit created by Initialize.
	InitialCommitMessageConstant = "Initial commit."

	notARepositoryMessageConstant         = "not a git repository"
	repositoryPathRequiredMessageConstant = "repository path must be provided"
	gitExecutorMissingMessageConstant     = "git executor not configured"
	inspectorMissingMessageConstant       = "repository inspector not configured"
	stashServiceMissingMessageConstant    = "stash service not configured"
	notARepositoryTemplateConstant        = "%w: %s"
	initialCommitFailureTemplateConstant  = "failed to create initial commit: %w"
	gitCommitSubcommandConstant           = "commit"
	gitAllowEmptyFlagConstant             = "--allow-empty"
	gitNoVerifyFlagConstant               = "-n"
	gitMessageFlagConstant                = "-m"
	bootstrapStashIndexConstant           = 0
	initialCommitCreatedMessageConstant   = "created initial commit"
	repositoryReadyMessageConstant        = "repository already has commits"
	originUnavailableMessageConstant      = "origin remote unavailable"
	logFieldRepositoryConstant            = "repository"
	logFieldCommitConstant                = "commit"
)

var (
	// ErrNotARepository indicates the working directory is not inside a git work tree.
	ErrNotARepository = errors.New(notARepositoryMessageConstant)
	// ErrRepositoryPathRequired indicates the repository path was empty.
	ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)
	// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)
	// ErrInspectorNotConfigured indicates the repository inspector dependency was missing.
	ErrInspectorNotConfigured = errors.New(inspectorMissingMessageConstant)
	// ErrStashServiceNotConfigured indicates the stash service dependency was missing.
	ErrStashServiceNotConfigured = errors.New(stashServiceMissingMessageConstant)
)

// RepositoryInspector covers the probes used by Initialize and Status.
type RepositoryInspector interface {
	shared.RepositoryStateReader
	IsFileTracked(executionContext context.Context, repositoryPath string, filePath string) bool
	FileHasChanges(executionContext context.Context, repositoryPath string, filePath string, staged bool) bool
	FileCommitHash(executionContext context.Context, repositoryPath string, filePath string) string
	OriginRemote(executionContext context.Context, repositoryPath string) (string, error)
}

// StashService covers the stash operations the orchestrator composes.
type StashService interface {
	Restore(executionContext context.Context, repositoryPath string, index int) stash.RestoreResult
	List(executionContext context.Context, repositoryPath string) []stash.Entry
}

// Dependencies enumerates collaborators required by the orchestrator.
type Dependencies struct {
	Logger         *zap.Logger
	GitExecutor    shared.GitExecutor
	Inspector      RepositoryInspector
	Stash          StashService
	RepositoryPath string
}

// InitializeResult captures the outcome of Initialize.
type InitializeResult struct {
	CreatedInitialCommit bool
	HeadCommit           string
}

// PathStatus describes one path requested from Status.
type PathStatus struct {
	Path           string
	Tracked        bool
	UnstagedChange bool
	StagedChange   bool
	LastCommit     string
}

// Status is a point-in-time view of the repository. Every field is read from git when Status runs.
type Status struct {
	RepositoryPath string
	IsRepository   bool
	Branch         string
	Origin         string
	HeadCommit     string
	UntrackedFiles []string
	Paths          []PathStatus
	StashEntries   []stash.Entry
}

// Orchestrator runs workspace flows against a single repository path.
type Orchestrator struct {
	logger         *zap.Logger
	executor       shared.GitExecutor
	inspector      RepositoryInspector
	stash          StashService
	repositoryPath string
}

// NewOrchestrator validates dependencies and constructs an Orchestrator.
func NewOrchestrator(dependencies Dependencies) (*Orchestrator, error) {
	repositoryPath := strings.TrimSpace(dependencies.RepositoryPath)
	if len(repositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.Inspector == nil {
		return nil, ErrInspectorNotConfigured
	}
	if dependencies.Stash == nil {
		return nil, ErrStashServiceNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		logger:         logger,
		executor:       dependencies.GitExecutor,
		inspector:      dependencies.Inspector,
		stash:          dependencies.Stash,
		repositoryPath: repositoryPath,
	}, nil
}

// RepositoryPath returns the path the orchestrator operates on.
func (orchestrator *Orchestrator) RepositoryPath() string {
	return orchestrator.repositoryPath
}

// Bootstrap restores the most recent stash entry. Failures are reported in the result.
func (orchestrator *Orchestrator) Bootstrap(executionContext context.Context) stash.RestoreResult {
	return orchestrator.stash.Restore(executionContext, orchestrator.repositoryPath, bootstrapStashIndexConstant)
}

// Initialize verifies the repository and creates an empty initial commit when history is empty.
func (orchestrator *Orchestrator) Initialize(executionContext context.Context) (InitializeResult, error) {
	if !orchestrator.inspector.IsRepository(executionContext, orchestrator.repositoryPath) {
		return InitializeResult{}, fmt.Errorf(notARepositoryTemplateConstant, ErrNotARepository, orchestrator.repositoryPath)
	}

	if orchestrator.inspector.HasCommits(executionContext, orchestrator.repositoryPath) {
		headCommit := orchestrator.inspector.HeadCommit(executionContext, orchestrator.repositoryPath)
		orchestrator.logger.Debug(repositoryReadyMessageConstant, zap.String(logFieldRepositoryConstant, orchestrator.repositoryPath), zap.String(logFieldCommitConstant, headCommit))
		return InitializeResult{HeadCommit: headCommit}, nil
	}

	_, commitError := orchestrator.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCommitSubcommandConstant, gitAllowEmptyFlagConstant, gitNoVerifyFlagConstant, gitMessageFlagConstant, InitialCommitMessageConstant},
		WorkingDirectory: orchestrator.repositoryPath,
	})
	if commitError != nil {
		return InitializeResult{}, fmt.Errorf(initialCommitFailureTemplateConstant, commitError)
	}

	headCommit := orchestrator.inspector.HeadCommit(executionContext, orchestrator.repositoryPath)
	orchestrator.logger.Info(initialCommitCreatedMessageConstant, zap.String(logFieldRepositoryConstant, orchestrator.repositoryPath), zap.String(logFieldCommitConstant, headCommit))
	return InitializeResult{CreatedInitialCommit: true, HeadCommit: headCommit}, nil
}

// Status reads the repository state and the state of each requested path.
// Outside a repository only RepositoryPath is populated.
func (orchestrator *Orchestrator) Status(executionContext context.Context, paths []string) Status {
	status := Status{RepositoryPath: orchestrator.repositoryPath}
	if !orchestrator.inspector.IsRepository(executionContext, orchestrator.repositoryPath) {
		return status
	}

	status.IsRepository = true
	status.Branch = orchestrator.inspector.CurrentBranch(executionContext, orchestrator.repositoryPath)
	status.HeadCommit = orchestrator.inspector.HeadCommit(executionContext, orchestrator.repositoryPath)
	status.UntrackedFiles = orchestrator.inspector.UntrackedFiles(executionContext, orchestrator.repositoryPath)

	origin, originError := orchestrator.inspector.OriginRemote(executionContext, orchestrator.repositoryPath)
	if originError != nil {
		orchestrator.logger.Debug(originUnavailableMessageConstant, zap.String(logFieldRepositoryConstant, orchestrator.repositoryPath), zap.Error(originError))
	} else {
		status.Origin = origin
	}

	status.Paths = make([]PathStatus, 0, len(paths))
	for _, path := range paths {
		trimmedPath := strings.TrimSpace(path)
		if len(trimmedPath) == 0 {
			continue
		}
		status.Paths = append(status.Paths, PathStatus{
			Path:           trimmedPath,
			Tracked:        orchestrator.inspector.IsFileTracked(executionContext, orchestrator.repositoryPath, trimmedPath),
			UnstagedChange: orchestrator.inspector.FileHasChanges(executionContext, orchestrator.repositoryPath, trimmedPath, false),
			StagedChange:   orchestrator.inspector.FileHasChanges(executionContext, orchestrator.repositoryPath, trimmedPath, true),
			LastCommit:     orchestrator.inspector.FileCommitHash(executionContext, orchestrator.repositoryPath, trimmedPath),
		})
	}

	status.StashEntries = orchestrator.stash.List(executionContext, orchestrator.repositoryPath)
	return status
}
