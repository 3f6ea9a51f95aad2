package shared

import (
	"context"

	"github.com/temirov/gitkeeper/internal/execshell"
)

const (
	// OriginRemoteNameConstant identifies the remote reported by status output.
	OriginRemoteNameConstant = "origin"
)

// GitExecutor exposes both execution channels used by repository services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	QueryGit(executionContext context.Context, details execshell.CommandDetails) execshell.QueryResult
}

// RepositoryStateReader exposes the read-only probes services consult before mutating a repository.
type RepositoryStateReader interface {
	IsRepository(executionContext context.Context, repositoryPath string) bool
	HasCommits(executionContext context.Context, repositoryPath string) bool
	CurrentBranch(executionContext context.Context, repositoryPath string) string
	BranchExists(executionContext context.Context, repositoryPath string, branchName string) bool
	HeadCommit(executionContext context.Context, repositoryPath string) string
	UntrackedFiles(executionContext context.Context, repositoryPath string) []string
}
