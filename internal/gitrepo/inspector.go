package gitrepo

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/temirov/gitkeeper/internal/execshell"
	"github.com/temirov/gitkeeper/internal/shared"
)

const (
	gitRevParseSubcommandConstant     = "rev-parse"
	gitInsideWorkTreeFlagConstant     = "--is-inside-work-tree"
	gitAbbrevRefFlagConstant          = "--abbrev-ref"
	gitVerifyFlagConstant             = "--verify"
	gitHeadReferenceConstant          = "HEAD"
	gitLogSubcommandConstant          = "log"
	gitLsFilesSubcommandConstant      = "ls-files"
	gitDiffSubcommandConstant         = "diff"
	gitStagedFlagConstant             = "--staged"
	gitPathSeparatorConstant          = "--"
	gitRangeTemplateSeparatorConstant = ".."
	gitConfigSubcommandConstant       = "config"
	gitRevListSubcommandConstant      = "rev-list"
	gitRevListLimitFlagConstant       = "-1"
	gitStatusSubcommandConstant       = "status"
	gitPorcelainFlagConstant          = "--porcelain"
	gitTrueOutputConstant             = "true"
	untrackedStatusPrefixConstant     = "?? "
	originRemoteURLConfigKeyConstant  = "remote." + shared.OriginRemoteNameConstant + ".url"
	statusLineSeparatorConstant       = "\n"
	quotedPathDelimiterConstant       = "\""
)

// ErrGitExecutorNotConfigured indicates that a nil executor was supplied.
var ErrGitExecutorNotConfigured = errors.New("git executor not configured")

// ErrRemoteNotConfigured indicates that the repository has no origin remote.
var ErrRemoteNotConfigured = errors.New("origin remote not configured")

// RepositoryInspector performs read-only probes against a working directory.
type RepositoryInspector struct {
	executor shared.GitExecutor
}

// NewRepositoryInspector constructs an inspector backed by the provided executor.
func NewRepositoryInspector(executor shared.GitExecutor) (*RepositoryInspector, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryInspector{executor: executor}, nil
}

// IsRepository reports whether repositoryPath lies inside a git work tree.
func (inspector *RepositoryInspector) IsRepository(executionContext context.Context, repositoryPath string) bool {
	queryResult := inspector.query(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitInsideWorkTreeFlagConstant)
	return queryResult.TrimmedOutput() == gitTrueOutputConstant
}

// HasCommits reports whether the repository history contains at least one commit.
func (inspector *RepositoryInspector) HasCommits(executionContext context.Context, repositoryPath string) bool {
	queryResult := inspector.query(executionContext, repositoryPath, gitLogSubcommandConstant)
	return len(queryResult.TrimmedOutput()) > 0
}

// IsFileTracked reports whether git lists filePath as tracked.
func (inspector *RepositoryInspector) IsFileTracked(executionContext context.Context, repositoryPath string, filePath string) bool {
	queryResult := inspector.query(executionContext, repositoryPath, gitLsFilesSubcommandConstant, filePath)
	return len(queryResult.Output) > 0
}

// FileExists reports whether git lists filePath, ignoring whitespace-only output.
func (inspector *RepositoryInspector) FileExists(executionContext context.Context, repositoryPath string, filePath string) bool {
	queryResult := inspector.query(executionContext, repositoryPath, gitLsFilesSubcommandConstant, filePath)
	return len(queryResult.TrimmedOutput()) > 0
}

// FileHasChanges reports whether filePath differs from the index, or from HEAD when staged is set.
func (inspector *RepositoryInspector) FileHasChanges(executionContext context.Context, repositoryPath string, filePath string, staged bool) bool {
	arguments := []string{gitDiffSubcommandConstant}
	if staged {
		arguments = append(arguments, gitStagedFlagConstant)
	}
	arguments = append(arguments, filePath)
	queryResult := inspector.query(executionContext, repositoryPath, arguments...)
	return len(queryResult.Output) > 0
}

// FileDiffersFromCommit reports whether filePath differs between commitHash and
// HEAD, or between commitHash and the working tree when compareToHead is false.
func (inspector *RepositoryInspector) FileDiffersFromCommit(executionContext context.Context, repositoryPath string, filePath string, commitHash string, compareToHead bool) bool {
	revision := commitHash
	if compareToHead {
		revision = commitHash + gitRangeTemplateSeparatorConstant + gitHeadReferenceConstant
	}
	queryResult := inspector.query(executionContext, repositoryPath, gitDiffSubcommandConstant, revision, gitPathSeparatorConstant, filePath)
	return len(queryResult.TrimmedOutput()) > 0
}

// BranchExists reports whether branchName resolves to an object.
func (inspector *RepositoryInspector) BranchExists(executionContext context.Context, repositoryPath string, branchName string) bool {
	queryResult := inspector.query(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitVerifyFlagConstant, branchName)
	return len(queryResult.TrimmedOutput()) > 0
}

// CurrentBranch returns the checked-out branch name, or an empty string when it cannot be determined.
func (inspector *RepositoryInspector) CurrentBranch(executionContext context.Context, repositoryPath string) string {
	return inspector.query(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant).TrimmedOutput()
}

// ConfigValue returns the value of a git configuration key, or an empty string when unset.
func (inspector *RepositoryInspector) ConfigValue(executionContext context.Context, repositoryPath string, key string) string {
	return inspector.query(executionContext, repositoryPath, gitConfigSubcommandConstant, key).TrimmedOutput()
}

// FileCommitHash returns the most recent commit touching filePath, or an empty string.
func (inspector *RepositoryInspector) FileCommitHash(executionContext context.Context, repositoryPath string, filePath string) string {
	return inspector.query(executionContext, repositoryPath, gitRevListSubcommandConstant, gitRevListLimitFlagConstant, gitHeadReferenceConstant, gitPathSeparatorConstant, filePath).TrimmedOutput()
}

// HeadCommit returns the hash HEAD points at, or an empty string in an unborn repository.
func (inspector *RepositoryInspector) HeadCommit(executionContext context.Context, repositoryPath string) string {
	return inspector.query(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitHeadReferenceConstant).TrimmedOutput()
}

// UntrackedFiles lists the paths git status reports as untracked.
func (inspector *RepositoryInspector) UntrackedFiles(executionContext context.Context, repositoryPath string) []string {
	queryResult := inspector.query(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	return ParseUntrackedEntries(queryResult.Output)
}

// OriginRemote returns the configured origin URL exactly as git stores it.
func (inspector *RepositoryInspector) OriginRemote(executionContext context.Context, repositoryPath string) (string, error) {
	remoteValue := inspector.ConfigValue(executionContext, repositoryPath, originRemoteURLConfigKeyConstant)
	if len(remoteValue) == 0 {
		return "", ErrRemoteNotConfigured
	}
	return remoteValue, nil
}

// ParseUntrackedEntries extracts untracked paths from porcelain status output.
// Paths git C-quoted because of whitespace or non-ASCII bytes are unescaped.
func ParseUntrackedEntries(porcelainOutput string) []string {
	untrackedPaths := []string{}
	for _, statusLine := range strings.Split(porcelainOutput, statusLineSeparatorConstant) {
		statusLine = strings.TrimRight(statusLine, "\r")
		if !strings.HasPrefix(statusLine, untrackedStatusPrefixConstant) {
			continue
		}
		untrackedPath := strings.TrimPrefix(statusLine, untrackedStatusPrefixConstant)
		untrackedPath = unquotePath(untrackedPath)
		if len(untrackedPath) == 0 {
			continue
		}
		untrackedPaths = append(untrackedPaths, untrackedPath)
	}
	return untrackedPaths
}

func unquotePath(statusPath string) string {
	if len(statusPath) < 2 || !strings.HasPrefix(statusPath, quotedPathDelimiterConstant) || !strings.HasSuffix(statusPath, quotedPathDelimiterConstant) {
		return statusPath
	}
	unquotedPath, unquoteError := strconv.Unquote(statusPath)
	if unquoteError != nil {
		return strings.TrimSuffix(strings.TrimPrefix(statusPath, quotedPathDelimiterConstant), quotedPathDelimiterConstant)
	}
	return unquotedPath
}

func (inspector *RepositoryInspector) query(executionContext context.Context, repositoryPath string, arguments ...string) execshell.QueryResult {
	return inspector.executor.QueryGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
}
