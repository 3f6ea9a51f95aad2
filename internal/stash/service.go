package stash

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/execshell"
	"github.com/temirov/gitkeeper/internal/shared"
)

const (
	// DefaultLabelConstant names stash entries created by Save.
	DefaultLabelConstant = "gitkeeper stash"
	// DefaultRetryDelay is the pause before the single restore retry.
	DefaultRetryDelay = 100 * time.Millisecond

	gitExecutorMissingMessageConstant = "git executor not configured"
	gitStashSubcommandConstant        = "stash"
	gitStashPushConstant              = "push"
	gitStashPopConstant               = "pop"
	gitStashListConstant              = "list"
	stashReferencePrefixConstant      = "stash@{"
	stashReferenceSuffixConstant      = "}"
	stashListSeparatorConstant        = ": "
	gitMessageFlagConstant            = "-m"
	gitAddSubcommandConstant          = "add"
	gitAddEverythingConstant          = "."
	stashReferenceTemplateConstant    = "stash@{%d}"
	noLocalChangesMarkerConstant      = "No local changes to save"
	overwriteConflictMarkerConstant   = "would be overwritten"
	maximumRestoreRetriesConstant     = 1
	stashSavedMessageConstant         = "local changes stashed"
	stashNothingToSaveMessageConstant = "no local changes to stash"
	stashSaveFailedMessageConstant    = "stash save failed"
	stashRestoredMessageConstant      = "stash restored"
	stashRetryMessageConstant         = "stash restore blocked by local modifications; staging all changes and retrying once"
	stashRestoreFailedMessageConstant = "stash restore failed"
	logFieldRepositoryConstant        = "repository"
	logFieldReferenceConstant         = "reference"
	logFieldAttemptsConstant          = "attempts"
	logFieldLabelConstant             = "label"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ServiceDependencies enumerates collaborators and settings for the service.
type ServiceDependencies struct {
	Logger      *zap.Logger
	GitExecutor shared.GitExecutor
	Label       string
	RetryDelay  time.Duration
}

// SaveResult captures the outcome of Save.
type SaveResult struct {
	Created bool
	Failure error
}

// RestoreResult captures the outcome of Restore. Attempts counts pop invocations and is at most two.
type RestoreResult struct {
	Restored bool
	Attempts int
	Failure  error
}

// RetriedAfterStaging reports whether a failed restore staged every change and
// popped a second time. git may leave conflict markers behind in that case.
func (result RestoreResult) RetriedAfterStaging() bool {
	return !result.Restored && result.Attempts > 1
}

// Entry describes one line of the stash list.
type Entry struct {
	Index       int
	Reference   string
	Description string
}

// Service saves and restores labeled stash entries.
type Service struct {
	logger     *zap.Logger
	executor   shared.GitExecutor
	label      string
	retryDelay time.Duration
}

// NewService constructs a Service, applying defaults for an empty label or a non-positive delay.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	label := strings.TrimSpace(dependencies.Label)
	if len(label) == 0 {
		label = DefaultLabelConstant
	}
	retryDelay := dependencies.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Service{logger: logger, executor: dependencies.GitExecutor, label: label, retryDelay: retryDelay}, nil
}

// IsOverwriteConflict reports whether a failed pop was refused because local
// modifications would be overwritten. The check matches git's message text,
// which the runner pins to the C locale.
func IsOverwriteConflict(failure error) bool {
	if failure == nil {
		return false
	}
	return strings.Contains(execshell.FailureText(failure), overwriteConflictMarkerConstant)
}

// StashReference renders the reference for a zero-based stash index.
func StashReference(index int) string {
	return fmt.Sprintf(stashReferenceTemplateConstant, index)
}

// Save stashes local changes under the configured label.
func (service *Service) Save(executionContext context.Context, repositoryPath string) SaveResult {
	queryResult := service.executor.QueryGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitStashSubcommandConstant, gitStashPushConstant, gitMessageFlagConstant, service.label},
		WorkingDirectory: repositoryPath,
	})
	if !queryResult.Succeeded() {
		service.logger.Warn(stashSaveFailedMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath), zap.Error(queryResult.Failure))
		return SaveResult{Failure: queryResult.Failure}
	}
	if strings.Contains(queryResult.Output, noLocalChangesMarkerConstant) {
		service.logger.Info(stashNothingToSaveMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath))
		return SaveResult{}
	}
	service.logger.Info(stashSavedMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath), zap.String(logFieldLabelConstant, service.label))
	return SaveResult{Created: true}
}

// Restore pops the stash entry at index. A pop refused by an overwrite conflict
// is retried exactly once after staging all changes; every other failure ends
// the attempt immediately.
func (service *Service) Restore(executionContext context.Context, repositoryPath string, index int) RestoreResult {
	reference := StashReference(index)
	popDetails := execshell.CommandDetails{
		Arguments:        []string{gitStashSubcommandConstant, gitStashPopConstant, reference},
		WorkingDirectory: repositoryPath,
	}

	result := RestoreResult{}
	backoff := retry.WithMaxRetries(maximumRestoreRetriesConstant, retry.NewConstant(service.retryDelay))
	retryError := retry.Do(executionContext, backoff, func(attemptContext context.Context) error {
		result.Attempts++
		queryResult := service.executor.QueryGit(attemptContext, popDetails)
		if queryResult.Succeeded() {
			return nil
		}
		if result.Attempts == 1 && IsOverwriteConflict(queryResult.Failure) {
			service.logger.Info(stashRetryMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath), zap.String(logFieldReferenceConstant, reference))
			service.executor.QueryGit(attemptContext, execshell.CommandDetails{
				Arguments:        []string{gitAddSubcommandConstant, gitAddEverythingConstant},
				WorkingDirectory: repositoryPath,
			})
			return retry.RetryableError(queryResult.Failure)
		}
		return queryResult.Failure
	})

	if retryError != nil {
		result.Failure = retryError
		service.logger.Warn(
			stashRestoreFailedMessageConstant,
			zap.String(logFieldRepositoryConstant, repositoryPath),
			zap.String(logFieldReferenceConstant, reference),
			zap.Int(logFieldAttemptsConstant, result.Attempts),
			zap.Error(retryError),
		)
		return result
	}

	result.Restored = true
	service.logger.Info(
		stashRestoredMessageConstant,
		zap.String(logFieldRepositoryConstant, repositoryPath),
		zap.String(logFieldReferenceConstant, reference),
		zap.Int(logFieldAttemptsConstant, result.Attempts),
	)
	return result
}

// List returns the stash entries in recency order. A failed listing yields no entries.
func (service *Service) List(executionContext context.Context, repositoryPath string) []Entry {
	queryResult := service.executor.QueryGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitStashSubcommandConstant, gitStashListConstant},
		WorkingDirectory: repositoryPath,
	})
	return ParseEntries(queryResult.TrimmedOutput())
}

// ParseEntries parses stash list output. Lines without a stash reference are skipped.
func ParseEntries(listOutput string) []Entry {
	entries := []Entry{}
	for _, line := range strings.Split(listOutput, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmedLine, stashReferencePrefixConstant) {
			continue
		}
		reference, description, _ := strings.Cut(trimmedLine, stashListSeparatorConstant)
		indexText := strings.TrimSuffix(strings.TrimPrefix(reference, stashReferencePrefixConstant), stashReferenceSuffixConstant)
		index, parseError := strconv.Atoi(indexText)
		if parseError != nil {
			continue
		}
		entries = append(entries, Entry{Index: index, Reference: reference, Description: description})
	}
	return entries
}
