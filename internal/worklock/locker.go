package worklock

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/execshell"
	"github.com/temirov/gitkeeper/internal/shared"
)

const (
	// LockFileNameConstant is created inside the repository git directory.
	LockFileNameConstant = "gitkeeper.lock"
	// DefaultTimeout bounds how long Acquire waits for a competing process.
	DefaultTimeout = 30 * time.Second
	// DefaultRetryInterval is the pause between lock attempts.
	DefaultRetryInterval = 100 * time.Millisecond

	gitRevParseSubcommandConstant      = "rev-parse"
	gitAbsoluteGitDirFlagConstant      = "--absolute-git-dir"
	gitExecutorMissingMessageConstant  = "git executor not configured"
	lockTimeoutMessageConstant         = "could not acquire repository lock within timeout"
	gitDirectoryMissingMessageConstant = "git directory unavailable"
	gitDirectoryTemplateConstant       = "%w: %s"
	acquireFailureTemplateConstant     = "failed to acquire repository lock %s: %w"
	releaseFailureTemplateConstant     = "failed to release repository lock %s: %w"
	timeoutTemplateConstant            = "%w: %s after %s"
	lockAcquiredMessageConstant        = "repository lock acquired"
	lockReleasedMessageConstant        = "repository lock released"
	lockWaitingMessageConstant         = "repository lock held by another process; waiting"
	logFieldLockPathConstant           = "lock_path"
	logFieldTimeoutConstant            = "timeout"
)

var (
	// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)
	// ErrLockTimeout indicates another process kept the lock for the whole timeout.
	ErrLockTimeout = errors.New(lockTimeoutMessageConstant)
	// ErrGitDirectoryUnavailable indicates the repository git directory could not be located.
	ErrGitDirectoryUnavailable = errors.New(gitDirectoryMissingMessageConstant)
)

// Dependencies enumerates collaborators and settings for a Locker.
type Dependencies struct {
	Logger        *zap.Logger
	GitExecutor   shared.GitExecutor
	FileSystem    afero.Fs
	Timeout       time.Duration
	RetryInterval time.Duration
}

// Locker acquires the per-repository advisory lock.
type Locker struct {
	logger        *zap.Logger
	executor      shared.GitExecutor
	fileSystem    afero.Fs
	timeout       time.Duration
	retryInterval time.Duration
}

// Lease is a held lock. Release must be called exactly once.
type Lease struct {
	lock   *flock.Flock
	logger *zap.Logger
}

// NewLocker constructs a Locker, applying defaults for missing settings.
func NewLocker(dependencies Dependencies) (*Locker, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	timeout := dependencies.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retryInterval := dependencies.RetryInterval
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	return &Locker{
		logger:        logger,
		executor:      dependencies.GitExecutor,
		fileSystem:    fileSystem,
		timeout:       timeout,
		retryInterval: retryInterval,
	}, nil
}

// LockPath returns the lock file location for the repository.
func (locker *Locker) LockPath(executionContext context.Context, repositoryPath string) (string, error) {
	queryResult := locker.executor.QueryGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitAbsoluteGitDirFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	gitDirectory := queryResult.TrimmedOutput()
	if len(gitDirectory) == 0 {
		return "", fmt.Errorf(gitDirectoryTemplateConstant, ErrGitDirectoryUnavailable, repositoryPath)
	}
	directoryExists, statError := afero.DirExists(locker.fileSystem, gitDirectory)
	if statError != nil || !directoryExists {
		return "", fmt.Errorf(gitDirectoryTemplateConstant, ErrGitDirectoryUnavailable, gitDirectory)
	}
	return filepath.Join(gitDirectory, LockFileNameConstant), nil
}

// Acquire blocks until the repository lock is held, the timeout elapses, or the context ends.
func (locker *Locker) Acquire(executionContext context.Context, repositoryPath string) (*Lease, error) {
	lockPath, pathError := locker.LockPath(executionContext, repositoryPath)
	if pathError != nil {
		return nil, pathError
	}

	lock := flock.New(lockPath)
	locked, lockError := lock.TryLock()
	if lockError != nil {
		return nil, fmt.Errorf(acquireFailureTemplateConstant, lockPath, lockError)
	}
	if !locked {
		locker.logger.Info(lockWaitingMessageConstant, zap.String(logFieldLockPathConstant, lockPath), zap.Duration(logFieldTimeoutConstant, locker.timeout))
		lockContext, cancel := context.WithTimeout(executionContext, locker.timeout)
		defer cancel()
		locked, lockError = locker.acquireWithContext(lockContext, lock)
		if lockError != nil {
			if errors.Is(lockError, context.DeadlineExceeded) && executionContext.Err() == nil {
				return nil, fmt.Errorf(timeoutTemplateConstant, ErrLockTimeout, lockPath, locker.timeout)
			}
			return nil, fmt.Errorf(acquireFailureTemplateConstant, lockPath, lockError)
		}
		if !locked {
			return nil, fmt.Errorf(timeoutTemplateConstant, ErrLockTimeout, lockPath, locker.timeout)
		}
	}

	locker.logger.Debug(lockAcquiredMessageConstant, zap.String(logFieldLockPathConstant, lockPath))
	return &Lease{lock: lock, logger: locker.logger}, nil
}

func (locker *Locker) acquireWithContext(lockContext context.Context, lock *flock.Flock) (bool, error) {
	ticker := time.NewTicker(locker.retryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-lockContext.Done():
			return false, lockContext.Err()
		case <-ticker.C:
			locked, lockError := lock.TryLock()
			if lockError != nil {
				return false, lockError
			}
			if locked {
				return true, nil
			}
		}
	}
}

// Path returns the lock file path.
func (lease *Lease) Path() string {
	return lease.lock.Path()
}

// Release unlocks the lease. The lock file stays in place for the next process.
func (lease *Lease) Release() error {
	if unlockError := lease.lock.Unlock(); unlockError != nil {
		return fmt.Errorf(releaseFailureTemplateConstant, lease.lock.Path(), unlockError)
	}
	lease.logger.Debug(lockReleasedMessageConstant, zap.String(logFieldLockPathConstant, lease.lock.Path()))
	return nil
}

// Run holds the repository lock for the duration of action.
func (locker *Locker) Run(executionContext context.Context, repositoryPath string, action func(context.Context) error) error {
	lease, acquireError := locker.Acquire(executionContext, repositoryPath)
	if acquireError != nil {
		return acquireError
	}
	actionError := action(executionContext)
	releaseError := lease.Release()
	if actionError != nil {
		if releaseError != nil {
			locker.logger.Warn(releaseError.Error())
		}
		return actionError
	}
	return releaseError
}
