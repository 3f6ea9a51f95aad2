package stash_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/execshell"
	"github.com/temirov/gitkeeper/internal/shared"
	"github.com/temirov/gitkeeper/internal/stash"
	"github.com/temirov/gitkeeper/internal/testsupport"
)

const (
	testTrackedFileConstant      = "notes.txt"
	testCommittedContent         = "base\n"
	testStashedContent           = "stashed edit\n"
	testConflictingContent       = "local edit\n"
	testIntegrationLabelConstant = "integration stash"
	testUntrackedFileConstant    = "scratch.txt"
)

// recordingShellExecutor forwards to a real executor and remembers every argument list.
type recordingShellExecutor struct {
	delegate *execshell.ShellExecutor
	mutex    sync.Mutex
	recorded [][]string
}

func (executor *recordingShellExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.record(details)
	return executor.delegate.ExecuteGit(executionContext, details)
}

func (executor *recordingShellExecutor) QueryGit(executionContext context.Context, details execshell.CommandDetails) execshell.QueryResult {
	executor.record(details)
	return executor.delegate.QueryGit(executionContext, details)
}

func (executor *recordingShellExecutor) record(details execshell.CommandDetails) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.recorded = append(executor.recorded, append([]string(nil), details.Arguments...))
}

func (executor *recordingShellExecutor) countOf(arguments ...string) int {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	count := 0
	for _, recordedArguments := range executor.recorded {
		if strings.Join(recordedArguments, " ") == strings.Join(arguments, " ") {
			count++
		}
	}
	return count
}

func newRealService(testInstance *testing.T) *stash.Service {
	testInstance.Helper()
	return newRealServiceWithExecutor(testInstance, testsupport.NewShellExecutor(testInstance))
}

func newRealServiceWithExecutor(testInstance *testing.T, executor shared.GitExecutor) *stash.Service {
	testInstance.Helper()
	service, serviceError := stash.NewService(stash.ServiceDependencies{
		Logger:      zap.NewNop(),
		GitExecutor: executor,
		Label:       testIntegrationLabelConstant,
		RetryDelay:  testRetryDelay,
	})
	require.NoError(testInstance, serviceError)
	return service
}

func TestSaveAndRestoreAgainstRealRepository(testInstance *testing.T) {
	testsupport.RequireGitExecutable(testInstance)

	fixture := testsupport.NewRepository(testInstance, map[string]string{testTrackedFileConstant: testCommittedContent})
	service := newRealService(testInstance)
	executionContext := context.Background()

	require.Equal(testInstance, stash.SaveResult{}, service.Save(executionContext, fixture.Path))

	fixture.WriteFile(testInstance, testTrackedFileConstant, testStashedContent)
	require.Equal(testInstance, stash.SaveResult{Created: true}, service.Save(executionContext, fixture.Path))
	require.Equal(testInstance, testCommittedContent, fixture.ReadFile(testInstance, testTrackedFileConstant))

	entries := service.List(executionContext, fixture.Path)
	require.Len(testInstance, entries, 1)
	require.Equal(testInstance, 0, entries[0].Index)
	require.True(testInstance, strings.HasSuffix(entries[0].Description, testIntegrationLabelConstant))

	restored := service.Restore(executionContext, fixture.Path, 0)
	require.True(testInstance, restored.Restored)
	require.Equal(testInstance, 1, restored.Attempts)
	require.NoError(testInstance, restored.Failure)
	require.Equal(testInstance, testStashedContent, fixture.ReadFile(testInstance, testTrackedFileConstant))
	require.Empty(testInstance, service.List(executionContext, fixture.Path))
}

func TestRestoreBlockedByLocalModificationsRetriesOnce(testInstance *testing.T) {
	testsupport.RequireGitExecutable(testInstance)

	fixture := testsupport.NewRepository(testInstance, map[string]string{testTrackedFileConstant: testCommittedContent})
	realExecutor := testsupport.NewShellExecutor(testInstance)
	recordingExecutor := &recordingShellExecutor{delegate: realExecutor}
	service := newRealServiceWithExecutor(testInstance, recordingExecutor)
	executionContext := context.Background()

	fixture.WriteFile(testInstance, testTrackedFileConstant, testStashedContent)
	require.True(testInstance, service.Save(executionContext, fixture.Path).Created)
	fixture.WriteFile(testInstance, testTrackedFileConstant, testConflictingContent)
	fixture.WriteFile(testInstance, testUntrackedFileConstant, testConflictingContent)

	result := service.Restore(executionContext, fixture.Path, 0)

	require.False(testInstance, result.Restored)
	require.Equal(testInstance, 2, result.Attempts)
	require.True(testInstance, result.RetriedAfterStaging())
	require.Error(testInstance, result.Failure)
	require.Equal(testInstance, 2, recordingExecutor.countOf("stash", "pop", "stash@{0}"))
	require.Equal(testInstance, 1, recordingExecutor.countOf("add", "."))

	entries := service.List(executionContext, fixture.Path)
	require.Len(testInstance, entries, 1)
	require.True(testInstance, strings.HasSuffix(entries[0].Description, testIntegrationLabelConstant))

	conflictedContent := fixture.ReadFile(testInstance, testTrackedFileConstant)
	require.Contains(testInstance, conflictedContent, "<<<<<<<")
	require.Contains(testInstance, conflictedContent, strings.TrimSpace(testConflictingContent))
	require.Contains(testInstance, conflictedContent, strings.TrimSpace(testStashedContent))
	require.Contains(testInstance, conflictedContent, ">>>>>>>")

	unmergedEntries := realExecutor.QueryGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{"ls-files", "--unmerged", "--", testTrackedFileConstant},
		WorkingDirectory: fixture.Path,
	})
	require.True(testInstance, unmergedEntries.Succeeded())
	require.NotEmpty(testInstance, unmergedEntries.TrimmedOutput())

	stagedUntracked := realExecutor.QueryGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{"ls-files", "--cached", "--", testUntrackedFileConstant},
		WorkingDirectory: fixture.Path,
	})
	require.Equal(testInstance, testUntrackedFileConstant, stagedUntracked.TrimmedOutput())
}

func TestRestoreOfEmptyStashIsReportedNotRaised(testInstance *testing.T) {
	testsupport.RequireGitExecutable(testInstance)

	fixture := testsupport.NewRepository(testInstance, map[string]string{testTrackedFileConstant: testCommittedContent})
	result := newRealService(testInstance).Restore(context.Background(), fixture.Path, 0)

	require.False(testInstance, result.Restored)
	require.Equal(testInstance, 1, result.Attempts)
	require.Error(testInstance, result.Failure)
	require.False(testInstance, stash.IsOverwriteConflict(result.Failure))
}
