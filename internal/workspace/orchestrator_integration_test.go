package workspace_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/gitrepo"
	"github.com/temirov/gitkeeper/internal/stash"
	"github.com/temirov/gitkeeper/internal/testsupport"
	"github.com/temirov/gitkeeper/internal/workspace"
)

func newRealOrchestrator(testInstance *testing.T, repositoryPath string) *workspace.Orchestrator {
	testInstance.Helper()
	executor := testsupport.NewShellExecutor(testInstance)
	inspector, inspectorError := gitrepo.NewRepositoryInspector(executor)
	require.NoError(testInstance, inspectorError)
	stashService, stashError := stash.NewService(stash.ServiceDependencies{GitExecutor: executor, RetryDelay: time.Millisecond})
	require.NoError(testInstance, stashError)
	orchestrator, orchestratorError := workspace.NewOrchestrator(workspace.Dependencies{
		Logger:         zap.NewNop(),
		GitExecutor:    executor,
		Inspector:      inspector,
		Stash:          stashService,
		RepositoryPath: repositoryPath,
	})
	require.NoError(testInstance, orchestratorError)
	return orchestrator
}

func TestInitializeCreatesInitialCommitInEmptyRepository(testInstance *testing.T) {
	testsupport.RequireGitExecutable(testInstance)

	fixture := testsupport.NewEmptyRepository(testInstance)
	orchestrator := newRealOrchestrator(testInstance, fixture.Path)

	first, firstError := orchestrator.Initialize(context.Background())
	require.NoError(testInstance, firstError)
	require.True(testInstance, first.CreatedInitialCommit)
	require.NotEmpty(testInstance, first.HeadCommit)
	require.Equal(testInstance, 1, fixture.CommitCount(testInstance))

	second, secondError := orchestrator.Initialize(context.Background())
	require.NoError(testInstance, secondError)
	require.False(testInstance, second.CreatedInitialCommit)
	require.Equal(testInstance, first.HeadCommit, second.HeadCommit)
	require.Equal(testInstance, 1, fixture.CommitCount(testInstance))
}

func TestInitializeRejectsPlainDirectory(testInstance *testing.T) {
	testsupport.RequireGitExecutable(testInstance)
	plainDirectory := testInstance.TempDir()
	testInstance.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(plainDirectory))

	_, initializeError := newRealOrchestrator(testInstance, plainDirectory).Initialize(context.Background())
	require.ErrorIs(testInstance, initializeError, workspace.ErrNotARepository)
}

func TestBootstrapAgainstRealRepository(testInstance *testing.T) {
	testsupport.RequireGitExecutable(testInstance)

	fixture := testsupport.NewRepository(testInstance, map[string]string{testFilePathConstant: "base\n"})
	orchestrator := newRealOrchestrator(testInstance, fixture.Path)

	emptyResult := orchestrator.Bootstrap(context.Background())
	require.False(testInstance, emptyResult.Restored)
	require.Error(testInstance, emptyResult.Failure)

	fixture.WriteFile(testInstance, testFilePathConstant, "work in progress\n")
	stashService, stashError := stash.NewService(stash.ServiceDependencies{GitExecutor: testsupport.NewShellExecutor(testInstance)})
	require.NoError(testInstance, stashError)
	require.True(testInstance, stashService.Save(context.Background(), fixture.Path).Created)
	require.Equal(testInstance, "base\n", fixture.ReadFile(testInstance, testFilePathConstant))

	restoredResult := orchestrator.Bootstrap(context.Background())
	require.True(testInstance, restoredResult.Restored)
	require.Equal(testInstance, "work in progress\n", fixture.ReadFile(testInstance, testFilePathConstant))
}

func TestStatusAgainstRealRepository(testInstance *testing.T) {
	testsupport.RequireGitExecutable(testInstance)

	fixture := testsupport.NewRepository(testInstance, map[string]string{testFilePathConstant: "base\n"})
	fixture.WriteFile(testInstance, testFilePathConstant, "edited\n")
	fixture.WriteFile(testInstance, "scratch.txt", "scratch\n")

	status := newRealOrchestrator(testInstance, fixture.Path).Status(context.Background(), []string{testFilePathConstant})

	require.True(testInstance, status.IsRepository)
	require.Equal(testInstance, fixture.HeadBranch(testInstance), status.Branch)
	require.Empty(testInstance, status.Origin)
	require.Equal(testInstance, []string{"scratch.txt"}, status.UntrackedFiles)
	require.Len(testInstance, status.Paths, 1)
	require.True(testInstance, status.Paths[0].Tracked)
	require.True(testInstance, status.Paths[0].UnstagedChange)
	require.False(testInstance, status.Paths[0].StagedChange)
	require.Equal(testInstance, status.HeadCommit, status.Paths[0].LastCommit)
	require.Empty(testInstance, status.StashEntries)
}
