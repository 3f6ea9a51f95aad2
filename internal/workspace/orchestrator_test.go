package workspace_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/execshell"
	"github.com/temirov/gitkeeper/internal/gitrepo"
	"github.com/temirov/gitkeeper/internal/stash"
	"github.com/temirov/gitkeeper/internal/testsupport"
	"github.com/temirov/gitkeeper/internal/workspace"
)

const (
	testRepositoryPathConstant = "/tmp/repository"
	testHeadHashConstant       = "0123456789abcdef"
	testFilePathConstant       = "notes.txt"
)

var (
	isRepositoryArguments  = []string{"rev-parse", "--is-inside-work-tree"}
	logArguments           = []string{"log"}
	headCommitArguments    = []string{"rev-parse", "HEAD"}
	currentBranchArguments = []string{"rev-parse", "--abbrev-ref", "HEAD"}
	statusArguments        = []string{"status", "--porcelain"}
	originArguments        = []string{"config", "remote.origin.url"}
	stashListArguments     = []string{"stash", "list"}
	stashPopArguments      = []string{"stash", "pop", "stash@{0}"}
	initialCommitArguments = []string{"commit", "--allow-empty", "-n", "-m", workspace.InitialCommitMessageConstant}
)

func newOrchestrator(testInstance *testing.T, executor *testsupport.ScriptedGitExecutor) *workspace.Orchestrator {
	testInstance.Helper()
	inspector, inspectorError := gitrepo.NewRepositoryInspector(executor)
	require.NoError(testInstance, inspectorError)
	stashService, stashError := stash.NewService(stash.ServiceDependencies{GitExecutor: executor, RetryDelay: time.Millisecond})
	require.NoError(testInstance, stashError)
	orchestrator, orchestratorError := workspace.NewOrchestrator(workspace.Dependencies{
		Logger:         zap.NewNop(),
		GitExecutor:    executor,
		Inspector:      inspector,
		Stash:          stashService,
		RepositoryPath: testRepositoryPathConstant,
	})
	require.NoError(testInstance, orchestratorError)
	return orchestrator
}

func TestNewOrchestratorValidatesDependencies(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor()
	inspector, inspectorError := gitrepo.NewRepositoryInspector(executor)
	require.NoError(testInstance, inspectorError)
	stashService, stashError := stash.NewService(stash.ServiceDependencies{GitExecutor: executor})
	require.NoError(testInstance, stashError)

	testCases := []struct {
		name          string
		dependencies  workspace.Dependencies
		expectedError error
	}{
		{
			name:          "missing_path",
			dependencies:  workspace.Dependencies{GitExecutor: executor, Inspector: inspector, Stash: stashService, RepositoryPath: "  "},
			expectedError: workspace.ErrRepositoryPathRequired,
		},
		{
			name:          "missing_executor",
			dependencies:  workspace.Dependencies{Inspector: inspector, Stash: stashService, RepositoryPath: testRepositoryPathConstant},
			expectedError: workspace.ErrGitExecutorNotConfigured,
		},
		{
			name:          "missing_inspector",
			dependencies:  workspace.Dependencies{GitExecutor: executor, Stash: stashService, RepositoryPath: testRepositoryPathConstant},
			expectedError: workspace.ErrInspectorNotConfigured,
		},
		{
			name:          "missing_stash",
			dependencies:  workspace.Dependencies{GitExecutor: executor, Inspector: inspector, RepositoryPath: testRepositoryPathConstant},
			expectedError: workspace.ErrStashServiceNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			orchestrator, orchestratorError := workspace.NewOrchestrator(testCase.dependencies)
			require.ErrorIs(testInstance, orchestratorError, testCase.expectedError)
			require.Nil(testInstance, orchestrator)
		})
	}
}

func TestBootstrapRestoresMostRecentStash(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor()
	result := newOrchestrator(testInstance, executor).Bootstrap(context.Background())

	require.Equal(testInstance, stash.RestoreResult{Restored: true, Attempts: 1}, result)
	require.Equal(testInstance, [][]string{stashPopArguments}, executor.RecordedArguments())
	require.Equal(testInstance, testRepositoryPathConstant, executor.RecordedDetails()[0].WorkingDirectory)
}

func TestBootstrapNeverFails(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor().On(stashPopArguments, testsupport.ScriptedResponse{ExitCode: 1, StandardError: "No stash entries found.\n"})
	result := newOrchestrator(testInstance, executor).Bootstrap(context.Background())

	require.False(testInstance, result.Restored)
	require.Error(testInstance, result.Failure)
}

func TestInitialize(testInstance *testing.T) {
	testCases := []struct {
		name              string
		executor          *testsupport.ScriptedGitExecutor
		expectedResult    workspace.InitializeResult
		expectedError     error
		expectedArguments [][]string
	}{
		{
			name:              "not_a_repository",
			executor:          testsupport.NewScriptedGitExecutor().On(isRepositoryArguments, testsupport.ScriptedResponse{ExitCode: 128, StandardError: "fatal: not a git repository\n"}),
			expectedError:     workspace.ErrNotARepository,
			expectedArguments: [][]string{isRepositoryArguments},
		},
		{
			name: "existing_history",
			executor: testsupport.NewScriptedGitExecutor().
				On(isRepositoryArguments, testsupport.ScriptedResponse{Output: "true\n"}).
				On(logArguments, testsupport.ScriptedResponse{Output: "commit " + testHeadHashConstant + "\n"}).
				On(headCommitArguments, testsupport.ScriptedResponse{Output: testHeadHashConstant + "\n"}),
			expectedResult:    workspace.InitializeResult{HeadCommit: testHeadHashConstant},
			expectedArguments: [][]string{isRepositoryArguments, logArguments, headCommitArguments},
		},
		{
			name: "empty_history",
			executor: testsupport.NewScriptedGitExecutor().
				On(isRepositoryArguments, testsupport.ScriptedResponse{Output: "true\n"}).
				On(logArguments, testsupport.ScriptedResponse{ExitCode: 128, StandardError: "fatal: your current branch 'main' does not have any commits yet\n"}).
				On(headCommitArguments, testsupport.ScriptedResponse{Output: testHeadHashConstant + "\n"}),
			expectedResult:    workspace.InitializeResult{CreatedInitialCommit: true, HeadCommit: testHeadHashConstant},
			expectedArguments: [][]string{isRepositoryArguments, logArguments, initialCommitArguments, headCommitArguments},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			result, initializeError := newOrchestrator(testInstance, testCase.executor).Initialize(context.Background())

			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, initializeError, testCase.expectedError)
			} else {
				require.NoError(testInstance, initializeError)
			}
			require.Equal(testInstance, testCase.expectedResult, result)
			require.Equal(testInstance, testCase.expectedArguments, testCase.executor.RecordedArguments())
		})
	}
}

func TestInitializePropagatesInitialCommitFailure(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor().
		On(isRepositoryArguments, testsupport.ScriptedResponse{Output: "true\n"}).
		On(logArguments, testsupport.ScriptedResponse{ExitCode: 128}).
		On(initialCommitArguments, testsupport.ScriptedResponse{ExitCode: 128, StandardError: "Author identity unknown\n"})

	result, initializeError := newOrchestrator(testInstance, executor).Initialize(context.Background())

	require.Error(testInstance, initializeError)
	var commandFailure execshell.CommandFailedError
	require.ErrorAs(testInstance, initializeError, &commandFailure)
	require.Equal(testInstance, workspace.InitializeResult{}, result)
}

func TestStatus(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor().
		On(isRepositoryArguments, testsupport.ScriptedResponse{Output: "true\n"}).
		On(currentBranchArguments, testsupport.ScriptedResponse{Output: "main\n"}).
		On(headCommitArguments, testsupport.ScriptedResponse{Output: testHeadHashConstant + "\n"}).
		On(statusArguments, testsupport.ScriptedResponse{Output: " M notes.txt\n?? scratch.txt\n"}).
		On(originArguments, testsupport.ScriptedResponse{Output: "git@github.com:example/project.git\n"}).
		On([]string{"ls-files", testFilePathConstant}, testsupport.ScriptedResponse{Output: testFilePathConstant + "\n"}).
		On([]string{"diff", testFilePathConstant}, testsupport.ScriptedResponse{Output: "diff --git a/notes.txt b/notes.txt\n"}).
		On([]string{"rev-list", "-1", "HEAD", "--", testFilePathConstant}, testsupport.ScriptedResponse{Output: testHeadHashConstant + "\n"}).
		On(stashListArguments, testsupport.ScriptedResponse{Output: "stash@{0}: On main: gitkeeper stash\n"})

	status := newOrchestrator(testInstance, executor).Status(context.Background(), []string{testFilePathConstant, " "})

	require.Equal(testInstance, workspace.Status{
		RepositoryPath: testRepositoryPathConstant,
		IsRepository:   true,
		Branch:         "main",
		Origin:         "git@github.com:example/project.git",
		HeadCommit:     testHeadHashConstant,
		UntrackedFiles: []string{"scratch.txt"},
		Paths: []workspace.PathStatus{
			{Path: testFilePathConstant, Tracked: true, UnstagedChange: true, StagedChange: false, LastCommit: testHeadHashConstant},
		},
		StashEntries: []stash.Entry{{Index: 0, Reference: "stash@{0}", Description: "On main: gitkeeper stash"}},
	}, status)
}

func TestStatusOutsideRepository(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor().On(isRepositoryArguments, testsupport.ScriptedResponse{ExitCode: 128})
	status := newOrchestrator(testInstance, executor).Status(context.Background(), []string{testFilePathConstant})

	require.Equal(testInstance, workspace.Status{RepositoryPath: testRepositoryPathConstant}, status)
	require.Equal(testInstance, [][]string{isRepositoryArguments}, executor.RecordedArguments())
}
