package branches_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/branches"
	"github.com/temirov/gitkeeper/internal/execshell"
	"github.com/temirov/gitkeeper/internal/gitrepo"
	"github.com/temirov/gitkeeper/internal/testsupport"
)

const (
	testRepositoryPathConstant = "/tmp/repository"
	testBranchNameConstant     = "tracking"
	testCurrentBranchConstant  = "main"
	testFilePathConstant       = "notes.txt"
)

var (
	currentBranchArguments = []string{"rev-parse", "--abbrev-ref", "HEAD"}
	verifyBranchArguments  = []string{"rev-parse", "--verify", testBranchNameConstant}
	createBranchArguments  = []string{"checkout", "-b", testBranchNameConstant}
	switchBranchArguments  = []string{"checkout", testBranchNameConstant}
)

func newService(testInstance *testing.T, executor *testsupport.ScriptedGitExecutor) *branches.Service {
	testInstance.Helper()
	inspector, inspectorError := gitrepo.NewRepositoryInspector(executor)
	require.NoError(testInstance, inspectorError)
	service, serviceError := branches.NewService(branches.ServiceDependencies{Logger: zap.NewNop(), GitExecutor: executor, RepositoryState: inspector})
	require.NoError(testInstance, serviceError)
	return service
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor()

	_, missingExecutorError := branches.NewService(branches.ServiceDependencies{})
	require.ErrorIs(testInstance, missingExecutorError, branches.ErrGitExecutorNotConfigured)

	_, missingStateError := branches.NewService(branches.ServiceDependencies{GitExecutor: executor})
	require.ErrorIs(testInstance, missingStateError, branches.ErrRepositoryStateNotConfigured)
}

func TestEnsureBranchScenarios(testInstance *testing.T) {
	testCases := []struct {
		name             string
		branchExists     bool
		checkoutResponse testsupport.ScriptedResponse
		expectedCommands [][]string
		expectedCreated  bool
		expectFailure    bool
	}{
		{
			name:             "creates_missing_branch",
			branchExists:     false,
			expectedCommands: [][]string{currentBranchArguments, verifyBranchArguments, createBranchArguments},
			expectedCreated:  true,
		},
		{
			name:             "switches_to_existing_branch",
			branchExists:     true,
			expectedCommands: [][]string{currentBranchArguments, verifyBranchArguments, switchBranchArguments},
		},
		{
			name:             "checkout_failure_propagates",
			branchExists:     true,
			checkoutResponse: testsupport.ScriptedResponse{ExitCode: 1, StandardError: "error: Your local changes to the following files would be overwritten by checkout"},
			expectedCommands: [][]string{currentBranchArguments, verifyBranchArguments, switchBranchArguments},
			expectFailure:    true,
		},
		{
			name:             "creation_failure_propagates",
			branchExists:     false,
			checkoutResponse: testsupport.ScriptedResponse{ExitCode: 128, StandardError: "fatal: 'tracking' is not a valid branch name"},
			expectedCommands: [][]string{currentBranchArguments, verifyBranchArguments, createBranchArguments},
			expectFailure:    true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := testsupport.NewScriptedGitExecutor().
				On(currentBranchArguments, testsupport.ScriptedResponse{Output: testCurrentBranchConstant + "\n"})
			if testCase.branchExists {
				executor.On(verifyBranchArguments, testsupport.ScriptedResponse{Output: "0123abcd\n"})
				executor.On(switchBranchArguments, testCase.checkoutResponse)
			} else {
				executor.On(verifyBranchArguments, testsupport.ScriptedResponse{ExitCode: 128, StandardError: "fatal: Needed a single revision"})
				executor.On(createBranchArguments, testCase.checkoutResponse)
			}

			service := newService(testInstance, executor)
			result, ensureError := service.EnsureBranch(context.Background(), testRepositoryPathConstant, testBranchNameConstant)

			require.Equal(testInstance, testCase.expectedCommands, executor.RecordedArguments())
			if testCase.expectFailure {
				require.Error(testInstance, ensureError)
				var commandFailure execshell.CommandFailedError
				require.True(testInstance, errors.As(ensureError, &commandFailure))
				return
			}
			require.NoError(testInstance, ensureError)
			require.Equal(testInstance, branches.EnsureResult{PreviousBranch: testCurrentBranchConstant, BranchName: testBranchNameConstant, Created: testCase.expectedCreated}, result)
		})
	}
}

func TestEnsureBranchValidatesInputs(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor()
	service := newService(testInstance, executor)

	_, pathError := service.EnsureBranch(context.Background(), "  ", testBranchNameConstant)
	require.ErrorIs(testInstance, pathError, branches.ErrRepositoryPathRequired)

	_, nameError := service.EnsureBranch(context.Background(), testRepositoryPathConstant, "")
	require.ErrorIs(testInstance, nameError, branches.ErrBranchNameRequired)

	require.Empty(testInstance, executor.RecordedArguments())
}

func TestRestoreFileFromBranch(testInstance *testing.T) {
	restoreArguments := []string{"checkout", testBranchNameConstant, "--", testFilePathConstant}

	successfulExecutor := testsupport.NewScriptedGitExecutor()
	restored, restoreError := newService(testInstance, successfulExecutor).RestoreFileFromBranch(context.Background(), testRepositoryPathConstant, testBranchNameConstant, testFilePathConstant)
	require.NoError(testInstance, restoreError)
	require.True(testInstance, restored)
	require.Equal(testInstance, [][]string{restoreArguments}, successfulExecutor.RecordedArguments())

	failingExecutor := testsupport.NewScriptedGitExecutor().On(restoreArguments, testsupport.ScriptedResponse{ExitCode: 1, StandardError: "error: pathspec 'notes.txt' did not match"})
	restored, restoreError = newService(testInstance, failingExecutor).RestoreFileFromBranch(context.Background(), testRepositoryPathConstant, testBranchNameConstant, testFilePathConstant)
	require.NoError(testInstance, restoreError)
	require.False(testInstance, restored)

	_, validationError := newService(testInstance, failingExecutor).RestoreFileFromBranch(context.Background(), testRepositoryPathConstant, testBranchNameConstant, " ")
	require.ErrorIs(testInstance, validationError, branches.ErrFilePathRequired)
}
