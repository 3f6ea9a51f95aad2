package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitkeeper/internal/execshell"
)

const (
	testQuerySuccessCaseNameConstant       = "success"
	testQueryExitFailureCaseNameConstant   = "non_zero_exit"
	testQueryLaunchFailureCaseNameConstant = "launch_failure"
	testQueryOutputConstant                = "  main\n"
)

func TestShellExecutorQueryGitFoldsFailures(testInstance *testing.T) {
	testCases := []struct {
		name                string
		runnerResult        execshell.ExecutionResult
		runnerError         error
		expectSucceeded     bool
		expectedOutput      string
		expectedTrimmed     string
		expectedWarningLogs int
	}{
		{
			name:            testQuerySuccessCaseNameConstant,
			runnerResult:    execshell.ExecutionResult{StandardOutput: testQueryOutputConstant},
			expectSucceeded: true,
			expectedOutput:  testQueryOutputConstant,
			expectedTrimmed: "main",
		},
		{
			name:                testQueryExitFailureCaseNameConstant,
			runnerResult:        execshell.ExecutionResult{ExitCode: 128, StandardOutput: "partial", StandardError: "fatal: not a git repository"},
			expectedWarningLogs: 1,
		},
		{
			name:                testQueryLaunchFailureCaseNameConstant,
			runnerError:         errors.New("executable file not found"),
			expectedWarningLogs: 1,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			recordingRunner := &recordingCommandRunner{executionResult: testCase.runnerResult, executionError: testCase.runnerError}
			executor, creationError := execshell.NewShellExecutor(zap.New(observerCore), recordingRunner)
			require.NoError(testInstance, creationError)

			queryResult := executor.QueryGit(context.Background(), execshell.CommandDetails{Arguments: []string{"rev-parse", "--abbrev-ref", "HEAD"}})

			require.Equal(testInstance, testCase.expectSucceeded, queryResult.Succeeded())
			require.Equal(testInstance, testCase.expectedOutput, queryResult.Output)
			require.Equal(testInstance, testCase.expectedTrimmed, queryResult.TrimmedOutput())
			require.Len(testInstance, observerLogs.FilterLevelExact(zapcore.WarnLevel).All(), testCase.expectedWarningLogs)
			if !testCase.expectSucceeded {
				require.Error(testInstance, queryResult.Failure)
			}
		})
	}
}

func TestQueryResultZeroValueSucceedsWithEmptyOutput(testInstance *testing.T) {
	var queryResult execshell.QueryResult
	require.True(testInstance, queryResult.Succeeded())
	require.Empty(testInstance, queryResult.TrimmedOutput())
}
