package branches_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/branches"
	"github.com/temirov/gitkeeper/internal/testsupport"
	"github.com/temirov/gitkeeper/internal/utils"
)

func TestBranchCommandPrintsSwitch(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor().
		On(currentBranchArguments, testsupport.ScriptedResponse{Output: testCurrentBranchConstant + "\n"}).
		On(verifyBranchArguments, testsupport.ScriptedResponse{ExitCode: 128})

	builder := branches.CommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		GitExecutor:    executor,
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetContext(utils.NewCommandContextAccessor().WithRepositoryPath(context.Background(), testRepositoryPathConstant))

	require.NoError(testInstance, command.RunE(command, []string{testBranchNameConstant}))
	require.Equal(testInstance, "SWITCHED: main -> tracking (created)\n", output.String())
	for _, recordedDetails := range executor.RecordedDetails() {
		require.Equal(testInstance, testRepositoryPathConstant, recordedDetails.WorkingDirectory)
	}
}

func TestRestoreFileCommandReportsOutcome(testInstance *testing.T) {
	executor := testsupport.NewScriptedGitExecutor().
		On([]string{"checkout", testBranchNameConstant, "--", testFilePathConstant}, testsupport.ScriptedResponse{ExitCode: 1})

	builder := branches.CommandBuilder{GitExecutor: executor}
	command, buildError := builder.BuildRestoreFile()
	require.NoError(testInstance, buildError)

	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetContext(context.Background())

	require.NoError(testInstance, command.RunE(command, []string{testBranchNameConstant, testFilePathConstant}))
	require.Equal(testInstance, "NOT RESTORED: notes.txt from tracking\n", output.String())
	require.Equal(testInstance, ".", executor.RecordedDetails()[0].WorkingDirectory)
}

func TestBranchCommandRequiresName(testInstance *testing.T) {
	builder := branches.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	require.Error(testInstance, command.Args(command, []string{}))
}
