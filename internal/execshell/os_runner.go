package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const (
	environmentAssignmentSeparatorConstant = "="
	gitTerminalPromptVariableConstant      = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledConstant      = "0"
	localeVariableConstant                 = "LC_ALL"
	localeNeutralValueConstant             = "C"
)

// OSCommandRunner spawns git as a child process. Every child runs with the
// C locale and terminal prompts disabled so its messages stay matchable and a
// credential prompt can never block a caller.
type OSCommandRunner struct {
	baseEnvironment map[string]string
}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{
		baseEnvironment: map[string]string{
			gitTerminalPromptVariableConstant: gitTerminalPromptDisabledConstant,
			localeVariableConstant:            localeNeutralValueConstant,
		},
	}
}

// Environment renders the process environment for command. Per-command
// variables override the runner defaults, which override the inherited environment.
func (runner *OSCommandRunner) Environment(command ShellCommand) []string {
	overrides := make(map[string]string, len(runner.baseEnvironment)+len(command.Details.EnvironmentVariables))
	for variableName, variableValue := range runner.baseEnvironment {
		overrides[variableName] = variableValue
	}
	for variableName, variableValue := range command.Details.EnvironmentVariables {
		overrides[variableName] = variableValue
	}

	environment := make([]string, 0, len(os.Environ())+len(overrides))
	for _, inherited := range os.Environ() {
		variableName, _, _ := strings.Cut(inherited, environmentAssignmentSeparatorConstant)
		if _, overridden := overrides[variableName]; overridden {
			continue
		}
		environment = append(environment, inherited)
	}

	overrideNames := make([]string, 0, len(overrides))
	for variableName := range overrides {
		overrideNames = append(overrideNames, variableName)
	}
	sort.Strings(overrideNames)
	for _, variableName := range overrideNames {
		environment = append(environment, variableName+environmentAssignmentSeparatorConstant+overrides[variableName])
	}
	return environment
}

// Run executes command and captures both output streams. A non-zero exit is
// reported through ExecutionResult.ExitCode; only launch failures are errors.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	process.Env = runner.Environment(command)

	var standardOutput, standardError bytes.Buffer
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	result := ExecutionResult{}
	if runError := process.Run(); runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			return ExecutionResult{}, runError
		}
		result.ExitCode = exitError.ExitCode()
	}
	result.StandardOutput = standardOutput.String()
	result.StandardError = standardError.String()
	return result, nil
}
