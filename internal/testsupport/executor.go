package testsupport

import (
	"context"
	"strings"
	"sync"

	"github.com/temirov/gitkeeper/internal/execshell"
)

const argumentKeySeparatorConstant = "\x00"

// ScriptedResponse describes how a scripted git call behaves.
type ScriptedResponse struct {
	Output        string
	StandardError string
	ExitCode      int
	LaunchError   error
}

// ScriptedGitExecutor replays canned responses keyed by the exact argument list and
// records every invocation. Unscripted commands succeed with empty output.
type ScriptedGitExecutor struct {
	mutex     sync.Mutex
	responses map[string][]ScriptedResponse
	recorded  []execshell.CommandDetails
}

// NewScriptedGitExecutor constructs an executor with no scripted responses.
func NewScriptedGitExecutor() *ScriptedGitExecutor {
	return &ScriptedGitExecutor{responses: map[string][]ScriptedResponse{}}
}

// On queues responses for the given arguments. Responses are consumed in order and the last one repeats.
func (executor *ScriptedGitExecutor) On(arguments []string, responses ...ScriptedResponse) *ScriptedGitExecutor {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	key := argumentKey(arguments)
	executor.responses[key] = append(executor.responses[key], responses...)
	return executor
}

// ExecuteGit implements the propagating channel.
func (executor *ScriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	response := executor.next(details)
	command := execshell.ShellCommand{Name: execshell.CommandGit, Details: details}
	if response.LaunchError != nil {
		return execshell.ExecutionResult{}, execshell.CommandExecutionError{Command: command, Cause: response.LaunchError}
	}
	result := execshell.ExecutionResult{StandardOutput: response.Output, StandardError: response.StandardError, ExitCode: response.ExitCode}
	if response.ExitCode != 0 {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{Command: command, Result: result}
	}
	return result, nil
}

// QueryGit implements the silent channel.
func (executor *ScriptedGitExecutor) QueryGit(executionContext context.Context, details execshell.CommandDetails) execshell.QueryResult {
	result, executionError := executor.ExecuteGit(executionContext, details)
	if executionError != nil {
		return execshell.QueryResult{Failure: executionError}
	}
	return execshell.QueryResult{Output: result.StandardOutput}
}

// RecordedDetails returns every invocation in call order.
func (executor *ScriptedGitExecutor) RecordedDetails() []execshell.CommandDetails {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	return append([]execshell.CommandDetails(nil), executor.recorded...)
}

// RecordedArguments returns the argument list of every invocation in call order.
func (executor *ScriptedGitExecutor) RecordedArguments() [][]string {
	recordedDetails := executor.RecordedDetails()
	recordedArguments := make([][]string, 0, len(recordedDetails))
	for _, details := range recordedDetails {
		recordedArguments = append(recordedArguments, details.Arguments)
	}
	return recordedArguments
}

// CallCount reports how many times the given arguments were invoked.
func (executor *ScriptedGitExecutor) CallCount(arguments []string) int {
	expectedKey := argumentKey(arguments)
	count := 0
	for _, recordedArguments := range executor.RecordedArguments() {
		if argumentKey(recordedArguments) == expectedKey {
			count++
		}
	}
	return count
}

func (executor *ScriptedGitExecutor) next(details execshell.CommandDetails) ScriptedResponse {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.recorded = append(executor.recorded, details)
	key := argumentKey(details.Arguments)
	queued := executor.responses[key]
	if len(queued) == 0 {
		return ScriptedResponse{}
	}
	response := queued[0]
	if len(queued) > 1 {
		executor.responses[key] = queued[1:]
	}
	return response
}

func argumentKey(arguments []string) string {
	return strings.Join(arguments, argumentKeySeparatorConstant)
}
