package execshell

import (
	"errors"
	"fmt"
	"strings"
)

const (
	commandFailedErrorTemplateConstant      = "%s exited with code %d"
	commandFailedWithDetailTemplateConstant = "%s exited with code %d: %s"
	commandExecutionErrorTemplateConstant   = "%s could not be executed: %v"
)

// ErrLoggerNotConfigured indicates that a nil logger was supplied.
var ErrLoggerNotConfigured = errors.New("logger not configured")

// ErrCommandRunnerNotConfigured indicates that a nil command runner was supplied.
var ErrCommandRunnerNotConfigured = errors.New("command runner not configured")

// CommandFailedError reports a process that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failure including whatever git printed about it.
func (failure CommandFailedError) Error() string {
	detail := failure.Detail()
	if len(detail) == 0 {
		return fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command.Label(), failure.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithDetailTemplateConstant, failure.Command.Label(), failure.Result.ExitCode, detail)
}

// Detail returns the trimmed standard error, falling back to the trimmed
// standard output. git reports "nothing to commit" and stash pop conflicts on stdout.
func (failure CommandFailedError) Detail() string {
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		return trimmedStandardError
	}
	return strings.TrimSpace(failure.Result.StandardOutput)
}

// StandardError returns the raw standard error captured from the process.
func (failure CommandFailedError) StandardError() string {
	return failure.Result.StandardError
}

// CommandExecutionError reports a process that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the launch failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, failure.Command.Label(), failure.Cause)
}

// Unwrap exposes the underlying launch error.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// FailureText extracts what git printed about a failure produced by this
// package: standard error and, when that is empty, standard output. Launch
// failures carry no process output and yield their message.
func FailureText(failure error) string {
	if failure == nil {
		return ""
	}
	var commandFailure CommandFailedError
	if errors.As(failure, &commandFailure) {
		return commandFailure.Detail()
	}
	return failure.Error()
}
