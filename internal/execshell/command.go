package execshell

import (
	"context"
	"strings"
)

const (
	commandGitStringConstant          = "git"
	commandLabelJoinSeparatorConstant = " "
)

// CommandName identifies an executable supported by the executor.
type CommandName string

// CommandGit is the only external tool gitkeeper drives.
const CommandGit CommandName = CommandName(commandGitStringConstant)

// CommandDetails describes a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
}

// ShellCommand combines an executable with invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// Label renders the command the way a user would type it.
func (command ShellCommand) Label() string {
	parts := make([]string, 0, len(command.Details.Arguments)+1)
	parts = append(parts, string(command.Name))
	parts = append(parts, command.Details.Arguments...)
	return strings.Join(parts, commandLabelJoinSeparatorConstant)
}

// ExecutionResult captures the observable outcome of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes a ShellCommand and reports its result. A non-zero exit
// code is not an error at this level; only launch and wait failures are.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}
