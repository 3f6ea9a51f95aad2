package execshell

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const (
	queryFailedMessageConstant   = "git query failed; treating as absent"
	logFieldQueryFailureConstant = "failure"
)

// QueryResult holds either the standard output of a successful git call or the
// failure that prevented it. Exactly one of the two is meaningful.
type QueryResult struct {
	Output  string
	Failure error
}

// Succeeded reports whether the query produced output rather than a failure.
func (result QueryResult) Succeeded() bool {
	return result.Failure == nil
}

// TrimmedOutput returns the output without surrounding whitespace, or an empty string on failure.
func (result QueryResult) TrimmedOutput() string {
	if !result.Succeeded() {
		return ""
	}
	return strings.TrimSpace(result.Output)
}

// QueryGit runs git and folds any failure into the returned QueryResult.
// The failure is logged at warn level and never returned separately.
func (executor *ShellExecutor) QueryGit(executionContext context.Context, details CommandDetails) QueryResult {
	executionResult, executionError := executor.ExecuteGit(executionContext, details)
	if executionError != nil {
		command := ShellCommand{Name: CommandGit, Details: details}
		executor.logger.Warn(
			queryFailedMessageConstant,
			zap.String(logFieldCommandConstant, command.Label()),
			zap.String(logFieldWorkingDirectoryConstant, details.WorkingDirectory),
			zap.String(logFieldQueryFailureConstant, FailureText(executionError)),
		)
		return QueryResult{Failure: executionError}
	}
	return QueryResult{Output: executionResult.StandardOutput}
}
