package execshell

import (
	"fmt"
	"strings"
)

const (
	gitSubcommandRevParseConstant = "rev-parse"
	gitSubcommandLogConstant      = "log"
	gitSubcommandLsFilesConstant  = "ls-files"
	gitSubcommandDiffConstant     = "diff"
	gitSubcommandAddConstant      = "add"
	gitSubcommandCommitConstant   = "commit"
	gitSubcommandRevListConstant  = "rev-list"
	gitSubcommandCheckoutConstant = "checkout"
	gitSubcommandStashConstant    = "stash"
	gitSubcommandConfigConstant   = "config"
	gitSubcommandStatusConstant   = "status"

	gitFlagInsideWorkTreeConstant = "--is-inside-work-tree"
	gitFlagAbbrevRefConstant      = "--abbrev-ref"
	gitFlagVerifyConstant         = "--verify"
	gitFlagNewBranchConstant      = "-b"
	gitFlagStagedConstant         = "--staged"
	gitPathSeparatorConstant      = "--"
	gitStashPushConstant          = "push"
	gitStashPopConstant           = "pop"
	gitStashListConstant          = "list"
	gitArgumentFlagPrefixConstant = "-"

	describeInsideWorkTreeConstant       = "checking for a work tree"
	describeCurrentBranchConstant        = "reading the current branch"
	describeVerifyTemplateConstant       = "verifying %s"
	describeResolveTemplateConstant      = "resolving %s"
	describeHistoryConstant              = "reading commit history"
	describeListFilesTemplateConstant    = "listing tracked files for %s"
	describeStagedDiffTemplateConstant   = "diffing staged changes for %s"
	describeDiffTemplateConstant         = "diffing %s"
	describeStageTemplateConstant        = "staging %s"
	describeCommitConstant               = "creating a commit"
	describeLastCommitTemplateConstant   = "finding the last commit touching %s"
	describeCreateBranchTemplateConstant = "creating branch %s"
	describeCheckoutFileTemplateConstant = "restoring %s from %s"
	describeCheckoutTemplateConstant     = "checking out %s"
	describeStashSaveConstant            = "stashing local changes"
	describeStashPopTemplateConstant     = "restoring %s"
	describeStashListConstant            = "listing stash entries"
	describeConfigTemplateConstant       = "reading config %s"
	describeStatusConstant               = "reading working tree status"
	describeGenericTemplateConstant      = "running %s"

	startedMessageTemplateConstant          = "git: %s"
	succeededMessageTemplateConstant        = "git: done %s"
	failedMessageTemplateConstant           = "git: %s failed (exit code %d)"
	failedWithDetailMessageTemplateConstant = "git: %s failed (exit code %d): %s"
	executionFailedMessageTemplateConstant  = "git: %s could not start: %v"
	workingDirectoryTemplateConstant        = "%s in %s"
	describeUnknownTargetConstant           = "everything"
)

// CommandMessageFormatter renders git invocations as short descriptions of their intent.
type CommandMessageFormatter struct{}

// Describe explains what the command is about to do, falling back to the raw command line.
func (formatter CommandMessageFormatter) Describe(command ShellCommand) string {
	description := formatter.describeArguments(command)
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return description
	}
	return fmt.Sprintf(workingDirectoryTemplateConstant, description, trimmedWorkingDirectory)
}

// BuildStartedMessage formats the message logged before the process starts.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(startedMessageTemplateConstant, formatter.Describe(command))
}

// BuildSuccessMessage formats the message logged after a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(succeededMessageTemplateConstant, formatter.Describe(command))
}

// BuildFailureMessage formats the message logged after a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	trimmedStandardError := firstLine(result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(failedMessageTemplateConstant, formatter.Describe(command), result.ExitCode)
	}
	return fmt.Sprintf(failedWithDetailMessageTemplateConstant, formatter.Describe(command), result.ExitCode, trimmedStandardError)
}

// BuildExecutionFailureMessage formats the message logged when the process could not run.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return fmt.Sprintf(executionFailedMessageTemplateConstant, formatter.Describe(command), failure)
}

func (formatter CommandMessageFormatter) describeArguments(command ShellCommand) string {
	arguments := command.Details.Arguments
	if command.Name != CommandGit || len(arguments) == 0 {
		return fmt.Sprintf(describeGenericTemplateConstant, command.Label())
	}

	remaining := arguments[1:]
	switch arguments[0] {
	case gitSubcommandRevParseConstant:
		return describeRevParse(remaining)
	case gitSubcommandLogConstant:
		return describeHistoryConstant
	case gitSubcommandLsFilesConstant:
		return fmt.Sprintf(describeListFilesTemplateConstant, describeTarget(remaining))
	case gitSubcommandDiffConstant:
		if containsArgument(remaining, gitFlagStagedConstant) {
			return fmt.Sprintf(describeStagedDiffTemplateConstant, describeTarget(remaining))
		}
		return fmt.Sprintf(describeDiffTemplateConstant, strings.Join(positionalArguments(remaining), " "))
	case gitSubcommandAddConstant:
		return fmt.Sprintf(describeStageTemplateConstant, describeTarget(remaining))
	case gitSubcommandCommitConstant:
		return describeCommitConstant
	case gitSubcommandRevListConstant:
		return fmt.Sprintf(describeLastCommitTemplateConstant, describeTarget(remaining))
	case gitSubcommandCheckoutConstant:
		return describeCheckout(remaining)
	case gitSubcommandStashConstant:
		return describeStash(remaining)
	case gitSubcommandConfigConstant:
		return fmt.Sprintf(describeConfigTemplateConstant, describeTarget(remaining))
	case gitSubcommandStatusConstant:
		return describeStatusConstant
	default:
		return fmt.Sprintf(describeGenericTemplateConstant, command.Label())
	}
}

func describeRevParse(arguments []string) string {
	switch {
	case containsArgument(arguments, gitFlagInsideWorkTreeConstant):
		return describeInsideWorkTreeConstant
	case containsArgument(arguments, gitFlagAbbrevRefConstant):
		return describeCurrentBranchConstant
	case containsArgument(arguments, gitFlagVerifyConstant):
		return fmt.Sprintf(describeVerifyTemplateConstant, describeTarget(arguments))
	default:
		return fmt.Sprintf(describeResolveTemplateConstant, describeTarget(arguments))
	}
}

func describeCheckout(arguments []string) string {
	if containsArgument(arguments, gitFlagNewBranchConstant) {
		return fmt.Sprintf(describeCreateBranchTemplateConstant, describeTarget(arguments))
	}
	for index, argument := range arguments {
		if argument == gitPathSeparatorConstant && index > 0 && index+1 < len(arguments) {
			return fmt.Sprintf(describeCheckoutFileTemplateConstant, strings.Join(arguments[index+1:], " "), arguments[index-1])
		}
	}
	return fmt.Sprintf(describeCheckoutTemplateConstant, describeTarget(arguments))
}

func describeStash(arguments []string) string {
	if len(arguments) == 0 {
		return describeStashSaveConstant
	}
	switch arguments[0] {
	case gitStashPushConstant:
		return describeStashSaveConstant
	case gitStashPopConstant:
		return fmt.Sprintf(describeStashPopTemplateConstant, describeTarget(arguments[1:]))
	case gitStashListConstant:
		return describeStashListConstant
	default:
		return fmt.Sprintf(describeGenericTemplateConstant, strings.Join(append([]string{gitSubcommandStashConstant}, arguments...), " "))
	}
}

// describeTarget returns the last positional argument, which is the path, ref or key in every shape gitkeeper issues.
func describeTarget(arguments []string) string {
	positional := positionalArguments(arguments)
	if len(positional) == 0 {
		return describeUnknownTargetConstant
	}
	return positional[len(positional)-1]
}

func positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if strings.HasPrefix(argument, gitArgumentFlagPrefixConstant) {
			continue
		}
		positional = append(positional, argument)
	}
	return positional
}

func containsArgument(arguments []string, expected string) bool {
	for _, argument := range arguments {
		if argument == expected {
			return true
		}
	}
	return false
}

func firstLine(text string) string {
	trimmed := strings.TrimSpace(text)
	if newlineIndex := strings.IndexByte(trimmed, '\n'); newlineIndex >= 0 {
		return strings.TrimSpace(trimmed[:newlineIndex])
	}
	return trimmed
}
