package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	repositoryPathContextKeyConstant        = commandContextKey("repositoryPath")
	sessionIdentifierContextKeyConstant     = commandContextKey("sessionIdentifier")
	currentDirectoryPathConstant            = "."
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return accessor.withString(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return accessor.lookupString(executionContext, configurationFilePathContextKeyConstant)
}

// WithRepositoryPath attaches the resolved working directory every command operates on.
func (accessor CommandContextAccessor) WithRepositoryPath(parentContext context.Context, repositoryPath string) context.Context {
	return accessor.withString(parentContext, repositoryPathContextKeyConstant, repositoryPath)
}

// RepositoryPath extracts the resolved working directory.
func (accessor CommandContextAccessor) RepositoryPath(executionContext context.Context) (string, bool) {
	return accessor.lookupString(executionContext, repositoryPathContextKeyConstant)
}

// RepositoryPathOrCurrent returns the attached working directory, falling back to the current directory.
func (accessor CommandContextAccessor) RepositoryPathOrCurrent(executionContext context.Context) string {
	if repositoryPath, repositoryPathFound := accessor.RepositoryPath(executionContext); repositoryPathFound {
		return repositoryPath
	}
	return currentDirectoryPathConstant
}

// WithSessionIdentifier attaches the identifier of the current CLI run.
func (accessor CommandContextAccessor) WithSessionIdentifier(parentContext context.Context, sessionIdentifier string) context.Context {
	return accessor.withString(parentContext, sessionIdentifierContextKeyConstant, sessionIdentifier)
}

// SessionIdentifier extracts the identifier of the current CLI run.
func (accessor CommandContextAccessor) SessionIdentifier(executionContext context.Context) (string, bool) {
	return accessor.lookupString(executionContext, sessionIdentifierContextKeyConstant)
}

func (accessor CommandContextAccessor) withString(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

func (accessor CommandContextAccessor) lookupString(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, valueAvailable := executionContext.Value(key).(string)
	if !valueAvailable || len(value) == 0 {
		return "", false
	}
	return value, true
}
