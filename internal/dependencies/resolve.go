package dependencies

import (
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/execshell"
	"github.com/temirov/gitkeeper/internal/gitrepo"
	"github.com/temirov/gitkeeper/internal/shared"
	"github.com/temirov/gitkeeper/internal/ui"
)

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
// Human-readable logging routes command lifecycle events through the console event logger.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, humanReadableLogging bool) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if creationError != nil {
		return nil, creationError
	}
	if humanReadableLogging {
		return shellExecutor.WithObserver(ui.NewConsoleCommandEventLogger(logger)), nil
	}
	return shellExecutor, nil
}

// ResolveRepositoryState returns the provided reader or builds a RepositoryInspector over executor.
func ResolveRepositoryState(existing shared.RepositoryStateReader, executor shared.GitExecutor) (shared.RepositoryStateReader, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewRepositoryInspector(executor)
}
