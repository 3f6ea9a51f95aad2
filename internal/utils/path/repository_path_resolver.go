package pathutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	tildeSymbolConstant                        = "~"
	currentDirectoryConstant                   = "."
	homeDirectoryErrorTemplateConstant         = "unable to resolve home directory for %q: %w"
	absolutePathErrorTemplateConstant          = "unable to resolve absolute path for %q: %w"
	repositoryPathStatErrorTemplateConstant    = "repository path %q is not accessible: %w"
	repositoryPathNotDirectoryTemplateConstant = "repository path %q: %w"
)

// ErrRepositoryPathNotDirectory indicates the resolved path exists but is not a directory.
var ErrRepositoryPathNotDirectory = errors.New("not a directory")

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// RepositoryPathResolver turns flag and configuration values into an absolute directory path.
type RepositoryPathResolver struct {
	fileSystem            afero.Fs
	homeDirectoryProvider HomeDirectoryProvider
}

// NewRepositoryPathResolver constructs a resolver backed by the operating system.
func NewRepositoryPathResolver() *RepositoryPathResolver {
	return NewRepositoryPathResolverWithDependencies(afero.NewOsFs(), os.UserHomeDir)
}

// NewRepositoryPathResolverWithDependencies constructs a resolver with explicit collaborators.
func NewRepositoryPathResolverWithDependencies(fileSystem afero.Fs, homeDirectoryProvider HomeDirectoryProvider) *RepositoryPathResolver {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	return &RepositoryPathResolver{fileSystem: fileSystem, homeDirectoryProvider: homeDirectoryProvider}
}

// Resolve trims the candidate, defaults it to the current directory, expands a
// leading ~ and returns the cleaned absolute path of an existing directory.
func (resolver *RepositoryPathResolver) Resolve(candidatePath string) (string, error) {
	trimmedCandidate := strings.TrimSpace(candidatePath)
	if len(trimmedCandidate) == 0 {
		trimmedCandidate = currentDirectoryConstant
	}

	expandedCandidate, expansionError := resolver.expandHome(trimmedCandidate)
	if expansionError != nil {
		return "", expansionError
	}

	absolutePath, absoluteError := filepath.Abs(expandedCandidate)
	if absoluteError != nil {
		return "", fmt.Errorf(absolutePathErrorTemplateConstant, trimmedCandidate, absoluteError)
	}

	pathInfo, statError := resolver.fileSystem.Stat(absolutePath)
	if statError != nil {
		return "", fmt.Errorf(repositoryPathStatErrorTemplateConstant, absolutePath, statError)
	}
	if !pathInfo.IsDir() {
		return "", fmt.Errorf(repositoryPathNotDirectoryTemplateConstant, absolutePath, ErrRepositoryPathNotDirectory)
	}

	return absolutePath, nil
}

func (resolver *RepositoryPathResolver) expandHome(candidatePath string) (string, error) {
	if candidatePath != tildeSymbolConstant && !strings.HasPrefix(candidatePath, tildeSymbolConstant+"/") && !strings.HasPrefix(candidatePath, tildeSymbolConstant+string(os.PathSeparator)) {
		return candidatePath, nil
	}

	homeDirectory, homeError := resolver.homeDirectoryProvider()
	if homeError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, candidatePath, homeError)
	}
	return filepath.Join(homeDirectory, strings.TrimPrefix(candidatePath, tildeSymbolConstant)), nil
}
