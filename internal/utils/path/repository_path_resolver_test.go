package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/gitkeeper/internal/utils/path"
)

const (
	testHomeDirectoryConstant       = "/home/keeper"
	testProjectDirectoryConstant    = "/home/keeper/projects/notes"
	testRegularFilePathConstant     = "/home/keeper/projects/readme.md"
	testTildeProjectPathConstant    = "~/projects/notes"
	testUnreachableHomePathConstant = "~/anything"
)

func newMemoryResolver(testInstance *testing.T, homeDirectoryProvider pathutils.HomeDirectoryProvider) *pathutils.RepositoryPathResolver {
	testInstance.Helper()
	memoryFileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, memoryFileSystem.MkdirAll(testProjectDirectoryConstant, 0o755))
	require.NoError(testInstance, afero.WriteFile(memoryFileSystem, testRegularFilePathConstant, []byte("readme"), 0o644))
	return pathutils.NewRepositoryPathResolverWithDependencies(memoryFileSystem, homeDirectoryProvider)
}

func TestRepositoryPathResolverResolve(testInstance *testing.T) {
	homeProvider := func() (string, error) { return testHomeDirectoryConstant, nil }

	testCases := []struct {
		name          string
		candidate     string
		expectedPath  string
		expectedError error
		expectFailure bool
	}{
		{name: "absolute_directory", candidate: testProjectDirectoryConstant, expectedPath: testProjectDirectoryConstant},
		{name: "tilde_expansion", candidate: "  " + testTildeProjectPathConstant + "\t", expectedPath: testProjectDirectoryConstant},
		{name: "bare_tilde", candidate: "~", expectedPath: testHomeDirectoryConstant},
		{name: "unclean_path", candidate: testProjectDirectoryConstant + "/../notes/", expectedPath: testProjectDirectoryConstant},
		{name: "regular_file", candidate: testRegularFilePathConstant, expectedError: pathutils.ErrRepositoryPathNotDirectory, expectFailure: true},
		{name: "missing_directory", candidate: "/home/keeper/missing", expectFailure: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			resolver := newMemoryResolver(testInstance, homeProvider)
			resolvedPath, resolveError := resolver.Resolve(testCase.candidate)
			if testCase.expectFailure {
				require.Error(testInstance, resolveError)
				if testCase.expectedError != nil {
					require.ErrorIs(testInstance, resolveError, testCase.expectedError)
				}
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, filepath.Clean(testCase.expectedPath), resolvedPath)
		})
	}
}

func TestRepositoryPathResolverHomeFailure(testInstance *testing.T) {
	resolver := newMemoryResolver(testInstance, func() (string, error) { return "", errors.New("no home") })
	_, resolveError := resolver.Resolve(testUnreachableHomePathConstant)
	require.Error(testInstance, resolveError)
}

func TestRepositoryPathResolverDefaultsToWorkingDirectory(testInstance *testing.T) {
	resolver := pathutils.NewRepositoryPathResolver()
	resolvedPath, resolveError := resolver.Resolve("   ")
	require.NoError(testInstance, resolveError)

	expectedPath, absoluteError := filepath.Abs(".")
	require.NoError(testInstance, absoluteError)
	require.Equal(testInstance, expectedPath, resolvedPath)
}
