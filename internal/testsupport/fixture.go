package testsupport

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitkeeper/internal/execshell"
)

const (
	gitExecutableNameConstant           = "git"
	fixtureAuthorNameConstant           = "Fixture Author"
	fixtureAuthorEmailConstant          = "fixture@example.com"
	fixtureFilePermissionsConstant      = 0o644
	fixtureDirectoryPermissionsConstant = 0o755
	missingGitSkipMessageConstant       = "git executable not available"
)

// RequireGitExecutable skips the test when git is not on PATH.
func RequireGitExecutable(testInstance testing.TB) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(gitExecutableNameConstant); lookupError != nil {
		testInstance.Skip(missingGitSkipMessageConstant)
	}
}

// NewShellExecutor builds a real executor that logs nowhere.
func NewShellExecutor(testInstance testing.TB) *execshell.ShellExecutor {
	testInstance.Helper()
	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner())
	require.NoError(testInstance, creationError)
	return executor
}

// FixtureRepository is a repository in a temporary directory built with go-git.
type FixtureRepository struct {
	Path       string
	Repository *git.Repository
}

// NewEmptyRepository initializes a repository without commits. The repository
// carries a local identity so that git commit and git stash work in CI.
func NewEmptyRepository(testInstance testing.TB) *FixtureRepository {
	testInstance.Helper()
	repositoryPath := testInstance.TempDir()
	repository, initError := git.PlainInit(repositoryPath, false)
	require.NoError(testInstance, initError)

	repositoryConfig, configError := repository.Config()
	require.NoError(testInstance, configError)
	repositoryConfig.User.Name = fixtureAuthorNameConstant
	repositoryConfig.User.Email = fixtureAuthorEmailConstant
	require.NoError(testInstance, repository.SetConfig(repositoryConfig))

	return &FixtureRepository{Path: repositoryPath, Repository: repository}
}

// NewRepository initializes a repository with one commit containing files.
func NewRepository(testInstance testing.TB, files map[string]string) *FixtureRepository {
	testInstance.Helper()
	fixture := NewEmptyRepository(testInstance)
	for relativePath, content := range files {
		fixture.WriteFile(testInstance, relativePath, content)
	}
	fixture.CommitAll(testInstance, "Initial commit")
	return fixture
}

// WriteFile creates or overwrites a file relative to the repository root.
func (fixture *FixtureRepository) WriteFile(testInstance testing.TB, relativePath string, content string) {
	testInstance.Helper()
	absolutePath := filepath.Join(fixture.Path, relativePath)
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), fixtureDirectoryPermissionsConstant))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(content), fixtureFilePermissionsConstant))
}

// ReadFile returns the content of a file relative to the repository root.
func (fixture *FixtureRepository) ReadFile(testInstance testing.TB, relativePath string) string {
	testInstance.Helper()
	content, readError := os.ReadFile(filepath.Join(fixture.Path, relativePath))
	require.NoError(testInstance, readError)
	return string(content)
}

// CommitAll stages every change and commits it, returning the new hash.
func (fixture *FixtureRepository) CommitAll(testInstance testing.TB, message string) string {
	testInstance.Helper()
	worktree, worktreeError := fixture.Repository.Worktree()
	require.NoError(testInstance, worktreeError)
	require.NoError(testInstance, worktree.AddWithOptions(&git.AddOptions{All: true}))
	commitHash, commitError := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  fixtureAuthorNameConstant,
			Email: fixtureAuthorEmailConstant,
			When:  time.Now(),
		},
		AllowEmptyCommits: true,
	})
	require.NoError(testInstance, commitError)
	return commitHash.String()
}

// HeadBranch returns the short name of the branch HEAD points at.
func (fixture *FixtureRepository) HeadBranch(testInstance testing.TB) string {
	testInstance.Helper()
	headReference, headError := fixture.Repository.Head()
	require.NoError(testInstance, headError)
	return headReference.Name().Short()
}

// CommitCount walks the history from HEAD.
func (fixture *FixtureRepository) CommitCount(testInstance testing.TB) int {
	testInstance.Helper()
	headReference, headError := fixture.Repository.Head()
	if headError != nil {
		return 0
	}
	commitIterator, logError := fixture.Repository.Log(&git.LogOptions{From: headReference.Hash()})
	require.NoError(testInstance, logError)
	count := 0
	require.NoError(testInstance, commitIterator.ForEach(func(*object.Commit) error {
		count++
		return nil
	}))
	return count
}
