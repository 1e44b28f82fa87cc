package git_test

import (
	"context"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/git"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	env  domain.Environment
	base string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if _, err := exec.LookPath(git.Executable); err != nil {
		t.Skip("git is not installed")
	}
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return &fixture{
		base: base,
		env: domain.NewEnvironment(map[string]string{
			"PATH":                    os.Getenv("PATH"),
			"HOME":                    base,
			"GIT_CONFIG_NOSYSTEM":     "1",
			"GIT_CEILING_DIRECTORIES": base,
			"GIT_AUTHOR_NAME":         "kiln",
			"GIT_AUTHOR_EMAIL":        "kiln@example.com",
			"GIT_COMMITTER_NAME":      "kiln",
			"GIT_COMMITTER_EMAIL":     "kiln@example.com",
		}),
	}
}

func (f *fixture) git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	env := f.env.ToMap()
	cmd := exec.Command(git.Executable, args...)
	cmd.Dir = dir
	for _, key := range slices.Sorted(maps.Keys(env)) {
		cmd.Env = append(cmd.Env, key+"="+env[key])
	}
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return strings.TrimSpace(string(out))
}

// initRepo creates a repository under base with one commit per message.
func (f *fixture) initRepo(t *testing.T, name string, messages ...string) string {
	t.Helper()
	dir := filepath.Join(f.base, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	f.git(t, dir, "init", "-q")
	for i, msg := range messages {
		f.commit(t, dir, "file.txt", strings.Repeat("x", i+1), msg)
	}
	return dir
}

func (f *fixture) commit(t *testing.T, dir, file, content, msg string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o600))
	f.git(t, dir, "add", ".")
	f.git(t, dir, "commit", "-q", "-m", msg)
}

func (f *fixture) open(t *testing.T, dir string) ports.Repository {
	t.Helper()
	repo, err := git.NewOpener().Open(context.Background(), dir, f.env, newLogger(t))
	require.NoError(t, err)
	return repo
}

func newLogger(t *testing.T) *mocks.MockLogger {
	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Output(gomock.Any(), gomock.Any()).AnyTimes()
	return logger
}

func TestOpen_NotARepository(t *testing.T) {
	f := newFixture(t)

	_, err := git.NewOpener().Open(context.Background(), f.base, f.env, newLogger(t))

	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestOpen_FindsRootFromSubdirectory(t *testing.T) {
	f := newFixture(t)
	dir := f.initRepo(t, "repo", "init")
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	repo := f.open(t, sub)

	assert.Equal(t, dir, repo.Root())
}

func TestRevision_WithoutTags(t *testing.T) {
	f := newFixture(t)
	dir := f.initRepo(t, "repo", "one", "two")
	repo := f.open(t, dir)

	rev, err := repo.Revision(context.Background())
	require.NoError(t, err)

	assert.Equal(t, f.git(t, dir, "rev-parse", "HEAD"), rev.Hash)
	assert.Len(t, rev.Hash, 40)
	assert.False(t, rev.Timestamp.IsZero())
	assert.Equal(t, "v0.0.0", rev.Version)
	assert.Equal(t, 2, rev.BuildNumber)
}

func TestRevision_CountsCommitsSinceVersionTag(t *testing.T) {
	f := newFixture(t)
	dir := f.initRepo(t, "repo", "one")
	f.git(t, dir, "tag", "v1.2")
	f.git(t, dir, "tag", "nightly")
	f.commit(t, dir, "other.txt", "y", "two")
	f.commit(t, dir, "other.txt", "z", "three")
	repo := f.open(t, dir)

	rev, err := repo.Revision(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "v1.2.0", rev.Version)
	assert.Equal(t, 2, rev.BuildNumber)
	assert.Equal(t, "1.2.0+2", rev.FullVersion())
}

func TestRevision_EmptyRepository(t *testing.T) {
	f := newFixture(t)
	dir := f.initRepo(t, "repo")
	repo := f.open(t, dir)

	_, err := repo.Revision(context.Background())

	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestCommit(t *testing.T) {
	f := newFixture(t)
	dir := f.initRepo(t, "repo", "one")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("changed"), 0o600))
	repo := f.open(t, dir)

	require.NoError(t, repo.Commit(context.Background(), "update file"))

	assert.Equal(t, "2", f.git(t, dir, "rev-list", "--count", "HEAD"))
	assert.Equal(t, "update file", f.git(t, dir, "log", "-1", "--format=%s"))
	assert.ErrorIs(t, repo.Commit(context.Background(), ""), domain.ErrConfiguration)
}

func TestTag(t *testing.T) {
	f := newFixture(t)
	dir := f.initRepo(t, "repo", "one")
	repo := f.open(t, dir)
	ctx := context.Background()

	require.NoError(t, repo.Tag(ctx, "v1.0.0", "first release"))
	require.NoError(t, repo.Tag(ctx, "light", ""))

	assert.Equal(t, "tag", f.git(t, dir, "cat-file", "-t", "v1.0.0"))
	assert.Equal(t, "commit", f.git(t, dir, "cat-file", "-t", "light"))
	assert.ErrorIs(t, repo.Tag(ctx, "", "msg"), domain.ErrConfiguration)
}

func TestTag_LogsInvocationAndGitErrors(t *testing.T) {
	f := newFixture(t)
	dir := f.initRepo(t, "repo", "one")
	f.git(t, dir, "tag", "v1.0.0")

	var infos, stderr []string
	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Info(gomock.Any()).Do(func(msg string) { infos = append(infos, msg) }).AnyTimes()
	logger.EXPECT().Output(gomock.Any(), gomock.Any()).Do(func(stream domain.Stream, line string) {
		if stream == domain.Stderr {
			stderr = append(stderr, line)
		}
	}).AnyTimes()
	repo, err := git.NewOpener().Open(context.Background(), dir, f.env, logger)
	require.NoError(t, err)
	require.Empty(t, infos, "queries are not logged")

	err = repo.Tag(context.Background(), "v1.0.0", "again")

	require.ErrorIs(t, err, domain.ErrProcessExit)
	require.Len(t, infos, 1)
	assert.Contains(t, infos[0], "cd "+domain.QuoteArg(dir))
	assert.Contains(t, infos[0], "git tag --annotate v1.0.0 --message again")
	assert.Contains(t, strings.Join(stderr, "\n"), "already exists")
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	dir := f.initRepo(t, "repo", "one")
	f.git(t, dir, "branch", "feature")
	repo := f.open(t, dir)

	require.NoError(t, repo.Checkout(context.Background(), "feature"))

	assert.Equal(t, "feature", f.git(t, dir, "rev-parse", "--abbrev-ref", "HEAD"))
	assert.ErrorIs(t, repo.Checkout(context.Background(), ""), domain.ErrConfiguration)
}

func TestCheckout_UnknownRefFails(t *testing.T) {
	f := newFixture(t)
	dir := f.initRepo(t, "repo", "one")
	repo := f.open(t, dir)

	err := repo.Checkout(context.Background(), "does-not-exist")

	require.ErrorIs(t, err, domain.ErrProcessExit)
}

func TestFetchAndPull(t *testing.T) {
	f := newFixture(t)
	origin := f.initRepo(t, "origin", "one")
	f.git(t, f.base, "clone", "-q", origin, "clone")
	clone := filepath.Join(f.base, "clone")
	f.commit(t, origin, "file.txt", "new", "two")
	repo := f.open(t, clone)
	ctx := context.Background()

	require.NoError(t, repo.Fetch(ctx, ""))
	assert.Equal(t, "1", f.git(t, clone, "rev-list", "--count", "HEAD"))

	require.NoError(t, repo.Pull(ctx, ""))
	assert.Equal(t, "2", f.git(t, clone, "rev-list", "--count", "HEAD"))
	assert.Equal(t, f.git(t, origin, "rev-parse", "HEAD"), f.git(t, clone, "rev-parse", "HEAD"))
}

func TestSubmodules(t *testing.T) {
	f := newFixture(t)
	lib := f.initRepo(t, "lib", "lib")
	dir := f.initRepo(t, "app", "app")
	f.git(t, dir, "-c", "protocol.file.allow=always", "submodule", "add", "-q", lib, "vendor/lib")
	f.git(t, dir, "commit", "-q", "-m", "add lib")
	repo := f.open(t, dir)

	subs, err := repo.Submodules(context.Background())
	require.NoError(t, err)

	require.Len(t, subs, 1)
	assert.Equal(t, filepath.Join(dir, "vendor", "lib"), subs[0].Root())

	rev, err := subs[0].Revision(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.git(t, lib, "rev-parse", "HEAD"), rev.Hash)
}

func TestSubmodules_None(t *testing.T) {
	f := newFixture(t)
	dir := f.initRepo(t, "repo", "one")
	repo := f.open(t, dir)

	subs, err := repo.Submodules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subs)
}
