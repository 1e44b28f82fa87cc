package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/task"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func realFactory(opener ports.RepositoryOpener) *app.Factory {
	resolver := fs.NewResolver(nil)
	return app.NewFactory(fs.NewVerifier(resolver), fs.NewCleaner(resolver), opener)
}

func runTree(t *testing.T, tree *task.Tree, dir string, env domain.Environment, logger ports.Logger) (*task.Report, error) {
	t.Helper()
	tc, err := task.NewAsyncContext(dir, env, logger)
	require.NoError(t, err)
	t.Cleanup(tc.Close)

	report := task.NewReport()
	ctx := task.ContextWithReport(context.Background(), report)
	return report, tree.Handle(ctx, tc.Context)
}

func TestFactory_BuildsTreeInDeclarationOrder(t *testing.T) {
	pipeline := &domain.Pipeline{
		Name: "demo",
		Steps: []domain.StepSpec{
			{Name: "build", Cmd: "make"},
			{Name: "docs", Steps: []domain.StepSpec{
				{Name: "html", Args: []string{"make", "html"}},
				{Name: "pdf", Outputs: []string{"out.pdf"}},
			}},
			{Name: "tag", Git: &domain.GitStep{Action: domain.GitTag, Name: "v1"}},
		},
	}

	tree := realFactory(nil).Build(pipeline)

	assert.Equal(t, "demo", tree.Name())
	assert.Nil(t, tree.Task())

	var paths []string
	hasTask := map[string]bool{}
	for path, node := range tree.Walk() {
		paths = append(paths, path)
		hasTask[path] = node.Task() != nil
	}
	assert.Equal(t, []string{"build", "docs", "docs/html", "docs/pdf", "tag"}, paths)
	assert.Equal(t, map[string]bool{
		"build": true, "docs": false, "docs/html": true, "docs/pdf": true, "tag": true,
	}, hasTask)
}

func TestFactory_ScopesAccumulateDownTheTree(t *testing.T) {
	requireUnix(t)
	root := realDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o750))

	pipeline := &domain.Pipeline{
		Name: "demo",
		Steps: []domain.StepSpec{
			{
				Name:        "outer",
				Dir:         "a",
				Environment: map[string]string{"LEVEL": "outer", "KEEP": "1"},
				Args:        []string{"sh", "-c", "echo $LEVEL $KEEP; pwd -P"},
				Steps: []domain.StepSpec{{
					Name:        "inner",
					Dir:         "b",
					Environment: map[string]string{"LEVEL": "inner"},
					Cmd:         "echo $LEVEL $KEEP; pwd -P",
				}},
			},
			{Name: "sibling", Args: []string{"sh", "-c", "echo ${LEVEL:-none}; pwd -P"}},
		},
	}
	logger := &recordingLogger{}

	_, err := runTree(t, realFactory(nil).Build(pipeline), root, domain.NewEnvironment(map[string]string{"PATH": os.Getenv("PATH")}), logger)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"stdout: outer 1",
		"stdout: " + filepath.Join(root, "a"),
		"stdout: inner 1",
		"stdout: " + filepath.Join(root, "a", "b"),
		"stdout: none",
		"stdout: " + root,
	}, logger.Outputs())
}

func TestFactory_AllowFailure(t *testing.T) {
	requireUnix(t)
	pipeline := &domain.Pipeline{
		Name: "demo",
		Steps: []domain.StepSpec{
			{Name: "flaky", Args: []string{"sh", "-c", "exit 3"}, AllowFailure: true},
			{Name: "after", Args: []string{"sh", "-c", "echo reached"}},
		},
	}
	logger := &recordingLogger{}

	_, err := runTree(t, realFactory(nil).Build(pipeline), t.TempDir(), domain.NewEnvironment(map[string]string{"PATH": os.Getenv("PATH")}), logger)
	require.NoError(t, err)

	assert.Contains(t, logger.Outputs(), "stdout: reached")
	require.Len(t, logger.Warns(), 1)
	assert.Contains(t, logger.Warns()[0], "exited with code 3")
}

func TestFactory_CleanRunsBeforeTheCommand(t *testing.T) {
	requireUnix(t)
	root := realDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "old"), nil, 0o600))

	pipeline := &domain.Pipeline{
		Name: "demo",
		Steps: []domain.StepSpec{{
			Name:    "build",
			Clean:   []string{"bin"},
			Args:    []string{"sh", "-c", "test ! -e bin && mkdir bin && touch bin/app"},
			Outputs: []string{"bin/app"},
		}},
	}
	logger := &recordingLogger{}

	_, err := runTree(t, realFactory(nil).Build(pipeline), root, domain.NewEnvironment(map[string]string{"PATH": os.Getenv("PATH")}), logger)
	require.NoError(t, err)

	assert.True(t, logger.hasInfo("removed "+filepath.Join(root, "bin")))
	assert.FileExists(t, filepath.Join(root, "bin", "app"))
}

func TestFactory_MissingOutputFailsTheStep(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := mocks.NewMockVerifier(ctrl)
	cleaner := mocks.NewMockCleaner(ctrl)
	root := t.TempDir()
	verifier.EXPECT().VerifyOutputs(root, []string{"out/*.pdf", "out/index.html"}).Return([]string{"out/*.pdf"}, nil)

	pipeline := &domain.Pipeline{
		Name:  "demo",
		Steps: []domain.StepSpec{{Name: "docs", Outputs: []string{"out/*.pdf", "out/index.html"}}},
	}
	logger := &recordingLogger{}

	report, err := runTree(t, app.NewFactory(verifier, cleaner, nil).Build(pipeline), root, nil, logger)

	require.ErrorIs(t, err, domain.ErrOutputMissing)
	require.ErrorIs(t, err, domain.ErrTaskExecution)
	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "out/*.pdf", zErr.Metadata()["missing"])
	assert.Equal(t, domain.NodeStatusFailed, report.Status("docs"))
}

func TestFactory_OptionalStepSkipsConfigurationErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	opener := mocks.NewMockRepositoryOpener(ctrl)
	opener.EXPECT().Open(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, zerr.Wrap(domain.ErrConfiguration, "not a git repository")).Times(2)

	pipeline := &domain.Pipeline{
		Name: "demo",
		Steps: []domain.StepSpec{
			{Name: "optional", Optional: true, Git: &domain.GitStep{Action: domain.GitFetch}},
			{Name: "required", Git: &domain.GitStep{Action: domain.GitFetch}},
		},
	}
	logger := &recordingLogger{}

	report, err := runTree(t, realFactory(opener).Build(pipeline), t.TempDir(), nil, logger)

	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, domain.NodeStatusSkipped, report.Status("optional"))
	assert.Equal(t, domain.NodeStatusFailed, report.Status("required"))
	require.Len(t, logger.Warns(), 1)
	assert.Contains(t, logger.Warns()[0], "skipped: ")
}

func TestFactory_GitActionRecursesIntoSubmodules(t *testing.T) {
	ctrl := gomock.NewController(t)
	opener := mocks.NewMockRepositoryOpener(ctrl)
	repo := mocks.NewMockRepository(ctrl)
	lib := mocks.NewMockRepository(ctrl)
	nested := mocks.NewMockRepository(ctrl)
	tools := mocks.NewMockRepository(ctrl)
	root := t.TempDir()

	opener.EXPECT().Open(gomock.Any(), root, gomock.Any(), gomock.Any()).Return(repo, nil)
	repo.EXPECT().Submodules(gomock.Any()).Return([]ports.Repository{lib, tools}, nil)
	lib.EXPECT().Submodules(gomock.Any()).Return([]ports.Repository{nested}, nil)
	nested.EXPECT().Submodules(gomock.Any()).Return(nil, nil)
	tools.EXPECT().Submodules(gomock.Any()).Return(nil, nil)
	gomock.InOrder(
		repo.EXPECT().Tag(gomock.Any(), "v2.0.0", "release").Return(nil),
		lib.EXPECT().Tag(gomock.Any(), "v2.0.0", "release").Return(nil),
		nested.EXPECT().Tag(gomock.Any(), "v2.0.0", "release").Return(nil),
		tools.EXPECT().Tag(gomock.Any(), "v2.0.0", "release").Return(nil),
	)

	pipeline := &domain.Pipeline{
		Name: "demo",
		Steps: []domain.StepSpec{{
			Name: "tag",
			Git:  &domain.GitStep{Action: domain.GitTag, Name: "v2.0.0", Message: "release", Submodules: true},
		}},
	}
	logger := &recordingLogger{}

	_, err := runTree(t, realFactory(opener).Build(pipeline), root, nil, logger)
	require.NoError(t, err)
	assert.True(t, logger.hasInfo("git tag done in 4 repositories"))
}

func TestFactory_GitActions(t *testing.T) {
	tests := []struct {
		spec   domain.GitStep
		expect func(repo *mocks.MockRepository)
	}{
		{
			spec:   domain.GitStep{Action: domain.GitFetch, Ref: "main"},
			expect: func(repo *mocks.MockRepository) { repo.EXPECT().Fetch(gomock.Any(), "main") },
		},
		{
			spec:   domain.GitStep{Action: domain.GitPull},
			expect: func(repo *mocks.MockRepository) { repo.EXPECT().Pull(gomock.Any(), "") },
		},
		{
			spec:   domain.GitStep{Action: domain.GitCheckout, Ref: "v1"},
			expect: func(repo *mocks.MockRepository) { repo.EXPECT().Checkout(gomock.Any(), "v1") },
		},
		{
			spec:   domain.GitStep{Action: domain.GitCommit, Message: "bump"},
			expect: func(repo *mocks.MockRepository) { repo.EXPECT().Commit(gomock.Any(), "bump") },
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.spec.Action), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			opener := mocks.NewMockRepositoryOpener(ctrl)
			repo := mocks.NewMockRepository(ctrl)
			opener.EXPECT().Open(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(repo, nil)
			tt.expect(repo)

			spec := tt.spec
			pipeline := &domain.Pipeline{Name: "demo", Steps: []domain.StepSpec{{Name: "git", Git: &spec}}}

			_, err := runTree(t, realFactory(opener).Build(pipeline), t.TempDir(), nil, &recordingLogger{})
			require.NoError(t, err)
		})
	}
}
