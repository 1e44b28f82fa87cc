package fs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestVerifier_VerifyOutputs(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "out1.txt", "dist/app.tar.gz")
	verifier := fs.NewVerifier(fs.NewResolver(nil))

	missing, err := verifier.VerifyOutputs(tmpDir, []string{"out1.txt", "dist/*.tar.gz"})
	require.NoError(t, err)
	assert.Empty(t, missing)

	missing, err = verifier.VerifyOutputs(tmpDir, []string{"missing.txt", "out1.txt", "dist/*.zip"})
	require.NoError(t, err)
	assert.Equal(t, []string{"missing.txt", "dist/*.zip"}, missing)
}

func TestVerifier_ResolverError(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockPathResolver(ctrl)
	resolver.EXPECT().Resolve([]string{"out/*"}, "/work").Return(nil, errors.New("bad pattern"))

	verifier := fs.NewVerifier(resolver)
	_, err := verifier.VerifyOutputs("/work", []string{"out/*", "never/asked"})
	require.EqualError(t, err, "bad pattern")
}
