package progrock_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry/progrock"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

func TestRecorder_RecordsVertices(t *testing.T) {
	recorder := progrock.New()

	ctx, vertex := recorder.Record(t.Context(), "build/compile")

	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, vertex, fromCtx)

	_, err := vertex.Stdout().Write([]byte("Standard Output\n"))
	require.NoError(t, err)
	_, err = vertex.Stderr().Write([]byte("Standard Error\n"))
	require.NoError(t, err)
	vertex.Log(domain.LogLevelDebug, "debug msg")
	vertex.Log(domain.LogLevelWarn, "warn msg")
	vertex.Complete(nil)

	_, again := recorder.Record(t.Context(), "build/compile")
	again.Complete(errors.New("boom"))

	require.NoError(t, recorder.Close())
}
