package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/ui/style"
)

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, style.Check, style.StatusIcon(domain.NodeStatusCompleted))
	assert.Equal(t, style.Cross, style.StatusIcon(domain.NodeStatusFailed))
	assert.Equal(t, style.Skip, style.StatusIcon(domain.NodeStatusSkipped))
	assert.Equal(t, style.Running, style.StatusIcon(domain.NodeStatusRunning))
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, style.Green, style.StatusColor(domain.NodeStatusCompleted))
	assert.Equal(t, style.Red, style.StatusColor(domain.NodeStatusFailed))
	assert.Equal(t, style.Yellow, style.StatusColor(domain.NodeStatusSkipped))
	assert.Equal(t, style.Slate, style.StatusColor(domain.NodeStatusRunning))
}
