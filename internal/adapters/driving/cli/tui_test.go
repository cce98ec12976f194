package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTUIApp(t *testing.T) {
	a := newTestApp(t)

	tuiApp, err := newTUIApp(a.App)

	require.NoError(t, err)
	assert.NotNil(t, tuiApp)
}
