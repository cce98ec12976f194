package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.Count())
	assert.Equal(t, 80, bar.Width())
	assert.Nil(t, bar.Init())
}

func TestNewBar_NilArguments(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_Setters(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetState(StateAsking)
	bar.SetMessage("hello")
	bar.SetCount(4)
	bar.SetWidth(120)

	assert.Equal(t, StateAsking, bar.State())
	assert.Equal(t, "hello", bar.Message())
	assert.Equal(t, 4, bar.Count())
	assert.Equal(t, 120, bar.Width())

	bar.Clear()
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.Count())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		message  string
		count    int
		contains []string
	}{
		{name: "ready", state: StateReady, contains: []string{"Ready", "enter: ask"}},
		{name: "asking", state: StateAsking, contains: []string{"Thinking..."}},
		{name: "loading", state: StateLoading, contains: []string{"Loading..."}},
		{name: "error", state: StateError, contains: []string{"Error"}},
		{name: "error with message", state: StateError, message: "boom", contains: []string{"Error: boom"}},
		{name: "answered", state: StateAnswered, count: 3, contains: []string{"3 references", "n: new question"}},
		{name: "answered with message", state: StateAnswered, message: "opened", contains: []string{"opened"}},
		{name: "sources", state: StateSources, count: 7, contains: []string{"7 sources", "a: add source"}},
		{name: "sources with message", state: StateSources, message: "Added", contains: []string{"Added"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(200)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetCount(tt.count)

			view := bar.View()
			for _, want := range tt.contains {
				assert.Contains(t, view, want)
			}
		})
	}
}

func TestBar_UpdateIsPassive(t *testing.T) {
	bar := NewBar(nil, nil)
	updated, cmd := bar.Update(nil)
	assert.Same(t, bar, updated)
	assert.Nil(t, cmd)
}
