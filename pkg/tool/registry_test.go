package tool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	runner := NewRunner(&stubTool{name: "weather", result: okResult()}, nil)

	reg.Register(runner)

	got, ok := reg.Get("weather")
	require.True(t, ok)
	assert.Same(t, runner, got)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	reg := NewRegistry()
	first := NewRunner(&stubTool{name: "weather"}, nil)
	second := NewRunner(&stubTool{name: "weather"}, nil)

	reg.Register(first)
	reg.Register(second)

	got, ok := reg.Get("weather")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, []string{"weather"}, reg.Names())
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"weather", "calculator", "web_search"} {
		reg.Register(NewRunner(&stubTool{name: name}, nil))
	}

	assert.Equal(t, []string{"calculator", "weather", "web_search"}, reg.Names())
}

func TestRegistry_Descriptors(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewRunner(&stubTool{name: "weather"}, nil))
	reg.Register(NewRunner(&stubTool{name: "calculator"}, nil))

	descs := reg.Descriptors()
	require.Len(t, descs, 2)
	assert.Equal(t, "calculator", descs[0].Name)
	assert.Equal(t, "weather", descs[1].Name)
}

func TestRegistry_CloseAllToleratesFailures(t *testing.T) {
	reg := NewRegistry()
	okStub := &stubTool{name: "fine"}
	badStub := &stubTool{name: "leaky", closeErr: errors.New("socket still open")}

	reg.Register(NewRunner(okStub, nil))
	reg.Register(NewRunner(badStub, nil))

	err := reg.CloseAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leaky")
	assert.Contains(t, err.Error(), "socket still open")

	assert.Empty(t, reg.Names())
}

func TestRegistry_CloseAllEmpty(t *testing.T) {
	assert.NoError(t, NewRegistry().CloseAll())
}
