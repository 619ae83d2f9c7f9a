package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(&fakeAdapter{name: "acme"}))
	require.NoError(t, reg.Register(&fakeAdapter{name: "globex"}))

	adapter, ok := reg.Get("acme")
	assert.True(t, ok)
	assert.Equal(t, "acme", adapter.CompanyName())

	_, ok = reg.Get("initech")
	assert.False(t, ok)
}

func TestRegistryCollision(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(&fakeAdapter{name: "acme"}))
	first, _ := reg.Get("acme")

	err := reg.Register(&fakeAdapter{name: "acme"})
	assert.Error(t, err)

	// The failed registration must not replace the original adapter
	current, ok := reg.Get("acme")
	assert.True(t, ok)
	assert.Same(t, first, current)
	assert.Len(t, reg.ListNames(), 1)
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(&fakeAdapter{name: ""}))
	assert.Empty(t, reg.ListNames())
}

func TestRegistryListNamesOrder(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, reg.Register(&fakeAdapter{name: name}))
	}
	assert.Equal(t, []string{"charlie", "alpha", "bravo"}, reg.ListNames())
}
