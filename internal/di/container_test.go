package di_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsql/internal/di"
)

type widget struct{ Name string }

// TestRegisterFactoryRoundTripsPointerService pins down the asymmetry
// cmd/stellarsqld relies on: RegisterFactory keys on a factory's literal
// return type, with no pointer-stripping, so a factory returning *widget
// resolves correctly into a *widget target — unlike a plain Register'd
// pointer value, whose service key has one level of indirection stripped.
func TestRegisterFactoryRoundTripsPointerService(t *testing.T) {
	c := di.NewContainer()
	built := 0
	err := c.RegisterFactory(func() (*widget, error) {
		built++
		return &widget{Name: "dep"}, nil
	})
	require.NoError(t, err)

	var w *widget
	require.NoError(t, c.Resolve(&w))
	require.NotNil(t, w)
	assert.Equal(t, "dep", w.Name)
	assert.Equal(t, 1, built)
}

func TestRegisterDirectValueRoundTrip(t *testing.T) {
	c := di.NewContainer()
	require.NoError(t, c.Register(widget{Name: "cfg"}))

	var w widget
	require.NoError(t, c.Resolve(&w))
	assert.Equal(t, "cfg", w.Name)
}

func TestResolveUnregisteredTypeFails(t *testing.T) {
	c := di.NewContainer()
	var w widget
	err := c.Resolve(&w)
	require.Error(t, err)
}
