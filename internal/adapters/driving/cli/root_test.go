package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := []string{}
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"consume", "reputation", "worker", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestLoadApp_UsesFactoryOnce(t *testing.T) {
	oldApp, oldFactory := app, factory
	t.Cleanup(func() { app, factory = oldApp, oldFactory })

	app = nil
	calls := 0
	closed := 0
	factory = func(o Options) (*App, error) {
		calls++
		a := testApp()
		a.Close = func() error { closed++; return nil }
		return a, nil
	}

	first, err := loadApp()
	require.NoError(t, err)
	second, err := loadApp()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	closeApp()
	assert.Equal(t, 1, closed)
	assert.Nil(t, app)
}

func TestLoadApp_FactoryError(t *testing.T) {
	oldApp, oldFactory := app, factory
	t.Cleanup(func() { app, factory = oldApp, oldFactory })

	app = nil
	factory = func(Options) (*App, error) { return nil, errors.New("bad config") }

	_, err := loadApp()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}

func TestLoadApp_NotConfigured(t *testing.T) {
	oldApp, oldFactory := app, factory
	t.Cleanup(func() { app, factory = oldApp, oldFactory })
	app, factory = nil, nil

	_, err := loadApp()
	assert.Error(t, err)
}

func TestExecute_PassesFlagsToFactory(t *testing.T) {
	oldApp, oldFactory := app, factory
	t.Cleanup(func() {
		app, factory = oldApp, oldFactory
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
	})
	app = nil

	var got Options
	f := func(o Options) (*App, error) {
		got = o
		a := testApp()
		a.Reputation = &mockReputation{}
		return a, nil
	}

	captureOutput(rootCmd)
	rootCmd.SetArgs([]string{"--config", "/etc/skywatch", "--verbose", "reputation", "show"})
	require.NoError(t, Execute(context.Background(), f))

	assert.Equal(t, "/etc/skywatch", got.ConfigDir)
	assert.True(t, got.Verbose)
	assert.Nil(t, app)
}
