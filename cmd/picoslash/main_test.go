package main

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPicoslashCommand(t *testing.T) {
	cmd := NewPicoslashCommand()
	require.NotNil(t, cmd)

	assert.Equal(t, "picoslash", cmd.Use)
	assert.True(t, cmd.SilenceUsage)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"run", "sync", "tree", "schema", "version"} {
		assert.True(t, slices.Contains(names, want), "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "manifest", "debug"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
}
