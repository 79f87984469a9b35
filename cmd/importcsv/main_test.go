package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	dir := cmd.Flags().Lookup("dir")
	require.NotNil(t, dir)
	assert.Equal(t, "", dir.DefValue)

	migrate := cmd.Flags().Lookup("migrate")
	require.NotNil(t, migrate)
	assert.Equal(t, "true", migrate.DefValue)
}

func TestRootCmd_RejectsPositionalArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"static/data"})

	assert.Error(t, cmd.Execute())
}
