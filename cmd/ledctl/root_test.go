package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartdevice-controller/internal/modes"
	"smartdevice-controller/internal/protocol"
)

func speedCommand(t *testing.T) *cobra.Command {
	t.Helper()
	d, err := modes.Lookup("breathing")
	require.NoError(t, err)
	return modeCommand(d)
}

func TestSpeedFlagsAreMutuallyExclusive(t *testing.T) {
	cmd := speedCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--speed", "1", "--fastest"}))
	assert.Error(t, cmd.ValidateFlagGroups())

	cmd = speedCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--fastest"}))
	assert.NoError(t, cmd.ValidateFlagGroups())
}

func TestOptionsFromFlagsSpeedAliases(t *testing.T) {
	cmd := speedCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--slowest"}))
	opts, err := optionsFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, protocol.SpeedSlowest, opts.Speed)

	cmd = speedCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--speed", "3"}))
	opts, err = optionsFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, protocol.SpeedFast, opts.Speed)

	cmd = speedCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--speed", "9"}))
	_, err = optionsFromFlags(cmd)
	assert.ErrorIs(t, err, protocol.ErrInvalidParameter)
}

func TestModeCommandsRegisterDeclaredFlagsOnly(t *testing.T) {
	fixed, err := modes.Lookup("fixed")
	require.NoError(t, err)
	cmd := modeCommand(fixed)
	assert.Nil(t, cmd.Flags().Lookup("speed"))
	assert.Nil(t, cmd.Flags().Lookup("size"))

	alt, err := modes.Lookup("alternating")
	require.NoError(t, err)
	cmd = modeCommand(alt)
	assert.NotNil(t, cmd.Flags().Lookup("speed"))
	assert.NotNil(t, cmd.Flags().Lookup("size"))
	assert.NotNil(t, cmd.Flags().Lookup("moving"))
	assert.NotNil(t, cmd.Flags().Lookup("backward"))
}
