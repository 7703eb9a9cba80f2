package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"smartdevice-controller/internal/modes"
	"smartdevice-controller/internal/protocol"
)

func TestStateSetModeMarksPower(t *testing.T) {
	s := NewState()
	colors := []protocol.Color{{R: 255}}
	s.SetMode("fixed", colors, modes.Defaults())

	snap := s.Clone()
	assert.True(t, snap.Power)
	assert.Equal(t, "fixed", snap.Mode)
	assert.Equal(t, colors, snap.Colors)

	s.SetMode("off", nil, modes.Defaults())
	assert.False(t, s.Clone().Power)
}

func TestStateCloneIsDetached(t *testing.T) {
	s := NewState()
	s.SetMode("custom_fixed", []protocol.Color{{G: 255}}, modes.Defaults())

	snap := s.Clone()
	snap.Colors[0] = protocol.Color{B: 255}
	assert.Equal(t, protocol.Color{G: 255}, s.Clone().Colors[0])
}
