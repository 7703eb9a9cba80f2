package core

import (
	"sync"

	"smartdevice-controller/internal/modes"
	"smartdevice-controller/internal/protocol"
)

// State holds the single source of truth for the device: whether it is on
// the bus and which mode was last applied. The agent reapplies Mode/Colors/
// Options when power comes back on.
type State struct {
	mu             sync.RWMutex
	IsConnected    bool
	Power          bool
	Mode           string
	Colors         []protocol.Color
	Options        modes.Options
	RunningPattern string
}

// NewState creates a new State instance with default animation options.
func NewState() *State {
	return &State{Options: modes.Defaults()}
}

// Clone returns a snapshot of the current state for safe reading.
func (s *State) Clone() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	colors := make([]protocol.Color, len(s.Colors))
	copy(colors, s.Colors)
	return State{
		IsConnected:    s.IsConnected,
		Power:          s.Power,
		Mode:           s.Mode,
		Colors:         colors,
		Options:        s.Options,
		RunningPattern: s.RunningPattern,
	}
}

// SetConnection updates the device connection state.
func (s *State) SetConnection(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.IsConnected = connected
}

// SetMode records the last applied mode and marks the leds as powered.
func (s *State) SetMode(name string, colors []protocol.Color, o modes.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Mode = name
	s.Colors = make([]protocol.Color, len(colors))
	copy(s.Colors, colors)
	s.Options = o
	s.Power = name != "off"
}

// SetPower updates the power state without touching the stored mode.
func (s *State) SetPower(power bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Power = power
}

// SetRunningPattern updates the running pattern state.
func (s *State) SetRunningPattern(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RunningPattern = pattern
}
