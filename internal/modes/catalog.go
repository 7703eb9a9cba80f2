package modes

import (
	"fmt"

	"smartdevice-controller/internal/protocol"
)

// Flag names a mode accepts, consumed by the CLI help and the dispatch
// layers that forward only declared parameters.
const (
	FlagSpeed     = "speed"
	FlagDirection = "direction"
	FlagSize      = "size"
	FlagMoving    = "moving"
)

// Descriptor describes one catalog entry. Build validates the mode's own
// parameters and returns the frame pairs to send, in order.
type Descriptor struct {
	Name      string
	Doc       string
	Flags     []string
	MinColors int
	MaxColors int
	Build     func(colors []protocol.Color, o Options) ([]protocol.FramePair, error)
}

// Catalog is the static mode table, in display order. It replaces any kind
// of registration side effect: adding a mode means adding a row here.
var Catalog = []Descriptor{
	{
		Name:  "off",
		Doc:   "turn off all leds",
		Build: func(_ []protocol.Color, _ Options) ([]protocol.FramePair, error) { return Off() },
	},
	{
		Name:      "fixed",
		Doc:       "fixed color for all leds",
		MinColors: 1, MaxColors: 1,
		Build: func(c []protocol.Color, o Options) ([]protocol.FramePair, error) { return Fixed(c[0], o) },
	},
	{
		Name:      "breathing",
		Doc:       "fade brightness in, out and then change color",
		Flags:     []string{FlagSpeed},
		MinColors: 1, MaxColors: protocol.LedCount,
		Build: Breathing,
	},
	{
		Name:      "fading",
		Doc:       "fade between given colors",
		Flags:     []string{FlagSpeed},
		MinColors: 1, MaxColors: protocol.LedCount,
		Build: Fading,
	},
	{
		Name:      "marquee",
		Doc:       "moving row of leds",
		Flags:     []string{FlagSpeed, FlagDirection, FlagSize},
		MinColors: 1, MaxColors: 1,
		Build: func(c []protocol.Color, o Options) ([]protocol.FramePair, error) { return Marquee(c[0], o) },
	},
	{
		Name:      "covering_marquee",
		Doc:       "marquee consisting of multiple colors",
		Flags:     []string{FlagSpeed, FlagDirection},
		MinColors: 1, MaxColors: protocol.LedCount,
		Build: CoveringMarquee,
	},
	{
		Name:      "pulse",
		Doc:       "fade color out and then show next color with full brightness",
		Flags:     []string{FlagSpeed},
		MinColors: 1, MaxColors: protocol.LedCount,
		Build: Pulse,
	},
	{
		Name:  "spectrum_wave",
		Doc:   "hardware generated rainbow marquee",
		Flags: []string{FlagSpeed, FlagDirection},
		Build: func(_ []protocol.Color, o Options) ([]protocol.FramePair, error) { return SpectrumWave(o) },
	},
	{
		Name:      "alternating",
		Doc:       "alternate led rows between two colors",
		Flags:     []string{FlagSpeed, FlagDirection, FlagSize, FlagMoving},
		MinColors: 2, MaxColors: 2,
		Build: func(c []protocol.Color, o Options) ([]protocol.FramePair, error) {
			return Alternating(c[0], c[1], o)
		},
	},
	{
		Name:      "wings",
		Doc:       "symmetric marquee (looks like flapping wings)",
		Flags:     []string{FlagSpeed},
		MinColors: 1, MaxColors: 1,
		Build: func(c []protocol.Color, o Options) ([]protocol.FramePair, error) { return Wings(c[0], o) },
	},
	{
		Name:      "candle",
		Doc:       "flickering candle",
		MinColors: 1, MaxColors: 1,
		Build: func(c []protocol.Color, o Options) ([]protocol.FramePair, error) { return Candle(c[0], o) },
	},
	{
		Name:      "custom_fixed",
		Doc:       "set each led to a fixed color",
		MinColors: 1, MaxColors: protocol.LedCount,
		Build: CustomFixed,
	},
	{
		Name:      "custom_breathing",
		Doc:       "breathing but with a different color for each led",
		Flags:     []string{FlagSpeed},
		MinColors: 1, MaxColors: protocol.LedCount,
		Build: CustomBreathing,
	},
	{
		Name:      "custom_wave",
		Doc:       "marquee with different colors for each led",
		Flags:     []string{FlagSpeed},
		MinColors: 1, MaxColors: protocol.LedCount,
		Build: CustomWave,
	},
}

// Lookup returns the descriptor registered under name.
func Lookup(name string) (Descriptor, error) {
	for _, d := range Catalog {
		if d.Name == name {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", protocol.ErrUnknownMode, name)
}

// Names returns the catalog names in display order.
func Names() []string {
	names := make([]string, 0, len(Catalog))
	for _, d := range Catalog {
		names = append(names, d.Name)
	}
	return names
}

// HasFlag reports whether the mode declares the given flag.
func (d Descriptor) HasFlag(flag string) bool {
	for _, f := range d.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Apply checks the color arity against the descriptor and builds the frame
// pairs for the mode.
func (d Descriptor) Apply(colors []protocol.Color, o Options) ([]protocol.FramePair, error) {
	if len(colors) < d.MinColors {
		return nil, fmt.Errorf("%w: mode %q needs at least %d color(s)",
			protocol.ErrInvalidParameter, d.Name, d.MinColors)
	}
	if len(colors) > d.MaxColors {
		return nil, fmt.Errorf("%w: mode %q takes at most %d color(s)",
			protocol.ErrInvalidParameter, d.Name, d.MaxColors)
	}
	return d.Build(colors, o)
}

// Apply resolves a mode by name and builds its frame pairs.
func Apply(name string, colors []protocol.Color, o Options) ([]protocol.FramePair, error) {
	d, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return d.Apply(colors, o)
}
