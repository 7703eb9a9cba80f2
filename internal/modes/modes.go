// Package modes implements the named led animation presets of the smart
// device on top of the protocol packet builder. Every mode validates its
// parameters and computes the ordered frame pairs to send; no I/O happens
// here.
package modes

import (
	"fmt"

	"smartdevice-controller/internal/protocol"
)

const (
	minSize = 3
	maxSize = 6
)

// defaultColor is what the device documentation uses when a mode needs a
// payload but no color is meaningful (spectrum wave).
var defaultColor = protocol.Color{B: 255}

// Options are the animation knobs shared by the presets. The zero value is
// not a useful default; start from Defaults and override.
type Options struct {
	Speed     protocol.Speed
	Direction protocol.Direction
	Size      int // marquee/alternating row width, 3-6
	Moving    bool
}

// Defaults returns the options used when the caller specifies nothing.
func Defaults() Options {
	return Options{
		Speed:     protocol.SpeedNormal,
		Direction: protocol.Forward,
		Size:      minSize,
	}
}

// params packs the options for one animation step. Size is only encoded
// when it is in range; modes that expose it validate through sizeParams.
func (o Options) params(index uint8) protocol.Params {
	group := 0
	if o.Size >= minSize && o.Size <= maxSize {
		group = o.Size - minSize
	}
	return protocol.Params{
		Index:     index,
		Speed:     o.Speed,
		Direction: o.Direction,
		Moving:    o.Moving,
		GroupSize: uint8(group),
	}
}

// sizeParams is params for the modes whose row width is caller-visible.
func (o Options) sizeParams(index uint8) (protocol.Params, error) {
	if o.Size < minSize || o.Size > maxSize {
		return protocol.Params{}, fmt.Errorf("%w: size has to be between %d and %d",
			protocol.ErrInvalidParameter, minSize, maxSize)
	}
	return o.params(index), nil
}

// Off turns off all leds.
func Off() ([]protocol.FramePair, error) {
	return []protocol.FramePair{protocol.OffFrames()}, nil
}

// Fixed shows one color on all leds.
func Fixed(c protocol.Color, o Options) ([]protocol.FramePair, error) {
	return []protocol.FramePair{
		protocol.BuildUniformFrames(protocol.PresetFixed.Wire(), c, o.params(0)),
	}, nil
}

// Breathing fades brightness in, out and then changes to the next color.
func Breathing(colors []protocol.Color, o Options) ([]protocol.FramePair, error) {
	return presetSequence(protocol.PresetBreathing, colors, o)
}

// Fading fades between the given colors.
func Fading(colors []protocol.Color, o Options) ([]protocol.FramePair, error) {
	return presetSequence(protocol.PresetFading, colors, o)
}

// CoveringMarquee runs a marquee consisting of multiple colors.
func CoveringMarquee(colors []protocol.Color, o Options) ([]protocol.FramePair, error) {
	return presetSequence(protocol.PresetCoveringMarquee, colors, o)
}

// Pulse fades a color out and then shows the next one at full brightness.
func Pulse(colors []protocol.Color, o Options) ([]protocol.FramePair, error) {
	return presetSequence(protocol.PresetPulse, colors, o)
}

// Marquee runs a moving row of leds in one color.
func Marquee(c protocol.Color, o Options) ([]protocol.FramePair, error) {
	p, err := o.sizeParams(0)
	if err != nil {
		return nil, err
	}
	return []protocol.FramePair{
		protocol.BuildUniformFrames(protocol.PresetMarquee.Wire(), c, p),
	}, nil
}

// SpectrumWave runs the hardware generated rainbow marquee. Only speed and
// direction apply; the firmware ignores the color payload but still wants a
// fully populated frame.
func SpectrumWave(o Options) ([]protocol.FramePair, error) {
	return []protocol.FramePair{
		protocol.BuildUniformFrames(protocol.PresetSpectrumWave.Wire(), defaultColor, o.params(0)),
	}, nil
}

// Alternating alternates led rows between two colors. It always sends two
// commands, one per color, at animation steps 0 and 1.
func Alternating(c1, c2 protocol.Color, o Options) ([]protocol.FramePair, error) {
	first, err := o.sizeParams(0)
	if err != nil {
		return nil, err
	}
	second, _ := o.sizeParams(1)
	return []protocol.FramePair{
		protocol.BuildUniformFrames(protocol.PresetAlternating.Wire(), c1, first),
		protocol.BuildUniformFrames(protocol.PresetAlternating.Wire(), c2, second),
	}, nil
}

// Wings runs a symmetric marquee that looks like flapping wings.
func Wings(c protocol.Color, o Options) ([]protocol.FramePair, error) {
	return []protocol.FramePair{
		protocol.BuildUniformFrames(protocol.PresetWings.Wire(), c, o.params(0)),
	}, nil
}

// Candle flickers all leds like a candle.
func Candle(c protocol.Color, o Options) ([]protocol.FramePair, error) {
	return []protocol.FramePair{
		protocol.BuildUniformFrames(protocol.PresetCandle.Wire(), c, o.params(0)),
	}, nil
}

// CustomFixed sets each led to its own fixed color.
func CustomFixed(colors []protocol.Color, o Options) ([]protocol.FramePair, error) {
	return customArray(protocol.CustomFixed, colors, o)
}

// CustomBreathing breathes with a different color per led.
func CustomBreathing(colors []protocol.Color, o Options) ([]protocol.FramePair, error) {
	return customArray(protocol.CustomBreathing, colors, o)
}

// CustomWave runs a marquee with a different color per led.
func CustomWave(colors []protocol.Color, o Options) ([]protocol.FramePair, error) {
	return customArray(protocol.CustomWave, colors, o)
}

// presetSequence sends one uniform command per color. The device keeps a
// per-slot animation table, so each command targets animation step i, not a
// physical led; ordering matters.
func presetSequence(mode protocol.PresetMode, colors []protocol.Color, o Options) ([]protocol.FramePair, error) {
	if len(colors) == 0 {
		return nil, fmt.Errorf("%w: at least one color is required", protocol.ErrInvalidParameter)
	}
	if len(colors) > protocol.LedCount {
		return nil, fmt.Errorf("%w: got %d animation steps, the device stores at most %d",
			protocol.ErrTooManyColors, len(colors), protocol.LedCount)
	}
	pairs := make([]protocol.FramePair, 0, len(colors))
	for i, c := range colors {
		pairs = append(pairs, protocol.BuildUniformFrames(mode.Wire(), c, o.params(uint8(i))))
	}
	return pairs, nil
}

// customArray sends one command whose color payload addresses the physical
// led array directly. Unspecified slots stay off.
func customArray(mode protocol.CustomMode, colors []protocol.Color, o Options) ([]protocol.FramePair, error) {
	if len(colors) == 0 {
		return nil, fmt.Errorf("%w: at least one color is required", protocol.ErrInvalidParameter)
	}
	pair, err := protocol.BuildFrames(mode.Wire(), colors, o.params(0))
	if err != nil {
		return nil, err
	}
	return []protocol.FramePair{pair}, nil
}
