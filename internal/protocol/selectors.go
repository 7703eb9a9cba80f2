package protocol

// PresetMode selects an animation that broadcasts one uniform color to all
// leds. The values are the device's internal mode numbers.
type PresetMode uint8

const (
	PresetFixed           PresetMode = 0
	PresetFading          PresetMode = 1
	PresetSpectrumWave    PresetMode = 2
	PresetMarquee         PresetMode = 3
	PresetCoveringMarquee PresetMode = 4
	PresetAlternating     PresetMode = 5
	PresetPulse           PresetMode = 6
	PresetBreathing       PresetMode = 7
	// 8 is the hardware alert mode, 11 the fan RPM display; neither takes
	// a color command from this layer.
	PresetCandle PresetMode = 9
	PresetWings  PresetMode = 12
)

// CustomMode selects an animation where every led slot carries its own
// color. The numbers overlap with PresetMode because both address the same
// device-level mode byte; keeping two types stops one being passed where
// the other is meant.
type CustomMode uint8

const (
	CustomFixed           CustomMode = 0
	CustomFading          CustomMode = 1
	CustomMarquee         CustomMode = 3
	CustomCoveringMarquee CustomMode = 4
	CustomPulse           CustomMode = 6
	CustomBreathing       CustomMode = 7
	CustomWings           CustomMode = 12
	CustomWave            CustomMode = 13
)

// Wire returns the mode byte as it goes on the wire.
func (m PresetMode) Wire() byte { return byte(m) }

// Wire returns the mode byte as it goes on the wire.
func (m CustomMode) Wire() byte { return byte(m) }

// Speed is the animation speed carried in the low bits of the packed
// index/group/speed header byte.
type Speed uint8

const (
	SpeedSlowest Speed = iota
	SpeedSlow
	SpeedNormal
	SpeedFast
	SpeedFastest
)

// ClampSpeed converts an untrusted integer into a valid Speed, pinning
// out-of-range values to the nearest end of the scale.
func ClampSpeed(v int) Speed {
	if v < int(SpeedSlowest) {
		return SpeedSlowest
	}
	if v > int(SpeedFastest) {
		return SpeedFastest
	}
	return Speed(v)
}

// Direction is the animation play direction.
type Direction uint8

const (
	Forward  Direction = 0
	Backward Direction = 1
)
