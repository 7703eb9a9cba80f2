// Package protocol encodes led commands into the fixed two-frame packet
// format of the NZXT smart device (H500i led and fan controller).
package protocol

import "fmt"

const (
	// LedCount is the number of addressable leds on the controller.
	LedCount = 20

	// FrameLen is the fixed length of every HID report frame.
	FrameLen = 65

	reportIDFirst  = 0x02
	reportIDSecond = 0x03
	commandID      = 0x4B

	// The firmware only latches the first 57 color bytes from frame 1;
	// the last 3 payload-capable bytes of frame 1 never carry color.
	firstFrameColorBytes = 57
)

// FramePair is one complete device command: two FrameLen byte reports that
// must be written in order, first frame before second.
type FramePair struct {
	First  []byte
	Second []byte
}

// Params holds the bit-packed animation fields of the command header.
// Index addresses the animation step for multi-color presets, GroupSize is
// the encoded row width (real size minus 3) and Moving is the option bit.
// Oversized subfields are silently truncated by the shifts, which is what
// the hardware protocol expects.
type Params struct {
	Index     uint8
	Speed     Speed
	Direction Direction
	Moving    bool
	GroupSize uint8
}

// BuildFrames packs a command for the given wire mode byte and color list.
// At most LedCount colors fit in a single command.
func BuildFrames(mode byte, colors []Color, p Params) (FramePair, error) {
	if len(colors) > LedCount {
		return FramePair{}, fmt.Errorf("%w: got %d colors (there are only %d leds)",
			ErrTooManyColors, len(colors), LedCount)
	}

	var option byte
	if p.Moving {
		option = 1
	}

	flat := Flatten(colors)
	split := len(flat)
	if split > firstFrameColorBytes {
		split = firstFrameColorBytes
	}

	first := make([]byte, 0, FrameLen)
	first = append(first,
		reportIDFirst,
		commandID,
		mode,
		byte(p.Direction)<<4|option<<3,
		p.Index<<5|p.GroupSize<<3|byte(p.Speed),
	)
	first = append(first, flat[:split]...)

	second := make([]byte, 0, FrameLen)
	second = append(second, reportIDSecond)
	second = append(second, flat[split:]...)

	return FramePair{First: pad(first), Second: pad(second)}, nil
}

// BuildUniformFrames repeats one color across every led slot before
// packing. This is how the preset (non-custom) modes build their payload.
func BuildUniformFrames(mode byte, c Color, p Params) FramePair {
	colors := make([]Color, LedCount)
	for i := range colors {
		colors[i] = c
	}
	// LedCount colors never exceed the limit.
	pair, _ := BuildFrames(mode, colors, p)
	return pair
}

// OffFrames builds the dedicated lights-off command: both frames all zero
// apart from the report id and command id bytes.
func OffFrames() FramePair {
	first := make([]byte, FrameLen)
	first[0] = reportIDFirst
	first[1] = commandID
	second := make([]byte, FrameLen)
	second[0] = reportIDSecond
	return FramePair{First: first, Second: second}
}

// pad fills a frame with zeroes to FrameLen.
func pad(frame []byte) []byte {
	for len(frame) < FrameLen {
		frame = append(frame, 0)
	}
	return frame
}
