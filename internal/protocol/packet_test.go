package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFramesHeader(t *testing.T) {
	pair, err := BuildFrames(PresetMarquee.Wire(), nil, Params{
		Index:     1,
		Speed:     SpeedFast,
		Direction: Backward,
		Moving:    true,
		GroupSize: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, byte(0x02), pair.First[0])
	assert.Equal(t, byte(0x4B), pair.First[1])
	assert.Equal(t, byte(3), pair.First[2])
	// direction<<4 | option<<3
	assert.Equal(t, byte(1<<4|1<<3), pair.First[3])
	// index<<5 | group<<3 | speed
	assert.Equal(t, byte(1<<5|2<<3|3), pair.First[4])
	assert.Equal(t, byte(0x03), pair.Second[0])
}

func TestBuildFramesAlwaysFullLength(t *testing.T) {
	for n := 0; n <= LedCount; n++ {
		colors := make([]Color, n)
		for i := range colors {
			colors[i] = Color{R: uint8(i), G: 0x40, B: 0x80}
		}
		pair, err := BuildFrames(PresetFixed.Wire(), colors, Params{})
		require.NoError(t, err, "n=%d", n)
		assert.Len(t, pair.First, FrameLen, "n=%d", n)
		assert.Len(t, pair.Second, FrameLen, "n=%d", n)
	}
}

func TestBuildFramesSplitsAtByte57(t *testing.T) {
	for n := 1; n < LedCount; n++ {
		colors := make([]Color, n)
		for i := range colors {
			colors[i] = Color{R: uint8(3 * i), G: uint8(3*i + 1), B: uint8(3*i + 2)}
		}
		pair, err := BuildFrames(CustomWave.Wire(), colors, Params{})
		require.NoError(t, err)

		flat := Flatten(colors)
		if len(flat) <= 57 {
			assert.Equal(t, flat, pair.First[5:5+len(flat)], "n=%d", n)
			assert.Equal(t, make([]byte, FrameLen-1), pair.Second[1:], "n=%d", n)
		} else {
			assert.Equal(t, flat[:57], pair.First[5:62], "n=%d", n)
			assert.Equal(t, flat[57:], pair.Second[1:1+len(flat)-57], "n=%d", n)
		}
		// The trailing 3 bytes of frame 1 never carry color.
		assert.Equal(t, []byte{0, 0, 0}, pair.First[62:], "n=%d", n)
	}
}

func TestBuildFramesRejectsTooManyColors(t *testing.T) {
	colors := make([]Color, LedCount+1)
	_, err := BuildFrames(CustomFixed.Wire(), colors, Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyColors)
	assert.Contains(t, err.Error(), "20")
}

func TestBuildUniformFramesFixedRed(t *testing.T) {
	// Known vector: fixed red with normal speed.
	pair := BuildUniformFrames(PresetFixed.Wire(), Color{R: 255}, Params{Speed: SpeedNormal})

	assert.Equal(t, []byte{2, 75, 0, 0, 2}, pair.First[:5])

	// 20 repetitions of GRB (0,255,0), truncated at 57 bytes in frame 1.
	grb := bytes.Repeat([]byte{0, 255, 0}, LedCount)
	assert.Equal(t, grb[:57], pair.First[5:62])
	assert.Equal(t, []byte{0, 0, 0}, pair.First[62:])
	assert.Equal(t, grb[57:], pair.Second[1:4])
	assert.Equal(t, make([]byte, 61), pair.Second[4:])
}

func TestOffFrames(t *testing.T) {
	pair := OffFrames()

	wantFirst := make([]byte, FrameLen)
	wantFirst[0] = 2
	wantFirst[1] = 75
	wantSecond := make([]byte, FrameLen)
	wantSecond[0] = 3

	assert.Equal(t, wantFirst, pair.First)
	assert.Equal(t, wantSecond, pair.Second)
}
