package modes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartdevice-controller/internal/protocol"
)

var (
	red  = protocol.Color{R: 255}
	blue = protocol.Color{B: 255}
)

func TestMarqueeSizeValidation(t *testing.T) {
	for _, size := range []int{2, 7} {
		o := Defaults()
		o.Size = size
		_, err := Marquee(red, o)
		assert.ErrorIs(t, err, protocol.ErrInvalidParameter, "size=%d", size)
	}
	for _, size := range []int{3, 6} {
		o := Defaults()
		o.Size = size
		pairs, err := Marquee(red, o)
		require.NoError(t, err, "size=%d", size)
		require.Len(t, pairs, 1)
		// group size encoded as size-3 in bits 3-4
		assert.Equal(t, byte(uint8(size-3)<<3|byte(protocol.SpeedNormal)), pairs[0].First[4])
	}
}

func TestAlternatingSendsTwoCommands(t *testing.T) {
	o := Defaults()
	o.Size = 4
	o.Moving = true
	pairs, err := Alternating(red, blue, o)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	for i, pair := range pairs {
		assert.Equal(t, byte(5), pair.First[2], "mode byte")
		// option bit set for both commands
		assert.Equal(t, byte(1<<3), pair.First[3], "command %d", i)
		// index 0 then 1, group size 1 (4-3)
		assert.Equal(t, byte(uint8(i)<<5|1<<3|byte(protocol.SpeedNormal)), pair.First[4], "command %d", i)
	}
	// first command carries color1 (GRB), second color2
	assert.Equal(t, []byte{0, 255, 0}, []byte(pairs[0].First[5:8]))
	assert.Equal(t, []byte{0, 0, 255}, []byte(pairs[1].First[5:8]))
}

func TestPresetSequenceIndexesSteps(t *testing.T) {
	colors := []protocol.Color{red, blue, {G: 255}}
	pairs, err := Breathing(colors, Defaults())
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	for i, pair := range pairs {
		assert.Equal(t, byte(7), pair.First[2])
		assert.Equal(t, byte(uint8(i)<<5|byte(protocol.SpeedNormal)), pair.First[4], "step %d", i)
	}
}

func TestPresetSequenceRequiresColors(t *testing.T) {
	_, err := Fading(nil, Defaults())
	assert.ErrorIs(t, err, protocol.ErrInvalidParameter)

	_, err = Pulse(make([]protocol.Color, protocol.LedCount+1), Defaults())
	assert.ErrorIs(t, err, protocol.ErrTooManyColors)
}

func TestSpectrumWaveTakesNoColors(t *testing.T) {
	o := Defaults()
	o.Direction = protocol.Backward
	pairs, err := SpectrumWave(o)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, byte(2), pairs[0].First[2])
	assert.Equal(t, byte(1<<4), pairs[0].First[3])
}

func TestCustomArraySingleCommand(t *testing.T) {
	colors := []protocol.Color{red, blue}
	pairs, err := CustomWave(colors, Defaults())
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, byte(13), pairs[0].First[2])
	// index stays zero, colors populate the led array directly
	assert.Equal(t, byte(protocol.SpeedNormal), pairs[0].First[4])
	assert.Equal(t, []byte{0, 255, 0, 0, 0, 255}, []byte(pairs[0].First[5:11]))
}

func TestCatalogLookup(t *testing.T) {
	d, err := Lookup("alternating")
	require.NoError(t, err)
	assert.True(t, d.HasFlag(FlagMoving))
	assert.True(t, d.HasFlag(FlagSize))
	assert.Equal(t, 2, d.MinColors)

	_, err = Lookup("disco")
	assert.ErrorIs(t, err, protocol.ErrUnknownMode)
}

func TestCatalogArity(t *testing.T) {
	_, err := Apply("fixed", nil, Defaults())
	assert.ErrorIs(t, err, protocol.ErrInvalidParameter)

	_, err = Apply("fixed", []protocol.Color{red, blue}, Defaults())
	assert.ErrorIs(t, err, protocol.ErrInvalidParameter)

	_, err = Apply("spectrum_wave", []protocol.Color{red}, Defaults())
	assert.ErrorIs(t, err, protocol.ErrInvalidParameter)

	pairs, err := Apply("off", nil, Defaults())
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, protocol.OffFrames(), pairs[0])
}

func TestNamesMatchesCatalogOrder(t *testing.T) {
	names := Names()
	require.Len(t, names, len(Catalog))
	assert.Equal(t, "off", names[0])
	for i, d := range Catalog {
		assert.Equal(t, d.Name, names[i])
	}
}
