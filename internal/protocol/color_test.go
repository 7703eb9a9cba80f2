package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewColorRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name    string
		r, g, b int
		ok      bool
	}{
		{"black", 0, 0, 0, true},
		{"white", 255, 255, 255, true},
		{"red too high", 256, 0, 0, false},
		{"green negative", 0, -1, 0, false},
		{"blue too high", 0, 0, 300, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewColor(tc.r, tc.g, tc.b)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidColor)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("255, 16,0")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 255, G: 16}, c)
	assert.Equal(t, "#FF1000", c.Hex())

	for _, bad := range []string{"", "1,2", "1,2,3,4", "a,b,c", "300,0,0"} {
		_, err := ParseColor(bad)
		assert.ErrorIs(t, err, ErrInvalidColor, "input %q", bad)
	}
}

func TestFlattenReordersToGRB(t *testing.T) {
	flat := Flatten([]Color{{R: 1, G: 2, B: 3}, {R: 255, G: 0, B: 128}})
	assert.Equal(t, []byte{2, 1, 3, 0, 255, 128}, flat)
}
