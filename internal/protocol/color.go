package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an immutable RGB triple. Callers always work in RGB order; the
// GRB reordering the device wants happens in Flatten.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// NewColor validates each channel against the 8-bit range and builds a Color.
func NewColor(r, g, b int) (Color, error) {
	for _, ch := range [3]int{r, g, b} {
		if ch < 0 || ch > 255 {
			return Color{}, fmt.Errorf("%w: channel value %d outside 0-255", ErrInvalidColor, ch)
		}
	}
	return Color{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

// ParseColor reads a comma separated "r,g,b" string, e.g. "255,0,0".
func ParseColor(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("%w: %q is not of the form r,g,b", ErrInvalidColor, s)
	}
	var ch [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q is not a number", ErrInvalidColor, part)
		}
		ch[i] = v
	}
	return NewColor(ch[0], ch[1], ch[2])
}

// Hex returns the color as "#RRGGBB" for UI payloads.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

// Flatten reorders each color to the GRB wire order and concatenates the
// channel bytes in sequence order. The result is 3x len(colors) bytes.
func Flatten(colors []Color) []byte {
	flat := make([]byte, 0, 3*len(colors))
	for _, c := range colors {
		flat = append(flat, c.G, c.R, c.B)
	}
	return flat
}
