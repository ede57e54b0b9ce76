package style

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor converts "#rrggbb", "#rgb" or a CSS colour name to an opaque colour.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		c, ok := colornames.Map[strings.ToLower(s)]
		if !ok {
			return color.NRGBA{}, fmt.Errorf("unknown colour name %q", s)
		}
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}, nil
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Fill returns the fill colour with the style's opacity applied as alpha.
func (s Style) Fill() (color.NRGBA, error) {
	c, err := ParseColor(s.FillColor)
	if err != nil {
		return color.NRGBA{}, err
	}
	c.A = alpha(s.FillOpacity)
	return c, nil
}

// Stroke returns the opaque stroke colour.
func (s Style) Stroke() (color.NRGBA, error) {
	return ParseColor(s.Color)
}

func alpha(opacity float64) uint8 {
	switch {
	case opacity <= 0:
		return 0
	case opacity >= 1:
		return 255
	default:
		return uint8(opacity*255 + 0.5)
	}
}
