package style

import (
	"image/color"
	"testing"

	"github.com/MeKo-Tech/peatrisk/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		category types.Category
		fill     string
	}{
		{types.CategoryLow, ColorLow},
		{types.CategoryMedium, ColorMedium},
		{types.CategoryHigh, ColorHigh},
		{types.CategoryUnknown, ColorUnknown},
		{types.Category("extreme"), ColorUnknown},
		{types.Category(""), ColorUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			s := Resolve(tt.category)
			assert.Equal(t, tt.fill, s.FillColor)
			assert.Equal(t, 0.75, s.FillOpacity)
			assert.Equal(t, "black", s.Color)
			assert.Equal(t, 0.5, s.Weight)
		})
	}
}

func TestResolveIsPure(t *testing.T) {
	for _, c := range append(types.Categories, types.CategoryUnknown) {
		assert.Equal(t, Resolve(c), Resolve(c))
	}
}

func TestPaletteDistinct(t *testing.T) {
	seen := map[string]types.Category{}
	for _, c := range types.Categories {
		fill := Resolve(c).FillColor
		if prev, dup := seen[fill]; dup {
			t.Fatalf("%s reuses the colour of %s", c, prev)
		}
		seen[fill] = c
	}
	_, dup := seen[Default.FillColor]
	assert.False(t, dup, "default style must not reuse a category colour")
}

func TestOverlay(t *testing.T) {
	s := Overlay()
	assert.Equal(t, "#FFD700", s.FillColor)
	assert.Equal(t, 0.5, s.FillOpacity)
	assert.Equal(t, Overlay(), s)

	for _, c := range types.Categories {
		assert.NotEqual(t, Resolve(c).FillColor, s.FillColor)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: "#440154", want: color.NRGBA{R: 0x44, G: 0x01, B: 0x54, A: 255}},
		{in: "#FFD700", want: color.NRGBA{R: 0xff, G: 0xd7, B: 0x00, A: 255}},
		{in: "#fff", want: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{in: "black", want: color.NRGBA{A: 255}},
		{in: "Gray", want: color.NRGBA{R: 128, G: 128, B: 128, A: 255}},
		{in: "#12345", wantErr: true},
		{in: "#zzzzzz", wantErr: true},
		{in: "notacolour", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFillAppliesOpacity(t *testing.T) {
	c, err := Resolve(types.CategoryHigh).Fill()
	require.NoError(t, err)
	assert.Equal(t, uint8(191), c.A)

	c, err = Overlay().Fill()
	require.NoError(t, err)
	assert.Equal(t, uint8(128), c.A)

	stroke, err := Overlay().Stroke()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{A: 255}, stroke)
}
