package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/MeKo-Tech/peatrisk/internal/mapview"
	"github.com/MeKo-Tech/peatrisk/internal/style"
	"github.com/MeKo-Tech/peatrisk/internal/types"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type overlays map[string]*types.FeatureSet

func (o overlays) LoadOverlay(_ context.Context, name string) (*types.FeatureSet, error) {
	return o[name], nil
}

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

func buildView(t *testing.T, risk string, selected ...string) *mapview.MapView {
	t.Helper()
	fs := &types.FeatureSet{Features: []types.Feature{
		{Geometry: square(100, 0, 101, 1), Properties: map[string]interface{}{"area": 1.0, "risk": risk}},
	}}
	src := overlays{
		"Fields": {Features: []types.Feature{
			{Geometry: square(100.25, 0.25, 100.75, 0.75)},
		}},
	}
	mv, err := mapview.NewBuilder(nil, src, nil).Build(context.Background(), fs, selected)
	require.NoError(t, err)
	return mv
}

// blend is src over an opaque dst with the style's alpha, per channel.
func blend(src, dst color.NRGBA) color.RGBA {
	a := uint32(src.A)
	mix := func(s, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*(255-a) + 127) / 255)
	}
	return color.RGBA{R: mix(src.R, dst.R), G: mix(src.G, dst.G), B: mix(src.B, dst.B), A: 255}
}

func assertColor(t *testing.T, want color.RGBA, got color.Color) {
	t.Helper()
	g := color.RGBAModel.Convert(got).(color.RGBA)
	assert.InDelta(t, want.R, g.R, 2, "red")
	assert.InDelta(t, want.G, g.G, 2, "green")
	assert.InDelta(t, want.B, g.B, 2, "blue")
	assert.Equal(t, uint8(255), g.A)
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(Options{Width: 200, Height: 100}, nil)
	require.NoError(t, err)
	return r
}

func TestRenderPaintsRiskColour(t *testing.T) {
	bg, err := style.ParseColor(DefaultBackground)
	require.NoError(t, err)

	tests := []struct {
		risk string
		fill string
	}{
		{"low", style.ColorLow},
		{"medium", style.ColorMedium},
		{"high", style.ColorHigh},
		{"other", style.ColorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.risk, func(t *testing.T) {
			img, err := newRenderer(t).Render(buildView(t, tt.risk))
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 200, 100), img.Bounds())

			fill, err := style.Resolve(types.ParseCategory(tt.risk)).Fill()
			require.NoError(t, err)
			assertColor(t, blend(fill, bg), img.At(100, 50))

			// corner is outside the polygon
			assertColor(t, color.RGBA{R: bg.R, G: bg.G, B: bg.B, A: 255}, img.At(0, 0))
		})
	}
}

func TestRenderOverlayOnTop(t *testing.T) {
	bg, err := style.ParseColor(DefaultBackground)
	require.NoError(t, err)

	img, err := newRenderer(t).Render(buildView(t, "low", "Fields"))
	require.NoError(t, err)

	riskFill, _ := style.Resolve(types.CategoryLow).Fill()
	overlayFill, _ := style.Overlay().Fill()
	under := blend(riskFill, bg)
	want := blend(overlayFill, color.NRGBA{R: under.R, G: under.G, B: under.B, A: 255})
	assertColor(t, want, img.At(100, 50))
}

func TestRenderStrokesOutline(t *testing.T) {
	img, err := newRenderer(t).Render(buildView(t, "high"))
	require.NoError(t, err)

	// left edge of the square: 1 degree is 2^5*256/360 px wide at zoom 5
	half := 0.5 * 32 * 256 / 360.0
	x := int(100 - half)
	edge := color.RGBAModel.Convert(img.At(x, 50)).(color.RGBA)
	inside := color.RGBAModel.Convert(img.At(100, 50)).(color.RGBA)
	assert.Less(t, int(edge.R)+int(edge.G), int(inside.R)+int(inside.G), "outline is darker than the fill")
}

func TestRenderEmptyView(t *testing.T) {
	mv := &mapview.MapView{Zoom: mapview.DefaultZoom}
	img, err := newRenderer(t).Render(mv)
	require.NoError(t, err)

	bg, _ := style.ParseColor(DefaultBackground)
	assertColor(t, color.RGBA{R: bg.R, G: bg.G, B: bg.B, A: 255}, img.At(10, 10))
}

func TestRenderPointsAndLines(t *testing.T) {
	fs := &types.FeatureSet{Features: []types.Feature{
		{Geometry: square(100, 0, 101, 1), Properties: map[string]interface{}{"risk": "low"}},
	}}
	src := overlays{
		"Ports":     {Features: []types.Feature{{Geometry: orb.Point{100.5, 0.5}}}},
		"Pipelines": {Features: []types.Feature{{Geometry: orb.LineString{{95, 0.5}, {106, 0.5}}}}},
	}
	mv, err := mapview.NewBuilder(nil, src, nil).Build(context.Background(), fs, []string{"Pipelines", "Ports"})
	require.NoError(t, err)

	img, err := newRenderer(t).Render(mv)
	require.NoError(t, err)

	// the pipeline crosses the whole canvas horizontally through the centre
	px := color.RGBAModel.Convert(img.At(5, 50)).(color.RGBA)
	gold, _ := style.ParseColor(style.ColorOverlay)
	assert.InDelta(t, gold.R, px.R, 2)
	assert.InDelta(t, gold.G, px.G, 2)
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRenderer(t).RenderPNG(&buf, buildView(t, "medium")))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer(Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, r.width)
	assert.Equal(t, DefaultHeight, r.height)

	_, err = NewRenderer(Options{Background: "not-a-colour"}, nil)
	assert.Error(t, err)

	_, err = NewRenderer(Options{Width: -1}, nil)
	assert.Error(t, err)
}
