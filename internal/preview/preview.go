// Package preview rasterises a MapView into a static PNG image using the
// same Web Mercator pixel space as slippy map tiles.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/MeKo-Tech/peatrisk/internal/layer"
	"github.com/MeKo-Tech/peatrisk/internal/mapview"
	"github.com/MeKo-Tech/peatrisk/internal/projection"
	"github.com/MeKo-Tech/peatrisk/internal/style"
	"github.com/paulmach/orb"
	"golang.org/x/image/vector"
)

// Defaults for Options fields left zero.
const (
	DefaultWidth      = 800
	DefaultHeight     = 600
	DefaultBackground = "#f2efe9"
	TileSize          = 256
)

const (
	lineWidth   = 2.0 // px, line features
	pointRadius = 3.0 // px, point features
)

// Options configures a Renderer.
type Options struct {
	Width      int
	Height     int
	Background string // colour of the empty canvas
}

// Renderer paints map views onto a fixed-size canvas centred on the view's
// centre at the view's zoom.
type Renderer struct {
	width      int
	height     int
	background color.NRGBA
	logger     *slog.Logger
}

// NewRenderer creates a renderer; zero option fields take the defaults.
func NewRenderer(opts Options, logger *slog.Logger) (*Renderer, error) {
	if opts.Width == 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultHeight
	}
	if opts.Background == "" {
		opts.Background = DefaultBackground
	}
	if opts.Width < 0 || opts.Height < 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", opts.Width, opts.Height)
	}

	bg, err := style.ParseColor(opts.Background)
	if err != nil {
		return nil, fmt.Errorf("invalid background: %w", err)
	}

	return &Renderer{
		width:      opts.Width,
		height:     opts.Height,
		background: bg,
		logger:     logger,
	}, nil
}

// Render paints the layers of mv bottom first. Fill colours carry the style
// opacity, so overlays blend over the risk layer.
func (r *Renderer) Render(mv *mapview.MapView) (*image.RGBA, error) {
	start := time.Now()

	dst := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(r.background), image.Point{}, draw.Src)

	cx, cy := projection.GlobalPixel(mv.Center.Lon(), mv.Center.Lat(), mv.Zoom, TileSize)
	c := &canvas{
		dst:     dst,
		ras:     vector.NewRasterizer(r.width, r.height),
		zoom:    mv.Zoom,
		offsetX: cx - float64(r.width)/2,
		offsetY: cy - float64(r.height)/2,
	}

	painted := 0
	for _, l := range mv.Layers {
		n, err := c.paintLayer(l)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.Name, err)
		}
		painted += n
	}

	r.log().Debug("Rendered preview",
		"width", r.width,
		"height", r.height,
		"layers", len(mv.Layers),
		"features", painted,
		"duration", time.Since(start),
	)
	return dst, nil
}

// RenderPNG renders mv and writes it as PNG.
func (r *Renderer) RenderPNG(w io.Writer, mv *mapview.MapView) error {
	img, err := r.Render(mv)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

func (r *Renderer) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

type canvas struct {
	dst              *image.RGBA
	ras              *vector.Rasterizer
	zoom             int
	offsetX, offsetY float64 // global pixel position of the canvas origin
}

func (c *canvas) paintLayer(l layer.LayerSpec) (int, error) {
	if l.Features == nil {
		return 0, nil
	}

	n := 0
	for _, f := range l.Features.Features {
		if f.Geometry == nil {
			continue
		}
		s := l.StyleFor(f)
		fill, err := s.Fill()
		if err != nil {
			return n, err
		}
		stroke, err := s.Stroke()
		if err != nil {
			return n, err
		}
		c.paintGeometry(f.Geometry, fill, stroke, s.Weight)
		n++
	}
	return n, nil
}

func (c *canvas) paintGeometry(g orb.Geometry, fill, stroke color.NRGBA, weight float64) {
	switch g := g.(type) {
	case orb.Polygon:
		c.fillPolygon(g, fill)
		c.outlinePolygon(g, stroke, weight)
	case orb.MultiPolygon:
		for _, p := range g {
			c.fillPolygon(p, fill)
			c.outlinePolygon(p, stroke, weight)
		}
	case orb.Ring:
		c.paintGeometry(orb.Polygon{g}, fill, stroke, weight)
	case orb.LineString:
		c.strokeLine(g, opaque(fill), lineWidth)
	case orb.MultiLineString:
		for _, ls := range g {
			c.strokeLine(ls, opaque(fill), lineWidth)
		}
	case orb.Point:
		c.fillDisc(g, fill)
	case orb.MultiPoint:
		for _, p := range g {
			c.fillDisc(p, fill)
		}
	case orb.Collection:
		for _, sub := range g {
			c.paintGeometry(sub, fill, stroke, weight)
		}
	}
}

func (c *canvas) fillPolygon(poly orb.Polygon, fill color.NRGBA) {
	c.ras.Reset(c.dst.Bounds().Dx(), c.dst.Bounds().Dy())

	drawn := false
	for _, ring := range poly {
		if len(ring) < 3 {
			continue
		}
		for i, pt := range ring {
			x, y := c.toLocal(pt)
			if i == 0 {
				c.ras.MoveTo(x, y)
			} else {
				c.ras.LineTo(x, y)
			}
		}
		c.ras.ClosePath()
		drawn = true
	}
	if drawn {
		c.ras.Draw(c.dst, c.dst.Bounds(), image.NewUniform(fill), image.Point{})
	}
}

func (c *canvas) outlinePolygon(poly orb.Polygon, stroke color.NRGBA, weight float64) {
	if weight <= 0 {
		return
	}
	width := math.Max(weight, 1)
	for _, ring := range poly {
		c.strokeLine(orb.LineString(ring), stroke, width)
	}
}

// strokeLine paints each segment as a quad of the given pixel width.
// All quads share one orientation so overlaps accumulate instead of cancel.
func (c *canvas) strokeLine(ls orb.LineString, col color.NRGBA, width float64) {
	if len(ls) < 2 {
		return
	}
	c.ras.Reset(c.dst.Bounds().Dx(), c.dst.Bounds().Dy())

	half := float32(width / 2)
	drawn := false
	for i := 0; i < len(ls)-1; i++ {
		x0, y0 := c.toLocal(ls[i])
		x1, y1 := c.toLocal(ls[i+1])

		dx, dy := x1-x0, y1-y0
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			continue
		}
		// unit normal scaled to half the width
		nx, ny := -dy/length*half, dx/length*half

		c.ras.MoveTo(x0+nx, y0+ny)
		c.ras.LineTo(x1+nx, y1+ny)
		c.ras.LineTo(x1-nx, y1-ny)
		c.ras.LineTo(x0-nx, y0-ny)
		c.ras.ClosePath()
		drawn = true
	}
	if drawn {
		c.ras.Draw(c.dst, c.dst.Bounds(), image.NewUniform(col), image.Point{})
	}
}

func (c *canvas) fillDisc(p orb.Point, col color.NRGBA) {
	c.ras.Reset(c.dst.Bounds().Dx(), c.dst.Bounds().Dy())

	const segments = 16
	x, y := c.toLocal(p)
	for i := 0; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		px := x + float32(pointRadius*math.Cos(a))
		py := y + float32(pointRadius*math.Sin(a))
		if i == 0 {
			c.ras.MoveTo(px, py)
		} else {
			c.ras.LineTo(px, py)
		}
	}
	c.ras.ClosePath()
	c.ras.Draw(c.dst, c.dst.Bounds(), image.NewUniform(col), image.Point{})
}

// toLocal maps WGS84 lon/lat to canvas pixel coordinates.
func (c *canvas) toLocal(p orb.Point) (float32, float32) {
	gx, gy := projection.GlobalPixel(p.Lon(), p.Lat(), c.zoom, TileSize)
	return float32(gx - c.offsetX), float32(gy - c.offsetY)
}

func opaque(c color.NRGBA) color.NRGBA {
	c.A = 255
	return c
}
