package geojson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/MeKo-Tech/peatrisk/internal/layer"
	"github.com/MeKo-Tech/peatrisk/internal/mapview"
	"github.com/MeKo-Tech/peatrisk/internal/style"
	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"
)

// Format selects the serialisation of a map document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml" in any case. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported document format %q", s)
	}
}

// ContentType returns the HTTP media type of the format.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Document is the hand-off of one MapView to the browser map library.
type Document struct {
	Center [2]float64         `json:"center"` // [lat, lon]
	Zoom   int                `json:"zoom"`
	Bounds []float64          `json:"bounds,omitempty"` // risk layer extent [minLon, minLat, maxLon, maxLat]
	Legend []layer.LegendItem `json:"legend"`
	Layers []Layer            `json:"layers"`
}

// Layer is one entry of the layer stack, bottom first.
type Layer struct {
	Name string     `json:"name"`
	Kind layer.Kind `json:"kind"`

	// Style is the uniform style of overlay layers. Risk layers style each
	// feature individually and carry StyleField instead.
	Style      *style.Style `json:"style,omitempty"`
	StyleField string       `json:"styleField,omitempty"`

	Tooltip *layer.Tooltip             `json:"tooltip,omitempty"`
	Data    *geojson.FeatureCollection `json:"data"`
}

// NewDocument converts a map view into its document form.
func NewDocument(mv *mapview.MapView) *Document {
	doc := &Document{
		Center: [2]float64{mv.Center.Lat(), mv.Center.Lon()},
		Zoom:   mv.Zoom,
		Legend: mv.Legend,
		Layers: make([]Layer, 0, len(mv.Layers)),
	}
	if doc.Legend == nil {
		doc.Legend = []layer.LegendItem{}
	}

	for _, l := range mv.Layers {
		if l.Kind == layer.KindRisk {
			if b, ok := l.Features.Bound(); ok {
				a := b.Array()
				doc.Bounds = a[:]
			}
		}

		dl := Layer{
			Name:    l.Name,
			Kind:    l.Kind,
			Tooltip: l.Tooltip,
			Data:    LayerToGeoJSON(l),
		}
		if l.StyleField == "" {
			s := l.Uniform
			dl.Style = &s
		} else {
			dl.StyleField = l.StyleField
		}
		doc.Layers = append(doc.Layers, dl)
	}
	return doc
}

// Encode writes the document of mv to w in the given format.
func Encode(w io.Writer, mv *mapview.MapView, format Format) error {
	doc := NewDocument(mv)

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode map document: %w", err)
		}
		return nil
	case FormatYAML:
		return encodeYAML(w, doc)
	default:
		return fmt.Errorf("unsupported document format %q", format)
	}
}

// Marshal returns the encoded document of mv.
func Marshal(mv *mapview.MapView, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, mv, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeYAML goes through JSON so that the GeoJSON payloads keep their
// RFC 7946 shape; the node tree preserves key order.
func encodeYAML(w io.Writer, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode map document: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("failed to convert map document to YAML: %w", err)
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("failed to encode map document: %w", err)
	}
	return enc.Close()
}

// blockStyle switches flow collections to block style, except for coordinate
// arrays (sequences of scalars) which stay on one line.
func blockStyle(n *yaml.Node) {
	switch n.Kind {
	case yaml.SequenceNode:
		if scalarsOnly(n) {
			n.Style = yaml.FlowStyle
			return
		}
		n.Style = 0
	case yaml.MappingNode:
		n.Style = 0
	case yaml.ScalarNode:
		if n.Style == yaml.DoubleQuotedStyle && n.Tag == "!!str" {
			n.Style = 0
		}
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func scalarsOnly(n *yaml.Node) bool {
	for _, c := range n.Content {
		if c.Kind != yaml.ScalarNode {
			return false
		}
	}
	return len(n.Content) > 0
}
