package datasource

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/peatrisk/internal/types"
)

// ErrUnknownOverlay is returned when an overlay name is not in the catalog.
var ErrUnknownOverlay = errors.New("unknown overlay")

// DefaultOverlays are the GOGI oil & gas datasets clipped to the peatland extent.
var DefaultOverlays = []string{
	"Basins",
	"Fields",
	"LNG",
	"Pipelines",
	"Platforms_and_Well_Pads",
	"Ports",
	"Processing_Plants",
	"Railways",
	"Refineries",
	"Stations",
	"Storage",
}

// OverlayEntry maps a display name to a dataset file.
type OverlayEntry struct {
	Name string `mapstructure:"name" yaml:"name" json:"name"`
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// Catalog resolves overlay names to datasets and loads them on demand.
// It keeps no loaded data; every LoadOverlay call reads the file again.
type Catalog struct {
	source  *Source
	entries []OverlayEntry
	byName  map[string]string
}

// NewCatalog builds a catalog from explicit entries. Entries without a name
// are named after their file (see OverlayName).
func NewCatalog(source *Source, entries []OverlayEntry) (*Catalog, error) {
	if source == nil {
		source = NewSource(nil)
	}

	c := &Catalog{
		source: source,
		byName: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		if e.Path == "" {
			return nil, fmt.Errorf("overlay %q has no path", e.Name)
		}
		if e.Name == "" {
			e.Name = OverlayName(e.Path)
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate overlay name %q", e.Name)
		}
		c.byName[e.Name] = e.Path
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// DefaultCatalog lists DefaultOverlays as <dataDir>/og/<Name>_clipped.gpkg.
func DefaultCatalog(source *Source, dataDir string) *Catalog {
	entries := make([]OverlayEntry, 0, len(DefaultOverlays))
	for _, name := range DefaultOverlays {
		entries = append(entries, OverlayEntry{
			Name: name,
			Path: filepath.Join(dataDir, "og", name+"_clipped.gpkg"),
		})
	}
	c, err := NewCatalog(source, entries)
	if err != nil {
		// DefaultOverlays is a fixed list of unique names with paths
		panic(err)
	}
	return c
}

// OverlayName derives the display name of an overlay file: base name without
// extension and without the "_clipped" suffix.
func OverlayName(path string) string {
	return strings.TrimSuffix(DatasetName(path), "_clipped")
}

// Names returns the overlay names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the catalog entries.
func (c *Catalog) Entries() []OverlayEntry {
	return append([]OverlayEntry(nil), c.entries...)
}

// Has reports whether name is a known overlay.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// LoadOverlay loads the dataset behind an overlay name.
func (c *Catalog) LoadOverlay(ctx context.Context, name string) (*types.FeatureSet, error) {
	path, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownOverlay)
	}

	fs, err := c.source.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	fs.Name = name
	return fs, nil
}
