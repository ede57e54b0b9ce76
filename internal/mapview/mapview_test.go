package mapview

import (
	"context"
	"errors"
	"testing"

	"github.com/MeKo-Tech/peatrisk/internal/layer"
	"github.com/MeKo-Tech/peatrisk/internal/style"
	"github.com/MeKo-Tech/peatrisk/internal/types"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOverlays hands out a fresh FeatureSet per call, like a file loader would.
type fakeOverlays struct {
	calls []string
	fail  map[string]error
}

func (f *fakeOverlays) LoadOverlay(_ context.Context, name string) (*types.FeatureSet, error) {
	f.calls = append(f.calls, name)
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	return &types.FeatureSet{
		Name: name,
		SRID: types.SRIDWGS84,
		Features: []types.Feature{
			{ID: name + "-1", Geometry: orb.Point{112, -1}, Properties: map[string]interface{}{"name": name}},
		},
	}, nil
}

func square(minLon, minLat, size float64) orb.Polygon {
	return orb.Polygon{{
		{minLon, minLat},
		{minLon + size, minLat},
		{minLon + size, minLat + size},
		{minLon, minLat + size},
		{minLon, minLat},
	}}
}

func riskSet() *types.FeatureSet {
	return &types.FeatureSet{
		Name: "risk_peatlands",
		SRID: types.SRIDWGS84,
		Features: []types.Feature{
			{ID: "1", Geometry: square(100, 0, 2), Properties: map[string]interface{}{"area": 100.0, "risk": "low"}},
			{ID: "2", Geometry: square(110, -4, 2), Properties: map[string]interface{}{"area": 200.0, "risk": "high"}},
		},
	}
}

func TestBuildBaseOnly(t *testing.T) {
	b := NewBuilder(nil, nil, nil)

	v, err := b.Build(context.Background(), riskSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultZoom, v.Zoom)
	require.Len(t, v.Layers, 1)
	assert.Equal(t, layer.KindRisk, v.Layers[0].Kind)
	assert.Equal(t, layer.Legend(), v.Legend)

	// centroids (101,1) and (111,-3)
	assert.InDelta(t, 106.0, v.Center.Lon(), 1e-9)
	assert.InDelta(t, -1.0, v.Center.Lat(), 1e-9)
}

func TestBuildOverlayOrder(t *testing.T) {
	src := &fakeOverlays{}
	b := NewBuilder(nil, src, nil)

	v, err := b.Build(context.Background(), riskSet(), []string{"Ports", "Pipelines", "Ports", "LNG"})
	require.NoError(t, err)

	require.Len(t, v.Layers, 4)
	assert.Equal(t, layer.RiskLayerName, v.Layers[0].Name)
	assert.Equal(t, []string{"Ports", "Pipelines", "LNG"}, v.OverlayNames())
	assert.Equal(t, []string{"Ports", "Pipelines", "LNG"}, src.calls)

	for _, l := range v.Layers[1:] {
		assert.Equal(t, style.Overlay(), l.Uniform)
		assert.Nil(t, l.Tooltip)
	}
}

func TestBuildIdempotent(t *testing.T) {
	b := NewBuilder(nil, &fakeOverlays{}, nil)
	risk := riskSet()
	selected := []string{"Pipelines", "Ports"}

	first, err := b.Build(context.Background(), risk, selected)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), risk, selected)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildDeselectMatchesFreshBuild(t *testing.T) {
	b := NewBuilder(nil, &fakeOverlays{}, nil)
	risk := riskSet()

	both, err := b.Build(context.Background(), risk, []string{"Pipelines", "Ports"})
	require.NoError(t, err)
	require.Len(t, both.Layers, 3)

	afterDeselect, err := b.Build(context.Background(), risk, []string{"Ports"})
	require.NoError(t, err)

	fresh, err := NewBuilder(nil, &fakeOverlays{}, nil).Build(context.Background(), risk, []string{"Ports"})
	require.NoError(t, err)

	assert.Equal(t, fresh, afterDeselect)
	// the Ports layer is unaffected by Pipelines having been present
	assert.Equal(t, both.Layers[2], afterDeselect.Layers[1])
}

func TestBuildOverlayError(t *testing.T) {
	boom := errors.New("file not found")
	b := NewBuilder(nil, &fakeOverlays{fail: map[string]error{"Ports": boom}}, nil)

	_, err := b.Build(context.Background(), riskSet(), []string{"Pipelines", "Ports"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `overlay "Ports"`)
}

func TestBuildNoOverlaySource(t *testing.T) {
	b := NewBuilder(nil, nil, nil)
	_, err := b.Build(context.Background(), riskSet(), []string{"Ports"})
	require.Error(t, err)
}

func TestBuildNotRiskDataset(t *testing.T) {
	b := NewBuilder(nil, nil, nil)
	fs := &types.FeatureSet{Name: "Basins", Features: []types.Feature{
		{Geometry: square(0, 0, 1), Properties: map[string]interface{}{"name": "x"}},
	}}

	_, err := b.Build(context.Background(), fs, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInput)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(nil, &fakeOverlays{}, nil).Build(ctx, riskSet(), []string{"Ports"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCenter(t *testing.T) {
	assert.Equal(t, orb.Point{}, Center(nil))
	assert.Equal(t, orb.Point{}, Center(&types.FeatureSet{}))

	fs := &types.FeatureSet{Features: []types.Feature{
		{Geometry: square(0, 0, 2)},
		{Geometry: nil},
		{Geometry: orb.Point{10, 10}},
	}}
	c := Center(fs)
	assert.InDelta(t, 5.5, c.Lon(), 1e-9)
	assert.InDelta(t, 5.5, c.Lat(), 1e-9)
}

func TestCenterSkipsEmptyGeometries(t *testing.T) {
	fs := &types.FeatureSet{Features: []types.Feature{
		{Geometry: square(100, 10, 2)},
		{Geometry: orb.Polygon{}},
		{Geometry: orb.MultiPolygon{orb.Polygon{}}},
		{Geometry: orb.LineString{}},
		{Geometry: orb.Collection{}},
	}}
	c := Center(fs)
	assert.InDelta(t, 101.0, c.Lon(), 1e-9)
	assert.InDelta(t, 11.0, c.Lat(), 1e-9)

	onlyEmpty := &types.FeatureSet{Features: []types.Feature{{Geometry: orb.Polygon{}}}}
	assert.Equal(t, orb.Point{}, Center(onlyEmpty))
}
