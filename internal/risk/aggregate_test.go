package risk

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/MeKo-Tech/peatrisk/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feature(area interface{}, risk interface{}) types.Feature {
	return types.Feature{Properties: map[string]interface{}{"area": area, "risk": risk}}
}

func set(features ...types.Feature) *types.FeatureSet {
	return &types.FeatureSet{Name: "peat", SRID: types.SRIDWGS84, Features: features}
}

func TestSummarizeScenarios(t *testing.T) {
	tests := []struct {
		name string
		fs   *types.FeatureSet
		want Summary
	}{
		{
			name: "low and high",
			fs:   set(feature(100.0, "low"), feature(200.0, "high")),
			want: Summary{Low: 100.0 / 3, Medium: 0, High: 200.0 / 3},
		},
		{
			name: "malformed area counts as zero",
			fs:   set(feature("bad", "medium"), feature(50.0, "medium")),
			want: Summary{Medium: 100},
		},
		{
			name: "numeric strings are parsed",
			fs:   set(feature("25", "low"), feature("75", "high")),
			want: Summary{Low: 25, High: 75},
		},
		{
			name: "empty set",
			fs:   set(),
			want: Summary{},
		},
		{
			name: "all areas missing",
			fs:   set(feature(nil, "low"), feature("n/a", "high")),
			want: Summary{},
		},
		{
			name: "all areas non-positive",
			fs:   set(feature(0.0, "low"), feature(-10.0, "high")),
			want: Summary{},
		},
		{
			name: "unknown label dilutes the total",
			fs:   set(feature(50.0, "low"), feature(50.0, "extreme")),
			want: Summary{Low: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summarize(tt.fs)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Low, got.Low, 1e-9)
			assert.InDelta(t, tt.want.Medium, got.Medium, 1e-9)
			assert.InDelta(t, tt.want.High, got.High, 1e-9)
		})
	}
}

func TestSummarizeSumsToHundred(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	labels := []string{"low", "medium", "high"}

	for i := 0; i < 50; i++ {
		var features []types.Feature
		for j := 0; j < 1+rng.Intn(40); j++ {
			features = append(features, feature(rng.Float64()*1000+0.01, labels[rng.Intn(3)]))
		}

		got, err := Summarize(set(features...))
		require.NoError(t, err)
		assert.InDelta(t, 100.0, got.Total(), 1e-9)
		for _, p := range []float64{got.Low, got.Medium, got.High} {
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 100.0)
		}
	}
}

func TestSummarizeOrderIndependent(t *testing.T) {
	features := []types.Feature{
		feature(10.0, "low"),
		feature(20.0, "medium"),
		feature(30.0, "high"),
		feature("bad", "low"),
		feature(40.0, "high"),
	}
	reversed := make([]types.Feature, len(features))
	for i, f := range features {
		reversed[len(features)-1-i] = f
	}

	a, err := Summarize(set(features...))
	require.NoError(t, err)
	b, err := Summarize(set(reversed...))
	require.NoError(t, err)

	assert.InDelta(t, a.Low, b.Low, 1e-9)
	assert.InDelta(t, a.Medium, b.Medium, 1e-9)
	assert.InDelta(t, a.High, b.High, 1e-9)

	again, err := Summarize(set(features...))
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestSummarizeMissingAttributes(t *testing.T) {
	noRisk := set(types.Feature{Properties: map[string]interface{}{"area": 10.0}})
	_, err := Summarize(noRisk)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInput))

	noArea := set(types.Feature{Properties: map[string]interface{}{"risk": "low"}})
	_, err = Summarize(noArea)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInput))

	// one feature carrying the attribute is enough
	partial := set(
		types.Feature{Properties: map[string]interface{}{"area": 10.0}},
		feature(nil, "low"),
	)
	_, err = Summarize(partial)
	assert.NoError(t, err)
}

func TestAggregatorCustomFields(t *testing.T) {
	fs := set(
		types.Feature{Properties: map[string]interface{}{"area_2": 30.0, "area": 999.0, "risk": "medium"}},
		types.Feature{Properties: map[string]interface{}{"area_2": 10.0, "area": 1.0, "risk": "low"}},
	)

	got, err := (&Aggregator{AreaField: "area_2"}).Summarize(fs)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, got.Low, 1e-9)
	assert.InDelta(t, 75.0, got.Medium, 1e-9)
	assert.Equal(t, 0.0, got.High)
}

func TestSlices(t *testing.T) {
	s := Summary{Low: 10, Medium: 30, High: 60}
	slices := s.Slices()

	require.Len(t, slices, 3)
	assert.Equal(t, Slice{Label: "Low Risk", Percent: 10, Color: "#440154"}, slices[0])
	assert.Equal(t, Slice{Label: "Medium Risk", Percent: 30, Color: "#21908d"}, slices[1])
	assert.Equal(t, Slice{Label: "High Risk", Percent: 60, Color: "#fde725"}, slices[2])
}

func TestFormat(t *testing.T) {
	s := Summary{Low: 100.0 / 3, High: 200.0 / 3}
	assert.Equal(t, "Low Risk: 33.3%, Medium Risk: 0.0%, High Risk: 66.7%", s.Format())
	assert.Equal(t, 100.0/3, s.Low)
}
