package normalize

import (
	"math/rand"
	"testing"

	domsvc "BrentCast/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func synthetic(n int) []float64 {
	r := rand.New(rand.NewSource(42))
	out := make([]float64, n)
	for i := range out {
		out[i] = 20 + r.Float64()*110
	}
	return out
}

func TestMinMaxScaler_RoundTrip(t *testing.T) {
	data := synthetic(500)
	s := NewMinMaxScaler(0, 1)
	require.NoError(t, s.Fit(data))

	norm, err := s.Forward(data)
	require.NoError(t, err)
	for _, v := range norm {
		assert.GreaterOrEqual(t, v, -1e-12)
		assert.LessOrEqual(t, v, 1+1e-12)
	}
	back, err := s.Inverse(norm)
	require.NoError(t, err)
	assert.InDeltaSlice(t, data, back, 1e-6)
}

func TestMinMaxScaler_MatchesReferenceValues(t *testing.T) {
	s := NewMinMaxScaler(0, 1)
	require.NoError(t, s.Fit([]float64{10, 20, 30}))
	got, err := s.Forward([]float64{10, 15, 30, 40})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.25, 1, 1.5}, got, 1e-12)
}

func TestMinMaxScaler_ConstantColumn(t *testing.T) {
	s := NewMinMaxScaler(0, 1)
	require.NoError(t, s.Fit([]float64{5, 5, 5}))
	got, err := s.Forward([]float64{5, 6})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, got)
}

func TestStandardScaler_RoundTrip(t *testing.T) {
	data := synthetic(300)
	s := &StandardScaler{}
	require.NoError(t, s.Fit(data))
	norm, err := s.Forward(data)
	require.NoError(t, err)
	back, err := s.Inverse(norm)
	require.NoError(t, err)
	assert.InDeltaSlice(t, data, back, 1e-6)
}

func TestNotFitted(t *testing.T) {
	for name, tr := range map[string]domsvc.Transform{
		"minmax":   NewMinMaxScaler(0, 1),
		"standard": &StandardScaler{},
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, tr.Fitted())
			_, err := tr.Forward([]float64{1})
			assert.ErrorIs(t, err, domsvc.ErrNotFitted)
			_, err = tr.Inverse([]float64{1})
			assert.ErrorIs(t, err, domsvc.ErrNotFitted)

			var nf *domsvc.NotFittedError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, name, nf.Transform)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestFromParams(t *testing.T) {
	orig := NewMinMaxScaler(-1, 1)
	require.NoError(t, orig.Fit([]float64{18.5, 139.1, 60}))

	tr, err := FromParams(orig.Params())
	require.NoError(t, err)
	x := []float64{18.5, 75, 139.1}
	a, _ := orig.Forward(x)
	b, err := tr.Forward(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, a, b, 1e-12)

	std := &StandardScaler{}
	require.NoError(t, std.Fit([]float64{1, 2, 3, 4}))
	tr, err = FromParams(std.Params())
	require.NoError(t, err)
	assert.True(t, tr.Fitted())

	tr, err = FromParams(Params{Kind: KindIdentity})
	require.NoError(t, err)
	got, _ := tr.Forward([]float64{3})
	assert.Equal(t, []float64{3}, got)

	_, err = FromParams(Params{Kind: "robust"})
	assert.Error(t, err)
	_, err = FromParams(Params{Kind: KindMinMax, FeatureRange: [2]float64{1, 0}})
	assert.Error(t, err)
}
