package forecast

import (
	"testing"

	"BrentCast/internal/domain/models"
	domsvc "BrentCast/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlat_AdaptAndExtract(t *testing.T) {
	v := Flat{Lookback: 3}
	in, err := v.Adapt([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, in.Shape)
	assert.Equal(t, []float64{1, 2, 3}, in.Data)

	_, err = v.Adapt([]float64{1, 2})
	assert.ErrorIs(t, err, domsvc.ErrShapeMismatch)

	for _, out := range []models.Tensor{models.Scalar(4), {Shape: []int{1}, Data: []float64{4}}} {
		got, err := v.Extract(out)
		require.NoError(t, err)
		assert.Equal(t, 4.0, got)
	}

	_, err = v.Extract(models.Tensor{Shape: []int{2}, Data: []float64{1, 2}})
	assert.ErrorIs(t, err, domsvc.ErrShapeMismatch)
}

func TestFlat_AdaptCopiesWindow(t *testing.T) {
	w := []float64{1, 2, 3}
	in, err := Flat{}.Adapt(w)
	require.NoError(t, err)
	w[0] = 99
	assert.Equal(t, 1.0, in.Data[0])
}

func TestSequenced_AdaptAndExtract(t *testing.T) {
	v := Sequenced{Lookback: 2}
	in, err := v.Adapt([]float64{0.1, 0.2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 1}, in.Shape)

	_, err = v.Adapt([]float64{0.1, 0.2, 0.3})
	assert.ErrorIs(t, err, domsvc.ErrShapeMismatch)

	nested := []models.Tensor{
		models.Scalar(7),
		{Shape: []int{1}, Data: []float64{7}},
		{Shape: []int{1, 1}, Data: []float64{7}},
		{Shape: []int{1, 1, 1}, Data: []float64{7}},
	}
	for _, out := range nested {
		got, err := v.Extract(out)
		require.NoError(t, err)
		assert.Equal(t, 7.0, got)
	}

	_, err = v.Extract(models.Tensor{Shape: []int{1, 2}, Data: []float64{1, 2}})
	assert.ErrorIs(t, err, domsvc.ErrShapeMismatch)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("flat", 11)
	require.NoError(t, err)
	assert.Equal(t, Flat{Lookback: 11}, v)

	v, err = ParseVariant("sequenced", 30)
	require.NoError(t, err)
	assert.Equal(t, Sequenced{Lookback: 30}, v)

	_, err = ParseVariant("transformer", 8)
	assert.Error(t, err)
}
