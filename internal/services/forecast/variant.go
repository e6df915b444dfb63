package forecast

import (
	"fmt"

	"BrentCast/internal/domain/models"
	domsvc "BrentCast/internal/domain/service"
)

const (
	VariantFlat      = "flat"
	VariantSequenced = "sequenced"
)

// Variant adapts the flat working window to the input shape a model family
// expects, and unwraps that family's output back to one scalar.
type Variant interface {
	Name() string
	Adapt(window []float64) (models.Tensor, error)
	Extract(out models.Tensor) (float64, error)
}

// Flat is the tree-ensemble convention: a 1-D vector in, one scalar out.
// A zero Lookback accepts any window length.
type Flat struct {
	Lookback int
}

func (Flat) Name() string { return VariantFlat }

func (v Flat) Adapt(window []float64) (models.Tensor, error) {
	if v.Lookback > 0 && len(window) != v.Lookback {
		return models.Tensor{}, &domsvc.ShapeMismatchError{Where: "flat input", Want: []int{v.Lookback}, Got: []int{len(window)}}
	}
	return models.NewTensor(window, len(window))
}

func (Flat) Extract(out models.Tensor) (float64, error) {
	if out.Rank() > 1 || len(out.Data) != 1 || out.Size() != 1 {
		return 0, &domsvc.ShapeMismatchError{Where: "flat output", Want: []int{1}, Got: out.Shape}
	}
	return out.Data[0], nil
}

// Sequenced is the recurrent convention: a (1, lookback, 1) tensor in, and an
// output that may be nested any number of unit dimensions deep.
type Sequenced struct {
	Lookback int
}

func (Sequenced) Name() string { return VariantSequenced }

func (v Sequenced) Adapt(window []float64) (models.Tensor, error) {
	if v.Lookback > 0 && len(window) != v.Lookback {
		return models.Tensor{}, &domsvc.ShapeMismatchError{Where: "sequenced input", Want: []int{1, v.Lookback, 1}, Got: []int{1, len(window), 1}}
	}
	return models.NewTensor(window, 1, len(window), 1)
}

func (Sequenced) Extract(out models.Tensor) (float64, error) {
	for _, d := range out.Shape {
		if d != 1 {
			return 0, &domsvc.ShapeMismatchError{Where: "sequenced output", Want: []int{1, 1}, Got: out.Shape}
		}
	}
	if len(out.Data) != 1 {
		return 0, &domsvc.ShapeMismatchError{Where: "sequenced output", Want: []int{1, 1}, Got: []int{len(out.Data)}}
	}
	return out.Data[0], nil
}

// ParseVariant returns the strategy registered under name.
func ParseVariant(name string, lookback int) (Variant, error) {
	switch name {
	case VariantFlat:
		return Flat{Lookback: lookback}, nil
	case VariantSequenced:
		return Sequenced{Lookback: lookback}, nil
	default:
		return nil, fmt.Errorf("unknown model variant %q", name)
	}
}
