package normalize

import (
	"errors"
	"fmt"
	"math"

	domsvc "BrentCast/internal/domain/service"
)

const (
	KindMinMax   = "minmax"
	KindStandard = "standard"
	KindIdentity = "identity"
)

// Params is the persisted form of a fitted scalar transform.
type Params struct {
	Kind         string     `json:"kind" msgpack:"kind"`
	FeatureRange [2]float64 `json:"feature_range,omitempty" msgpack:"feature_range,omitempty"`
	DataMin      float64    `json:"data_min,omitempty" msgpack:"data_min,omitempty"`
	DataMax      float64    `json:"data_max,omitempty" msgpack:"data_max,omitempty"`
	Mean         float64    `json:"mean,omitempty" msgpack:"mean,omitempty"`
	Scale        float64    `json:"scale,omitempty" msgpack:"scale,omitempty"`
}

// FromParams rebuilds a fitted transform from its persisted parameters.
func FromParams(p Params) (domsvc.Transform, error) {
	switch p.Kind {
	case KindMinMax:
		lo, hi := p.FeatureRange[0], p.FeatureRange[1]
		if lo == 0 && hi == 0 {
			hi = 1
		}
		if lo >= hi {
			return nil, fmt.Errorf("minmax: invalid feature range [%v, %v]", lo, hi)
		}
		if p.DataMax < p.DataMin {
			return nil, fmt.Errorf("minmax: data_max %v below data_min %v", p.DataMax, p.DataMin)
		}
		s := NewMinMaxScaler(lo, hi)
		s.setRange(p.DataMin, p.DataMax)
		return s, nil
	case KindStandard:
		if p.Scale == 0 {
			p.Scale = 1
		}
		s := &StandardScaler{}
		s.mean, s.scale, s.fitted = p.Mean, p.Scale, true
		return s, nil
	case KindIdentity:
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("unknown transform kind %q", p.Kind)
	}
}

// MinMaxScaler maps [data_min, data_max] onto a feature range, matching
// scikit-learn's MinMaxScaler on a single column.
type MinMaxScaler struct {
	lo, hi float64
	scale  float64
	offset float64
	dmin   float64
	dmax   float64
	fitted bool
}

// NewMinMaxScaler returns an unfitted scaler for the range [lo, hi].
func NewMinMaxScaler(lo, hi float64) *MinMaxScaler {
	return &MinMaxScaler{lo: lo, hi: hi}
}

// Fit learns data_min and data_max from values.
func (s *MinMaxScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return errors.New("minmax: cannot fit on empty input")
	}
	dmin, dmax := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		dmin = math.Min(dmin, v)
		dmax = math.Max(dmax, v)
	}
	if math.IsInf(dmin, 1) {
		return errors.New("minmax: no finite values to fit")
	}
	s.setRange(dmin, dmax)
	return nil
}

func (s *MinMaxScaler) setRange(dmin, dmax float64) {
	span := dmax - dmin
	// a constant column would divide by zero
	if span == 0 {
		span = 1
	}
	s.dmin, s.dmax = dmin, dmax
	s.scale = (s.hi - s.lo) / span
	s.offset = s.lo - dmin*s.scale
	s.fitted = true
}

func (s *MinMaxScaler) Fitted() bool { return s != nil && s.fitted }

func (s *MinMaxScaler) Forward(raw []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, &domsvc.NotFittedError{Transform: KindMinMax}
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = v*s.scale + s.offset
	}
	return out, nil
}

func (s *MinMaxScaler) Inverse(normalized []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, &domsvc.NotFittedError{Transform: KindMinMax}
	}
	out := make([]float64, len(normalized))
	for i, v := range normalized {
		out[i] = (v - s.offset) / s.scale
	}
	return out, nil
}

// Params returns the persisted form.
func (s *MinMaxScaler) Params() Params {
	return Params{Kind: KindMinMax, FeatureRange: [2]float64{s.lo, s.hi}, DataMin: s.dmin, DataMax: s.dmax}
}

// StandardScaler centers on the mean and divides by the standard deviation.
type StandardScaler struct {
	mean   float64
	scale  float64
	fitted bool
}

func (s *StandardScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return errors.New("standard: cannot fit on empty input")
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	scale := math.Sqrt(ss / float64(len(values)))
	if scale == 0 {
		scale = 1
	}
	s.mean, s.scale, s.fitted = mean, scale, true
	return nil
}

func (s *StandardScaler) Fitted() bool { return s != nil && s.fitted }

func (s *StandardScaler) Forward(raw []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, &domsvc.NotFittedError{Transform: KindStandard}
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = (v - s.mean) / s.scale
	}
	return out, nil
}

func (s *StandardScaler) Inverse(normalized []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, &domsvc.NotFittedError{Transform: KindStandard}
	}
	out := make([]float64, len(normalized))
	for i, v := range normalized {
		out[i] = v*s.scale + s.mean
	}
	return out, nil
}

func (s *StandardScaler) Params() Params {
	return Params{Kind: KindStandard, Mean: s.mean, Scale: s.scale}
}

// Identity leaves values unchanged. It is always fitted.
type Identity struct{}

func (Identity) Fitted() bool { return true }

func (Identity) Forward(raw []float64) ([]float64, error) {
	return append([]float64(nil), raw...), nil
}

func (Identity) Inverse(normalized []float64) ([]float64, error) {
	return append([]float64(nil), normalized...), nil
}

var (
	_ domsvc.Transform = (*MinMaxScaler)(nil)
	_ domsvc.Transform = (*StandardScaler)(nil)
	_ domsvc.Transform = Identity{}
)
