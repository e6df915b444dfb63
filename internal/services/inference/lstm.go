package inference

import (
	"context"
	"fmt"
	"math"

	"BrentCast/internal/domain/models"
	domsvc "BrentCast/internal/domain/service"
)

// LSTMArtifact holds one recurrent layer and a dense head in Keras weight layout.
// Kernel is [features][4*units], RecurrentKernel is [units][4*units], Bias is
// [4*units], each with gate blocks ordered input, forget, cell, output.
type LSTMArtifact struct {
	Units           int         `json:"units" msgpack:"units"`
	Features        int         `json:"features" msgpack:"features"`
	Timesteps       int         `json:"timesteps" msgpack:"timesteps"`
	Kernel          [][]float64 `json:"kernel" msgpack:"kernel"`
	RecurrentKernel [][]float64 `json:"recurrent_kernel" msgpack:"recurrent_kernel"`
	Bias            []float64   `json:"bias" msgpack:"bias"`
	DenseKernel     [][]float64 `json:"dense_kernel" msgpack:"dense_kernel"`
	DenseBias       []float64   `json:"dense_bias" msgpack:"dense_bias"`
}

// LSTM runs a single-layer LSTM over [batch, timesteps, features] and projects
// the last hidden state through the dense head to [batch, outputs].
type LSTM struct {
	a       LSTMArtifact
	outputs int
}

// NewLSTM validates the weight dimensions.
func NewLSTM(a LSTMArtifact) (*LSTM, error) {
	u, f := a.Units, a.Features
	if u <= 0 || f <= 0 {
		return nil, fmt.Errorf("lstm: units and features must be positive, got %d/%d", u, f)
	}
	if err := checkMatrix("kernel", a.Kernel, f, 4*u); err != nil {
		return nil, err
	}
	if err := checkMatrix("recurrent_kernel", a.RecurrentKernel, u, 4*u); err != nil {
		return nil, err
	}
	if len(a.Bias) != 4*u {
		return nil, fmt.Errorf("lstm: bias has %d values, want %d", len(a.Bias), 4*u)
	}
	outputs := len(a.DenseBias)
	if outputs == 0 {
		return nil, fmt.Errorf("lstm: dense head has no outputs")
	}
	if err := checkMatrix("dense_kernel", a.DenseKernel, u, outputs); err != nil {
		return nil, err
	}
	return &LSTM{a: a, outputs: outputs}, nil
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("lstm: %s has %d rows, want %d", name, len(m), rows)
	}
	for i, r := range m {
		if len(r) != cols {
			return fmt.Errorf("lstm: %s row %d has %d cols, want %d", name, i, len(r), cols)
		}
	}
	return nil
}

// Timesteps is the trained window length, or 0 when the artifact does not pin one.
func (m *LSTM) Timesteps() int { return m.a.Timesteps }

func (m *LSTM) Predict(ctx context.Context, input models.Tensor) (models.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return models.Tensor{}, err
	}
	want := []int{1, m.a.Timesteps, m.a.Features}
	if input.Rank() != 3 || input.Shape[2] != m.a.Features || input.Shape[0] < 1 || input.Shape[1] < 1 ||
		(m.a.Timesteps > 0 && input.Shape[1] != m.a.Timesteps) || len(input.Data) != input.Size() {
		return models.Tensor{}, &domsvc.ShapeMismatchError{Where: "lstm input", Want: want, Got: input.Shape}
	}
	batch, steps := input.Shape[0], input.Shape[1]
	out := make([]float64, 0, batch*m.outputs)
	stride := steps * m.a.Features
	for b := 0; b < batch; b++ {
		h := m.run(input.Data[b*stride:(b+1)*stride], steps)
		out = append(out, m.dense(h)...)
	}
	return models.Tensor{Shape: []int{batch, m.outputs}, Data: out}, nil
}

func (m *LSTM) run(seq []float64, steps int) []float64 {
	u, f := m.a.Units, m.a.Features
	h := make([]float64, u)
	c := make([]float64, u)
	z := make([]float64, 4*u)
	for t := 0; t < steps; t++ {
		x := seq[t*f : (t+1)*f]
		copy(z, m.a.Bias)
		for i, xi := range x {
			row := m.a.Kernel[i]
			for j := range z {
				z[j] += xi * row[j]
			}
		}
		for i, hi := range h {
			row := m.a.RecurrentKernel[i]
			for j := range z {
				z[j] += hi * row[j]
			}
		}
		for j := 0; j < u; j++ {
			ig := sigmoid(z[j])
			fg := sigmoid(z[u+j])
			cg := math.Tanh(z[2*u+j])
			og := sigmoid(z[3*u+j])
			c[j] = fg*c[j] + ig*cg
			h[j] = og * math.Tanh(c[j])
		}
	}
	return h
}

func (m *LSTM) dense(h []float64) []float64 {
	out := append([]float64(nil), m.a.DenseBias...)
	for i, hi := range h {
		for j := range out {
			out[j] += hi * m.a.DenseKernel[i][j]
		}
	}
	return out
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

var _ domsvc.Model = (*LSTM)(nil)
