package inference

import (
	"context"
	"fmt"
	"time"

	"BrentCast/internal/domain/models"
	domsvc "BrentCast/internal/domain/service"
)

// RemoteModel delegates Predict to an external inference service.
type RemoteModel struct {
	name     string
	base     *httpServiceBase
	attempts int
}

// NewRemoteModel targets POST {baseURL}/predict for the named model.
func NewRemoteModel(name, baseURL string, timeout time.Duration, attempts int) *RemoteModel {
	if attempts <= 0 {
		attempts = 1
	}
	return &RemoteModel{name: name, base: newHTTPServiceBase(baseURL, timeout), attempts: attempts}
}

type predictReq struct {
	Model string    `json:"model"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

type predictResp struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func (m *RemoteModel) Predict(ctx context.Context, input models.Tensor) (models.Tensor, error) {
	var pr predictResp
	req := predictReq{Model: m.name, Shape: input.Shape, Data: input.Data}
	if err := m.base.postJSONWithRetry(ctx, "/predict", req, &pr, m.attempts); err != nil {
		return models.Tensor{}, fmt.Errorf("remote predict %s: %w", m.name, err)
	}
	if pr.Shape == nil {
		// a bare list is treated as a vector
		pr.Shape = []int{len(pr.Data)}
	}
	out, err := models.NewTensor(pr.Data, pr.Shape...)
	if err != nil {
		return models.Tensor{}, fmt.Errorf("remote predict %s: %w", m.name, err)
	}
	return out, nil
}

var _ domsvc.Model = (*RemoteModel)(nil)
