//go:build !cgo

package sentiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ONNXClassifier requires cgo for the ONNX runtime bindings. This stub
// keeps non-cgo builds compiling; construction always fails.
type ONNXClassifier struct{}

// NewONNXClassifier returns ErrRuntimeUnavailable on builds without cgo.
func NewONNXClassifier(cfg Config, metrics *Metrics, logger *zap.Logger) (*ONNXClassifier, error) {
	_ = logger
	_ = metrics
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: binary built without cgo", ErrRuntimeUnavailable)
}

// Classify always fails on builds without cgo.
func (c *ONNXClassifier) Classify(ctx context.Context, text string) (Score, error) {
	return Score{}, fmt.Errorf("%w: binary built without cgo", ErrRuntimeUnavailable)
}

// Close is a no-op.
func (c *ONNXClassifier) Close() error {
	return nil
}
