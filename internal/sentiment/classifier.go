package sentiment

import (
	"context"
	"errors"
	"fmt"
)

// ModelName identifies the pretrained classifier the service loads.
const ModelName = "cardiffnlp/twitter-roberta-base-sentiment"

// Number of sentiment classes the model predicts.
const numClasses = 3

var (
	// ErrEmptyInput indicates empty input text.
	ErrEmptyInput = errors.New("empty input text")

	// ErrInvalidConfig indicates invalid classifier configuration.
	ErrInvalidConfig = errors.New("invalid classifier configuration")

	// ErrInferenceFailed indicates a tokenization or forward-pass failure.
	ErrInferenceFailed = errors.New("sentiment inference failed")

	// ErrRuntimeUnavailable indicates the ONNX runtime library could not
	// be located or this build has no cgo support.
	ErrRuntimeUnavailable = errors.New("onnx runtime unavailable")
)

// Classifier scores the sentiment of a piece of text.
//
// Implementations must be safe for concurrent use; the loaded model is
// read-only after construction.
type Classifier interface {
	// Classify returns the sentiment distribution and composite score
	// for text. Empty text returns ErrEmptyInput.
	Classify(ctx context.Context, text string) (Score, error)

	// Close releases resources held by the classifier.
	Close() error
}

// Config holds configuration for the ONNX classifier.
type Config struct {
	// ModelDir contains model.onnx and tokenizer.json.
	ModelDir string

	// LibraryPath is the ONNX runtime shared library. When empty,
	// discovery falls back to ONNX_PATH and the managed install dir.
	LibraryPath string

	// MaxLength is the maximum input sequence length in tokens.
	// Longer inputs are truncated. Defaults to 512.
	MaxLength int
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.ModelDir == "" {
		return fmt.Errorf("%w: model dir required", ErrInvalidConfig)
	}
	if c.MaxLength < 0 {
		return fmt.Errorf("%w: max length cannot be negative", ErrInvalidConfig)
	}
	return nil
}
