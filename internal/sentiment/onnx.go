//go:build cgo

package sentiment

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// Input and output names of the RoBERTa sequence-classification graph.
var (
	onnxInputNames  = []string{"input_ids", "attention_mask"}
	onnxOutputNames = []string{"logits"}
)

// Session.Run takes ArbitraryTensor values in the pinned binding
// version. These assertions catch an API drift at compile time.
var (
	_ ort.ArbitraryTensor = (*ort.Tensor[int64])(nil)
	_ ort.ArbitraryTensor = (*ort.Tensor[float32])(nil)
)

// ortInit guards process-global ONNX runtime environment initialization.
var ortInit struct {
	once sync.Once
	err  error
}

func ensureRuntime(libraryPath string) error {
	ortInit.once.Do(func() {
		if !ort.IsInitialized() {
			ort.SetSharedLibraryPath(libraryPath)
			ortInit.err = ort.InitializeEnvironment()
		}
	})
	return ortInit.err
}

// ONNXClassifier scores text with a local ONNX export of the pretrained
// RoBERTa sentiment model.
type ONNXClassifier struct {
	tk      *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
	metrics *Metrics
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewONNXClassifier loads the tokenizer and model from cfg.ModelDir.
//
// The model directory must contain tokenizer.json and model.onnx. Loading
// happens once here; callers treat an error as fatal and must not serve
// traffic without a classifier.
func NewONNXClassifier(cfg Config, metrics *Metrics, logger *zap.Logger) (*ONNXClassifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	libraryPath := cfg.LibraryPath
	if libraryPath == "" {
		libraryPath = RuntimeLibraryPath()
	}
	if libraryPath == "" {
		return nil, fmt.Errorf("%w: set ONNX_PATH or install to %s", ErrRuntimeUnavailable, managedInstallDir())
	}

	if err := ensureRuntime(libraryPath); err != nil {
		return nil, fmt.Errorf("%w: initializing environment: %v", ErrRuntimeUnavailable, err)
	}

	maxLength := cfg.MaxLength
	if maxLength == 0 {
		maxLength = 512
	}

	tokenizerPath := filepath.Join(cfg.ModelDir, "tokenizer.json")
	tk, err := pretrained.FromFile(tokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %s: %w", tokenizerPath, err)
	}
	tk.WithTruncation(&tokenizer.TruncationParams{
		MaxLength: maxLength,
		Strategy:  tokenizer.LongestFirst,
	})

	modelPath := filepath.Join(cfg.ModelDir, "model.onnx")
	session, err := ort.NewDynamicAdvancedSession(modelPath, onnxInputNames, onnxOutputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", modelPath, err)
	}

	logger.Info("sentiment model loaded",
		zap.String("model", ModelName),
		zap.String("model_dir", cfg.ModelDir),
		zap.Int("max_length", maxLength))

	return &ONNXClassifier{
		tk:      tk,
		session: session,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Classify tokenizes text, runs the forward pass and converts the three
// class logits into a Score.
func (c *ONNXClassifier) Classify(ctx context.Context, text string) (Score, error) {
	start := time.Now()
	score, err := c.classify(ctx, text)
	c.metrics.RecordClassification(time.Since(start), score, err)
	return score, err
}

func (c *ONNXClassifier) classify(ctx context.Context, text string) (Score, error) {
	if strings.TrimSpace(text) == "" {
		return Score{}, ErrEmptyInput
	}

	select {
	case <-ctx.Done():
		return Score{}, ctx.Err()
	default:
	}

	encoding, err := c.tk.EncodeSingle(text, true)
	if err != nil {
		return Score{}, fmt.Errorf("%w: tokenizing: %v", ErrInferenceFailed, err)
	}
	if len(encoding.Ids) == 0 {
		return Score{}, fmt.Errorf("%w: tokenizer produced no tokens", ErrInferenceFailed)
	}

	seqLen := len(encoding.Ids)
	inputIDs := make([]int64, seqLen)
	attentionMask := make([]int64, seqLen)
	for i, id := range encoding.Ids {
		inputIDs[i] = int64(id)
	}
	for i, m := range encoding.AttentionMask {
		attentionMask[i] = int64(m)
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputTensor, err := ort.NewTensor(inputShape, inputIDs)
	if err != nil {
		return Score{}, fmt.Errorf("%w: creating input tensor: %v", ErrInferenceFailed, err)
	}
	defer inputTensor.Destroy()

	maskTensor, err := ort.NewTensor(inputShape, attentionMask)
	if err != nil {
		return Score{}, fmt.Errorf("%w: creating mask tensor: %v", ErrInferenceFailed, err)
	}
	defer maskTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, numClasses))
	if err != nil {
		return Score{}, fmt.Errorf("%w: creating output tensor: %v", ErrInferenceFailed, err)
	}
	defer outputTensor.Destroy()

	c.mu.Lock()
	err = c.session.Run(
		[]ort.ArbitraryTensor{inputTensor, maskTensor},
		[]ort.ArbitraryTensor{outputTensor},
	)
	c.mu.Unlock()
	if err != nil {
		return Score{}, fmt.Errorf("%w: forward pass: %v", ErrInferenceFailed, err)
	}

	logits := outputTensor.GetData()
	if len(logits) != numClasses {
		return Score{}, fmt.Errorf("%w: expected %d logits, got %d", ErrInferenceFailed, numClasses, len(logits))
	}

	return scoreFromLogits(logits), nil
}

// Close releases the ONNX session. The process-global runtime environment
// stays initialized.
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		err := c.session.Destroy()
		c.session = nil
		return err
	}
	return nil
}
