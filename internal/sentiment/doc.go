// Package sentiment scores journal text with a pretrained 3-class
// sentiment classifier.
//
// The classifier produces a probability distribution over negative,
// neutral and positive, plus a composite mood score on a 1..5 scale
// derived by anchor weighting: negative maps to 1, neutral to 3,
// positive to 5, and mixed distributions blend linearly.
//
// The default implementation runs the ONNX export of
// cardiffnlp/twitter-roberta-base-sentiment locally via onnxruntime,
// tokenizing input with the model's HuggingFace tokenizer.json. The
// model is loaded once at startup; a load failure is fatal for the
// inference service.
package sentiment
