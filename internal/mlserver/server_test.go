package mlserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/feelwritelabs/feelwrite/internal/sentiment"
	"github.com/feelwritelabs/feelwrite/internal/store"
)

// stubClassifier returns a fixed score or error without a model.
type stubClassifier struct {
	score sentiment.Score
	err   error
	calls int
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (sentiment.Score, error) {
	s.calls++
	if s.err != nil {
		return sentiment.Score{}, s.err
	}
	return s.score, nil
}

func (s *stubClassifier) Close() error { return nil }

// failingEntryStore wraps Memory and fails sentiment upserts.
type failingEntryStore struct {
	*store.Memory
}

func (f *failingEntryStore) UpsertSentiment(ctx context.Context, id primitive.ObjectID, score sentiment.Score) error {
	return errors.New("write failed")
}

func positiveScore() sentiment.Score {
	return sentiment.Score{Negative: 0.01, Neutral: 0.15, Positive: 0.84, Composite: 4.66}
}

func setupServer(t *testing.T, classifier sentiment.Classifier, entries store.EntryStore) *Server {
	t.Helper()
	srv, err := NewServer(classifier, entries, zap.NewNop(), nil)
	require.NoError(t, err)
	return srv
}

func postAnalyze(t *testing.T, srv *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	t.Run("requires classifier", func(t *testing.T) {
		_, err := NewServer(nil, store.NewMemory(), zap.NewNop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "classifier")
	})

	t.Run("requires entry store", func(t *testing.T) {
		_, err := NewServer(&stubClassifier{}, nil, zap.NewNop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "entry store")
	})

	t.Run("requires logger", func(t *testing.T) {
		_, err := NewServer(&stubClassifier{}, store.NewMemory(), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger")
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		srv := setupServer(t, &stubClassifier{}, store.NewMemory())
		assert.Equal(t, "localhost", srv.config.Host)
		assert.Equal(t, 5001, srv.config.Port)
	})
}

func TestMetricsServeConfiguredRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv, err := NewServer(&stubClassifier{}, store.NewMemory(), zap.NewNop(), &Config{Registerer: reg})
	require.NoError(t, err)

	// A request first, so the middleware has something to record.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.echo.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "feelwrite_http_requests_total")
}

func TestHandleHealth(t *testing.T) {
	srv := setupServer(t, &stubClassifier{}, store.NewMemory())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, sentiment.ModelName, resp.Model)
}

func TestHandleAnalyzeValidation(t *testing.T) {
	classifier := &stubClassifier{score: positiveScore()}
	srv := setupServer(t, classifier, store.NewMemory())

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "empty body", body: map[string]string{}},
		{name: "missing text", body: map[string]string{"entry_id": primitive.NewObjectID().Hex()}},
		{name: "missing entry_id", body: map[string]string{"text": "hello"}},
		{name: "empty values", body: map[string]string{"entry_id": "", "text": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postAnalyze(t, srv, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "entry_id and text are required", resp.Error)
		})
	}

	// No side effects: the classifier was never invoked.
	assert.Zero(t, classifier.calls)
}

func TestHandleAnalyzeInvalidEntryID(t *testing.T) {
	classifier := &stubClassifier{score: positiveScore()}
	srv := setupServer(t, classifier, store.NewMemory())

	rec := postAnalyze(t, srv, map[string]string{"entry_id": "not-hex", "text": "hello"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, classifier.calls)
}

func TestHandleAnalyzeSuccess(t *testing.T) {
	entries := store.NewMemory()
	entry := &store.Entry{UserID: primitive.NewObjectID(), Text: "I love this app!"}
	require.NoError(t, entries.CreateEntry(context.Background(), entry))

	srv := setupServer(t, &stubClassifier{score: positiveScore()}, entries)

	rec := postAnalyze(t, srv, map[string]string{
		"entry_id": entry.ID.Hex(),
		"text":     entry.Text,
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "updated", resp.Status)
	assert.Equal(t, entry.ID.Hex(), resp.EntryID)
	require.NotNil(t, resp.Sentiment)
	assert.Equal(t, 4.66, resp.Sentiment.Composite)

	// The sentiment landed on the stored entry.
	stored, err := entries.EntryByID(context.Background(), entry.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Sentiment)
	assert.Equal(t, positiveScore(), *stored.Sentiment)
}

func TestHandleAnalyzeOverwrites(t *testing.T) {
	entries := store.NewMemory()
	entry := &store.Entry{UserID: primitive.NewObjectID(), Text: "mixed feelings"}
	require.NoError(t, entries.CreateEntry(context.Background(), entry))

	classifier := &stubClassifier{score: positiveScore()}
	srv := setupServer(t, classifier, entries)

	rec := postAnalyze(t, srv, map[string]string{"entry_id": entry.ID.Hex(), "text": entry.Text})
	require.Equal(t, http.StatusOK, rec.Code)

	// Second call with a different score replaces the first.
	classifier.score = sentiment.Score{Negative: 0.7, Neutral: 0.2, Positive: 0.1, Composite: 1.8}
	rec = postAnalyze(t, srv, map[string]string{"entry_id": entry.ID.Hex(), "text": entry.Text})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := entries.EntryByID(context.Background(), entry.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Sentiment)
	assert.Equal(t, 1.8, stored.Sentiment.Composite)
}

func TestHandleAnalyzeClassifierFailure(t *testing.T) {
	entries := store.NewMemory()
	entry := &store.Entry{UserID: primitive.NewObjectID(), Text: "text"}
	require.NoError(t, entries.CreateEntry(context.Background(), entry))

	srv := setupServer(t, &stubClassifier{err: sentiment.ErrInferenceFailed}, entries)

	rec := postAnalyze(t, srv, map[string]string{"entry_id": entry.ID.Hex(), "text": "text"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sentiment scoring unavailable", resp.Error)

	// The entry stays unscored.
	stored, err := entries.EntryByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Sentiment)
}

func TestHandleAnalyzeStorageFailure(t *testing.T) {
	srv := setupServer(t, &stubClassifier{score: positiveScore()}, &failingEntryStore{store.NewMemory()})

	rec := postAnalyze(t, srv, map[string]string{
		"entry_id": primitive.NewObjectID().Hex(),
		"text":     "text",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed to store sentiment", resp.Error)
}
