package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelab/go-book-pipeline/config"
	"github.com/pricelab/go-book-pipeline/generator"
	"github.com/pricelab/go-book-pipeline/ml"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Trees = 10
	cfg.MaxDepth = 8
	cfg.Seed = 42

	books := generator.New(cfg.Seed).Dataset(200)
	artifact, err := ml.NewTrainer(cfg).Train(books)
	require.NoError(t, err)

	s, err := New(cfg, artifact, books)
	require.NoError(t, err)
	return s
}

func TestIndexRendersForm(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<form")
	assert.Contains(t, body, s.model.RunID)
	for _, category := range s.model.Categories() {
		assert.Contains(t, body, category)
	}
}

func TestPredictJSON(t *testing.T) {
	s := newTestServer(t)
	category := s.model.Categories()[0]

	payload := `{"category":"` + category + `","rating":4,"availability":10,"description_words":14}`
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PredictionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Greater(t, resp.PredictedPrice, 0.0)
	assert.Equal(t, s.model.RunID, resp.ModelRunID)
}

func TestPredictJSONValidation(t *testing.T) {
	s := newTestServer(t)
	category := s.model.Categories()[0]

	tests := []struct {
		name    string
		payload string
		wantMsg string
	}{
		{name: "missing category", payload: `{"rating":4,"availability":10}`, wantMsg: "category is required"},
		{name: "rating too high", payload: `{"category":"` + category + `","rating":9,"availability":10}`, wantMsg: "rating must be at most 5"},
		{name: "availability zero", payload: `{"category":"` + category + `","rating":4,"availability":0}`, wantMsg: "availability is required"},
		{name: "malformed body", payload: `{"rating":`, wantMsg: "invalid request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(tt.payload))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp["error"], tt.wantMsg)
		})
	}
}

func TestPredictForm(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{
		"category":          {s.model.Categories()[0]},
		"rating":            {"4"},
		"availability":      {"10"},
		"description_words": {"14"},
	}
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Predicted price")
}

func TestPredictFormInvalid(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{
		"category":     {s.model.Categories()[0]},
		"rating":       {"not-a-number"},
		"availability": {"10"},
	}
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request")
}

func TestDataExplorer(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Dataset Explorer")
	assert.Contains(t, body, "200")
}

func TestDataExplorerWithoutDataset(t *testing.T) {
	s := newTestServer(t)
	s.books = nil

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, s.model.RunID, resp["model_run_id"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	payload := `{"category":"` + s.model.Categories()[0] + `","rating":3,"availability":5}`
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	s.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "server_predictions_total")
}
