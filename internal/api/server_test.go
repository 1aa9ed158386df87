package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lexroom/statext/internal/config"
	"github.com/lexroom/statext/internal/pipeline"
)

const testKey = "test-api-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{StatextAPIKey: testKey}
	return NewServer(nil, log, cfg)
}

func authedRequest(method, path string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health body = %s", rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("POST", "/api/tokenize", strings.NewReader(`{}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing auth: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/tokenize", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer wrong-key")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad key: status = %d, want 401", rec.Code)
	}
}

func TestTokenizeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(map[string]string{
		"text": "1. First rule.\n(a) A condition.\n2. Second rule.",
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("POST", "/api/tokenize", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res struct {
		TokenizedText string            `json:"tokenized_text"`
		Elements      []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Elements) != 2 {
		t.Errorf("top-level elements = %d, want 2", len(res.Elements))
	}
	if !strings.Contains(res.TokenizedText, "{{SUBSECTION_1}}") {
		t.Errorf("tokenized text missing subsection token: %q", res.TokenizedText)
	}
}

func TestTokenizeRequiresText(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("POST", "/api/tokenize", []byte(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestExpandRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	input := "1. First rule.\n(a) A condition.\n2. Second rule."

	body, _ := json.Marshal(map[string]string{"text": input})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("POST", "/api/tokenize", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("tokenize status = %d", rec.Code)
	}

	// Feed the tokenize response straight back into expand.
	rec2 := httptest.NewRecorder()
	srv.ServeHTTP(rec2, authedRequest("POST", "/api/expand", rec.Body.Bytes()))
	if rec2.Code != http.StatusOK {
		t.Fatalf("expand status = %d, body = %s", rec2.Code, rec2.Body.String())
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(rec2.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Text != input {
		t.Errorf("round trip mismatch:\ngot  %q\nwant %q", out.Text, input)
	}
}

func TestExpandDanglingToken(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(map[string]any{
		"tokenized_text": "intro\n{{PARAGRAPH_a}}\noutro",
		"elements":       []any{},
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("POST", "/api/expand", body))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body = %s", rec.Code, rec.Body.String())
	}
}

func TestIngestLifecycle(t *testing.T) {
	// Workers never start, so the job stays queued; that is enough to
	// exercise submit and status.
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{StatextAPIKey: testKey, MaxQueueSize: 4, JobTTL: time.Hour}
	orch := pipeline.NewOrchestrator(cfg, nil, nil, nil, log)
	srv := NewServer(orch, log, cfg)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("POST", "/api/ingest", []byte(`{"law_id":"ABC"}`)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("ingest status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.JobID == "" {
		t.Fatal("no job id returned")
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("GET", "/api/ingest/"+res.JobID+"/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"queued"`) {
		t.Errorf("status body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("GET", "/api/ingest/01NOPE/status", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown job status = %d, want 404", rec.Code)
	}
}

func TestIngestRequiresLawID(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("POST", "/api/ingest", []byte(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
