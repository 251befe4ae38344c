package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"crisiswatch/internal/alerting"
	"crisiswatch/internal/config"
	"crisiswatch/internal/ensemble"
	"crisiswatch/pkg/logger"
	"crisiswatch/pkg/metrics"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := testConfig()
	store := config.NewStore(cfg)
	reg := metrics.New()
	log := logger.NewLogger()
	engine := ensemble.New(log, reg)
	alerter := alerting.New(cfg.Alerter, log, reg)
	return NewServer(store, engine, alerter, log, reg)
}

func testConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestAnalyzeHandler_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rr := httptest.NewRecorder()
	s.handleAnalyze(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for wrong method, got %d", rr.Code)
	}
}

func TestAnalyzeHandler_InvalidJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()
	s.handleAnalyze(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", rr.Code)
	}
}

func TestAnalyzeHandler_EmptyMessageRejected(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"message": "   "})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	s.handleAnalyze(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty message, got %d", rr.Code)
	}
}

func TestAnalyzeHandler_Success(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"message": "I feel like giving up on everything tonight",
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	s.handleAnalyze(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if _, ok := resp["crisis_score"]; !ok {
		t.Error("expected crisis_score in response")
	}
}

func TestContextConfigHandlers_GetThenPut(t *testing.T) {
	s := newTestServer(t)

	getReq := httptest.NewRequest(http.MethodGet, "/config/context", nil)
	getRR := httptest.NewRecorder()
	s.handleGetContextConfig(getRR, getReq)
	if getRR.Code != http.StatusOK {
		t.Fatalf("expected 200 from GET, got %d", getRR.Code)
	}

	putBody, _ := json.Marshal(map[string]interface{}{
		"escalation_thresholds": map[string]float64{"sudden_threshold": 0.5},
	})
	putReq := httptest.NewRequest(http.MethodPut, "/config/context", bytes.NewBuffer(putBody))
	putRR := httptest.NewRecorder()
	s.handlePutContextConfig(putRR, putReq)
	if putRR.Code != http.StatusOK {
		t.Fatalf("expected 200 from PUT, got %d", putRR.Code)
	}

	if got := s.store.Get().Context.Escalation.SuddenThreshold; got != 0.5 {
		t.Errorf("expected sudden_threshold to be updated to 0.5, got %v", got)
	}
}
