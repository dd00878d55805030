package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/grievance_desk/backend/internal/metrics"
	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/service"
)

func newSessionHandler() (*Handler, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	h := &Handler{
		Sessions: service.NewSessionTracker(30*time.Minute, 10, 5*time.Minute, zerolog.Nop()),
		Metrics:  metrics.NewRegistry(),
		Logger:   zerolog.Nop(),
	}
	r := gin.New()
	r.POST("/api/sessions", h.SessionCreate)
	r.GET("/api/sessions/:id", h.SessionGet)
	return h, r
}

func TestSessionCreateAndGet(t *testing.T) {
	_, r := newSessionHandler()

	req, _ := http.NewRequest(http.MethodPost, "/api/sessions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var session models.Session
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if session.ID == "" {
		t.Fatalf("session id missing: %s", w.Body.String())
	}

	req, _ = http.NewRequest(http.MethodGet, "/api/sessions/"+session.ID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSessionGetUnknown(t *testing.T) {
	_, r := newSessionHandler()

	req, _ := http.NewRequest(http.MethodGet, "/api/sessions/SES-missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestMetricsSnapshotEndpoint(t *testing.T) {
	h, _ := newSessionHandler()
	h.Metrics.ComplaintsReceived.Add(3)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/metrics", h.MetricsSnapshot)

	req, _ := http.NewRequest(http.MethodGet, "/api/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["complaints_received"] != float64(3) {
		t.Fatalf("complaints_received = %v, want 3", body["complaints_received"])
	}
}
