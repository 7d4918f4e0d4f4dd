package diag

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/ema-gateway/internal/eventlog"
)

func testRouter(t *testing.T) (*mux.Router, *eventlog.Log) {
	t.Helper()
	reg := prometheus.NewRegistry()
	events := eventlog.New(8)
	events.Append(eventlog.Entry{Name: "roof_relay"})

	r := mux.NewRouter()
	s := &Server{events: events, role: func() string { return "master" }}
	r.HandleFunc("/healthz", s.handleHealthz)
	r.Handle("/varz", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.HandleFunc("/events", s.handleEvents)
	return r, events
}

func TestHandleHealthz(t *testing.T) {
	r, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["role"] != "master" {
		t.Errorf("role = %q, want master", body["role"])
	}
}

func TestHandleEvents(t *testing.T) {
	r, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var entries []eventlog.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "roof_relay" {
		t.Fatalf("entries = %+v", entries)
	}
}
