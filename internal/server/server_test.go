package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/san-kum/swaysim/internal/sim"
)

func newTestServer(t *testing.T, opts Options) (*Server, *sim.Simulation) {
	t.Helper()
	s := sim.New()
	p := sim.DefaultParams()
	p.Segments = 20
	if err := s.Configure(p); err != nil {
		t.Fatal(err)
	}
	return New(s, sim.NewHistory(50, 0), opts), s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTickAndOutputs(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	h := srv.Handler()

	rec := do(t, h, "POST", "/api/tick", `{"dt": 0.1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("tick: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, h, "GET", "/api/outputs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("outputs: expected 200, got %d", rec.Code)
	}
	var out outputsResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Time != 0.1 {
		t.Errorf("expected time 0.1, got %f", out.Time)
	}
	if out.NaturalFreq <= 0 || out.BuildingMass <= 0 {
		t.Errorf("expected populated outputs, got %+v", out)
	}
	if out.Held {
		t.Error("fresh frame must not be marked held")
	}
}

func TestGeometry(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	h := srv.Handler()

	if rec := do(t, h, "GET", "/api/geometry/primary", ""); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 before first tick, got %d", rec.Code)
	}
	do(t, h, "POST", "/api/tick", `{"dt": 0.2}`)

	for _, b := range []string{"primary", "reference"} {
		rec := do(t, h, "GET", "/api/geometry/"+b, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", b, rec.Code)
		}
		var g geometryResponse
		if err := json.NewDecoder(rec.Body).Decode(&g); err != nil {
			t.Fatal(err)
		}
		if len(g.Vertices) != 42 || len(g.UVs) != 42 {
			t.Errorf("%s: expected 42 vertices, got %d", b, len(g.Vertices))
		}
		if len(g.Indices) != 120 {
			t.Errorf("%s: expected 120 indices, got %d", b, len(g.Indices))
		}
		if g.VertexCount != 42 || g.TriangleCount != 40 {
			t.Errorf("%s: expected 42 vertices and 40 triangles, got %d and %d", b, g.VertexCount, g.TriangleCount)
		}
	}

	if rec := do(t, h, "GET", "/api/geometry/tower", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown building, got %d", rec.Code)
	}
}

func TestConfigure(t *testing.T) {
	srv, s := newTestServer(t, Options{})
	h := srv.Handler()

	rec := do(t, h, "POST", "/api/configure", `{"wind_speed": 45, "segments": 8}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if s.Params().Dynamics.WindSpeed != 45 || s.Params().Segments != 8 {
		t.Errorf("configuration not applied: %+v", s.Params())
	}

	rec = do(t, h, "POST", "/api/configure", `{"wind_speed": 10, "damper_length": 0}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var e errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if e.Param != "damper_length" {
		t.Errorf("expected offending param damper_length, got %q", e.Param)
	}
	if s.Params().Dynamics.WindSpeed != 45 {
		t.Error("rejected configuration must not partially apply")
	}

	if rec := do(t, h, "POST", "/api/configure", `{"colour": 1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown param, got %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/api/configure", `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad payload, got %d", rec.Code)
	}
}

func TestConfigureRejectsSegmentCount(t *testing.T) {
	srv, s := newTestServer(t, Options{})
	h := srv.Handler()

	for _, body := range []string{`{"segments": 5e9}`, `{"segments": 401}`, `{"segments": 2.5}`, `{"segments": 1e19}`} {
		rec := do(t, h, "POST", "/api/configure", body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", body, rec.Code)
		}
		var e errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
			t.Fatal(err)
		}
		if e.Param != "segments" {
			t.Errorf("%s: expected offending param segments, got %q", body, e.Param)
		}
	}
	if s.Params().Segments != 20 {
		t.Errorf("segments changed to %d", s.Params().Segments)
	}
}

func TestWriteJSONReportsEncodingFailure(t *testing.T) {
	var logs bytes.Buffer
	srv, _ := newTestServer(t, Options{Logger: log.New(&logs)})

	rec := httptest.NewRecorder()
	srv.writeJSON(rec, http.StatusOK, map[string]float64{"x": math.NaN()})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	var e errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil || e.Error == "" {
		t.Errorf("expected a JSON error body, got %q (%v)", rec.Body.String(), err)
	}
	if !strings.Contains(logs.String(), "write response") {
		t.Errorf("expected the encoding error to be logged, got %q", logs.String())
	}
}

func TestTickHoldsOnError(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	h := srv.Handler()

	do(t, h, "POST", "/api/tick", `{"dt": 0.1}`)
	do(t, h, "POST", "/api/configure", `{"damper_mass": 0}`)
	do(t, h, "POST", "/api/tune", "")

	rec := do(t, h, "POST", "/api/tick", `{"dt": 0.1}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var out outputsResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Held || out.Error == "" {
		t.Errorf("expected held outputs with an error, got %+v", out)
	}
	if out.Time != 0.1 {
		t.Errorf("expected last valid time 0.1, got %f", out.Time)
	}
}

func TestTune(t *testing.T) {
	srv, s := newTestServer(t, Options{})
	rec := do(t, srv.Handler(), "POST", "/api/tune", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp tuneResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.DamperLength != s.Params().Dynamics.DamperLength {
		t.Errorf("expected reported length to match params")
	}
}

func TestHistory(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	h := srv.Handler()
	for i := 0; i < 5; i++ {
		do(t, h, "POST", "/api/tick", `{"dt": 0.05}`)
	}
	rec := do(t, h, "GET", "/api/history", "")
	var hist historyResponse
	if err := json.NewDecoder(rec.Body).Decode(&hist); err != nil {
		t.Fatal(err)
	}
	if len(hist.Times) != 5 || len(hist.WithTMD) != 5 {
		t.Errorf("expected 5 samples, got %d", len(hist.Times))
	}
	if hist.Capacity != 50 {
		t.Errorf("expected capacity 50, got %d", hist.Capacity)
	}
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Options{Rate: 0.001, Burst: 2})
	h := srv.Handler()

	for i := 0; i < 2; i++ {
		if rec := do(t, h, "GET", "/api/outputs", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	if rec := do(t, h, "GET", "/api/outputs", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("health check must not be rate limited, got %d", rec.Code)
	}
}
