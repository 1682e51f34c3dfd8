package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"terra/internal/metrics"
)

func TestStatusRecorderDefaults(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())

	if rec.status != http.StatusOK {
		t.Errorf("Expected default status 200, got %d", rec.status)
	}
	if rec.bytes != 0 || rec.wroteHeader {
		t.Errorf("Expected a fresh recorder, got bytes=%d wroteHeader=%v", rec.bytes, rec.wroteHeader)
	}
}

func TestStatusRecorderKeepsFirstStatus(t *testing.T) {
	w := httptest.NewRecorder()
	rec := newStatusRecorder(w)

	rec.WriteHeader(http.StatusConflict)
	rec.WriteHeader(http.StatusInternalServerError)

	if rec.status != http.StatusConflict || w.Code != http.StatusConflict {
		t.Errorf("Expected 409 to stick, got recorder=%d underlying=%d", rec.status, w.Code)
	}
}

func TestStatusRecorderCountsBytes(t *testing.T) {
	w := httptest.NewRecorder()
	rec := newStatusRecorder(w)

	rec.Write([]byte(`{"photos":`))
	rec.Write([]byte(`[]}`))

	if rec.bytes != 13 {
		t.Errorf("Expected 13 bytes, got %d", rec.bytes)
	}
	if !rec.wroteHeader {
		t.Error("Expected wroteHeader after Write")
	}
	if rec.Unwrap() != http.ResponseWriter(w) {
		t.Error("Unwrap should return the wrapped writer")
	}
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		config LoggingConfig
		want   bool
	}{
		{"regular request", "/api/photos", DefaultLoggingConfig(), false},
		{"health check skipped by default", "/health", DefaultLoggingConfig(), true},
		{"health check logged when enabled", "/livez", LoggingConfig{LogHealthChecks: true}, false},
		{"configured prefix", "/api/stats", LoggingConfig{SkipPaths: []string{"/api/stats"}}, true},
		{"prefix does not match sibling", "/api/photos", LoggingConfig{SkipPaths: []string{"/api/stats"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSkip(tt.path, tt.config); got != tt.want {
				t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/photos", "/api/photos"},
		{"line\nbreak", "line break"},
		{"cr\rlf", "cr lf"},
		{"nul\x00byte", "nulbyte"},
		{"\x1b[31mred", "[31mred"},
		{"tab\tkept", "tab\tkept"},
		{"bell\x07", "bell"},
	}

	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAccessLine(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		elapsed time.Duration
		slow    time.Duration
		want    string
	}{
		{"plain", "/api/photos", 3 * time.Millisecond, 2 * time.Second, "bridge GET /api/photos 201 5B 3ms"},
		{"query kept", "/api/photos?ids=1", time.Millisecond, 0, "bridge GET /api/photos?ids=1 201 5B 1ms"},
		{"slow tagged", "/api/photos", 3 * time.Second, 2 * time.Second, "bridge GET /api/photos 201 5B 3s slow"},
		{"threshold disabled", "/api/photos", time.Minute, 0, "bridge GET /api/photos 201 5B 1m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newStatusRecorder(httptest.NewRecorder())
			rec.WriteHeader(http.StatusCreated)
			rec.Write([]byte("hello"))

			req := httptest.NewRequest(http.MethodGet, tt.target, http.NoBody)
			if got := accessLine(req, rec, tt.elapsed, tt.slow); got != tt.want {
				t.Errorf("accessLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAccessLineSanitizesQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/photos", http.NoBody)
	req.URL.RawQuery = "a=1\nforged line"

	got := accessLine(req, newStatusRecorder(httptest.NewRecorder()), 0, 0)
	if strings.Contains(got, "\n") {
		t.Errorf("access line contains a newline: %q", got)
	}
}

func TestLoggerMiddlewarePassesThrough(t *testing.T) {
	for _, config := range []LoggingConfig{DefaultLoggingConfig(), {Enabled: false}} {
		handler := Logger(config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			w.Write([]byte("ok"))
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/photos", http.NoBody))

		if w.Code != http.StatusTeapot || w.Body.String() != "ok" {
			t.Errorf("Enabled=%v: got %d %q", config.Enabled, w.Code, w.Body.String())
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/api/photos", "/api/photos"},
		{"/api/albums/42", "/api/albums/{id}"},
		{"/api/albums/42/photos", "/api/albums/{id}/photos"},
		{"/api/albums/7/cover", "/api/albums/{id}/cover"},
		{"/api/albums/abc", "/api/albums/abc"},
		{"/", "/"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsMiddlewareRecordsRequests(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodDelete, "/api/albums/{id}", "404")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/albums/99", http.NoBody))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("request counter delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsInFlight); got != 0 {
		t.Errorf("in-flight gauge = %v after the request, want 0", got)
	}
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/api/albums/{id:[0-9]+}/photos", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/albums/{id}/photos", "200")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/albums/12/photos", http.NoBody))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("request counter delta = %v, want 1", got)
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if got := testutil.ToFloat64(counter) - before; got != 0 {
		t.Errorf("health check was counted: delta = %v", got)
	}
}
