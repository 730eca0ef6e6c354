package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"forward-gateway/internal/config"
	"forward-gateway/internal/metrics"
	"forward-gateway/internal/policy"
)

func newRoutedEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(discardLogger())
	fwd := newTestForwarder(t, "127.0.0.1:1", time.Second)
	RegisterRoutes(e, NewProxyHandler(fwd, discardLogger()), NewHealthHandler(policy.NewDomainPolicy(), fwd, "test"))
	return e
}

func TestRegisterRoutes(t *testing.T) {
	e := newRoutedEcho(t)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/proxy/status", http.StatusOK},
		{http.MethodOptions, "/", http.StatusOK},
		{http.MethodOptions, "/api/proxy", http.StatusOK},
		{http.MethodGet, "/", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/proxy", http.StatusMethodNotAllowed},
		{http.MethodPost, "/", http.StatusBadRequest},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRegisterRoutes_NotFoundEnvelope(t *testing.T) {
	e := newRoutedEcho(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := decodeError(t, rec); got != "Not Found" {
		t.Errorf("error = %q, want %q", got, "Not Found")
	}
}

func TestRegisterMetrics(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		e := echo.New()
		m := metrics.New()
		m.ForwardOutcomes.WithLabelValues("ok").Inc()
		RegisterMetrics(e, &config.Config{Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"}}, m)

		req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), "forward_gateway_forward_outcomes_total") {
			t.Error("metrics output missing forward_gateway_forward_outcomes_total")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		e := echo.New()
		RegisterMetrics(e, &config.Config{Metrics: config.MetricsConfig{Enabled: false, Path: "/metrics"}}, metrics.New())

		req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}
