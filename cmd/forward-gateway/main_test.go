package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"forward-gateway/internal/client"
	"forward-gateway/internal/config"
	"forward-gateway/internal/handler"
	"forward-gateway/internal/metrics"
	"forward-gateway/internal/policy"
	"forward-gateway/internal/service"
)

// newTestGateway wires the production middleware stack and routes.
func newTestGateway(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()

	domains := newDomainPolicy(cfg)
	upstream := client.NewUpstreamClient(cfg, logger, m)
	t.Cleanup(upstream.CloseIdleConnections)
	fwd := service.NewForwarder(upstream, domains, service.OptionsFromConfig(cfg), logger, m)

	e := newEcho(cfg, logger, m)
	handler.RegisterRoutes(e,
		handler.NewProxyHandler(fwd, logger),
		handler.NewHealthHandler(domains, fwd, "test"),
	)
	handler.RegisterMetrics(e, cfg, m)
	return e
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BodyMaxBytes: 256},
		Upstream: config.UpstreamConfig{
			AllowedDomains:  policy.DefaultDomains(),
			TimeoutSeconds:  30,
			IdleConnections: 10,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func assertCORS(t *testing.T, h http.Header) {
	t.Helper()
	want := map[string]string{
		echo.HeaderAccessControlAllowOrigin:  "*",
		echo.HeaderAccessControlAllowMethods: "POST, OPTIONS",
		echo.HeaderAccessControlAllowHeaders: "Content-Type, Authorization, X-Requested-With",
		echo.HeaderAccessControlMaxAge:       "86400",
	}
	for name, value := range want {
		if got := h.Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderOrigin, "https://app.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGateway_CORSOnEveryResponse(t *testing.T) {
	e := newTestGateway(t, testConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"preflight", http.MethodOptions, "/api/proxy", "", http.StatusOK},
		{"preflight root", http.MethodOptions, "/", "", http.StatusOK},
		{"GET not allowed", http.MethodGet, "/api/proxy", "", http.StatusMethodNotAllowed},
		{"HEAD not allowed", http.MethodHead, "/", "", http.StatusMethodNotAllowed},
		{"missing targetUrl", http.MethodPost, "/api/proxy", `{}`, http.StatusBadRequest},
		{"domain not allowed", http.MethodPost, "/api/proxy", `{"targetUrl":"https://evilhepsiburada.com/"}`, http.StatusForbidden},
		{"body too large", http.MethodPost, "/api/proxy", `{"targetUrl":"` + strings.Repeat("a", 512) + `"}`, http.StatusRequestEntityTooLarge},
		{"unknown route", http.MethodGet, "/zz", "", http.StatusNotFound},
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			assertCORS(t, rec.Header())
		})
	}
}

func TestGateway_PreflightEmptyBody(t *testing.T) {
	e := newTestGateway(t, testConfig())
	rec := serve(e, http.MethodOptions, "/api/proxy", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestGateway_CORSWhenRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1}
	e := newTestGateway(t, cfg)

	body := `{"targetUrl":"https://evil.example/"}`
	first := serve(e, http.MethodPost, "/api/proxy", body)
	if first.Code != http.StatusForbidden {
		t.Fatalf("first status = %d, want %d", first.Code, http.StatusForbidden)
	}

	second := serve(e, http.MethodPost, "/api/proxy", body)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want %d", second.Code, http.StatusTooManyRequests)
	}
	assertCORS(t, second.Header())
	if !strings.Contains(second.Body.String(), "rate limit exceeded") {
		t.Errorf("body = %q, want rate limit envelope", second.Body.String())
	}

	preflight := serve(e, http.MethodOptions, "/api/proxy", "")
	if preflight.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want %d", preflight.Code, http.StatusOK)
	}
	assertCORS(t, preflight.Header())
}
