package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"forward-gateway/internal/policy"
	"forward-gateway/internal/service"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	domains   *policy.DomainPolicy
	forwarder *service.Forwarder
	version   Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(domains *policy.DomainPolicy, fwd *service.Forwarder, v Version) *HealthHandler {
	return &HealthHandler{domains: domains, forwarder: fwd, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// StatusResponse is the body of GET /proxy/status.
type StatusResponse struct {
	Status         string   `json:"status"`
	Version        string   `json:"version"`
	AllowedDomains []string `json:"allowed_domains"`
	TimeoutSeconds float64  `json:"timeout_seconds"`
}

// Status returns gateway status information.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Status:         "ok",
		Version:        string(h.version),
		AllowedDomains: h.domains.Domains(),
		TimeoutSeconds: h.forwarder.Timeout().Seconds(),
	})
}
