package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"forward-gateway/internal/model"
	"forward-gateway/internal/service"
)

// ErrMethodNotAllowed is returned for inbound methods other than POST and OPTIONS.
var ErrMethodNotAllowed = errors.New("method not allowed")

// secretParamPattern matches credential-like query parameter values so target
// URLs and transport errors can be logged safely.
var secretParamPattern = regexp.MustCompile(`(?i)([?&](?:api_?key|access_token|token|password|secret|signature|sig)=)[^&#\s"]+`)

// ProxyHandler is the inbound boundary of the gateway: it decodes a call
// descriptor, hands it to the Forwarder and encodes the result envelope.
type ProxyHandler struct {
	forwarder *service.Forwarder
	logger    *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(fwd *service.Forwarder, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		forwarder: fwd,
		logger:    logger.With("component", "proxy_handler"),
	}
}

// Handle answers preflights, rejects non-POST methods and forwards POSTed
// descriptors upstream.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	switch req.Method {
	case http.MethodOptions:
		return c.NoContent(http.StatusOK)
	case http.MethodPost:
	default:
		return h.mapError(c, ErrMethodNotAllowed)
	}

	var in model.CallRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return h.mapError(c, &service.Error{Kind: service.ErrValidation, Msg: "invalid request body", Err: err})
	}

	d, err := in.Descriptor()
	if err != nil {
		return h.mapError(c, &service.Error{Kind: service.ErrValidation, Msg: "invalid request body", Err: err})
	}

	h.logger.Info("proxy request",
		"method", d.Method,
		"target", redact(d.TargetURL),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
	)

	res, err := h.forwarder.Forward(req.Context(), d)
	if err != nil {
		return h.mapError(c, err)
	}

	h.logger.Debug("proxy success", "status", res.Status, "body_bytes", len(res.Body))
	return c.JSON(http.StatusOK, res)
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	status, msg := errorStatus(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(c.Request().Context(), level, "proxy error",
		"err", redact(errorChain(err)),
		"status", status,
		"path", c.Request().URL.Path,
	)

	return c.JSON(status, model.ErrorResponse{Error: msg})
}

// errorStatus maps a forwarding error to its HTTP status and client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method not allowed"
	case errors.Is(err, service.ErrDomainNotAllowed):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout, err.Error()
	case errors.Is(err, service.ErrNetwork):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusBadGateway, "upstream request failed"
	}
}

// errorChain includes the wrapped cause, which the client-facing message omits.
func errorChain(err error) string {
	var se *service.Error
	if errors.As(err, &se) && se.Err != nil {
		return se.Msg + ": " + se.Err.Error()
	}
	return err.Error()
}

// redact masks credential-like query parameter values.
func redact(s string) string {
	return secretParamPattern.ReplaceAllString(s, "${1}[REDACTED]")
}
