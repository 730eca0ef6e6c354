// Package service implements the call forwarding pipeline: validate the
// descriptor, filter request headers, dispatch under a deadline, then filter
// and reassemble the upstream response.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"

	"forward-gateway/internal/client"
	"forward-gateway/internal/config"
	"forward-gateway/internal/metrics"
	"forward-gateway/internal/model"
	"forward-gateway/internal/policy"
)

// DefaultTimeout bounds a whole forwarded call, response body included.
const DefaultTimeout = 30 * time.Second

// bodyMethods are the only methods that carry the descriptor body upstream.
var bodyMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Options tunes a Forwarder.
type Options struct {
	Timeout       time.Duration
	UserAgent     string            // sent when the caller gives none
	InjectHeaders map[string]string // set on every upstream request after filtering
}

// OptionsFromConfig builds Forwarder options from the upstream config section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Timeout:       time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		UserAgent:     cfg.Upstream.UserAgent,
		InjectHeaders: cfg.Upstream.InjectHeaders,
	}
}

// Forwarder validates call descriptors and forwards them to allowlisted upstreams.
// It holds no per-call state and is safe for concurrent use.
type Forwarder struct {
	client    *client.UpstreamClient
	domains   *policy.DomainPolicy
	timeout   time.Duration
	userAgent string
	inject    http.Header
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewForwarder creates a Forwarder. The metrics parameter may be nil.
func NewForwarder(c *client.UpstreamClient, domains *policy.DomainPolicy, opts Options, logger *slog.Logger, m *metrics.Metrics) *Forwarder {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	inject := make(http.Header, len(opts.InjectHeaders))
	for name, value := range opts.InjectHeaders {
		if policy.IsDenied(name) {
			continue
		}
		inject.Set(name, value)
	}

	return &Forwarder{
		client:    c,
		domains:   domains,
		timeout:   timeout,
		userAgent: opts.UserAgent,
		inject:    inject,
		logger:    logger.With("component", "forwarder"),
		metrics:   m,
	}
}

// Timeout returns the deadline applied to each forwarded call.
func (f *Forwarder) Timeout() time.Duration { return f.timeout }

// Forward performs the call described by d and returns the sanitized result.
// Failures are *Error values of kind ErrValidation, ErrTimeout or ErrNetwork.
// Nothing is retried.
func (f *Forwarder) Forward(ctx context.Context, d *model.CallDescriptor) (*model.ForwardResult, error) {
	res, err := f.forward(ctx, d)
	if f.metrics != nil {
		f.metrics.ForwardOutcomes.WithLabelValues(outcome(err)).Inc()
	}
	return res, err
}

func (f *Forwarder) forward(ctx context.Context, d *model.CallDescriptor) (*model.ForwardResult, error) {
	if d == nil || d.TargetURL == "" {
		return nil, validationError("targetUrl required")
	}

	target, err := f.checkTarget(d.TargetURL)
	if err != nil {
		return nil, err
	}

	method := normalizeMethod(d.Method)
	header, err := f.requestHeader(d.Header)
	if err != nil {
		return nil, err
	}

	var body io.Reader = http.NoBody
	if d.Body != nil && bodyMethods[method] {
		body = bytes.NewReader(d.Body)
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, &Error{Kind: ErrValidation, Msg: fmt.Sprintf("invalid method: %s", method), Err: err}
	}
	req.Header = header

	f.logger.Debug("forwarding call",
		"method", method,
		"host", target.Host,
		"body_bytes", req.ContentLength,
	)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.dispatchError(parent, ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, f.dispatchError(parent, ctx, err)
	}

	decoded := false
	if enc := resp.Header.Get("Content-Encoding"); enc != "" {
		out, err := decodeBody(raw, enc)
		if err != nil {
			f.logger.Warn("passing through undecodable body", "encoding", enc, "err", err)
		} else {
			raw, decoded = out, true
		}
	}

	return &model.ForwardResult{
		Status: resp.StatusCode,
		Header: responseHeader(resp.Header, decoded),
		Body:   string(raw),
	}, nil
}

// checkTarget parses the target URL and enforces the domain allowlist.
func (f *Forwarder) checkTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return nil, &Error{Kind: ErrValidation, Msg: "invalid URL", Err: err}
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return nil, validationError("invalid URL")
	}

	host := strings.ToLower(u.Hostname())
	if !f.domains.Allows(host) {
		return nil, &Error{Kind: ErrDomainNotAllowed, Msg: "domain not allowed: " + host}
	}
	return u, nil
}

// requestHeader keeps allowlisted caller headers and applies injected ones.
// Keys are visited in sorted order so case-variant duplicates resolve the same
// way on every call.
func (f *Forwarder) requestHeader(src map[string]string) (http.Header, error) {
	dst := make(http.Header, len(src)+len(f.inject)+1)
	for _, name := range slices.Sorted(maps.Keys(src)) {
		if !policy.IsAllowed(name) {
			continue
		}
		value := src[name]
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, validationError("invalid header value: " + strings.ToLower(name))
		}
		dst.Set(name, value)
	}
	for name, values := range f.inject {
		dst[name] = slices.Clone(values)
	}
	if dst.Get("User-Agent") == "" && f.userAgent != "" {
		dst.Set("User-Agent", f.userAgent)
	}
	return dst, nil
}

// dispatchError classifies a failure of the round trip or the body read.
// The forwarding deadline is reported as "timeout after <d>"; a deadline or
// cancellation inherited from the caller is reported as such.
func (f *Forwarder) dispatchError(parent, ctx context.Context, err error) error {
	switch {
	case errors.Is(parent.Err(), context.DeadlineExceeded):
		return &Error{Kind: ErrTimeout, Msg: "caller deadline exceeded", Err: err}
	case errors.Is(parent.Err(), context.Canceled):
		return &Error{Kind: ErrNetwork, Msg: "request canceled", Err: err}
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: ErrTimeout, Msg: fmt.Sprintf("timeout after %s", f.timeout), Err: err}
	}

	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		msg = urlErr.Err.Error()
	}
	return &Error{Kind: ErrNetwork, Msg: msg, Err: err}
}

// responseHeader drops denied and infrastructure headers and lowercases the
// rest. Repeated headers such as Set-Cookie keep every value in order.
func responseHeader(src http.Header, decoded bool) map[string]model.HeaderValues {
	dst := make(map[string]model.HeaderValues, len(src))
	for name, values := range src {
		if len(values) == 0 || policy.IsResponseBlocked(name) {
			continue
		}
		lower := strings.ToLower(name)
		if decoded && lower == "content-encoding" {
			continue
		}
		dst[lower] = append(dst[lower], values...)
	}
	return dst
}

func normalizeMethod(m string) string {
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" {
		return http.MethodGet
	}
	return m
}
