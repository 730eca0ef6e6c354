// Package model defines shared types for the gateway.
package model

import (
	"bytes"
	"encoding/json"
)

// CallDescriptor describes one HTTP call the caller wants forwarded upstream.
type CallDescriptor struct {
	TargetURL string
	Method    string
	Header    map[string]string
	Body      []byte // nil when the caller sent no body
}

// HeaderValues holds every occurrence of one response header, in order.
// It encodes as a JSON string for a single value and as an array otherwise.
type HeaderValues []string

// MarshalJSON implements json.Marshaler.
func (v HeaderValues) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *HeaderValues) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = HeaderValues{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*v = list
	return nil
}

// ForwardResult is the sanitized upstream response returned to the caller.
type ForwardResult struct {
	Status int                     `json:"status"`
	Header map[string]HeaderValues `json:"headers"`
	Body   string                  `json:"body"`
}

// CallRequest is the JSON envelope accepted on the inbound boundary.
type CallRequest struct {
	TargetURL string            `json:"targetUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Body      json.RawMessage   `json:"body"`
}

// Descriptor converts the envelope into a CallDescriptor. A JSON string body
// is unquoted and sent as-is; any other JSON value is sent as its raw text.
func (r *CallRequest) Descriptor() (*CallDescriptor, error) {
	d := &CallDescriptor{
		TargetURL: r.TargetURL,
		Method:    r.Method,
		Header:    r.Headers,
	}

	raw := bytes.TrimSpace(r.Body)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return d, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		d.Body = []byte(s)
		return d, nil
	}
	d.Body = bytes.Clone(raw)
	return d, nil
}

// ErrorResponse is the JSON envelope for every failure path.
type ErrorResponse struct {
	Error string `json:"error"`
}
