package service

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// decodeBody decompresses an upstream body according to its Content-Encoding.
// Go's transport only decodes gzip it asked for itself; callers that forward
// their own Accept-Encoding get the raw payload, which is decoded here.
func decodeBody(body []byte, contentEncoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip", "x-gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		defer reader.Close()
		return readAll(reader, "gzip")
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw.
		if reader, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			defer reader.Close()
			return readAll(reader, "deflate")
		}
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()
		return readAll(reader, "deflate")
	case "br":
		return readAll(brotli.NewReader(bytes.NewReader(body)), "brotli")
	case "", "identity":
		return body, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", contentEncoding)
	}
}

func readAll(r io.Reader, name string) ([]byte, error) {
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s reader: %w", name, err)
	}
	return out, nil
}
