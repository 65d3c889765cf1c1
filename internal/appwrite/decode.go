package appwrite

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
)

// acceptEncoding is advertised on every request; readBody undoes whichever one the server picked.
const acceptEncoding = "br, zstd, gzip"

// readBody reads and decodes a response body according to its Content-Encoding.
// net/http only decodes gzip transparently when it set Accept-Encoding itself.
func readBody(resp *http.Response) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	var reader io.Reader = resp.Body
	switch encoding {
	case "", "identity":
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer func() {
			if errClose := gz.Close(); errClose != nil {
				log.WithError(errClose).Warn("failed to close gzip reader")
			}
		}()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "zstd":
		decoder, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer decoder.Close()
		reader = decoder
	default:
		log.Debugf("appwrite: unsupported content encoding %q, reading raw body", encoding)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response body: %w", encodingLabel(encoding), err)
	}
	return bytes.TrimSpace(data), nil
}

func encodingLabel(encoding string) string {
	if encoding == "" {
		return "plain"
	}
	return encoding
}
