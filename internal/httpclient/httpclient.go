// Package httpclient builds pooled HTTP clients shared by the recognizer
// and VAD boundary adapters.
package httpclient

import (
	"net/http"
	"time"
)

// NewPooled creates an http.Client with connection pooling and a tuned
// transport, so repeated per-stride recognizer/VAD calls reuse connections
// instead of paying a new TLS/TCP handshake every stride.
func NewPooled(poolSize int, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          poolSize,
			MaxIdleConnsPerHost:   poolSize,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: timeout,
			ForceAttemptHTTP2:     true,
		},
	}
}
