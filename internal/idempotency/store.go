// Package idempotency makes retried write requests safe. A client sends an
// Idempotency-Key header; the first request with a key runs and its 2xx
// response is cached, later requests with the same key get the cached
// response, and a request arriving while the first is still running is
// rejected with 409 Conflict. Keys are scoped to the caller's credentials,
// and reusing a key with a different body is rejected with 422.
package idempotency

import (
	"context"
	"time"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=idempotency

// Response is a cached HTTP response.
type Response struct {
	Status          int    `json:"status"`
	ContentType     string `json:"content_type"`
	ContentEncoding string `json:"content_encoding,omitempty"`
	Body            []byte `json:"body"`
	// RequestHash fingerprints the request body that produced the response.
	RequestHash string `json:"request_hash,omitempty"`
}

// Store keeps cached responses and in-flight locks.
type Store interface {
	// Get returns the cached response for key. The bool is false on a miss.
	Get(ctx context.Context, key string) (*Response, bool, error)

	// Save caches resp under key for ttl.
	Save(ctx context.Context, key string, resp *Response, ttl time.Duration) error

	// Lock marks key as in flight for at most ttl. It returns false when
	// the key is already locked.
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Unlock releases the in-flight mark of key.
	Unlock(ctx context.Context, key string) error
}
