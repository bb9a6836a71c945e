package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// Header is the standard HTTP header for idempotency keys.
	Header = "Idempotency-Key"

	// ReplayHeader is set on responses served from the cache.
	ReplayHeader = "X-Idempotency-Hit"
)

// Options configures the middleware.
type Options struct {
	// TTL is how long successful responses stay cached.
	TTL time.Duration

	// LockTimeout bounds the in-flight lock if a request never finishes.
	LockTimeout time.Duration

	// OnReplay, if set, is called for every response served from the cache.
	OnReplay func()
}

// responseRecorder captures the status code and body while writing through
// to the client.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (rw *responseRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware deduplicates POST requests carrying an Idempotency-Key header.
// Keys are scoped by request path and by the caller's Authorization header,
// so one caller can never receive another caller's cached response. Store
// failures fail the request with 500 rather than risk processing a write
// twice.
func Middleware(store Store, opts Options, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := r.Header.Get(Header)
			if idempotencyKey == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			// Store calls after the handler must not be cut short by a
			// client disconnect.
			ctx := context.WithoutCancel(r.Context())
			key := storageKey(r.URL.Path, r.Header.Get("Authorization"), idempotencyKey)
			log := logger.With("idempotency_key", idempotencyKey, "path", r.URL.Path)

			body, err := io.ReadAll(r.Body)
			if err != nil {
				log.Warn("Failed to read request body", "error", err)
				http.Error(w, "Bad request", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			requestHash := fingerprint(body)

			serveCached := func(cached *Response) {
				if cached.RequestHash != "" && cached.RequestHash != requestHash {
					log.Warn("Idempotency key reused with a different request")
					writeMismatch(w)
					return
				}
				log.Debug("Idempotency cache hit")
				if opts.OnReplay != nil {
					opts.OnReplay()
				}
				replay(w, cached)
			}

			cached, ok, err := store.Get(ctx, key)
			if err != nil {
				log.Error("Idempotency cache lookup failed", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if ok {
				serveCached(cached)
				return
			}

			acquired, err := store.Lock(ctx, key, opts.LockTimeout)
			if err != nil {
				log.Error("Idempotency lock acquisition failed", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if !acquired {
				log.Warn("Concurrent request with same idempotency key")
				writeConflict(w)
				return
			}
			defer func() {
				if err := store.Unlock(ctx, key); err != nil {
					log.Error("Failed to release idempotency lock", "error", err)
				}
			}()

			// The first holder may have saved and released the lock between
			// our lookup and our lock.
			cached, ok, err = store.Get(ctx, key)
			if err != nil {
				log.Error("Idempotency cache lookup failed", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if ok {
				serveCached(cached)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			// Only successful responses are cached
			if rec.statusCode < 200 || rec.statusCode >= 300 {
				return
			}
			resp := &Response{
				Status:          rec.statusCode,
				ContentType:     rec.Header().Get("Content-Type"),
				ContentEncoding: rec.Header().Get("Content-Encoding"),
				Body:            rec.body.Bytes(),
				RequestHash:     requestHash,
			}
			if err := store.Save(ctx, key, resp, opts.TTL); err != nil {
				log.Error("Failed to cache response", "error", err)
				return
			}
			log.Debug("Cached response", "ttl", opts.TTL)
		})
	}
}

// storageKey scopes an idempotency key to a path and a caller. Credentials
// are hashed so they never reach the store.
func storageKey(path, authorization, idempotencyKey string) string {
	caller := "anonymous"
	if authorization != "" {
		caller = fingerprint([]byte(authorization))[:32]
	}
	return path + ":" + caller + ":" + idempotencyKey
}

func fingerprint(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func replay(w http.ResponseWriter, resp *Response) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	if resp.ContentEncoding != "" {
		w.Header().Set("Content-Encoding", resp.ContentEncoding)
	}
	w.Header().Set(ReplayHeader, "true")
	w.WriteHeader(resp.Status)
	w.Write(resp.Body)
}

// writeConflict and writeMismatch use the Connect error body so Connect
// clients surface a typed code.
func writeConflict(w http.ResponseWriter) {
	writeError(w, http.StatusConflict, "aborted",
		"A request with this idempotency key is currently being processed")
}

func writeMismatch(w http.ResponseWriter) {
	writeError(w, http.StatusUnprocessableEntity, "failed_precondition",
		"Idempotency key was already used with a different request")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
