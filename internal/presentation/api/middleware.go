package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/stagelink/backend/internal/infrastructure/logging"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("responseWriter does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (app *Application) rateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sourceKey := app.ratelimiter.SourceKeyFromRequest(r)

		maxBurst := app.ratelimiter.MaxBurst()
		if !app.ratelimiter.Allow(sourceKey) {
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxBurst))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "1")

			app.logger.Warn(
				logging.General,
				logging.RateLimiting,
				"rate limit exceeded",
				map[logging.ExtraKey]any{
					"source": sourceKey,
					"path":   r.URL.Path,
					"method": r.Method,
				},
			)

			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		remaining := app.ratelimiter.Remaining(sourceKey)
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxBurst))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		next.ServeHTTP(w, r)
	})
}

func (app *Application) enableCors(next http.Handler) http.Handler {
	allowed := app.config.HTTP.AllowedOrigins

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		switch {
		case origin == "":
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case len(allowed) == 0 || originAllowed(allowed, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		// allow preflight requests from the browser API
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func (app *Application) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := newResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		extra := map[logging.ExtraKey]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration_ms": duration.Milliseconds(),
			"bytes":       wrapped.bytes,
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent(),
		}

		if r.URL.RawQuery != "" {
			extra["query"] = r.URL.RawQuery
		}

		switch {
		case wrapped.statusCode >= 500:
			app.logger.Error(logging.RequestResponse, logging.ExternalService, "request completed with server error", extra)
		case wrapped.statusCode >= 400:
			app.logger.Warn(logging.RequestResponse, logging.ExternalService, "request completed with client error", extra)
		default:
			app.logger.Info(logging.RequestResponse, logging.ExternalService, "request completed", extra)
		}
	})
}
