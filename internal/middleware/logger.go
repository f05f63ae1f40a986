package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"pixsafe/internal/logging"
)

type RequestLogger struct {
	traffic *TrafficStats
}

func NewRequestLogger(traffic *TrafficStats) *RequestLogger {
	return &RequestLogger{traffic: traffic}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (l *RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		if l.traffic != nil {
			l.traffic.Add(rec.size, time.Now())
		}

		fields := []any{
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"bytes", rec.size,
			"ip", clientIP(r),
			"ua", r.UserAgent(),
			"dur_ms", duration.Milliseconds(),
		}
		switch {
		case rec.status >= 500:
			logging.Get(fmt.Sprintf("request_%d", rec.status)).Errorw("request", fields...)
		case rec.status >= 400:
			logging.Get(fmt.Sprintf("request_%d", rec.status)).Warnw("request", fields...)
		case isThumbRequest(r.URL.Path):
			logging.Get("requests_thumb").Infow("request", fields...)
		default:
			logging.Get("requests").Infow("request", fields...)
		}
	})
}

func isThumbRequest(path string) bool {
	if !strings.HasPrefix(path, "/i/") {
		return false
	}
	return strings.HasSuffix(path, "/thumb") || strings.HasSuffix(path, "/thumb.webp")
}

// clientIP prefers the first X-Forwarded-For hop, falling back to
// RemoteAddr with the port stripped.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if parsed := net.ParseIP(ip); parsed != nil {
				return parsed.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	if parsed := net.ParseIP(host); parsed != nil {
		return parsed.String()
	}
	return host
}
