package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/emspay-gateway/pkg/logger"
)

// maxLoggedBody caps how much of a request or response body ends up in a log line.
const maxLoggedBody = 4 << 10

const filtered = "[FILTERED]"

// sensitiveFields match case-insensitively as substrings of a header, query
// or JSON key. "key" covers the order key in receipt links, "hash" the
// signed Connect hash.
var sensitiveFields = []string{
	"token",
	"authorization",
	"secret",
	"key",
	"hash",
	"cookie",
	"session",
	"credential",
}

// RequestLogger makes base the logger every later middleware and handler
// gets from logger.From.
func RequestLogger(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logger.Into(r.Context(), base)))
		})
	}
}

// LoggingMiddleware writes one line per request and one per response through
// the request-scoped logger, so trace and client fields come along. Bodies
// are logged only for failed responses.
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lg := logger.From(r.Context())

			requestBody := peekBody(r)
			lg.Info("incoming request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", filterSensitiveQuery(r.URL.Query()),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", filterSensitiveHeaders(r.Header),
			)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			var responseBody bytes.Buffer
			ww.Tee(&limitedWriter{buf: &responseBody, max: maxLoggedBody})

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []any{
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", ww.BytesWritten(),
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			if level > slog.LevelInfo {
				attrs = append(attrs,
					"request_body", filterSensitiveBody(requestBody),
					"response_body", filterSensitiveBody(responseBody.Bytes()))
			}
			lg.Log(r.Context(), level, "response", attrs...)
		})
	}
}

// peekBody reads up to maxLoggedBody bytes and puts them back in front of the
// rest of the body.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
	return head
}

type readCloser struct {
	io.Reader
	io.Closer
}

type limitedWriter struct {
	buf *bytes.Buffer
	max int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if room := l.max - l.buf.Len(); room > 0 {
		if len(p) > room {
			l.buf.Write(p[:room])
		} else {
			l.buf.Write(p)
		}
	}
	return len(p), nil
}

func isSensitive(name string) bool {
	lowerName := strings.ToLower(name)
	for _, sensitiveField := range sensitiveFields {
		if strings.Contains(lowerName, sensitiveField) {
			return true
		}
	}
	return false
}

func filterSensitiveQuery(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for name, v := range values {
		if isSensitive(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(v, ", ")
	}
	return out
}

func filterSensitiveHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// filterSensitiveBody masks sensitive keys at any depth of a JSON body.
// Anything that is not JSON is dropped entirely.
func filterSensitiveBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "[non-JSON body omitted]"
	}

	masked, err := json.Marshal(filterSensitiveJSON(data))
	if err != nil {
		return "[unloggable body]"
	}
	return string(masked)
}

func filterSensitiveJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				out[key] = filtered
				continue
			}
			out[key] = filterSensitiveJSON(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = filterSensitiveJSON(item)
		}
		return out
	default:
		return v
	}
}
