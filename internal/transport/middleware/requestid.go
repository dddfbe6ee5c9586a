package middleware

import (
	"net/http"

	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/frahmantamala/emspay-gateway/pkg/logger"
)

const HeaderTraceID = "X-Trace-ID"

// RequestID puts a trace id on the request logger and echoes it back. An
// incoming X-Trace-ID wins, then chi's request id, then a fresh uuid.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(HeaderTraceID)
		if traceID == "" {
			traceID = chiMiddleware.GetReqID(r.Context())
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		w.Header().Set(HeaderTraceID, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
