package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// HandleError renders AppErrors with their own status and body. Anything else
// becomes a generic checkout failure so internals never reach the shopper.
func (h *BaseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	lg := logger.From(r.Context())

	appErr, ok := internal.IsAppError(err)
	if !ok {
		lg.Error("unhandled checkout error", "error", err)
		appErr = internal.NewInternalError("checkout could not be completed", err)
	}

	if appErr.Fatal() {
		lg.Error("checkout request failed",
			"code", appErr.Code,
			"status", appErr.StatusCode,
			"error", appErr.Error())
	} else {
		lg.Info("checkout request declined", "code", appErr.Code, "message", appErr.GetDetailedMessage())
	}

	if appErr.Type == internal.ErrorTypeInternal {
		// keep the code for support, drop the wording
		appErr = &internal.AppError{
			Type:       appErr.Type,
			Code:       appErr.Code,
			Message:    "checkout could not be completed",
			StatusCode: appErr.StatusCode,
		}
	}

	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}
