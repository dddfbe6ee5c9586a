package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/frahmantamala/emspay-gateway/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

var errNoDatabase = errors.New("no database configured")

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthCheck is one component of /health. Run may return details to show
// even when it fails; its error is logged and never written to the response.
type HealthCheck struct {
	Name    string
	Message string
	Run     func(ctx context.Context) (map[string]any, error)
}

// OrderStoreCheck pings the order database.
func OrderStoreCheck(db Pinger) HealthCheck {
	return HealthCheck{
		Name:    "postgres",
		Message: "order store unreachable",
		Run: func(ctx context.Context) (map[string]any, error) {
			if db == nil {
				return nil, errNoDatabase
			}
			return nil, db.PingContext(ctx)
		},
	}
}

type HealthHandler struct {
	checks []HealthCheck
}

func NewHealthHandler(db Pinger, extra ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: append([]HealthCheck{OrderStoreCheck(db)}, extra...)}
}

// Ping only says the process is up
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}

// Health runs every check; one failing component makes the whole answer 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:     HealthHealthy,
		Components: make(map[string]CheckEntry, len(h.checks)),
	}
	for _, check := range h.checks {
		start := time.Now()
		details, err := check.Run(ctx)
		entry := CheckEntry{
			Status:     HealthHealthy,
			Details:    details,
			CheckedAt:  time.Now(),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			logger.From(r.Context()).Warn("health check failed", "component", check.Name, "error", err)
			entry.Status = HealthUnhealthy
			entry.Message = check.Message
			resp.Status = HealthUnhealthy
		}
		resp.Components[check.Name] = entry
	}
	resp.CheckedAt = time.Now()

	statusCode := http.StatusOK
	if resp.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
