package handler

import (
	"context"
	"customer-service/internal/api/handler/dto"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

func NewHealthHandler(db Pinger, l *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: l.With("component", "HealthHandler"),
	}
}

// Health reports whether the service can reach its database.
//
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service is healthy"
// @Failure 503 {object} dto.ErrorResponse "Database unreachable"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			h.logger.ErrorContext(r.Context(), "Health check failed: database unreachable", slog.Any("error", err))
			respondJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{
				Error: dto.ErrorDetail{
					Code:    "DB_UNAVAILABLE",
					Message: "Database unavailable.",
				},
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}
