package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/database"
)

const healthProbeTimeout = 2 * time.Second

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo database.ProjectRepository
	startupTime time.Time
}

func newHealthHandler(deps handlerDeps) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: deps.database.ProjectRepo(),
		startupTime: deps.startupTime,
	}
}

// healthz reports liveness and whether the store answers
// @Summary Health check
// @Tags Ops
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/healthz [get]
func (h healthHandler) healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
		defer cancel()

		resp := HealthResponse{
			Status:    "ok",
			Store:     "ok",
			StartedAt: h.startupTime.UTC().Format(time.RFC3339),
			Uptime:    time.Since(h.startupTime).Round(time.Second).String(),
		}
		status := http.StatusOK
		if _, err := h.projectRepo.FindPage(ctx, nil, 1); err != nil {
			h.logger.Warn().Err(err).Msg("store probe failed")
			resp.Status, resp.Store = "degraded", "unavailable"
			status = http.StatusServiceUnavailable
		}

		h.responder.WriteJSONStatus(w, status, resp)
	}
}
