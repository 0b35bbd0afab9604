package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/database"
	"github.com/saqr-syn/portfolio-backend/feed"
)

const defaultHeartbeat = 25 * time.Second

type eventsHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo database.ProjectRepository
	hub         *feed.Hub
	heartbeat   time.Duration
}

func newEventsHandler(deps handlerDeps) eventsHandler {
	logger := log.With().Str("handlerName", "eventsHandler").Logger()

	return eventsHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: deps.database.ProjectRepo(),
		hub:         deps.hub,
		heartbeat:   defaultHeartbeat,
	}
}

// streamProject pushes vote and view snapshots as Server-Sent Events
// @Summary Live project snapshots
// @Description Sends the current snapshot, then one event per committed vote or view. Older snapshots never follow newer ones.
// @Tags Projects
// @Produce text/event-stream
// @Param projectID path string true "Project ID"
// @Success 200 {string} string "event stream"
// @Failure 404 {object} ErrorResponse
// @Router /api/projects/{projectID}/events [get]
func (h eventsHandler) streamProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		updates, cancel := h.hub.Subscribe(r.Context(), projectID)
		defer cancel()

		project, err := h.projectRepo.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find project", "project", err))
			return
		}

		rc := http.NewResponseController(w)
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			h.logger.Debug().Err(err).Msg("write deadline not adjustable")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		var latest feed.Latest
		initial := feed.SnapshotOf(project)
		latest.Offer(initial)
		if err := writeSnapshot(w, initial); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			h.logger.Warn().Err(err).Msg("event stream not flushable")
			return
		}

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
			case snap, ok := <-updates:
				if !ok {
					return
				}
				if !latest.Offer(snap) {
					continue
				}
				if err := writeSnapshot(w, snap); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeSnapshot(w http.ResponseWriter, snap feed.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Seq, data)
	return err
}
