package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/votes"
)

type voteHandler struct {
	responder Responder
	logger    zerolog.Logger
	votes     *votes.Service
}

func newVoteHandler(deps handlerDeps) voteHandler {
	logger := log.With().Str("handlerName", "voteHandler").Logger()

	return voteHandler{
		responder: NewResponder(logger),
		logger:    logger,
		votes:     deps.votes,
	}
}

type VoteRequest struct {
	Star int `json:"star"`
}

// castVote records one star rating per identity
// @Summary Cast vote
// @Description Adds a 1-5 star vote. Each identity votes once per project.
// @Tags Votes
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param vote body VoteRequest true "Star value"
// @Success 201 {object} RatingResponse
// @Failure 400 {object} ErrorResponse "Bad Request - star outside 1..5"
// @Failure 401 {object} ErrorResponse "Unauthorized - sign in to vote"
// @Failure 409 {object} ErrorResponse "Conflict - already voted"
// @Failure 503 {object} ErrorResponse "Service Unavailable - retryable"
// @Router /api/projects/{projectID}/votes [post]
func (h voteHandler) castVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(r)
		if !ok {
			h.responder.WriteError(w, errs.NewAuthRequiredError("vote"))
			return
		}

		var req VoteRequest
		if err := decodeJSON(w, r, &req, "vote"); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		state, err := h.votes.Cast(r.Context(), chi.URLParam(r, "projectID"), id.ID, req.Star)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, ratingOf(state))
	}
}
