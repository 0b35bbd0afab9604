package api

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/database"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/models"
)

const maxCommentLength = 2000

type commentHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo database.ProjectRepository
	commentRepo database.CommentRepository
}

func newCommentHandler(deps handlerDeps) commentHandler {
	logger := log.With().Str("handlerName", "commentHandler").Logger()

	return commentHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: deps.database.ProjectRepo(),
		commentRepo: deps.database.CommentRepo(),
	}
}

type CommentRequest struct {
	Text string `json:"text"`
}

// getComments lists the comments of a project
// @Summary List comments
// @Tags Comments
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {array} models.Comment
// @Router /api/projects/{projectID}/comments [get]
func (h commentHandler) getComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comments, err := h.commentRepo.FindByProject(r.Context(), chi.URLParam(r, "projectID"))
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find comments", "comments", err))
			return
		}
		if comments == nil {
			comments = []*models.Comment{}
		}
		h.responder.WriteJSON(w, comments)
	}
}

// addComment posts a comment as the signed-in visitor
// @Summary Add comment
// @Description Text is trimmed and must not be empty. Missing profile data falls back to Anonymous and the default avatar.
// @Tags Comments
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param comment body CommentRequest true "Comment text"
// @Success 201 {object} models.Comment
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse "Service Unavailable - retryable"
// @Router /api/projects/{projectID}/comments [post]
func (h commentHandler) addComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(r)
		if !ok {
			h.responder.WriteError(w, errs.NewAuthRequiredError("comment"))
			return
		}

		var req CommentRequest
		if err := decodeJSON(w, r, &req, "comment"); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		text := strings.TrimSpace(req.Text)
		if text == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("text"))
			return
		}
		if utf8.RuneCountInString(text) > maxCommentLength {
			h.responder.WriteError(w, errs.NewInvalidFieldError("text", "max=2000"))
			return
		}

		projectID := chi.URLParam(r, "projectID")
		if _, err := h.projectRepo.FindByID(r.Context(), projectID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find project", "project", err))
			return
		}

		comment := &models.Comment{
			ID:        uuid.New(),
			ProjectID: projectID,
			UserID:    id.ID,
			UserName:  id.DisplayName,
			UserPhoto: id.PhotoURL,
			Text:      text,
		}
		if strings.TrimSpace(comment.UserName) == "" {
			comment.UserName = models.AnonymousUserName
		}
		if comment.UserPhoto == "" {
			comment.UserPhoto = models.DefaultUserPhoto
		}

		if err := h.commentRepo.Add(r.Context(), comment); err != nil {
			if errs.IsNotFound(err) {
				h.responder.WriteError(w, errs.NewNotFoundError("project "+projectID))
				return
			}
			h.logger.Error().Err(err).Str("projectID", projectID).Msg("comment write failed")
			h.responder.WriteError(w, errs.NewWriteFailedError("comment", err))
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, comment)
	}
}
