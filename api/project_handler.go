package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/database"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/feed"
	"github.com/saqr-syn/portfolio-backend/models"
)

type projectHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo database.ProjectRepository
	hub         *feed.Hub
}

func newProjectHandler(deps handlerDeps) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: deps.database.ProjectRepo(),
		hub:         deps.hub,
	}
}

// ProjectCollection is the admin listing
type ProjectCollection struct {
	Projects []*models.Project `json:"projects"`
	Total    int               `json:"total"`
}

// lookup resolves a path key as a slug first, then as a primary key.
func (h projectHandler) lookup(r *http.Request, key string) (*models.Project, error) {
	project, err := h.projectRepo.FindBySlug(r.Context(), key)
	if err == nil || !errors.Is(err, errs.ErrNotFound) {
		return project, err
	}
	return h.projectRepo.FindByID(r.Context(), key)
}

// getProject retrieves a single project
// @Summary Get project
// @Description Raw project record by slug or id
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project slug or ID"
// @Success 200 {object} models.Project
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{projectID} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "projectID")
		if key == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("projectID"))
			return
		}

		project, err := h.lookup(r, key)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find project", "project", err))
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

// getAllProjects lists every project for the dashboard
// @Summary List all projects (admin)
// @Description Every project, newest first
// @Tags Admin
// @Produce json
// @Success 200 {object} ProjectCollection
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/admin/projects [get]
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projectRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find projects", "projects", err))
			return
		}
		if projects == nil {
			projects = []*models.Project{}
		}

		h.responder.WriteJSON(w, ProjectCollection{Projects: projects, Total: len(projects)})
	}
}

// createProject creates a project from the dashboard form
// @Summary Create project (admin)
// @Description Normalises the form and stores a new project. The slug becomes the ID when given.
// @Tags Admin
// @Accept json
// @Produce json
// @Param project body projectPayload true "Project form"
// @Success 201 {object} models.Project
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid project data"
// @Failure 409 {object} ErrorResponse "Conflict - Slug already taken"
// @Router /api/admin/projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload projectPayload
		if err := decodeJSON(w, r, &payload, "project"); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project := payload.toModel()
		if owner, ok := currentIdentity(r); ok {
			project.OwnerID = owner.ID
		}

		if err := h.projectRepo.Add(r.Context(), project); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create project", "project", err))
			return
		}

		h.logger.Info().Str("projectID", project.ID).Str("slug", project.Slug).Msg("project created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, project)
	}
}

// updateProject overwrites the editable fields of a project
// @Summary Update project (admin)
// @Description Last write wins. Votes, view counts, owner and creation time are preserved.
// @Tags Admin
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param project body projectPayload true "Project form"
// @Success 200 {object} models.Project
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/admin/projects/{projectID} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		var payload projectPayload
		if err := decodeJSON(w, r, &payload, "project"); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		current, err := h.projectRepo.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find project", "project", err))
			return
		}

		project := payload.toModel()
		project.ID = current.ID
		if project.Slug == "" {
			project.Slug = current.Slug
		}

		if err := h.projectRepo.Update(r.Context(), project); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update project", "project", err))
			return
		}

		updated, err := h.projectRepo.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find project", "project", err))
			return
		}
		h.hub.PublishProject(updated)

		h.responder.WriteJSON(w, updated)
	}
}

// deleteProject removes a project and its comments
// @Summary Delete project (admin)
// @Tags Admin
// @Param projectID path string true "Project ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Router /api/admin/projects/{projectID} [delete]
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		if err := h.projectRepo.Delete(r.Context(), projectID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete project", "project", err))
			return
		}

		h.logger.Info().Str("projectID", projectID).Msg("project deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}
