package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/catalog"
	"github.com/saqr-syn/portfolio-backend/database"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/locale"
	"github.com/saqr-syn/portfolio-backend/models"
	"github.com/saqr-syn/portfolio-backend/services"
	"github.com/saqr-syn/portfolio-backend/votes"
)

type siteHandler struct {
	responder   Responder
	logger      zerolog.Logger
	catalog     *catalog.Catalog
	projectRepo database.ProjectRepository
	commentRepo database.CommentRepository
	locales     locale.Config
	siteBaseURL string
}

func newSiteHandler(deps handlerDeps) siteHandler {
	logger := log.With().Str("handlerName", "siteHandler").Logger()

	return siteHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		catalog:     deps.catalog,
		projectRepo: deps.database.ProjectRepo(),
		commentRepo: deps.database.CommentRepo(),
		locales:     deps.locales,
		siteBaseURL: deps.siteBaseURL,
	}
}

// localeOr404 reads the locale resolved by the middleware. Paths the middleware skipped have none.
func (h siteHandler) localeOr404(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	code, dir := requestLocale(r)
	if code == "" || code != chi.URLParam(r, "locale") {
		h.responder.WriteError(w, errs.NewNotFoundError("page"))
		return "", "", false
	}
	return code, dir, true
}

// home returns the landing page payload
// @Summary Locale home
// @Description Up to three projects with features, the first catalog page's tags and its cursor
// @Tags Site
// @Produce json
// @Param locale path string true "Locale code" Enums(en, ar)
// @Success 200 {object} HomeResponse
// @Router /{locale} [get]
func (h siteHandler) home() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, dir, ok := h.localeOr404(w, r)
		if !ok {
			return
		}

		page, err := h.catalog.List(r.Context(), "", 0)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, HomeResponse{
			Locale:     code,
			Dir:        dir,
			Featured:   h.catalog.Featured(r.Context(), catalog.MaxFeatured),
			Tags:       catalog.Tags(page.Items),
			NextCursor: page.NextCursor,
			HasMore:    page.HasMore,
		})
	}
}

// listProjects returns one filtered catalog page
// @Summary List projects
// @Description Cursor-paginated projects, newest first, filtered by tag and free text within the page
// @Tags Site
// @Produce json
// @Param locale path string true "Locale code"
// @Param cursor query string false "Opaque cursor from the previous page"
// @Param tag query string false "Exact tag"
// @Param q query string false "Free text"
// @Param pageSize query int false "Page size (default 12, max 50)"
// @Param seq query int false "Client request tag echoed back"
// @Success 200 {object} ProjectListResponse
// @Failure 400 {object} ErrorResponse "Bad Request - malformed cursor"
// @Router /{locale}/projects [get]
func (h siteHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, dir := requestLocale(r)
		if chi.URLParam(r, "locale") != "" {
			var ok bool
			if code, dir, ok = h.localeOr404(w, r); !ok {
				return
			}
		}

		q := r.URL.Query()
		pageSize := 0
		if raw := q.Get("pageSize"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				h.responder.WriteError(w, errs.NewInvalidFieldError("pageSize", "must be a positive integer"))
				return
			}
			pageSize = n
		}
		seq, _ := strconv.ParseUint(q.Get("seq"), 10, 64)

		page, err := h.catalog.List(r.Context(), q.Get("cursor"), pageSize)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		resp := ProjectListResponse{
			Seq:        seq,
			Items:      catalog.Filter(page.Items, catalog.Criteria{Tag: q.Get("tag"), Text: q.Get("q")}),
			Tags:       catalog.Tags(page.Items),
			NextCursor: page.NextCursor,
			HasMore:    page.HasMore,
			Degraded:   page.Degraded,
		}
		if code != "" {
			resp.Locale, resp.Dir = code, dir
		}
		h.responder.WriteJSON(w, resp)
	}
}

// projectDetail returns a project page and counts the view
// @Summary Project detail
// @Description Project, rounded rating, comments and stages. Counts one view, best effort.
// @Tags Site
// @Produce json
// @Param locale path string true "Locale code"
// @Param slug path string true "Project slug"
// @Success 200 {object} ProjectDetailResponse
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /{locale}/projects/{slug} [get]
func (h siteHandler) projectDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, dir, ok := h.localeOr404(w, r)
		if !ok {
			return
		}

		project, err := h.catalog.Detail(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		comments, err := h.commentRepo.FindByProject(r.Context(), project.ID)
		if err != nil {
			h.logger.Warn().Err(err).Str("projectID", project.ID).Msg("comments unavailable, rendering without them")
		}
		if comments == nil {
			comments = []*models.Comment{}
		}

		pending, completed := project.PendingStages(), project.CompletedStages()
		if pending == nil {
			pending = []models.Stage{}
		}
		if completed == nil {
			completed = []models.Stage{}
		}

		h.responder.WriteJSON(w, ProjectDetailResponse{
			Locale:          code,
			Dir:             dir,
			Project:         project,
			Rating:          ratingOf(votes.FromModel(project.Votes)),
			Views:           project.Views(),
			Comments:        comments,
			PendingStages:   pending,
			CompletedStages: completed,
		})
	}
}

// sitemap renders sitemap.xml
// @Summary Sitemap
// @Tags Site
// @Produce xml
// @Success 200 {string} string "sitemap"
// @Router /sitemap.xml [get]
func (h siteHandler) sitemap() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projectRepo.FindAll(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("sitemap without projects: store read failed")
			projects = nil
		}

		body, err := services.BuildSitemap(h.siteBaseURL, h.locales.Supported, projects, time.Now()).Marshal()
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to render sitemap", err))
			return
		}

		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		_, _ = w.Write(body)
	}
}
