package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/services"
)

const multipartMemory = 8 << 20

type mediaHandler struct {
	responder Responder
	logger    zerolog.Logger
	media     *services.MediaStore
}

func newMediaHandler(deps handlerDeps) mediaHandler {
	logger := log.With().Str("handlerName", "mediaHandler").Logger()

	return mediaHandler{
		responder: NewResponder(logger),
		logger:    logger,
		media:     deps.media,
	}
}

type MediaResponse struct {
	URL string `json:"url"`
}

// uploadMedia stores a screenshot or video for a project
// @Summary Upload media (admin)
// @Description Multipart upload, field "file"; optional "folder" groups files per project
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "png, jpeg, webp, gif or mp4"
// @Param folder formData string false "Folder, usually the project slug"
// @Success 201 {object} MediaResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/admin/media [post]
func (h mediaHandler) uploadMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.media == nil {
			h.responder.WriteError(w, errs.NewApiErr(http.StatusServiceUnavailable, "media uploads are not configured"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, services.MaxMediaSize+1<<20)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(services.MaxMediaSize))
				return
			}
			h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart form", err))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("file"))
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		url, err := h.media.Upload(r.Context(), r.FormValue("folder"), contentType, file, header.Size)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Str("url", url).Int64("size", header.Size).Msg("media uploaded")
		h.responder.WriteJSONStatus(w, http.StatusCreated, MediaResponse{URL: url})
	}
}
