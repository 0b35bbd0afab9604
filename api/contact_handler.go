package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/database"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/models"
	"github.com/saqr-syn/portfolio-backend/services"
)

const contactMailTimeout = 15 * time.Second

type contactHandler struct {
	responder   Responder
	logger      zerolog.Logger
	contactRepo database.ContactRepository
	mailer      *services.Mailer
	background  *sync.WaitGroup
}

func newContactHandler(deps handlerDeps) contactHandler {
	logger := log.With().Str("handlerName", "contactHandler").Logger()

	return contactHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		contactRepo: deps.database.ContactRepo(),
		mailer:      deps.mailer,
		background:  deps.background,
	}
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

// submitContact stores a contact form message and forwards it by email
// @Summary Contact form
// @Description Stores the message, then emails the owner. Mail delivery is best effort.
// @Tags Contact
// @Accept json
// @Produce json
// @Param message body ContactRequest true "Contact form"
// @Success 201 {object} models.ContactMessage
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse "Service Unavailable - retryable"
// @Router /api/contact [post]
func (h contactHandler) submitContact() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ContactRequest
		if err := decodeJSON(w, r, &req, "contact message"); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		msg := &models.ContactMessage{
			ID:      uuid.New(),
			Name:    strings.TrimSpace(req.Name),
			Email:   strings.TrimSpace(req.Email),
			Message: strings.TrimSpace(req.Message),
		}
		if msg.Name == "" || msg.Message == "" {
			field := "name"
			if msg.Name != "" {
				field = "message"
			}
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError(field))
			return
		}

		if err := h.contactRepo.Add(r.Context(), msg); err != nil {
			h.logger.Error().Err(err).Msg("contact message write failed")
			h.responder.WriteError(w, errs.NewWriteFailedError("message", err))
			return
		}

		if h.mailer.Enabled() {
			h.background.Add(1)
			go func(ctx context.Context) {
				defer h.background.Done()
				ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), contactMailTimeout)
				defer cancel()
				if err := h.mailer.NotifyContact(ctx, msg); err != nil {
					h.logger.Warn().Err(err).Str("messageID", msg.ID.String()).Msg("contact notification not sent")
				}
			}(r.Context())
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, msg)
	}
}

// getContactMessages lists stored contact messages
// @Summary List contact messages (admin)
// @Tags Admin
// @Produce json
// @Success 200 {array} models.ContactMessage
// @Router /api/admin/contact-messages [get]
func (h contactHandler) getContactMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := h.contactRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find contact messages", "contact messages", err))
			return
		}
		if messages == nil {
			messages = []*models.ContactMessage{}
		}
		h.responder.WriteJSON(w, messages)
	}
}
