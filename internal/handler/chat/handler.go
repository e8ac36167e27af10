package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/civicdesk/tomas/internal/model/chat"
	"github.com/civicdesk/tomas/internal/model/persona"
	"github.com/civicdesk/tomas/internal/service/ai"
	chatService "github.com/civicdesk/tomas/internal/service/chat"
	"github.com/civicdesk/tomas/pkg/utils"
)

const (
	// SessionCookie carries the conversation id between requests.
	SessionCookie = "session_id"

	maxRequestBytes = 1 << 20

	// GenerationFailed is reported when the assistant could not answer.
	GenerationFailed = "Sorry, an error occurred while processing your message. Please try again."
)

// Handler serves the chat endpoint.
type Handler struct {
	chatSvc      *chatService.Service
	personaStore persona.Store
	generator    ai.Generator
	logger       zerolog.Logger
}

// New creates the chat handler. generator may be nil when no model is
// configured; the endpoint then answers 503.
func New(chatSvc *chatService.Service, personaStore persona.Store, generator ai.Generator, logger zerolog.Logger) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		personaStore: personaStore,
		generator:    generator,
		logger:       logger.With().Str("component", "chat").Logger(),
	}
}

// RegisterRoutes mounts the chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.Request
	if err := utils.DecodeJSON(w, r, &payload, maxRequestBytes); err != nil {
		h.logger.Debug().Err(err).Msg("rejecting request")
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	if h.generator == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "assistant unavailable")
		return
	}

	ctx := r.Context()
	session, err := h.resolveSession(w, r)
	if err != nil {
		h.logger.Error().Err(err).Msg("create session")
		utils.RespondError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	p, ok := h.personaStore.FindByID(session.PersonaID)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "persona not found")
		return
	}

	history, err := h.chatSvc.LoadTranscript(ctx, session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := h.chatSvc.SaveMessage(ctx, chat.Message{SessionID: session.ID, Sender: chat.SenderUser, Content: message}); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log := h.logger.With().Str("session", session.ID).Logger()
	log.Debug().Str("message", message).Msg("handling message")

	reply, err := h.generator.Reply(ctx, &p, history, message)
	if err != nil {
		log.Error().Err(err).Msg("generate reply")
		utils.RespondJSON(w, http.StatusOK, chat.Response{Error: GenerationFailed})
		return
	}

	if _, err := h.chatSvc.SaveMessage(ctx, chat.Message{SessionID: session.ID, Sender: chat.SenderBot, Content: reply}); err != nil {
		log.Warn().Err(err).Msg("store reply")
	}

	utils.RespondJSON(w, http.StatusOK, chat.Response{Response: reply})
}

// resolveSession returns the session named by the request cookie, creating a
// new one (and setting the cookie) when it is missing or unknown.
func (h *Handler) resolveSession(w http.ResponseWriter, r *http.Request) (chat.Session, error) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		session, err := h.chatSvc.GetSession(r.Context(), c.Value)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, chatService.ErrSessionNotFound) {
			return chat.Session{}, err
		}
	}

	personaID := persona.DefaultID
	if p, ok := h.personaStore.Default(); ok {
		personaID = p.ID
	}
	session, err := h.chatSvc.CreateSession(r.Context(), personaID)
	if err != nil {
		return chat.Session{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info().Str("session", session.ID).Msg("session created")
	return session, nil
}
