package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/civicdesk/tomas/internal/model/persona"
	"github.com/civicdesk/tomas/pkg/utils"
)

// Handler serves the assistant persona so clients can greet the user.
type Handler struct {
	personas persona.Store
}

// New creates the persona handler.
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes mounts the persona routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/persona", h.handleDefaultPersona)
}

func (h *Handler) handleListPersonas(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}

func (h *Handler) handleDefaultPersona(w http.ResponseWriter, _ *http.Request) {
	p, ok := h.personas.Default()
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}
