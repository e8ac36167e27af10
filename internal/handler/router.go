package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/civicdesk/tomas/internal/handler/chat"
	"github.com/civicdesk/tomas/internal/handler/persona"
	middlewarePkg "github.com/civicdesk/tomas/internal/middleware"
	personaModel "github.com/civicdesk/tomas/internal/model/persona"
	"github.com/civicdesk/tomas/internal/service/ai"
	chatService "github.com/civicdesk/tomas/internal/service/chat"
	"github.com/civicdesk/tomas/pkg/utils"
)

// NewRouter wires HTTP routes to core services. generator may be nil.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, generator ai.Generator, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	personaHandler := persona.New(personas)
	chatHandler := chat.New(chatSvc, personas, generator, logger)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":    "ok",
				"assistant": generator != nil,
			})
		})
	})

	return r
}
