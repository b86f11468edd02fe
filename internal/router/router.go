package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"agrichat/internal/handlers"
	"agrichat/internal/middleware"
	"agrichat/internal/websocket"
)

func New(
	chatHandler *handlers.ChatHandler,
	systemHandler *handlers.SystemHandler,
	askLimiter *middleware.RateLimiter,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", systemHandler.Health)
	r.Get("/test", systemHandler.Test)

	r.Get("/languages", chatHandler.Languages)

	r.Route("/chat", func(r chi.Router) {
		r.Post("/start", chatHandler.Start)

		r.Group(func(r chi.Router) {
			if askLimiter != nil {
				r.Use(askLimiter.Middleware)
			}
			r.Post("/ask", chatHandler.Ask)
		})

		r.Get("/{session_id}", chatHandler.History)
		r.Get("/{session_id}/ws", wsHub.HandleWebSocket)
	})

	return r
}
