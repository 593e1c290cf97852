package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quantumfield-backend/internal/handlers"
	"quantumfield-backend/internal/middleware"
	"quantumfield-backend/internal/websocket"
)

func New(
	sessionLimiter *middleware.RateLimiter,
	sessionHandler *handlers.SessionHandler,
	optimizeHandler *handlers.OptimizeHandler,
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(120 * time.Second))
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(sessionLimiter.Middleware)
				r.Post("/", sessionHandler.Create)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Post("/upload", sessionHandler.Upload)

				r.Post("/optimize", optimizeHandler.Optimize)
				r.Post("/optimize/sync", optimizeHandler.OptimizeSync)
				r.Get("/result", optimizeHandler.GetResult)

				r.Route("/chat", func(r chi.Router) {
					r.Post("/ask", chatHandler.Ask)
					r.Post("/analyze", chatHandler.Analyze)
					r.Post("/follow-ups", chatHandler.SuggestFollowUps)
				})
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
