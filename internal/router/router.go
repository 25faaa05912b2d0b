package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"murajaa-backend/internal/handlers"
	"murajaa-backend/internal/middleware"
	"murajaa-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	deckHandler *handlers.DeckHandler,
	reviewHandler *handlers.ReviewHandler,
	sessionHandler *handlers.SessionHandler,
	settingsHandler *handlers.SettingsHandler,
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

	// Session transitions are hand-driven; anything faster than this is a
	// runaway client (120 req/min per IP).
	sessionLimiter := middleware.NewRateLimiter(120, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Deck & Card Routes ────
		r.Route("/decks", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", deckHandler.Create)
			r.Get("/", deckHandler.List)
			r.Get("/{id}", deckHandler.Get)
			r.Delete("/{id}", deckHandler.Delete)
			r.Post("/{id}/cards", deckHandler.CreateCard)
			r.Get("/{id}/cards", deckHandler.ListCards)
		})

		// ──── Review Routes (due-set, calendar, search) ────
		r.Route("/reviews", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/due", reviewHandler.Due)
			r.Get("/calendar", reviewHandler.Calendar)
			r.Get("/calendar/day", reviewHandler.CalendarDay)
			r.Get("/search", reviewHandler.Search)
		})

		// ──── Study Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(sessionLimiter.Middleware)
			r.Post("/", sessionHandler.Start)
			r.Get("/{id}", sessionHandler.Get)
			r.Post("/{id}/reveal", sessionHandler.Reveal)
			r.Post("/{id}/grade", sessionHandler.Grade)
			r.Post("/{id}/undo", sessionHandler.Undo)
			r.Post("/{id}/advance", sessionHandler.Advance)
			r.Post("/{id}/abort", sessionHandler.Abort)
		})

		// ──── Settings Routes ────
		r.Route("/user/settings", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/hotkeys", settingsHandler.GetHotkeys)
			r.Put("/hotkeys", settingsHandler.UpdateHotkeys)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
