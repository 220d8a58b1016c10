package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"autodiag-backend/internal/handlers"
	"autodiag-backend/internal/middleware"
	"autodiag-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	reportHandler *handlers.ReportHandler,
	chatHandler *handlers.ChatHandler,
	historyHandler *handlers.HistoryHandler,
	communityHandler *handlers.CommunityHandler,
	userHandler *handlers.UserHandler,
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

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.GoogleLogin)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Vehicle Search & Report Routes ────
		r.Route("/search", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", reportHandler.SubmitSearch)
			r.Get("/history", historyHandler.ListSearches)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/generate", reportHandler.Generate)
			r.Post("/", historyHandler.SaveReport)
			r.Get("/", historyHandler.ListReports)
		})

		// ──── Mechanic Chat Routes ────
		r.Route("/chats", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/sessions", chatHandler.CreateSession)
			r.Get("/sessions/{id}", chatHandler.GetMessages)
			r.Post("/sessions/{id}/messages", chatHandler.SendMessage)
			r.Post("/", historyHandler.SaveChat)
			r.Get("/", historyHandler.ListChats)
		})

		// ──── Community Routes ────
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", communityHandler.List) // Public

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/", communityHandler.Create)
			})
		})

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.GetMe)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
