package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/slowmind-be/internal/api/handlers"
	"github.com/isdelr/slowmind-be/internal/auth"
	"github.com/isdelr/slowmind-be/internal/config"
	"github.com/isdelr/slowmind-be/internal/services"
	"github.com/isdelr/slowmind-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	db handlers.Pinger,
	hub *websocket.Hub,
	tokens *auth.TokenService,
	userService services.UserServiceProvider,
	quoteService services.QuoteServiceProvider,
	meditationService services.MeditationServiceProvider,
	communityService services.CommunityServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.TokenHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokens, cfg.IsProduction())
	userHandler := handlers.NewUserHandler(userService)
	quoteHandler := handlers.NewQuoteHandler(quoteService)
	meditationHandler := handlers.NewMeditationHandler(meditationService)
	communityHandler := handlers.NewCommunityHandler(communityService)
	wsHandler := handlers.NewWebSocketHandler(hub, cfg.AllowedOrigins)
	healthHandler := handlers.NewHealthHandler(db)

	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/quotes/daily", quoteHandler.GetDaily)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(tokens.Middleware())

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", userHandler.GetMe)
				r.Get("/me/reminder", userHandler.GetReminder)
				r.Put("/{id}", userHandler.Update)
			})

			r.Get("/quotes", quoteHandler.GetAll)

			r.Route("/meditations", func(r chi.Router) {
				r.Get("/", meditationHandler.GetAll)
				r.Post("/", meditationHandler.Create)
				r.Get("/summary", meditationHandler.GetSummary)
				r.Delete("/{id}", meditationHandler.Delete)
			})

			r.Route("/community", func(r chi.Router) {
				r.Get("/ws", wsHandler.Serve)
				r.Route("/posts", func(r chi.Router) {
					r.Get("/", communityHandler.GetAll)
					r.Post("/", communityHandler.Create)
					r.Route("/{id}", func(r chi.Router) {
						r.Post("/like", communityHandler.Like)
						r.Get("/comments", communityHandler.GetComments)
						r.Post("/comments", communityHandler.Comment)
					})
				})
			})
		})
	})

	return r
}
