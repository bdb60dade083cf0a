package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/codeseed-ai/codeseed/internal/api/handlers"
	appMiddleware "github.com/codeseed-ai/codeseed/internal/api/middlewares"
	"github.com/codeseed-ai/codeseed/internal/config"
	"github.com/codeseed-ai/codeseed/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, logger *zap.Logger, authSvc *services.AuthService, chatSvc *services.ChatService, publishSvc *services.PublishService) *Server {
	authHandler := handlers.NewAuthHandler(authSvc, cfg.JWTSecret, logger)
	userHandler := handlers.NewUserHandler(authSvc, logger)
	chatHandler := handlers.NewChatHandler(chatSvc, logger)
	artifactHandler := handlers.NewArtifactHandler(publishSvc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	requireAuth := appMiddleware.JWTAuth(cfg.JWTSecret)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", authHandler.Register)
			ar.Post("/login", authHandler.Login)
			ar.Post("/google", authHandler.GoogleLogin)
			ar.Post("/send-reset-password", authHandler.SendResetOTP)
			ar.Post("/reset-password", authHandler.ResetPassword)

			ar.Group(func(protected chi.Router) {
				protected.Use(requireAuth)
				protected.Post("/logout", authHandler.Logout)
				protected.Post("/send-verify-otp", authHandler.SendVerifyOTP)
				protected.Post("/verify-account", authHandler.VerifyAccount)
				protected.Post("/is-auth", authHandler.IsAuthenticated)
			})
		})

		api.Group(func(protected chi.Router) {
			protected.Use(requireAuth)

			protected.Get("/user/data", userHandler.Data)

			protected.Route("/chat", func(cr chi.Router) {
				cr.Post("/", chatHandler.Create)
				cr.Get("/", chatHandler.List)
				cr.Post("/generate-code", chatHandler.GenerateCode)
				cr.Get("/search", chatHandler.Search)
				cr.Get("/{chatId}", chatHandler.Get)
				cr.Post("/{chatId}/message", chatHandler.SendMessage)
				cr.Patch("/{chatId}", chatHandler.Update)
				cr.Delete("/{chatId}", chatHandler.Delete)
			})

			protected.Post("/artifact/publish", artifactHandler.Publish)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, logger: logger}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
