package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userapi/internal/config"
	"userapi/internal/crypto"
	"userapi/internal/handler"
	"userapi/internal/middleware"
	"userapi/internal/repository"
	"userapi/internal/service"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	router *gin.Engine
	db     handler.Pinger
	users  repository.UserRepository
	hasher *crypto.PasswordHasher
	cfg    *config.Config
	log    *zap.Logger
}

func NewServer(cfg *config.Config, db handler.Pinger, users repository.UserRepository, hasher *crypto.PasswordHasher, log *zap.Logger) (*Server, error) {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
	)

	s := &Server{
		router: router,
		db:     db,
		users:  users,
		hasher: hasher,
		cfg:    cfg,
		log:    log,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := service.NewTokenService(s.cfg.Auth.SecretKey, s.cfg.Auth.Algorithm, s.cfg.AccessTokenTTL())
	if err != nil {
		return fmt.Errorf("failed to set up token service: %w", err)
	}

	authService := service.NewAuthService(s.users, s.hasher, tokens, s.log)
	userService := service.NewUserService(s.users, s.hasher, s.log)

	authHandler := handler.NewAuthHandler(authService, s.log)
	userHandler := handler.NewUserHandler(userService, s.log)

	loginLimiter := middleware.NewLoginRateLimiter(s.cfg.RateLimit.LoginMax, s.cfg.LoginWindow())
	requireAuth := middleware.AuthMiddleware(authService, s.log)

	s.router.GET("/", handler.Root)
	s.router.GET("/html", handler.HTMLPage)
	s.router.GET("/health", handler.Health(s.db, s.log))

	s.router.POST("/auth/token", loginLimiter.Middleware(), authHandler.Login)

	users := s.router.Group("/users")
	users.POST("", userHandler.Create)

	authenticated := users.Group("")
	authenticated.Use(requireAuth)
	{
		authenticated.GET("", userHandler.List)
		authenticated.GET("/:id", userHandler.Get)
		authenticated.PUT("/:id", userHandler.Update)
		authenticated.DELETE("/:id", userHandler.Delete)
	}

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
