package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"h2o-shop/internal/cache"
	"h2o-shop/internal/config"
	"h2o-shop/internal/database"
	"h2o-shop/internal/media"
	custommiddleware "h2o-shop/internal/middleware"
	"h2o-shop/internal/repository"
	"h2o-shop/internal/service"
	"h2o-shop/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
	auth   service.AuthService
}

// NewServer wires repositories, services and handlers. redisClient may be
// nil, in which case settings are read uncached and login is not rate limited.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client, store *media.Store) *Server {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server))

	// Repositories
	sqlDB := db.DB()
	userRepo := repository.NewUserRepository(sqlDB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	videoRepo := repository.NewVideoRepository(sqlDB)
	settingsRepo := repository.NewSettingsRepository(sqlDB)

	settingsCache := cache.Noop()
	loginLimit := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		settingsCache = cache.NewRedisCache(redisClient, "h2o:cache:", cfg.Cache.SettingsTTL)
		loginLimit = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.LoginRateLimit(cfg.RateLimit), logger)
	}

	// Services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, cfg.JWT)
	categoryService := service.NewCategoryService(categoryRepo)
	productService := service.NewProductService(productRepo, categoryRepo, store, logger)
	videoService := service.NewVideoService(videoRepo)
	settingsService := service.NewSettingsService(settingsRepo, settingsCache, store, logger)
	cartService := service.NewCartService(productRepo)

	authMiddleware := custommiddleware.AuthMiddleware(authService, logger)
	requireAdmin := custommiddleware.RequireAdmin(logger)
	admin := func(next http.Handler) http.Handler {
		return authMiddleware(requireAdmin(next))
	}

	router.Route("/api", func(r chi.Router) {
		transport.NewHealthHandler(db, cfg.Server.Env).RegisterRoutes(r)
		transport.NewAuthHandler(authService, logger).RegisterRoutes(r, authMiddleware, loginLimit)
		transport.NewProductHandler(productService, store, logger).RegisterRoutes(r, admin)
		transport.NewCategoryHandler(categoryService, logger).RegisterRoutes(r, admin)
		transport.NewVideoHandler(videoService, logger).RegisterRoutes(r, admin)
		transport.NewSettingsHandler(settingsService, store, logger).RegisterRoutes(r, admin)
		transport.NewCartHandler(cartService, logger).RegisterRoutes(r)
	})

	router.Handle(media.URLPrefix+"*", store.Handler())

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
		auth:   authService,
	}
}

// Bootstrap seeds the configured admin account and drops expired sessions.
func (s *Server) Bootstrap(ctx context.Context) error {
	created, err := s.auth.EnsureAdmin(ctx, s.config.Admin.Email, s.config.Admin.Password)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if created {
		s.logger.Info("Admin account created", zap.String("email", s.config.Admin.Email))
	}

	purged, err := s.auth.PurgeExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge sessions: %w", err)
	}
	if purged > 0 {
		s.logger.Info("Expired sessions purged", zap.Int64("count", purged))
	}
	return nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
	}

	_ = s.logger.Sync()
	return nil
}
