package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/logger"
	"reviewhub/internal/mailer"
	httpapi "reviewhub/internal/microservices/http-api"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/microservices/http-api/service"
	"reviewhub/internal/middleware/auth"
	"reviewhub/internal/throttle"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := logger.New(cfg)
	slog.SetDefault(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		logger.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db, logger); err != nil {
		logger.Error("database_migrate_failed", "error", err)
		os.Exit(1)
	}

	var signupThrottle throttle.SignupThrottle = throttle.Noop{}
	if cfg.UseRedis() {
		client, err := throttle.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("redis_connect_failed", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		signupThrottle = throttle.NewRedisThrottle(client, cfg.SignupLimit, cfg.SignupWindow)
		logger.Info("signup_throttle_enabled", "limit", cfg.SignupLimit, "window", cfg.SignupWindow)
	}

	m, err := mailer.New(cfg, logger)
	if err != nil {
		logger.Error("mailer_init_failed", "error", err)
		os.Exit(1)
	}

	codes, err := auth.NewCodeGenerator(cfg.SecretKey, cfg.ConfirmationCodeTTL)
	if err != nil {
		logger.Error("code_generator_init_failed", "error", err)
		os.Exit(1)
	}
	tokens, err := auth.NewTokenIssuer(cfg.SecretKey, cfg.JWTIssuer, cfg.AccessTokenTTL)
	if err != nil {
		logger.Error("token_issuer_init_failed", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepo(db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authService := service.NewAuthService(userRepo, codes, tokens, m, signupThrottle, logger,
		service.WithExpiredCodeRotation(cfg.RotateExpiredCodes))

	services := httpapi.Services{
		Auth:       authService,
		Users:      service.NewUserService(userRepo),
		Categories: service.NewCategoryService(categoryRepo),
		Genres:     service.NewGenreService(genreRepo),
		Titles:     service.NewTitleService(titleRepo, categoryRepo, genreRepo),
		Reviews:    service.NewReviewService(reviewRepo, titleRepo),
		Comments:   service.NewCommentService(commentRepo, reviewRepo),
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("database_handle_failed", "error", err)
		os.Exit(1)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Config:   cfg,
		Logger:   logger,
		Services: services,
		Users:    userRepo,
		Ping:     sqlDB.PingContext,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server_starting", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received_shutdown_signal")
	case err := <-errChan:
		logger.Error("server_error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
		return
	}
	logger.Info("server_stopped_gracefully")
}
