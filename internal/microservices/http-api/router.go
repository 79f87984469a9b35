package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/metrics"
	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/handler"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// Services groups the business layer the router exposes.
type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Categories service.CategoryService
	Genres     service.GenreService
	Titles     service.TitleService
	Reviews    service.ReviewService
	Comments   service.CommentService
}

// Deps carries everything NewRouter needs.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Services Services
	Users    repository.UserRepository
	// Ping reports database health for /healthz. Nil means always healthy.
	Ping func(ctx context.Context) error
}

// NewRouter builds the gin engine with the middleware chain, operational
// endpoints and the /api/v1 resource routes.
func NewRouter(deps Deps) *gin.Engine {
	dto.RegisterValidators()
	metrics.Init()

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(deps.Logger),
		middleware.Metrics(),
		middleware.RateLimit(deps.Config.RateLimitRPS, deps.Config.RateLimitBurst),
	)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "method not allowed"})
	})

	r.GET("/healthz", healthz(deps.Ping))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(deps.Services.Auth, deps.Users))

	handler.NewAuthHandler(deps.Services.Auth).RegisterRoutes(api.Group("/auth"))
	handler.NewUserHandler(deps.Services.Users).RegisterRoutes(api.Group("/users"))
	handler.NewCategoryHandler(deps.Services.Categories).RegisterRoutes(api.Group("/categories"))
	handler.NewGenreHandler(deps.Services.Genres).RegisterRoutes(api.Group("/genres"))

	titles := api.Group("/titles")
	handler.NewTitleHandler(deps.Services.Titles).RegisterRoutes(titles)
	reviews := titles.Group("/:title_id/reviews")
	handler.NewReviewHandler(deps.Services.Reviews).RegisterRoutes(reviews)
	handler.NewCommentHandler(deps.Services.Comments).RegisterRoutes(reviews.Group("/:review_id/comments"))

	return r
}

func healthz(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	}
}
