package handler

import (
	"context"
	"net/http"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/microservices/http-api/service"
	"reviewhub/internal/permission"

	"github.com/gin-gonic/gin"
)

func registerClassificationRoutes(rg *gin.RouterGroup, list, create, remove gin.HandlerFunc) {
	policy := middleware.RequirePolicy(permission.AdminOrReadOnly)
	route(rg, http.MethodGet, "", policy, list)
	route(rg, http.MethodPost, "", policy, create)
	route(rg, http.MethodDelete, "/:slug", policy, remove)
}

type CategoryHandler struct {
	svc service.CategoryService
}

func NewCategoryHandler(svc service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	registerClassificationRoutes(rg, h.List, h.Create, h.Delete)
}

// GET /api/v1/categories/
func (h *CategoryHandler) List(c *gin.Context) {
	page := pageFromQuery(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	list, total, err := h.svc.List(ctx, c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.ClassificationResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.FromCategory(&list[i]))
	}
	c.JSON(http.StatusOK, dto.NewPaginated(resp, total, page, c.Request.URL))
}

// POST /api/v1/categories/
func (h *CategoryHandler) Create(c *gin.Context) {
	var in dto.ClassificationRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	category, err := h.svc.Create(ctx, in.Name, in.Slug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromCategory(category))
}

// DELETE /api/v1/categories/:slug/
func (h *CategoryHandler) Delete(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Delete(ctx, c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type GenreHandler struct {
	svc service.GenreService
}

func NewGenreHandler(svc service.GenreService) *GenreHandler {
	return &GenreHandler{svc: svc}
}

func (h *GenreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	registerClassificationRoutes(rg, h.List, h.Create, h.Delete)
}

// GET /api/v1/genres/
func (h *GenreHandler) List(c *gin.Context) {
	page := pageFromQuery(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	list, total, err := h.svc.List(ctx, c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.ClassificationResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.FromGenre(&list[i]))
	}
	c.JSON(http.StatusOK, dto.NewPaginated(resp, total, page, c.Request.URL))
}

// POST /api/v1/genres/
func (h *GenreHandler) Create(c *gin.Context) {
	var in dto.ClassificationRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	genre, err := h.svc.Create(ctx, in.Name, in.Slug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromGenre(genre))
}

// DELETE /api/v1/genres/:slug/
func (h *GenreHandler) Delete(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Delete(ctx, c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
