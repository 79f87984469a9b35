package handler

import (
	"context"
	"net/http"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/microservices/http-api/service"
	"reviewhub/internal/permission"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes registers the admin user routes and the caller's own
// profile at /me.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authenticated := middleware.RequirePolicy(permission.Authenticated)
	route(rg, http.MethodGet, "/me", authenticated, h.Me)
	route(rg, http.MethodPatch, "/me", authenticated, h.UpdateMe)

	admin := middleware.RequirePolicy(permission.AdminOnly)
	route(rg, http.MethodGet, "", admin, h.List)
	route(rg, http.MethodPost, "", admin, h.Create)
	route(rg, http.MethodGet, "/:username", admin, h.Get)
	route(rg, http.MethodPatch, "/:username", admin, h.Update)
	route(rg, http.MethodDelete, "/:username", admin, h.Delete)
}

// List returns users filtered by ?search= and ordered by ?ordering=
// (username or -username).
// GET /api/v1/users/
func (h *UserHandler) List(c *gin.Context) {
	page := pageFromQuery(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	filter := repository.UserFilter{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}
	users, total, err := h.userService.List(ctx, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, dto.FromModelToUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, dto.NewPaginated(resp, total, page, c.Request.URL))
}

// POST /api/v1/users/
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.userService.Create(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromModelToUserResponse(user))
}

// GET /api/v1/users/:username/
func (h *UserHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.userService.Get(ctx, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToUserResponse(user))
}

// PATCH /api/v1/users/:username/
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.userService.Update(ctx, c.Param("username"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToUserResponse(user))
}

// DELETE /api/v1/users/:username/
func (h *UserHandler) Delete(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.userService.Delete(ctx, c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller's profile.
// GET /api/v1/users/me/
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FromModelToUserResponse(middleware.CurrentUser(c)))
}

// UpdateMe edits the caller's profile. Only admins may change their own role.
// PATCH /api/v1/users/me/
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.userService.UpdateProfile(ctx, middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToUserResponse(user))
}
