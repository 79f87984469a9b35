package middleware

import (
	"net/http"
	"strings"

	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/microservices/http-api/service"
	"reviewhub/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userKey = "user"

// AuthMiddleware resolves the Bearer token, if any, to a user. Requests
// without an Authorization header continue anonymously; a header that does
// not carry a valid token for an existing user is rejected with 401.
func AuthMiddleware(authService service.AuthService, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid authorization header format"})
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
			return
		}

		if _, err := uuid.Parse(claims.UserID); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": service.ErrInvalidToken.Error()})
			return
		}

		// load the user so role changes and deletions apply immediately
		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if repository.IsNotFound(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "user not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
			return
		}

		c.Set(userKey, user)

		c.Next()
	}
}

// CurrentUser returns the authenticated caller, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// SetUser stores the caller on the context. Exposed for tests and tooling.
func SetUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
}

func permissionRequest(c *gin.Context) permission.Request {
	return permission.Request{Method: c.Request.Method, User: CurrentUser(c)}
}

func deny(c *gin.Context, r permission.Request) {
	if r.User == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "you do not have permission to perform this action"})
}

// RequirePolicy rejects the request unless p grants it: 401 for anonymous
// callers, 403 otherwise.
func RequirePolicy(p permission.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := permissionRequest(c)
		if !p.HasPermission(r) {
			deny(c, r)
			return
		}
		c.Next()
	}
}

// CheckObject applies p to a loaded object. It writes the error response and
// returns false when access is denied.
func CheckObject(c *gin.Context, p permission.Policy, obj permission.Authored) bool {
	r := permissionRequest(c)
	if !p.HasObjectPermission(r, obj) {
		deny(c, r)
		return false
	}
	return true
}
