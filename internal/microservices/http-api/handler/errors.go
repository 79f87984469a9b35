package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"reviewhub/internal/microservices/http-api/service"
	"reviewhub/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const requestTimeout = 5 * time.Second

const notFoundDetail = "Not found."

// fieldErrors maps validation sentinels to the request field they concern.
var fieldErrors = []struct {
	err   error
	field string
}{
	{service.ErrReservedUsername, "username"},
	{service.ErrNameInUse, "username"},
	{service.ErrInvalidUsername, "username"},
	{service.ErrEmailInUse, "email"},
	{service.ErrInvalidRole, "role"},
	{service.ErrSlugInUse, "slug"},
	{service.ErrInvalidSlug, "slug"},
	{service.ErrClassNameInUse, "name"},
	{service.ErrInvalidYear, "year"},
	{service.ErrUnknownCategory, "category"},
	{service.ErrUnknownGenre, "genre"},
	{service.ErrEmptyText, "text"},
	{service.ErrDuplicateReview, "non_field_errors"},
}

var notFoundErrors = []error{
	service.ErrUserNotFound,
	service.ErrCategoryNotFound,
	service.ErrGenreNotFound,
	service.ErrTitleNotFound,
	service.ErrReviewNotFound,
	service.ErrCommentNotFound,
}

// respondError translates a service error into its HTTP response. Unknown
// errors become 500 and are attached to the context for the request logger.
func respondError(c *gin.Context, err error) {
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			c.JSON(http.StatusBadRequest, gin.H{fe.field: []string{fe.err.Error()}})
			return
		}
	}
	for _, nf := range notFoundErrors {
		if errors.Is(err, nf) {
			c.JSON(http.StatusNotFound, gin.H{"detail": notFoundDetail})
			return
		}
	}

	switch {
	case errors.Is(err, service.ErrInvalidConfirmationCode):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, service.ErrTooManySignups):
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": err.Error()})
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrExpiredToken):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "request timed out"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

// respondBindError reports binding failures per field, keyed by json name.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
		}
		c.JSON(http.StatusBadRequest, fields)
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		c.JSON(http.StatusBadRequest, gin.H{typeErr.Field: []string{fmt.Sprintf("expected %s", typeErr.Type)}})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed request body"})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value is at least %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	case "username":
		return "Enter a valid username. Letters, digits and @/./+/-/_ only."
	case "slug":
		return "Enter a valid slug. Letters, digits, underscores or hyphens only."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

// pathID parses an integer path parameter. Malformed ids answer 404, the
// same as ids that do not exist.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": notFoundDetail})
		return 0, false
	}
	return id, true
}

func pageFromQuery(c *gin.Context) shared.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(shared.DefaultPageSize)))
	return shared.NewPage(page, pageSize)
}

// route registers path with and without a trailing slash.
func route(rg *gin.RouterGroup, method, path string, handlers ...gin.HandlerFunc) {
	rg.Handle(method, path, handlers...)
	rg.Handle(method, path+"/", handlers...)
}
