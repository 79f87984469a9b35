package service

import (
	"errors"

	"reviewhub/internal/middleware/auth"
)

var (
	// signup and token exchange
	ErrReservedUsername        = errors.New("username \"me\" is reserved")
	ErrNameInUse               = errors.New("username already in use")
	ErrEmailInUse              = errors.New("email already in use")
	ErrTooManySignups          = errors.New("too many signup attempts")
	ErrMailDelivery            = errors.New("failed to send confirmation code")
	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")
	ErrInvalidToken            = auth.ErrInvalidToken
	ErrExpiredToken            = auth.ErrExpiredToken

	// lookups
	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrGenreNotFound    = errors.New("genre not found")
	ErrTitleNotFound    = errors.New("title not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrCommentNotFound  = errors.New("comment not found")

	// validation
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidRole     = errors.New("invalid role")
	ErrSlugInUse       = errors.New("slug already in use")
	ErrClassNameInUse  = errors.New("name already in use")
	ErrInvalidSlug     = errors.New("slug cannot be derived from name")
	ErrInvalidYear     = errors.New("year must be positive and not in the future")
	ErrUnknownCategory = errors.New("unknown category slug")
	ErrUnknownGenre    = errors.New("unknown genre slug")
	ErrDuplicateReview = errors.New("you have already reviewed this title")
	ErrEmptyText       = errors.New("text must not be empty")
)
