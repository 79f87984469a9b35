package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"reviewhub/internal/mailer"
	"reviewhub/internal/metrics"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/middleware/auth"
	"reviewhub/internal/throttle"
)

// ReservedUsername cannot be registered since /users/me/ is the profile route.
const ReservedUsername = "me"

const confirmationSubject = "Your confirmation code"

type AuthService interface {
	Signup(ctx context.Context, email, username string) (*models.User, error)
	ObtainToken(ctx context.Context, username, code string) (string, error)
	ValidateToken(tokenString string) (*auth.Claims, error)
}

type authService struct {
	userRepo repository.UserRepository
	codes    *auth.CodeGenerator
	tokens   *auth.TokenIssuer
	mailer   mailer.Mailer
	throttle throttle.SignupThrottle
	logger   *slog.Logger

	rotateExpired bool
}

// AuthOption tunes an AuthService.
type AuthOption func(*authService)

// WithExpiredCodeRotation makes signup replace a stored code that has passed
// its TTL. Without it the stored code is resent as is, and an expired code
// keeps failing at the token endpoint.
func WithExpiredCodeRotation(enabled bool) AuthOption {
	return func(s *authService) { s.rotateExpired = enabled }
}

func NewAuthService(
	userRepo repository.UserRepository,
	codes *auth.CodeGenerator,
	tokens *auth.TokenIssuer,
	m mailer.Mailer,
	t throttle.SignupThrottle,
	logger *slog.Logger,
	opts ...AuthOption,
) AuthService {
	if t == nil {
		t = throttle.Noop{}
	}
	s := &authService{
		userRepo: userRepo,
		codes:    codes,
		tokens:   tokens,
		mailer:   m,
		throttle: t,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers the (email, username) pair, or finds it when it already
// exists, and mails its confirmation code. Repeat signups resend the stored
// code.
func (s *authService) Signup(ctx context.Context, email, username string) (*models.User, error) {
	if username == ReservedUsername {
		metrics.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrReservedUsername
	}

	if err := s.checkSignupConflicts(ctx, email, username); err != nil {
		metrics.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	allowed, err := s.throttle.Allow(ctx, email)
	if err != nil {
		// redis outage should not block registration
		s.logger.WarnContext(ctx, "signup_throttle_unavailable", "error", err)
		allowed = true
	}
	if !allowed {
		metrics.SignupsTotal.WithLabelValues("throttled").Inc()
		return nil, ErrTooManySignups
	}

	user, created, err := s.userRepo.GetOrCreate(ctx, email, username)
	if err != nil {
		if !repository.IsUniqueViolation(err) {
			return nil, err
		}
		// lost a race with a concurrent signup
		user, err = s.afterInsertRace(ctx, email, username)
		if err != nil {
			metrics.SignupsTotal.WithLabelValues("rejected").Inc()
			return nil, err
		}
	}

	code, err := s.ensureCode(ctx, user)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Hello %s,\n\nyour confirmation code is: %s\n", user.Username, code)
	if err := s.mailer.Send(ctx, user.Email, confirmationSubject, body); err != nil {
		metrics.SignupsTotal.WithLabelValues("mail_failed").Inc()
		s.logger.ErrorContext(ctx, "signup_mail_failed", "username", user.Username, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	result := "resent"
	if created {
		result = "created"
	}
	metrics.SignupsTotal.WithLabelValues(result).Inc()
	s.logger.InfoContext(ctx, "signup_code_sent", "username", user.Username, "created", created)

	return user, nil
}

func (s *authService) checkSignupConflicts(ctx context.Context, email, username string) error {
	byEmail, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if byEmail.Username == username {
			return nil
		}
		return ErrEmailInUse
	case !repository.IsNotFound(err):
		return fmt.Errorf("lookup email: %w", err)
	}

	_, err = s.userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return ErrNameInUse
	case !repository.IsNotFound(err):
		return fmt.Errorf("lookup username: %w", err)
	}
	return nil
}

// afterInsertRace re-reads the row that won a concurrent insert. The same
// pair is the existing-user path; anything else is a conflict.
func (s *authService) afterInsertRace(ctx context.Context, email, username string) (*models.User, error) {
	byEmail, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if byEmail.Username == username {
			return byEmail, nil
		}
		return nil, ErrEmailInUse
	case !repository.IsNotFound(err):
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	return nil, ErrNameInUse
}

// ensureCode generates a code only when none is stored. An expired code is
// replaced when rotation is enabled, since Check rejects it past
// CONFIRMATION_CODE_TTL and the account could never obtain a token.
func (s *authService) ensureCode(ctx context.Context, user *models.User) (string, error) {
	if user.ConfirmationCode != nil {
		if !s.rotateExpired || s.codes.Check(user, *user.ConfirmationCode) {
			return *user.ConfirmationCode, nil
		}
		s.logger.InfoContext(ctx, "confirmation_code_rotated", "username", user.Username)
	}

	code := s.codes.Make(user)
	if err := s.userRepo.SetConfirmationCode(ctx, user.ID, code); err != nil {
		return "", err
	}
	user.ConfirmationCode = &code
	return code, nil
}

// ObtainToken exchanges a username and its confirmation code for an access
// token. The code stays usable until it expires or is replaced.
func (s *authService) ObtainToken(ctx context.Context, username, code string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if user.ConfirmationCode == nil ||
		subtle.ConstantTimeCompare([]byte(*user.ConfirmationCode), []byte(code)) != 1 ||
		!s.codes.Check(user, code) {
		s.logger.InfoContext(ctx, "token_rejected", "username", username)
		return "", ErrInvalidConfirmationCode
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", err
	}

	metrics.TokensIssued.Inc()
	s.logger.InfoContext(ctx, "token_issued", "username", user.Username)
	return token, nil
}

func (s *authService) ValidateToken(tokenString string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}
