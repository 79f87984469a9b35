package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/middleware/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type authFixture struct {
	users    *MockUserRepository
	mailer   *MockMailer
	throttle *MockThrottle
	codes    *auth.CodeGenerator
	tokens   *auth.TokenIssuer
	svc      AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	codes, err := auth.NewCodeGenerator("test-secret", 72*time.Hour)
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer("test-secret", "reviewhub", time.Hour)
	require.NoError(t, err)

	f := &authFixture{
		users:    new(MockUserRepository),
		mailer:   new(MockMailer),
		throttle: new(MockThrottle),
		codes:    codes,
		tokens:   tokens,
	}
	f.svc = NewAuthService(f.users, codes, tokens, f.mailer, f.throttle, discardLogger())
	return f
}

func TestSignup_NewUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := &models.User{ID: "user-1", Email: "alice@example.com", Username: "alice", Role: models.RoleUser}

	f.users.On("FindByEmail", ctx, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	f.users.On("FindByUsername", ctx, "alice").Return(nil, gorm.ErrRecordNotFound)
	f.throttle.On("Allow", ctx, "alice@example.com").Return(true, nil)
	f.users.On("GetOrCreate", ctx, "alice@example.com", "alice").Return(user, true, nil)
	f.users.On("SetConfirmationCode", ctx, "user-1", mock.AnythingOfType("string")).Return(nil)
	f.mailer.On("Send", ctx, "alice@example.com", confirmationSubject, mock.AnythingOfType("string")).Return(nil)

	got, err := f.svc.Signup(ctx, "alice@example.com", "alice")

	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	require.NotNil(t, got.ConfirmationCode)
	assert.True(t, f.codes.Check(user, *got.ConfirmationCode))

	body := f.mailer.Calls[0].Arguments.String(3)
	assert.Contains(t, body, *got.ConfirmationCode)
	f.users.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func TestSignup_ExistingPairResendsSameCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := &models.User{ID: "user-1", Email: "alice@example.com", Username: "alice"}
	code := f.codes.Make(user)
	user.ConfirmationCode = &code

	f.users.On("FindByEmail", ctx, "alice@example.com").Return(user, nil)
	f.throttle.On("Allow", ctx, "alice@example.com").Return(true, nil)
	f.users.On("GetOrCreate", ctx, "alice@example.com", "alice").Return(user, false, nil)
	f.mailer.On("Send", ctx, "alice@example.com", confirmationSubject, mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, code)
	})).Return(nil)

	_, err := f.svc.Signup(ctx, "alice@example.com", "alice")

	require.NoError(t, err)
	f.users.AssertNotCalled(t, "SetConfirmationCode", mock.Anything, mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
	f.mailer.AssertExpectations(t)
}

func TestSignup_ExpiredCodeIsResentByDefault(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := &models.User{ID: "user-1", Email: "alice@example.com", Username: "alice"}
	stale := "1-deadbeef"
	user.ConfirmationCode = &stale

	f.users.On("FindByEmail", ctx, "alice@example.com").Return(user, nil)
	f.throttle.On("Allow", ctx, "alice@example.com").Return(true, nil)
	f.users.On("GetOrCreate", ctx, "alice@example.com", "alice").Return(user, false, nil)
	f.mailer.On("Send", ctx, "alice@example.com", confirmationSubject, mock.MatchedBy(func(body string) bool {
		return strings.HasSuffix(strings.TrimSpace(body), stale)
	})).Return(nil)

	got, err := f.svc.Signup(ctx, "alice@example.com", "alice")

	require.NoError(t, err)
	assert.Equal(t, stale, *got.ConfirmationCode)
	f.users.AssertNotCalled(t, "SetConfirmationCode", mock.Anything, mock.Anything, mock.Anything)
	f.mailer.AssertExpectations(t)
}

func TestSignup_ExpiredCodeIsReplacedWhenRotationEnabled(t *testing.T) {
	f := newAuthFixture(t)
	f.svc = NewAuthService(f.users, f.codes, f.tokens, f.mailer, f.throttle, discardLogger(), WithExpiredCodeRotation(true))
	ctx := context.Background()
	user := &models.User{ID: "user-1", Email: "alice@example.com", Username: "alice"}
	stale := "1-deadbeef"
	user.ConfirmationCode = &stale

	f.users.On("FindByEmail", ctx, "alice@example.com").Return(user, nil)
	f.throttle.On("Allow", ctx, "alice@example.com").Return(true, nil)
	f.users.On("GetOrCreate", ctx, "alice@example.com", "alice").Return(user, false, nil)
	f.users.On("SetConfirmationCode", ctx, "user-1", mock.AnythingOfType("string")).Return(nil)
	f.mailer.On("Send", ctx, "alice@example.com", confirmationSubject, mock.AnythingOfType("string")).Return(nil)

	got, err := f.svc.Signup(ctx, "alice@example.com", "alice")

	require.NoError(t, err)
	assert.NotEqual(t, stale, *got.ConfirmationCode)
	f.users.AssertExpectations(t)
}

func TestSignup_ReservedUsername(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Signup(context.Background(), "me@example.com", "me")

	assert.ErrorIs(t, err, ErrReservedUsername)
	f.users.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignup_EmailInUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.On("FindByEmail", ctx, "alice@example.com").
		Return(&models.User{Email: "alice@example.com", Username: "someone-else"}, nil)

	_, err := f.svc.Signup(ctx, "alice@example.com", "alice")

	assert.ErrorIs(t, err, ErrEmailInUse)
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSignup_UsernameInUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.On("FindByEmail", ctx, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
	f.users.On("FindByUsername", ctx, "alice").Return(&models.User{Username: "alice"}, nil)

	_, err := f.svc.Signup(ctx, "new@example.com", "alice")

	assert.ErrorIs(t, err, ErrNameInUse)
}

func TestSignup_Throttled(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.On("FindByEmail", ctx, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	f.users.On("FindByUsername", ctx, "alice").Return(nil, gorm.ErrRecordNotFound)
	f.throttle.On("Allow", ctx, "alice@example.com").Return(false, nil)

	_, err := f.svc.Signup(ctx, "alice@example.com", "alice")

	assert.ErrorIs(t, err, ErrTooManySignups)
	f.users.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignup_ThrottleOutageFailsOpen(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := &models.User{ID: "user-1", Email: "alice@example.com", Username: "alice"}

	f.users.On("FindByEmail", ctx, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	f.users.On("FindByUsername", ctx, "alice").Return(nil, gorm.ErrRecordNotFound)
	f.throttle.On("Allow", ctx, "alice@example.com").Return(false, errors.New("redis down"))
	f.users.On("GetOrCreate", ctx, "alice@example.com", "alice").Return(user, true, nil)
	f.users.On("SetConfirmationCode", ctx, "user-1", mock.AnythingOfType("string")).Return(nil)
	f.mailer.On("Send", ctx, "alice@example.com", confirmationSubject, mock.AnythingOfType("string")).Return(nil)

	_, err := f.svc.Signup(ctx, "alice@example.com", "alice")
	assert.NoError(t, err)
}

func TestSignup_ConcurrentInsertMapsToConflict(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.On("FindByEmail", ctx, "alice@example.com").Return(nil, gorm.ErrRecordNotFound).Once()
	f.users.On("FindByUsername", ctx, "alice").Return(nil, gorm.ErrRecordNotFound)
	f.throttle.On("Allow", ctx, "alice@example.com").Return(true, nil)
	f.users.On("GetOrCreate", ctx, "alice@example.com", "alice").Return(nil, false, gorm.ErrDuplicatedKey)
	f.users.On("FindByEmail", ctx, "alice@example.com").Return(&models.User{Username: "bob"}, nil).Once()

	_, err := f.svc.Signup(ctx, "alice@example.com", "alice")

	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestSignup_ConcurrentInsertSamePairSucceeds(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	winner := &models.User{ID: "user-1", Email: "alice@example.com", Username: "alice"}

	f.users.On("FindByEmail", ctx, "alice@example.com").Return(nil, gorm.ErrRecordNotFound).Once()
	f.users.On("FindByUsername", ctx, "alice").Return(nil, gorm.ErrRecordNotFound)
	f.throttle.On("Allow", ctx, "alice@example.com").Return(true, nil)
	f.users.On("GetOrCreate", ctx, "alice@example.com", "alice").Return(nil, false, gorm.ErrDuplicatedKey)
	f.users.On("FindByEmail", ctx, "alice@example.com").Return(winner, nil).Once()
	f.users.On("SetConfirmationCode", ctx, "user-1", mock.AnythingOfType("string")).Return(nil)
	f.mailer.On("Send", ctx, "alice@example.com", confirmationSubject, mock.AnythingOfType("string")).Return(nil)

	user, err := f.svc.Signup(ctx, "alice@example.com", "alice")

	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	f.mailer.AssertExpectations(t)
}

func TestSignup_ConcurrentInsertUsernameTaken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.On("FindByEmail", ctx, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	f.users.On("FindByUsername", ctx, "alice").Return(nil, gorm.ErrRecordNotFound)
	f.throttle.On("Allow", ctx, "alice@example.com").Return(true, nil)
	f.users.On("GetOrCreate", ctx, "alice@example.com", "alice").Return(nil, false, gorm.ErrDuplicatedKey)

	_, err := f.svc.Signup(ctx, "alice@example.com", "alice")

	assert.ErrorIs(t, err, ErrNameInUse)
}

func TestSignup_MailFailure(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := &models.User{ID: "user-1", Email: "alice@example.com", Username: "alice"}

	f.users.On("FindByEmail", ctx, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	f.users.On("FindByUsername", ctx, "alice").Return(nil, gorm.ErrRecordNotFound)
	f.throttle.On("Allow", ctx, "alice@example.com").Return(true, nil)
	f.users.On("GetOrCreate", ctx, "alice@example.com", "alice").Return(user, true, nil)
	f.users.On("SetConfirmationCode", ctx, "user-1", mock.AnythingOfType("string")).Return(nil)
	f.mailer.On("Send", ctx, "alice@example.com", confirmationSubject, mock.AnythingOfType("string")).
		Return(errors.New("smtp: connection refused"))

	_, err := f.svc.Signup(ctx, "alice@example.com", "alice")

	assert.ErrorIs(t, err, ErrMailDelivery)
}

func TestObtainToken_Success(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := &models.User{ID: "user-1", Email: "alice@example.com", Username: "alice", Role: models.RoleUser}
	code := f.codes.Make(user)
	user.ConfirmationCode = &code

	f.users.On("FindByUsername", ctx, "alice").Return(user, nil)

	token, err := f.svc.ObtainToken(ctx, "alice", code)
	require.NoError(t, err)

	claims, err := f.svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	// the same code may be exchanged again
	_, err = f.svc.ObtainToken(ctx, "alice", code)
	assert.NoError(t, err)
}

func TestObtainToken_UnknownUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.users.On("FindByUsername", ctx, "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, err := f.svc.ObtainToken(ctx, "ghost", "whatever")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestObtainToken_InvalidCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	withCode := &models.User{ID: "user-1", Email: "alice@example.com", Username: "alice"}
	code := f.codes.Make(withCode)
	withCode.ConfirmationCode = &code

	forged := &models.User{ID: "user-2", Email: "bob@example.com", Username: "bob"}
	forgedCode := f.codes.Make(withCode) // valid format, wrong user
	forged.ConfirmationCode = &forgedCode

	tests := []struct {
		name string
		user *models.User
		code string
	}{
		{"no stored code", &models.User{ID: "user-3", Username: "carol"}, "anything"},
		{"wrong code", withCode, "1-abc"},
		{"code for another user", forged, forgedCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.users.On("FindByUsername", ctx, tt.user.Username).Return(tt.user, nil)
			_, err := f.svc.ObtainToken(ctx, tt.user.Username, tt.code)
			assert.ErrorIs(t, err, ErrInvalidConfirmationCode)
		})
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
