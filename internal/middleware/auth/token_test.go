package auth

import (
	"testing"
	"time"

	"reviewhub/internal/microservices/http-api/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", "reviewhub", time.Hour)
	require.NoError(t, err)

	user := &models.User{ID: "user-1", Username: "alice", Role: models.RoleModerator}
	token, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleModerator, claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "reviewhub", claims.Issuer)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", "reviewhub", time.Minute)
	require.NoError(t, err)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.Issue(&models.User{ID: "user-1"})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	a, _ := NewTokenIssuer("secret-a", "reviewhub", time.Hour)
	b, _ := NewTokenIssuer("secret-b", "reviewhub", time.Hour)

	token, err := a.Issue(&models.User{ID: "user-1"})
	require.NoError(t, err)

	_, err = b.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_WrongType(t *testing.T) {
	issuer, _ := NewTokenIssuer("test-secret", "reviewhub", time.Hour)

	claims := Claims{
		UserID:    "user-1",
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "reviewhub",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Garbage(t *testing.T) {
	issuer, _ := NewTokenIssuer("test-secret", "reviewhub", time.Hour)
	_, err := issuer.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func BenchmarkTokenIssuer_IssueAndParse(b *testing.B) {
	issuer, err := NewTokenIssuer("bench-secret", "reviewhub", time.Hour)
	require.NoError(b, err)
	user := &models.User{ID: "user-1", Username: "alice", Role: models.RoleUser}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		token, err := issuer.Issue(user)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := issuer.Parse(token); err != nil {
			b.Fatal(err)
		}
	}
}
