package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"reviewhub/internal/microservices/http-api/models"

	"golang.org/x/crypto/hkdf"
)

const (
	codeKeyInfo = "confirmation-code"
	codeMACSize = 20 // truncated HMAC-SHA256, hex encoded to 40 chars
)

var ErrEmptySecret = errors.New("secret key must not be empty")

// CodeGenerator issues and verifies the confirmation codes mailed at signup.
//
// A code is "<base36 unix timestamp>-<hex mac>", where the mac covers the user
// id, the email and the timestamp. Nothing but the code itself needs storing,
// and changing SECRET_KEY invalidates every outstanding code.
type CodeGenerator struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewCodeGenerator(secret string, ttl time.Duration) (*CodeGenerator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, sha256.Size)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(codeKeyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive confirmation code key: %w", err)
	}

	return &CodeGenerator{key: key, ttl: ttl, now: time.Now}, nil
}

// Make returns a fresh code bound to the user's id and email.
func (g *CodeGenerator) Make(user *models.User) string {
	ts := strconv.FormatInt(g.now().Unix(), 36)
	return ts + "-" + g.sign(user, ts)
}

// Check reports whether code was made for user and has not expired.
func (g *CodeGenerator) Check(user *models.User, code string) bool {
	if user == nil || code == "" {
		return false
	}

	ts, mac, ok := strings.Cut(code, "-")
	if !ok {
		return false
	}

	issued, err := strconv.ParseInt(ts, 36, 64)
	if err != nil {
		return false
	}

	age := g.now().Sub(time.Unix(issued, 0))
	if age < 0 || age > g.ttl {
		return false
	}

	return hmac.Equal([]byte(mac), []byte(g.sign(user, ts)))
}

func (g *CodeGenerator) sign(user *models.User, ts string) string {
	h := hmac.New(sha256.New, g.key)
	h.Write([]byte(user.ID))
	h.Write([]byte{0})
	h.Write([]byte(user.Email))
	h.Write([]byte{0})
	h.Write([]byte(ts))
	return hex.EncodeToString(h.Sum(nil)[:codeMACSize])
}
