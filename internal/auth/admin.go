package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Admin issues and verifies tokens for the dashboard. Customer identity
// lives at the external auth provider; this only gates the admin surface.
type Admin struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
}

func NewAdmin(passwordHash, secret string, ttl time.Duration) *Admin {
	return &Admin{
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
	}
}

// Login checks the admin password against the configured bcrypt hash and
// returns a signed HS256 token.
func (a *Admin) Login(password string) (string, error) {
	if len(a.passwordHash) == 0 || len(a.secret) == 0 {
		return "", errors.New("admin login is not configured")
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin",
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(a.ttl).Unix(),
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token issued by Login.
func (a *Admin) Verify(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// Middleware rejects requests without a valid bearer token.
func (a *Admin) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			unauthorized(w)
			return
		}
		if err := a.Verify(tokenString); err != nil {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
