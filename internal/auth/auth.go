// Package auth issues and checks the signed tokens that bind a caller to a
// planner session.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	SessionTokenDuration = 7 * 24 * time.Hour
	TokenIssuer          = "healthbuddy"

	// ContextKeySessionID is the echo context key the middleware sets.
	ContextKeySessionID = "session_id"
)

var (
	ErrMissingSecret = errors.New("SESSION_SECRET is not set")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

type JwtCustomClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with an HMAC secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager returns a manager for secret. A non-positive ttl uses SessionTokenDuration.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = SessionTokenDuration
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// NewManagerFromEnv reads the secret from SESSION_SECRET.
func NewManagerFromEnv(ttl time.Duration) (*Manager, error) {
	return NewManager(os.Getenv("SESSION_SECRET"), ttl)
}

// GenerateSessionToken signs a token for sessionID and returns it with its expiry.
func (m *Manager) GenerateSessionToken(sessionID string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)

	claims := &JwtCustomClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

// ParseSessionToken verifies the signature, issuer and expiry of tokenString.
func (m *Manager) ParseSessionToken(tokenString string) (*JwtCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// JwtAuthMiddleware accepts a Bearer token, or a token query parameter for
// WebSocket upgrades, and stores the session id on the context.
func (m *Manager) JwtAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var tokenString string

		authHeader := c.Request().Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			tokenString = c.QueryParam("token")
		}
		if tokenString == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing session token"})
		}

		claims, err := m.ParseSessionToken(tokenString)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("Token validation error")
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		}

		c.Set(ContextKeySessionID, claims.SessionID)
		return next(c)
	}
}
