package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/urovesa/portal-api/internal/models"
)

// TokenManager mints and validates signed session tokens. Tokens are
// self-contained bearer credentials; the server holds no session table,
// so rotating the signing secret invalidates everything outstanding.
type TokenManager struct {
	secret string
	expiry time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: secret,
		expiry: expiry,
	}
}

// GenerateSessionToken creates a signed token carrying the profile's
// identity claims, expiring after the configured TTL.
func (tm *TokenManager) GenerateSessionToken(profile *models.Profile) (string, error) {
	now := time.Now()

	claims := &models.SessionClaims{
		Username:    profile.Username,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies signature and expiry and returns the claims.
// Every failure mode collapses to models.ErrUnauthorized so callers
// cannot leak signing details to the end user.
func (tm *TokenManager) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Username == "" {
		return nil, models.ErrUnauthorized
	}

	return claims, nil
}
