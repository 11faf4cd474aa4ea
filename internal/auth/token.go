package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserTokenKeyFetcher loads the user whose token key completes the signing key.
type UserTokenKeyFetcher interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// TokenPair is an access token with its refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenManager signs tokens with a composite key: the global secret
// followed by the user's token_key. Replacing a user's token_key therefore
// invalidates every token issued to them.
type TokenManager struct {
	secret             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	users              UserTokenKeyFetcher
	now                func() time.Time
}

func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration, users UserTokenKeyFetcher) *TokenManager {
	return &TokenManager{
		secret:             secret,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		users:              users,
		now:                time.Now,
	}
}

func (tm *TokenManager) compositeKey(tokenKey string) []byte {
	return []byte(tm.secret + tokenKey)
}

// IssuePair creates access and refresh tokens for a loaded user.
func (tm *TokenManager) IssuePair(user *models.User) (*TokenPair, error) {
	access, err := tm.generate(user, models.TokenTypeAccess, tm.accessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := tm.generate(user, models.TokenTypeRefresh, tm.refreshTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (tm *TokenManager) generate(user *models.User, tokenType string, expiry time.Duration) (string, error) {
	now := tm.now()
	claims := &models.TokenClaims{
		Type:   tokenType,
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.compositeKey(user.TokenKey))
}

// ValidateToken verifies a token against the user's current token key and
// returns its claims. A token whose user no longer exists fails.
func (tm *TokenManager) ValidateToken(ctx context.Context, tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		parsed, ok := token.Claims.(*models.TokenClaims)
		if !ok || parsed.UserID == "" {
			return nil, errors.New("token has no subject")
		}
		user, err := tm.users.GetByID(ctx, parsed.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		return tm.compositeKey(user.TokenKey), nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}
	if claims.Type != models.TokenTypeAccess && claims.Type != models.TokenTypeRefresh {
		return nil, fmt.Errorf("invalid token: unknown type %q", claims.Type)
	}

	return claims, nil
}
