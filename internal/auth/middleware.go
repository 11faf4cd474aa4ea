package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
)

// MFACodeHeader carries the admin's current TOTP code on destructive requests.
const MFACodeHeader = "X-MFA-Code"

// CodeAccountSuspended is the error code returned to suspended accounts.
const CodeAccountSuspended = "account_suspended"

type contextKey string

const (
	// UserContextKey holds the live *models.User of the caller
	UserContextKey contextKey = "user"
)

// UserRepository loads the live user row for every authenticated request.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// MFAVerifier checks a TOTP code for a user. A user without an enrolled
// device passes.
type MFAVerifier interface {
	CheckCode(ctx context.Context, userID, code string) error
}

// Authenticate validates the bearer access token, loads the live user and
// refuses suspended accounts. Role and suspension are never read from the token.
func Authenticate(tm *TokenManager, users UserRepository, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, status := authenticate(r, tm, users, logger)
			switch status {
			case http.StatusOK:
			case http.StatusForbidden:
				pkghttp.WriteError(w, http.StatusForbidden, CodeAccountSuspended, "account is suspended")
				return
			case http.StatusInternalServerError:
				pkghttp.WriteInternalError(w, "internal server error")
				return
			default:
				pkghttp.WriteUnauthorized(w, "invalid or missing credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the caller when a valid token is present and
// otherwise serves the request anonymously.
func OptionalAuth(tm *TokenManager, users UserRepository, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			if user, status := authenticate(r, tm, users, logger); status == http.StatusOK {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, tm *TokenManager, users UserRepository, logger *slog.Logger) (*models.User, int) {
	tokenString, ok := bearerToken(r)
	if !ok {
		return nil, http.StatusUnauthorized
	}

	claims, err := tm.ValidateToken(r.Context(), tokenString)
	if err != nil {
		logger.DebugContext(r.Context(), "token rejected", slog.Any("error", err))
		return nil, http.StatusUnauthorized
	}

	// Refresh tokens are only accepted by /auth/refresh
	if claims.Type != models.TokenTypeAccess {
		return nil, http.StatusUnauthorized
	}

	user, err := users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, http.StatusUnauthorized
		}
		logger.ErrorContext(r.Context(), "failed to load user", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, http.StatusInternalServerError
	}
	if user.IsSuspended {
		return nil, http.StatusForbidden
	}
	return user, http.StatusOK
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			pkghttp.WriteUnauthorized(w, "unauthorized")
			return
		}
		if !user.IsAdmin() {
			pkghttp.WriteForbidden(w, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMFA demands a valid X-MFA-Code from admins who have enrolled a device.
func RequireMFA(verifier MFAVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			err := verifier.CheckCode(r.Context(), user.ID, strings.TrimSpace(r.Header.Get(MFACodeHeader)))
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, models.ErrMFARequired):
				pkghttp.WriteError(w, http.StatusForbidden, "mfa_required", "an MFA code is required for this action")
			case errors.Is(err, models.ErrInvalidMFACode):
				pkghttp.WriteError(w, http.StatusForbidden, "invalid_mfa_code", "the MFA code is invalid")
			default:
				pkghttp.WriteInternalError(w, "internal server error")
			}
		})
	}
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserContextKey).(*models.User)
	return user
}
