package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func okHandler(t *testing.T, wantUser string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if wantUser == "" {
			assert.Nil(t, user)
		} else {
			require.NotNil(t, user)
			assert.Equal(t, wantUser, user.ID)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp pkghttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func TestAuthenticate(t *testing.T) {
	active := testUser()
	suspended := &models.User{ID: "user-2", Email: "sus@example.com", TokenKey: "k2", IsSuspended: true}
	users := newStubUsers(active, suspended)
	tm := NewTokenManager("global-secret", time.Minute, time.Hour, users)

	activePair, err := tm.IssuePair(active)
	require.NoError(t, err)
	suspendedPair, err := tm.IssuePair(suspended)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", http.StatusUnauthorized, pkghttp.CodeUnauthorized},
		{"wrong scheme", "Basic " + activePair.AccessToken, http.StatusUnauthorized, pkghttp.CodeUnauthorized},
		{"refresh token", "Bearer " + activePair.RefreshToken, http.StatusUnauthorized, pkghttp.CodeUnauthorized},
		{"suspended user", "Bearer " + suspendedPair.AccessToken, http.StatusForbidden, CodeAccountSuspended},
		{"valid access token", "Bearer " + activePair.AccessToken, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Authenticate(tm, users, discardLogger)(okHandler(t, active.ID))

			req := httptest.NewRequest(http.MethodGet, "/profile/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
			}
		})
	}
}

func TestAuthenticate_SuspensionTakesEffectImmediately(t *testing.T) {
	user := testUser()
	users := newStubUsers(user)
	tm := NewTokenManager("global-secret", time.Minute, time.Hour, users)
	pair, err := tm.IssuePair(user)
	require.NoError(t, err)

	suspendedCopy := *user
	suspendedCopy.IsSuspended = true
	users.users[user.ID] = &suspendedCopy

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	Authenticate(tm, users, discardLogger)(okHandler(t, user.ID)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	user := testUser()
	users := newStubUsers(user)
	tm := NewTokenManager("global-secret", time.Minute, time.Hour, users)
	pair, err := tm.IssuePair(user)
	require.NoError(t, err)

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		OptionalAuth(tm, users, discardLogger)(okHandler(t, "")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("bad token served anonymously", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		OptionalAuth(tm, users, discardLogger)(okHandler(t, "")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		OptionalAuth(tm, users, discardLogger)(okHandler(t, user.ID)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		wantStatus int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"lobbyist", &models.User{ID: "u", Role: models.RoleLobbyist}, http.StatusForbidden},
		{"admin", &models.User{ID: "u", Role: models.RoleAdmin}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

type verifierFunc func(ctx context.Context, userID, code string) error

func (f verifierFunc) CheckCode(ctx context.Context, userID, code string) error {
	return f(ctx, userID, code)
}

func TestRequireMFA(t *testing.T) {
	admin := &models.User{ID: "admin-1", Role: models.RoleAdmin}

	tests := []struct {
		name       string
		result     error
		wantStatus int
		wantCode   string
	}{
		{"valid code", nil, http.StatusNoContent, ""},
		{"missing code", models.ErrMFARequired, http.StatusForbidden, "mfa_required"},
		{"wrong code", models.ErrInvalidMFACode, http.StatusForbidden, "invalid_mfa_code"},
		{"store failure", errors.New("db down"), http.StatusInternalServerError, pkghttp.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCode string
			verifier := verifierFunc(func(_ context.Context, userID, code string) error {
				assert.Equal(t, admin.ID, userID)
				gotCode = code
				return tt.result
			})

			req := httptest.NewRequest(http.MethodDelete, "/admin/users/u-9", nil)
			req.Header.Set(MFACodeHeader, " 123456 ")
			req = req.WithContext(WithUser(req.Context(), admin))
			rec := httptest.NewRecorder()
			RequireMFA(verifier)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})).ServeHTTP(rec, req)

			assert.Equal(t, "123456", gotCode)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
			}
		})
	}
}
