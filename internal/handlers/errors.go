package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/auth"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/moderation"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
)

// writeServiceError renders a service error. Services already log internal
// failures, so unknown errors are only logged here at debug level.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		pkghttp.WriteValidationError(w, "Request validation failed", verr.Fields)
		return
	}

	if code := moderation.ErrorCode(err); code != "" && code != pkghttp.CodeForbidden {
		pkghttp.WriteError(w, http.StatusBadRequest, code, err.Error())
		return
	}

	switch {
	case errors.Is(err, models.ErrLastAdmin):
		pkghttp.WriteLastAdmin(w, "Cannot remove the last active admin")
	case errors.Is(err, models.ErrAccountSuspended):
		pkghttp.WriteError(w, http.StatusForbidden, auth.CodeAccountSuspended, "This account is suspended")
	case errors.Is(err, models.ErrSelfAction):
		pkghttp.WriteForbidden(w, "Admins cannot perform this action on their own account")
	case errors.Is(err, models.ErrNotRelated):
		pkghttp.WriteForbidden(w, "You do not own either profile")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "You do not have access to this resource")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrProfileExists),
		errors.Is(err, models.ErrAlreadyClaimed),
		errors.Is(err, models.ErrDuplicateRequest),
		errors.Is(err, models.ErrNotPending),
		errors.Is(err, models.ErrSameTier),
		errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, conflictMessage(err))
	case errors.Is(err, models.ErrSameProfile),
		errors.Is(err, models.ErrNotRegistered),
		errors.Is(err, models.ErrNoSubscription),
		errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrInvalidMFACode):
		pkghttp.WriteError(w, http.StatusBadRequest, "invalid_mfa_code", "The MFA code is invalid")
	case errors.Is(err, models.ErrDownstream):
		pkghttp.WriteDownstreamFailure(w, "An upstream provider failed; no changes were saved")
	default:
		if logger != nil && !errors.Is(err, models.ErrInternalServer) {
			logger.DebugContext(r.Context(), "unmapped service error", slog.Any("error", err))
		}
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

func conflictMessage(err error) string {
	if errors.Is(err, models.ErrConflict) {
		return "Resource already exists"
	}
	return err.Error()
}

// currentUser returns the authenticated user, writing 401 when absent.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return nil, false
	}
	return user, true
}
