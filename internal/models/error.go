package models

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountSuspended = errors.New("account is suspended")
	ErrSelfAction       = errors.New("admins cannot perform this action on their own account")
	ErrLastAdmin        = errors.New("cannot remove the last active admin")

	// Profile and request workflow errors
	ErrProfileExists    = errors.New("user already has a lobbyist profile")
	ErrAlreadyClaimed   = errors.New("profile has already been claimed")
	ErrDuplicateRequest = errors.New("a pending request already exists")
	ErrNotPending       = errors.New("request is no longer pending")
	ErrNotRelated       = errors.New("requester does not own either profile")
	ErrSameProfile      = errors.New("primary and duplicate profiles must differ")
	ErrNotRegistered    = errors.New("role upgrade requires registered lobbyist status")

	// Resubmission gates, each mapped to a distinct error code
	ErrNoChanges            = errors.New("resubmission does not change the profile")
	ErrNotRejected          = errors.New("profile is not in the rejected state")
	ErrResubmissionLimit    = errors.New("resubmission attempt limit reached")
	ErrResubmissionCooldown = errors.New("resubmission cooldown has not elapsed")

	// Subscription errors
	ErrSameTier       = errors.New("subscription is already on the requested tier")
	ErrNoSubscription = errors.New("no active subscription")
	ErrTierMismatch   = errors.New("processor price does not match requested tier")

	// ErrDownstream wraps failures of the payment processor or other providers
	// that block the primary operation.
	ErrDownstream = errors.New("downstream provider failure")

	ErrMFARequired    = errors.New("mfa code required")
	ErrInvalidMFACode = errors.New("invalid mfa code")
)

// ValidationError reports rejected input fields; handlers render it as a
// 400 validation_error with the field map.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
