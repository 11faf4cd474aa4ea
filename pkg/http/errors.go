package http

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error       string            `json:"error"`                 // Machine-readable error code
	Message     string            `json:"message"`               // Human-readable message
	Details     string            `json:"details,omitempty"`     // Optional additional context
	Fields      map[string]string `json:"fields,omitempty"`      // Per-field validation messages
	IsLastAdmin bool              `json:"isLastAdmin,omitempty"` // Set when the last admin would be removed
}

// Error codes shared by handlers and middleware
const (
	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeValidation        = "validation_error"
	CodeConflict          = "conflict"
	CodeRateLimited       = "rate_limit_exceeded"
	CodeDownstreamFailure = "downstream_failure"
	CodeInternal          = "internal_error"
)

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	WriteErrorResponse(w, statusCode, ErrorResponse{Error: errorCode, Message: message})
}

// WriteErrorWithDetails writes a JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, errorCode, message, details string) {
	WriteErrorResponse(w, statusCode, ErrorResponse{Error: errorCode, Message: message, Details: details})
}

// WriteErrorResponse writes a fully populated error envelope
func WriteErrorResponse(w http.ResponseWriter, statusCode int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Log encoding errors but don't expose them to client
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes a successful JSON payload
func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// Common error writers for consistency
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeBadRequest, message)
}

func WriteValidationError(w http.ResponseWriter, message string, fields map[string]string) {
	WriteErrorResponse(w, http.StatusBadRequest, ErrorResponse{
		Error:   CodeValidation,
		Message: message,
		Fields:  fields,
	})
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// WriteLastAdmin refuses an action that would leave the system without an active admin.
func WriteLastAdmin(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusForbidden, ErrorResponse{
		Error:       CodeForbidden,
		Message:     message,
		IsLastAdmin: true,
	})
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, CodeRateLimited, message)
}

func WriteDownstreamFailure(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, CodeDownstreamFailure, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternal, message)
}
