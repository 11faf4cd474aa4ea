package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
)

// MFAServiceInterface covers admin TOTP enrollment.
type MFAServiceInterface interface {
	SetupTOTP(ctx context.Context, user *models.User, deviceName string) (*models.MFASetupResponse, error)
	VerifySetup(ctx context.Context, userID, deviceID, code string) error
	Status(ctx context.Context, userID string) (*models.MFAStatus, error)
}

// MFAHandler handles MFA-related HTTP requests
type MFAHandler struct {
	service MFAServiceInterface
	logger  *slog.Logger
}

func NewMFAHandler(service MFAServiceInterface, logger *slog.Logger) *MFAHandler {
	return &MFAHandler{service: service, logger: logger}
}

// InitiateMFASetupRequest is the request for starting MFA setup
type InitiateMFASetupRequest struct {
	DeviceName string `json:"device_name" validate:"max=100"`
}

// VerifyMFASetupRequest is the request to verify and enable MFA
type VerifyMFASetupRequest struct {
	DeviceID string `json:"device_id" validate:"required"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

// InitiateSetup handles POST /api/admin/mfa/setup
func (h *MFAHandler) InitiateSetup(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req InitiateMFASetupRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req) {
		return
	}

	setup, err := h.service.SetupTOTP(r.Context(), user, req.DeviceName)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, setup)
}

// VerifySetup handles POST /api/admin/mfa/verify
func (h *MFAHandler) VerifySetup(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req VerifyMFASetupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.VerifySetup(r.Context(), user.ID, req.DeviceID, req.Code); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "mfa_enabled": true})
}

// GetStatus handles GET /api/admin/mfa/status
func (h *MFAHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	status, err := h.service.Status(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, status)
}
