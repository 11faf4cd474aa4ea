package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/services"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/storage"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
	"github.com/go-chi/chi/v5"
)

// ProfileServiceInterface covers the owner-facing profile workflow.
type ProfileServiceInterface interface {
	CreateProfile(ctx context.Context, userID string, in services.CreateProfileInput) (*models.Lobbyist, error)
	SubmitClaim(ctx context.Context, userID string, in services.ClaimInput) (*models.ClaimRequest, error)
	UploadVerificationDocument(ctx context.Context, userID string, data []byte) (string, error)
	UploadPhoto(ctx context.Context, userID, lobbyistID string, data []byte) (string, error)
	Resubmit(ctx context.Context, userID, lobbyistID string, in services.CreateProfileInput) (*models.Lobbyist, error)
	UpdateField(ctx context.Context, userID, lobbyistID, field string, value any) (*models.Lobbyist, error)
	GetDashboard(ctx context.Context, userID string) (*services.Dashboard, error)
	RequestRoleUpgrade(ctx context.Context, userID string, in services.RoleUpgradeInput) (*models.RoleUpgradeRequest, error)
	RequestMerge(ctx context.Context, userID string, in services.MergeInput) (*models.MergeRequest, error)
}

// ProfileHandler handles profile submission and owner edits.
type ProfileHandler struct {
	service ProfileServiceInterface
	logger  *slog.Logger
}

func NewProfileHandler(service ProfileServiceInterface, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, logger: logger}
}

// ProfileContentRequest is the editable content of a profile.
type ProfileContentRequest struct {
	FirstName    string   `json:"first_name" validate:"required,max=100"`
	LastName     string   `json:"last_name" validate:"required,max=100"`
	Email        string   `json:"email" validate:"required,email"`
	Phone        string   `json:"phone" validate:"max=40"`
	Website      string   `json:"website" validate:"max=300"`
	LinkedInURL  string   `json:"linkedin_url" validate:"max=300"`
	Bio          string   `json:"bio" validate:"max=5000"`
	Cities       []string `json:"cities" validate:"max=50,dive,max=100"`
	SubjectAreas []string `json:"subject_areas" validate:"max=50,dive,max=100"`
}

func (req ProfileContentRequest) input() services.CreateProfileInput {
	return services.CreateProfileInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Website:      req.Website,
		LinkedInURL:  req.LinkedInURL,
		Bio:          req.Bio,
		Cities:       req.Cities,
		SubjectAreas: req.SubjectAreas,
	}
}

// ResubmitRequest carries corrected content for a rejected profile.
type ResubmitRequest struct {
	LobbyistID string `json:"lobbyist_id" validate:"required"`
	ProfileContentRequest
}

// ClaimRequest is a claim on an existing profile.
type ClaimRequest struct {
	LobbyistID         string `json:"lobbyist_id" validate:"required"`
	FirstName          string `json:"first_name" validate:"required,max=100"`
	LastName           string `json:"last_name" validate:"required,max=100"`
	Email              string `json:"email" validate:"required,email"`
	Phone              string `json:"phone" validate:"max=40"`
	VerificationDocKey string `json:"verification_document_key" validate:"max=300"`
}

// UpdateFieldRequest edits one profile field.
type UpdateFieldRequest struct {
	LobbyistID string          `json:"lobbyist_id" validate:"required"`
	Field      string          `json:"field" validate:"required"`
	Value      json.RawMessage `json:"value"`
}

// RoleUpgradeRequest asks for the lobbyist role.
type RoleUpgradeRequest struct {
	Justification        string `json:"justification" validate:"required,min=50,max=2000"`
	IsRegisteredLobbyist bool   `json:"is_registered_lobbyist"`
}

// MergeRequest asks to fold a duplicate profile into a primary one.
type MergeRequest struct {
	PrimaryID   string `json:"primary_lobbyist_id" validate:"required"`
	DuplicateID string `json:"duplicate_lobbyist_id" validate:"required"`
	Reason      string `json:"reason" validate:"max=1000"`
}

// Create handles POST /api/profile/create
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req ProfileContentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := h.service.CreateProfile(r.Context(), user.ID, req.input())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, profile)
}

// Claim handles POST /api/profile/claim
func (h *ProfileHandler) Claim(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req ClaimRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	claim, err := h.service.SubmitClaim(r.Context(), user.ID, services.ClaimInput{
		LobbyistID:         req.LobbyistID,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Phone:              req.Phone,
		VerificationDocKey: req.VerificationDocKey,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, claim)
}

// Resubmit handles POST /api/profile/resubmit
func (h *ProfileHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req ResubmitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := h.service.Resubmit(r.Context(), user.ID, req.LobbyistID, req.input())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// UpdateField handles POST /api/profile/update-field
func (h *ProfileHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req UpdateFieldRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var value any
	if len(req.Value) > 0 {
		if err := json.Unmarshal(req.Value, &value); err != nil {
			pkghttp.WriteValidationError(w, "Request validation failed", map[string]string{"value": "must be valid JSON"})
			return
		}
	}

	profile, err := h.service.UpdateField(r.Context(), user.ID, req.LobbyistID, req.Field, value)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// Dashboard handles GET /api/profile/dashboard
func (h *ProfileHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	dashboard, err := h.service.GetDashboard(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, dashboard)
}

// RequestRoleUpgrade handles POST /api/profile/request-role-upgrade
func (h *ProfileHandler) RequestRoleUpgrade(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req RoleUpgradeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.service.RequestRoleUpgrade(r.Context(), user.ID, services.RoleUpgradeInput{
		Justification:        req.Justification,
		IsRegisteredLobbyist: req.IsRegisteredLobbyist,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, created)
}

// RequestMerge handles POST /api/profile/request-merge
func (h *ProfileHandler) RequestMerge(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req MergeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.service.RequestMerge(r.Context(), user.ID, services.MergeInput{
		PrimaryID:   req.PrimaryID,
		DuplicateID: req.DuplicateID,
		Reason:      req.Reason,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, created)
}

// UploadDocument handles POST /api/profile/upload-document (multipart, field "file").
func (h *ProfileHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	data, ok := readUpload(w, r, storage.MaxDocumentBytes)
	if !ok {
		return
	}

	key, err := h.service.UploadVerificationDocument(r.Context(), user.ID, data)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// UploadPhoto handles POST /api/profile/{id}/photo (multipart, field "file").
func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	lobbyistID := chi.URLParam(r, "id")
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	data, ok := readUpload(w, r, storage.MaxPhotoBytes)
	if !ok {
		return
	}

	url, err := h.service.UploadPhoto(r.Context(), user.ID, lobbyistID, data)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"photo_url": url})
}

func (h *ProfileHandler) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrDocumentTooLarge),
		errors.Is(err, storage.ErrUnsupportedDocument),
		errors.Is(err, storage.ErrInvalidImage):
		pkghttp.WriteValidationError(w, "Request validation failed", map[string]string{"file": err.Error()})
	case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrNotFound):
		writeServiceError(w, r, h.logger, err)
	default:
		h.logger.ErrorContext(r.Context(), "upload failed", slog.Any("error", err))
		pkghttp.WriteDownstreamFailure(w, "File storage is unavailable")
	}
}

// multipartOverhead leaves room for part headers around the file itself.
const multipartOverhead = 64 << 10

// readUpload returns the bytes of the "file" part, writing a 400 on failure.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkghttp.WriteValidationError(w, "Request validation failed", map[string]string{"file": "file is too large"})
			return nil, false
		}
		pkghttp.WriteValidationError(w, "Request validation failed", map[string]string{"file": "a file upload is required"})
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Could not read upload")
		return nil, false
	}
	if int64(len(data)) > maxBytes {
		pkghttp.WriteValidationError(w, "Request validation failed", map[string]string{"file": "file is too large"})
		return nil, false
	}
	return data, true
}
