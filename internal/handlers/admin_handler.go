package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/services"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
	"github.com/go-chi/chi/v5"
)

// AdminUserServiceInterface defines the admin user-management contract.
type AdminUserServiceInterface interface {
	SuspendUser(ctx context.Context, adminID, targetID string, in services.SuspendInput) (*models.Suspension, error)
	UnsuspendUser(ctx context.Context, adminID, targetID string) (int64, error)
	ListSuspensions(ctx context.Context, userID string) ([]*models.Suspension, error)
	DeleteUser(ctx context.Context, adminID, targetID string) error
	EditUser(ctx context.Context, adminID, targetID string, upd models.UserUpdate) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) (*services.UserPage, error)
	Dashboard(ctx context.Context) (*models.PendingCounts, error)
}

// AdminLobbyistServiceInterface defines direct admin edits of profiles.
type AdminLobbyistServiceInterface interface {
	EditLobbyist(ctx context.Context, adminID, id string, upd models.LobbyistUpdate) (*models.Lobbyist, error)
	DeleteLobbyist(ctx context.Context, adminID, id string) error
	UpdateLobbyistTier(ctx context.Context, adminID, id, tier string) (*models.Lobbyist, error)
}

// AdminHandler handles admin user and profile management.
type AdminHandler struct {
	users     AdminUserServiceInterface
	lobbyists AdminLobbyistServiceInterface
	logger    *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users AdminUserServiceInterface, lobbyists AdminLobbyistServiceInterface, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{users: users, lobbyists: lobbyists, logger: logger}
}

// SuspendUserRequest suspends an account.
type SuspendUserRequest struct {
	UserID    string     `json:"user_id" validate:"required"`
	Reason    string     `json:"reason" validate:"required,max=2000"`
	Category  string     `json:"category" validate:"required,suspension_category"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// UserTargetRequest names the user an action applies to.
type UserTargetRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// EditUserRequest edits account fields; omitted fields are unchanged.
type EditUserRequest struct {
	UserID           string  `json:"user_id" validate:"required"`
	FullName         *string `json:"full_name" validate:"omitempty,max=200"`
	Email            *string `json:"email" validate:"omitempty,email"`
	Role             *string `json:"role" validate:"omitempty,role"`
	SubscriptionTier *string `json:"subscription_tier" validate:"omitempty,tier"`
}

// EditLobbyistRequest edits profile fields; omitted fields are unchanged.
type EditLobbyistRequest struct {
	ID           string   `json:"id" validate:"required"`
	FirstName    *string  `json:"first_name" validate:"omitempty,max=100"`
	LastName     *string  `json:"last_name" validate:"omitempty,max=100"`
	Email        *string  `json:"email" validate:"omitempty,email"`
	Phone        *string  `json:"phone" validate:"omitempty,max=40"`
	Website      *string  `json:"website" validate:"omitempty,max=300"`
	Bio          *string  `json:"bio" validate:"omitempty,max=5000"`
	Cities       []string `json:"cities" validate:"omitempty,max=50,dive,max=100"`
	SubjectAreas []string `json:"subject_areas" validate:"omitempty,max=50,dive,max=100"`
	IsActive     *bool    `json:"is_active"`
}

// LobbyistTargetRequest names the profile an action applies to.
type LobbyistTargetRequest struct {
	ID string `json:"id" validate:"required"`
}

// UpdateTierRequest sets a profile's subscription tier.
type UpdateTierRequest struct {
	ID   string `json:"id" validate:"required"`
	Tier string `json:"tier" validate:"required,tier"`
}

// SuspendUser handles POST /api/admin/suspend-user
func (h *AdminHandler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req SuspendUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	suspension, err := h.users.SuspendUser(r.Context(), admin.ID, req.UserID, services.SuspendInput{
		Reason:    req.Reason,
		Category:  req.Category,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, suspension)
}

// UnsuspendUser handles POST /api/admin/unsuspend-user
func (h *AdminHandler) UnsuspendUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req UserTargetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lifted, err := h.users.UnsuspendUser(r.Context(), admin.ID, req.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "lifted": lifted})
}

// ListSuspensions handles GET /api/admin/users/{id}/suspensions
func (h *AdminHandler) ListSuspensions(w http.ResponseWriter, r *http.Request) {
	history, err := h.users.ListSuspensions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"suspensions": history})
}

// DeleteUser handles POST /api/admin/delete-user
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req UserTargetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.users.DeleteUser(r.Context(), admin.ID, req.UserID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// EditUser handles POST /api/admin/edit-user
func (h *AdminHandler) EditUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req EditUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.EditUser(r.Context(), admin.ID, req.UserID, models.UserUpdate{
		FullName:         req.FullName,
		Email:            req.Email,
		Role:             req.Role,
		SubscriptionTier: req.SubscriptionTier,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, user)
}

// ListUsers handles GET /api/admin/users?role=&suspended=&q=&limit=&offset=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.UserFilter{
		Role:   q.Get("role"),
		Search: q.Get("q"),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}
	if s := q.Get("suspended"); s != "" {
		suspended, err := strconv.ParseBool(s)
		if err != nil {
			pkghttp.WriteValidationError(w, "Request validation failed", map[string]string{"suspended": "must be true or false"})
			return
		}
		filter.IsSuspended = &suspended
	}

	page, err := h.users.ListUsers(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, page)
}

// Dashboard handles GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.users.Dashboard(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to retrieve dashboard stats")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, counts)
}

// EditLobbyist handles POST /api/admin/edit-lobbyist
func (h *AdminHandler) EditLobbyist(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req EditLobbyistRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := h.lobbyists.EditLobbyist(r.Context(), admin.ID, req.ID, models.LobbyistUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Website:      req.Website,
		Bio:          req.Bio,
		Cities:       req.Cities,
		SubjectAreas: req.SubjectAreas,
		IsActive:     req.IsActive,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// DeleteLobbyist handles POST /api/admin/delete-lobbyist
func (h *AdminHandler) DeleteLobbyist(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req LobbyistTargetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.lobbyists.DeleteLobbyist(r.Context(), admin.ID, req.ID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UpdateLobbyistTier handles POST /api/admin/update-lobbyist-tier
func (h *AdminHandler) UpdateLobbyistTier(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req UpdateTierRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := h.lobbyists.UpdateLobbyistTier(r.Context(), admin.ID, req.ID, req.Tier)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// queryInt parses an integer query parameter, returning def when absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
