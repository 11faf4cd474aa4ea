package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/services"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
	"github.com/go-chi/chi/v5"
)

// ModerationServiceInterface covers admin review decisions.
type ModerationServiceInterface interface {
	ApproveLobbyist(ctx context.Context, adminID, lobbyistID string) (*models.Lobbyist, error)
	RejectLobbyist(ctx context.Context, adminID, lobbyistID, reason, category string) (*models.Lobbyist, error)
	ApproveClaim(ctx context.Context, adminID, claimID string) (*models.ClaimRequest, error)
	RejectClaim(ctx context.Context, adminID, claimID, reason string) (*models.ClaimRequest, error)
	ApproveRoleUpgrade(ctx context.Context, adminID, requestID string) (*models.RoleUpgradeRequest, error)
	RejectRoleUpgrade(ctx context.Context, adminID, requestID, reason string) (*models.RoleUpgradeRequest, error)
	ApproveMerge(ctx context.Context, adminID, requestID string) (*repositories.MergeResult, error)
	RejectMerge(ctx context.Context, adminID, requestID, reason string) (*models.MergeRequest, error)
	ListPending(ctx context.Context, kind string) (*services.PendingQueues, error)
	GetClaimDocumentURL(ctx context.Context, claimID string) (string, error)
}

// ModerationHandler handles the admin review queues.
type ModerationHandler struct {
	service ModerationServiceInterface
	logger  *slog.Logger
}

func NewModerationHandler(service ModerationServiceInterface, logger *slog.Logger) *ModerationHandler {
	return &ModerationHandler{service: service, logger: logger}
}

// DecisionRequest names the profile or request being approved.
type DecisionRequest struct {
	ID string `json:"id" validate:"required"`
}

// RejectLobbyistRequest rejects a profile with a categorized reason.
type RejectLobbyistRequest struct {
	ID       string `json:"id" validate:"required"`
	Reason   string `json:"reason" validate:"required,min=5,max=2000"`
	Category string `json:"category" validate:"required,rejection_category"`
}

// RejectRequest rejects a claim, role upgrade or merge request.
type RejectRequest struct {
	ID     string `json:"id" validate:"required"`
	Reason string `json:"reason" validate:"required,min=5,max=2000"`
}

// MergeApprovalResponse reports what the merge moved.
type MergeApprovalResponse struct {
	Request        *models.MergeRequest `json:"request"`
	ClientsMoved   int64                `json:"clients_moved"`
	FavoritesMoved int64                `json:"favorites_moved"`
}

// decide runs an approve-style action and writes its result.
func decide[T any](h *ModerationHandler, w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, adminID, id string) (T, error)) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req DecisionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := fn(r.Context(), admin.ID, req.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// reject runs a reason-carrying rejection and writes its result.
func reject[T any](h *ModerationHandler, w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, adminID, id, reason string) (T, error)) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req RejectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := fn(r.Context(), admin.ID, req.ID, req.Reason)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// ApproveLobbyist handles POST /api/admin/approve-lobbyist
func (h *ModerationHandler) ApproveLobbyist(w http.ResponseWriter, r *http.Request) {
	decide(h, w, r, h.service.ApproveLobbyist)
}

// RejectLobbyist handles POST /api/admin/reject-lobbyist
func (h *ModerationHandler) RejectLobbyist(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req RejectLobbyistRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := h.service.RejectLobbyist(r.Context(), admin.ID, req.ID, req.Reason, req.Category)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// ApproveClaim handles POST /api/admin/approve-claim
func (h *ModerationHandler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	decide(h, w, r, h.service.ApproveClaim)
}

// RejectClaim handles POST /api/admin/reject-claim
func (h *ModerationHandler) RejectClaim(w http.ResponseWriter, r *http.Request) {
	reject(h, w, r, h.service.RejectClaim)
}

// ApproveRoleUpgrade handles POST /api/admin/approve-role-upgrade
func (h *ModerationHandler) ApproveRoleUpgrade(w http.ResponseWriter, r *http.Request) {
	decide(h, w, r, h.service.ApproveRoleUpgrade)
}

// RejectRoleUpgrade handles POST /api/admin/reject-role-upgrade
func (h *ModerationHandler) RejectRoleUpgrade(w http.ResponseWriter, r *http.Request) {
	reject(h, w, r, h.service.RejectRoleUpgrade)
}

// ApproveMerge handles POST /api/admin/approve-merge
func (h *ModerationHandler) ApproveMerge(w http.ResponseWriter, r *http.Request) {
	decide(h, w, r, func(ctx context.Context, adminID, id string) (*MergeApprovalResponse, error) {
		res, err := h.service.ApproveMerge(ctx, adminID, id)
		if err != nil {
			return nil, err
		}
		return &MergeApprovalResponse{
			Request:        res.Request,
			ClientsMoved:   res.ClientsMoved,
			FavoritesMoved: res.FavoritesMoved,
		}, nil
	})
}

// RejectMerge handles POST /api/admin/reject-merge
func (h *ModerationHandler) RejectMerge(w http.ResponseWriter, r *http.Request) {
	reject(h, w, r, h.service.RejectMerge)
}

// ListPending handles GET /api/admin/pending?kind=claims
func (h *ModerationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	queues, err := h.service.ListPending(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, queues)
}

// ClaimDocumentURL handles GET /api/admin/claims/{id}/document
func (h *ModerationHandler) ClaimDocumentURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.GetClaimDocumentURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
