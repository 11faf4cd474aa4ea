package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
	"github.com/go-chi/chi/v5"
)

// AuditReader reads the admin action log.
type AuditReader interface {
	Recent(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
	ForTarget(ctx context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error)
}

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	audit  AuditReader
	logger *slog.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit AuditReader, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger}
}

// Recent handles GET /api/admin/audit-log?limit=&offset=
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	logs, err := h.audit.Recent(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"entries": logs})
}

// ForTarget handles GET /api/admin/audit-log/{targetType}/{id}
func (h *AuditHandler) ForTarget(w http.ResponseWriter, r *http.Request) {
	targetType := chi.URLParam(r, "targetType")
	switch targetType {
	case models.AuditTargetUser, models.AuditTargetLobbyist:
	default:
		pkghttp.WriteValidationError(w, "Request validation failed", map[string]string{"targetType": "must be user or lobbyist"})
		return
	}

	logs, err := h.audit.ForTarget(r.Context(), targetType, chi.URLParam(r, "id"), queryInt(r, "limit", 50))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"entries": logs})
}
