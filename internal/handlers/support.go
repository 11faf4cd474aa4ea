package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/auth"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/services"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
)

// SupportServiceInterface accepts issue reports.
type SupportServiceInterface interface {
	ReportIssue(ctx context.Context, in services.ReportIssueInput, clientIP string) (*services.IssueReceipt, error)
}

// SupportHandler handles the public issue form.
type SupportHandler struct {
	service SupportServiceInterface
	logger  *slog.Logger
}

func NewSupportHandler(service SupportServiceInterface, logger *slog.Logger) *SupportHandler {
	return &SupportHandler{service: service, logger: logger}
}

// ReportIssueRequest is a support ticket or, with lobbyist_id, a profile report.
type ReportIssueRequest struct {
	Email       string `json:"email" validate:"omitempty,email"`
	Category    string `json:"category" validate:"required"`
	Subject     string `json:"subject" validate:"max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	PageURL     string `json:"page_url" validate:"max=2000"`
	LobbyistID  string `json:"lobbyist_id"`
}

// ReportIssue handles POST /api/report-issue. Signed-in callers default to
// their account email.
func (h *SupportHandler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	var req ReportIssueRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := services.ReportIssueInput{
		Email:       req.Email,
		Category:    req.Category,
		Subject:     req.Subject,
		Description: req.Description,
		PageURL:     req.PageURL,
		LobbyistID:  req.LobbyistID,
	}
	if user := auth.UserFromContext(r.Context()); user != nil {
		in.UserID = user.ID
		if in.Email == "" {
			in.Email = user.Email
		}
	}

	receipt, err := h.service.ReportIssue(r.Context(), in, pkghttp.ClientIPFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, receipt)
}
