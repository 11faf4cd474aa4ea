package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/pkg/auth"
)

const minIssueDescriptionLength = 10

type SupportStore interface {
	CreateTicket(ctx context.Context, t *models.SupportTicket) (*models.SupportTicket, error)
	CreateProfileReport(ctx context.Context, p *models.ProfileReport) (*models.ProfileReport, error)
}

// ReportIssueInput is a support ticket, or a profile report when LobbyistID is set.
type ReportIssueInput struct {
	UserID      string
	Email       string
	Category    string
	Subject     string
	Description string
	PageURL     string
	LobbyistID  string
}

// IssueReceipt acknowledges a stored report.
type IssueReceipt struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

type SupportService struct {
	support   SupportStore
	lobbyists ProfileReader
	notifier  Notifier
	logger    *slog.Logger
}

func NewSupportService(support SupportStore, lobbyists ProfileReader, notifier Notifier, logger *slog.Logger) *SupportService {
	return &SupportService{support: support, lobbyists: lobbyists, notifier: notifier, logger: logger}
}

func (s *SupportService) ReportIssue(ctx context.Context, in ReportIssueInput, clientIP string) (*IssueReceipt, error) {
	email := auth.NormalizeEmail(in.Email)
	description := strings.TrimSpace(in.Description)

	fields := map[string]string{}
	if !strings.Contains(email, "@") {
		fields["email"] = "a contact email is required"
	}
	if !slices.Contains(models.IssueCategories, in.Category) {
		fields["category"] = "unknown category"
	}
	if len([]rune(description)) < minIssueDescriptionLength {
		fields["description"] = "description must be at least 10 characters"
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}

	var receipt *IssueReceipt
	if in.LobbyistID != "" {
		if _, err := s.lobbyists.GetByID(ctx, in.LobbyistID); err != nil {
			return nil, lookupError(ctx, s.logger, "lobbyist", in.LobbyistID, err)
		}
		report, err := s.support.CreateProfileReport(ctx, &models.ProfileReport{
			LobbyistID:  in.LobbyistID,
			ReporterID:  optional(in.UserID),
			Email:       email,
			Category:    in.Category,
			Description: description,
			IPAddress:   clientIP,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to store profile report", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		receipt = &IssueReceipt{ID: report.ID, Kind: "profile_report", Status: report.Status}
	} else {
		ticket, err := s.support.CreateTicket(ctx, &models.SupportTicket{
			UserID:      optional(in.UserID),
			Email:       email,
			Category:    in.Category,
			Subject:     strings.TrimSpace(in.Subject),
			Description: description,
			PageURL:     optional(in.PageURL),
			IPAddress:   clientIP,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to store support ticket", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		receipt = &IssueReceipt{ID: ticket.ID, Kind: "support_ticket", Status: ticket.Status}
	}

	alertAdmins(ctx, s.logger, s.notifier, EmailData{
		Subject: fmt.Sprintf("New %s (%s)", strings.ReplaceAll(receipt.Kind, "_", " "), in.Category),
		Detail:  description,
	})
	return receipt, nil
}
