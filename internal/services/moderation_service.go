package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
)

const (
	minRejectionReasonLength = 5
	pendingQueueLimit        = 200
	documentURLTTL           = 5 * time.Minute
)

// Moderation queue kinds
const (
	QueueLobbyists    = "lobbyists"
	QueueClaims       = "claims"
	QueueRoleUpgrades = "role_upgrades"
	QueueMerges       = "merges"
)

type LobbyistModerationStore interface {
	GetByID(ctx context.Context, id string) (*models.Lobbyist, error)
	Approve(ctx context.Context, id string) (*models.Lobbyist, error)
	Reject(ctx context.Context, rej models.Rejection) (*models.Lobbyist, error)
	ListPending(ctx context.Context, limit int) ([]models.Lobbyist, error)
}

type ClaimDecisionStore interface {
	GetByID(ctx context.Context, id string) (*models.ClaimRequest, error)
	ListPending(ctx context.Context, limit int) ([]*models.ClaimRequest, error)
	Approve(ctx context.Context, d models.Decision) (*models.ClaimRequest, error)
	Reject(ctx context.Context, d models.Decision) (*models.ClaimRequest, error)
}

type RoleUpgradeDecisionStore interface {
	ListPending(ctx context.Context, limit int) ([]*models.RoleUpgradeRequest, error)
	Approve(ctx context.Context, d models.Decision) (*models.RoleUpgradeRequest, error)
	Reject(ctx context.Context, d models.Decision) (*models.RoleUpgradeRequest, error)
}

type MergeDecisionStore interface {
	ListPending(ctx context.Context, limit int) ([]*models.MergeRequest, error)
	Approve(ctx context.Context, d models.Decision) (*repositories.MergeResult, error)
	Reject(ctx context.Context, d models.Decision) (*models.MergeRequest, error)
}

// DocumentStorage reads and removes verification documents.
type DocumentStorage interface {
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type ModerationDeps struct {
	Lobbyists    LobbyistModerationStore
	Claims       ClaimDecisionStore
	RoleUpgrades RoleUpgradeDecisionStore
	Merges       MergeDecisionStore
	Users        UserReader
	Documents    DocumentStorage
	Notifier     Notifier
	Auditor      Auditor
	PublicURL    string
}

// ModerationService implements the admin side of every review queue.
type ModerationService struct {
	deps   ModerationDeps
	now    func() time.Time
	logger *slog.Logger
}

func NewModerationService(deps ModerationDeps, logger *slog.Logger) *ModerationService {
	return &ModerationService{deps: deps, now: time.Now, logger: logger}
}

func (s *ModerationService) ApproveLobbyist(ctx context.Context, adminID, lobbyistID string) (*models.Lobbyist, error) {
	l, err := s.deps.Lobbyists.Approve(ctx, lobbyistID)
	if err != nil {
		return nil, lookupError(ctx, s.logger, "lobbyist", lobbyistID, err)
	}

	s.audit(ctx, adminID, models.AuditApproveLobbyist, models.AuditTargetLobbyist, l.ID, nil)
	name, email := s.profileRecipient(ctx, l)
	sendBestEffort(ctx, s.logger, s.deps.Notifier, email, EmailProfileApproved, EmailData{
		Name: name,
		URL:  s.profileURL(l.Slug),
	})
	return l, nil
}

// RejectLobbyist hides a profile; the counter increment happens in SQL.
func (s *ModerationService) RejectLobbyist(ctx context.Context, adminID, lobbyistID, reason, category string) (*models.Lobbyist, error) {
	reason = strings.TrimSpace(reason)
	if err := validateRejection(reason, category); err != nil {
		return nil, err
	}

	l, err := s.deps.Lobbyists.Reject(ctx, models.Rejection{
		LobbyistID: lobbyistID,
		AdminID:    adminID,
		Reason:     reason,
		Category:   category,
		At:         s.now(),
	})
	if err != nil {
		return nil, lookupError(ctx, s.logger, "lobbyist", lobbyistID, err)
	}

	s.audit(ctx, adminID, models.AuditRejectLobbyist, models.AuditTargetLobbyist, l.ID, models.AuditMetadata{
		"reason":          reason,
		"category":        category,
		"rejection_count": l.RejectionCount,
	})
	name, email := s.profileRecipient(ctx, l)
	sendBestEffort(ctx, s.logger, s.deps.Notifier, email, EmailProfileRejected, EmailData{
		Name:     name,
		Reason:   reason,
		Category: category,
	})
	return l, nil
}

func validateRejection(reason, category string) error {
	fields := map[string]string{}
	if len([]rune(reason)) < minRejectionReasonLength {
		fields["reason"] = "reason must be at least 5 characters"
	}
	if !slices.Contains(models.RejectionCategories, category) {
		fields["category"] = "unknown rejection category"
	}
	if len(fields) > 0 {
		return &models.ValidationError{Fields: fields}
	}
	return nil
}

func (s *ModerationService) ApproveClaim(ctx context.Context, adminID, claimID string) (*models.ClaimRequest, error) {
	claim, err := s.deps.Claims.Approve(ctx, s.decision(adminID, claimID, ""))
	if err != nil {
		return nil, s.decisionError(ctx, "claim", claimID, err)
	}

	s.audit(ctx, adminID, models.AuditApproveClaim, models.AuditTargetClaim, claim.ID,
		models.AuditMetadata{"lobbyist_id": claim.LobbyistID, "user_id": claim.UserID})

	data := EmailData{Name: claim.FirstName}
	if l, err := s.deps.Lobbyists.GetByID(ctx, claim.LobbyistID); err == nil {
		data.URL = s.profileURL(l.Slug)
	}
	sendBestEffort(ctx, s.logger, s.deps.Notifier, claim.Email, EmailClaimApproved, data)
	return claim, nil
}

// RejectClaim closes the claim and removes its verification document.
func (s *ModerationService) RejectClaim(ctx context.Context, adminID, claimID, reason string) (*models.ClaimRequest, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minRejectionReasonLength {
		return nil, models.NewValidationError("reason", "reason must be at least 5 characters")
	}

	claim, err := s.deps.Claims.Reject(ctx, s.decision(adminID, claimID, reason))
	if err != nil {
		return nil, s.decisionError(ctx, "claim", claimID, err)
	}

	if claim.VerificationDocKey != nil && s.deps.Documents != nil {
		if err := s.deps.Documents.Delete(ctx, *claim.VerificationDocKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete verification document",
				slog.String("claim_id", claim.ID), slog.Any("error", err))
		}
	}

	s.audit(ctx, adminID, models.AuditRejectClaim, models.AuditTargetClaim, claim.ID,
		models.AuditMetadata{"reason": reason, "lobbyist_id": claim.LobbyistID})
	sendBestEffort(ctx, s.logger, s.deps.Notifier, claim.Email, EmailClaimRejected, EmailData{
		Name:   claim.FirstName,
		Reason: reason,
	})
	return claim, nil
}

func (s *ModerationService) ApproveRoleUpgrade(ctx context.Context, adminID, requestID string) (*models.RoleUpgradeRequest, error) {
	req, err := s.deps.RoleUpgrades.Approve(ctx, s.decision(adminID, requestID, ""))
	if err != nil {
		return nil, s.decisionError(ctx, "role upgrade", requestID, err)
	}

	s.audit(ctx, adminID, models.AuditApproveRoleUpgrade, models.AuditTargetRoleUpgrade, req.ID,
		models.AuditMetadata{"user_id": req.UserID, "role": req.RequestedRole})
	s.notifyUser(ctx, req.UserID, EmailRoleUpgradeApproved, EmailData{})
	return req, nil
}

func (s *ModerationService) RejectRoleUpgrade(ctx context.Context, adminID, requestID, reason string) (*models.RoleUpgradeRequest, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minRejectionReasonLength {
		return nil, models.NewValidationError("reason", "reason must be at least 5 characters")
	}

	req, err := s.deps.RoleUpgrades.Reject(ctx, s.decision(adminID, requestID, reason))
	if err != nil {
		return nil, s.decisionError(ctx, "role upgrade", requestID, err)
	}

	s.audit(ctx, adminID, models.AuditRejectRoleUpgrade, models.AuditTargetRoleUpgrade, req.ID,
		models.AuditMetadata{"user_id": req.UserID, "reason": reason})
	s.notifyUser(ctx, req.UserID, EmailRoleUpgradeRejected, EmailData{Reason: reason})
	return req, nil
}

func (s *ModerationService) ApproveMerge(ctx context.Context, adminID, requestID string) (*repositories.MergeResult, error) {
	res, err := s.deps.Merges.Approve(ctx, s.decision(adminID, requestID, ""))
	if err != nil {
		return nil, s.decisionError(ctx, "merge", requestID, err)
	}

	req := res.Request
	s.audit(ctx, adminID, models.AuditApproveMerge, models.AuditTargetMerge, req.ID, models.AuditMetadata{
		"primary_lobbyist_id":   req.PrimaryID,
		"duplicate_lobbyist_id": req.DuplicateID,
		"clients_moved":         res.ClientsMoved,
		"favorites_moved":       res.FavoritesMoved,
	})

	data := EmailData{}
	if l, err := s.deps.Lobbyists.GetByID(ctx, req.PrimaryID); err == nil {
		data.URL = s.profileURL(l.Slug)
	}
	s.notifyUser(ctx, req.RequesterID, EmailMergeApproved, data)
	return res, nil
}

func (s *ModerationService) RejectMerge(ctx context.Context, adminID, requestID, reason string) (*models.MergeRequest, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minRejectionReasonLength {
		return nil, models.NewValidationError("reason", "reason must be at least 5 characters")
	}

	req, err := s.deps.Merges.Reject(ctx, s.decision(adminID, requestID, reason))
	if err != nil {
		return nil, s.decisionError(ctx, "merge", requestID, err)
	}

	s.audit(ctx, adminID, models.AuditRejectMerge, models.AuditTargetMerge, req.ID,
		models.AuditMetadata{"reason": reason})
	s.notifyUser(ctx, req.RequesterID, EmailMergeRejected, EmailData{Reason: reason})
	return req, nil
}

// PendingQueues holds the moderation queues; unrequested queues stay nil.
type PendingQueues struct {
	Lobbyists    []models.Lobbyist            `json:"lobbyists,omitempty"`
	Claims       []*models.ClaimRequest       `json:"claims,omitempty"`
	RoleUpgrades []*models.RoleUpgradeRequest `json:"role_upgrades,omitempty"`
	Merges       []*models.MergeRequest       `json:"merges,omitempty"`
}

// ListPending returns one queue by kind, or all of them when kind is empty.
func (s *ModerationService) ListPending(ctx context.Context, kind string) (*PendingQueues, error) {
	all := kind == ""
	if !all && !slices.Contains([]string{QueueLobbyists, QueueClaims, QueueRoleUpgrades, QueueMerges}, kind) {
		return nil, models.NewValidationError("kind", "unknown queue")
	}

	var (
		q   PendingQueues
		err error
	)
	if all || kind == QueueLobbyists {
		if q.Lobbyists, err = s.deps.Lobbyists.ListPending(ctx, pendingQueueLimit); err != nil {
			return nil, s.queueError(ctx, QueueLobbyists, err)
		}
	}
	if all || kind == QueueClaims {
		if q.Claims, err = s.deps.Claims.ListPending(ctx, pendingQueueLimit); err != nil {
			return nil, s.queueError(ctx, QueueClaims, err)
		}
	}
	if all || kind == QueueRoleUpgrades {
		if q.RoleUpgrades, err = s.deps.RoleUpgrades.ListPending(ctx, pendingQueueLimit); err != nil {
			return nil, s.queueError(ctx, QueueRoleUpgrades, err)
		}
	}
	if all || kind == QueueMerges {
		if q.Merges, err = s.deps.Merges.ListPending(ctx, pendingQueueLimit); err != nil {
			return nil, s.queueError(ctx, QueueMerges, err)
		}
	}
	return &q, nil
}

// GetClaimDocumentURL presigns a short-lived link to a claim's document.
func (s *ModerationService) GetClaimDocumentURL(ctx context.Context, claimID string) (string, error) {
	claim, err := s.deps.Claims.GetByID(ctx, claimID)
	if err != nil {
		return "", lookupError(ctx, s.logger, "claim", claimID, err)
	}
	if claim.VerificationDocKey == nil {
		return "", models.ErrNotFound
	}

	url, err := s.deps.Documents.URL(ctx, *claim.VerificationDocKey, documentURLTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to presign document", slog.String("claim_id", claimID), slog.Any("error", err))
		return "", models.ErrDownstream
	}
	return url, nil
}

func (s *ModerationService) decision(adminID, requestID, reason string) models.Decision {
	return models.Decision{RequestID: requestID, AdminID: adminID, Reason: reason, At: s.now()}
}

// decisionError keeps the workflow errors a handler maps to 404 or 409.
func (s *ModerationService) decisionError(ctx context.Context, what, id string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrNotPending),
		errors.Is(err, models.ErrAlreadyClaimed),
		errors.Is(err, models.ErrProfileExists),
		errors.Is(err, models.ErrConflict):
		return err
	}
	s.logger.ErrorContext(ctx, "moderation decision failed",
		slog.String("request", what), slog.String("id", id), slog.Any("error", err))
	return models.ErrInternalServer
}

func (s *ModerationService) queueError(ctx context.Context, kind string, err error) error {
	s.logger.ErrorContext(ctx, "failed to list pending queue", slog.String("kind", kind), slog.Any("error", err))
	return models.ErrInternalServer
}

func (s *ModerationService) audit(ctx context.Context, adminID, action, targetType, targetID string, meta models.AuditMetadata) {
	record(ctx, s.deps.Auditor, AuditEntry{
		ActorID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Success:    true,
		Metadata:   meta,
	})
}

// profileRecipient picks the address decisions about a profile go to.
func (s *ModerationService) profileRecipient(ctx context.Context, l *models.Lobbyist) (string, string) {
	if l.Email != nil && *l.Email != "" {
		return l.FirstName, *l.Email
	}
	if l.UserID != nil {
		if u, err := s.deps.Users.GetByID(ctx, *l.UserID); err == nil {
			return l.FirstName, u.Email
		}
	}
	return l.FirstName, ""
}

func (s *ModerationService) notifyUser(ctx context.Context, userID, kind string, data EmailData) {
	u, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "skipping notification, user lookup failed",
			slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	data.Name = u.FullName
	sendBestEffort(ctx, s.logger, s.deps.Notifier, u.Email, kind, data)
}

func (s *ModerationService) profileURL(slug string) string {
	return strings.TrimRight(s.deps.PublicURL, "/") + "/lobbyists/" + slug
}
