package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
	"github.com/ezhulati/texaslobbyorg-sub001/pkg/logger"
)

// AuditLogStore persists audit rows.
type AuditLogStore interface {
	Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
	ListByTarget(ctx context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error)
}

// AuditEntry describes one admin decision.
type AuditEntry struct {
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Success    bool
	Metadata   models.AuditMetadata
}

// Auditor is what the workflow services record decisions through.
type Auditor interface {
	Record(ctx context.Context, entry AuditEntry)
}

func record(ctx context.Context, a Auditor, entry AuditEntry) {
	if a != nil {
		a.Record(ctx, entry)
	}
}

// AuditService handles audit logging with dual-write pattern (slog + database)
type AuditService struct {
	repo   AuditLogStore
	slog   *logger.AuditLogger
	logger *slog.Logger
}

func NewAuditService(repo AuditLogStore, log *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		slog:   logger.NewAuditLogger(log),
		logger: log,
	}
}

// Record writes the structured audit line first, then the row. A failed
// insert is logged and never fails the decision that was audited.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	ip := pkghttp.ClientIPFromContext(ctx)

	meta := make(map[string]string, len(entry.Metadata))
	for k, v := range entry.Metadata {
		meta[k] = fmt.Sprint(v)
	}
	s.slog.LogAdminAction(ctx, logger.AuditEvent{
		Action:     entry.Action,
		ActorID:    entry.ActorID,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		IPAddress:  ip,
		Success:    entry.Success,
		Metadata:   meta,
	})

	row := &models.AuditLog{
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Success:    entry.Success,
		Metadata:   entry.Metadata,
	}
	if entry.ActorID != "" {
		row.ActorID = &entry.ActorID
	}
	if ip != "" {
		row.IPAddress = &ip
	}

	if _, err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit log",
			slog.String("action", entry.Action),
			slog.String("target_id", entry.TargetID),
			slog.Any("error", err),
		)
	}
}

// Recent returns the newest audit rows for the admin dashboard.
func (s *AuditService) Recent(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	limit = clamp(limit, 1, 200, 50)
	if offset < 0 {
		offset = 0
	}
	logs, err := s.repo.ListRecent(ctx, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list audit log", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return logs, nil
}

func (s *AuditService) ForTarget(ctx context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error) {
	logs, err := s.repo.ListByTarget(ctx, targetType, targetID, clamp(limit, 1, 200, 50))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list audit log for target",
			slog.String("target_type", targetType),
			slog.String("target_id", targetID),
			slog.Any("error", err),
		)
		return nil, models.ErrInternalServer
	}
	return logs, nil
}

// clamp bounds v to [lo, hi], substituting def for non-positive input.
func clamp(v, lo, hi, def int) int {
	if v <= 0 {
		return def
	}
	return min(max(v, lo), hi)
}
