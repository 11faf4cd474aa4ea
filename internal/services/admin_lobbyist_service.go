package services

import (
	"context"
	"log/slog"
	"slices"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
)

type AdminLobbyistStore interface {
	GetByID(ctx context.Context, id string) (*models.Lobbyist, error)
	AdminUpdate(ctx context.Context, id string, upd models.LobbyistUpdate) (*models.Lobbyist, error)
	SetTier(ctx context.Context, id, tier string) (*models.Lobbyist, error)
	Delete(ctx context.Context, id string) error
}

// AdminLobbyistService implements direct admin edits of directory profiles.
type AdminLobbyistService struct {
	lobbyists AdminLobbyistStore
	auditor   Auditor
	logger    *slog.Logger
}

func NewAdminLobbyistService(lobbyists AdminLobbyistStore, auditor Auditor, logger *slog.Logger) *AdminLobbyistService {
	return &AdminLobbyistService{lobbyists: lobbyists, auditor: auditor, logger: logger}
}

func (s *AdminLobbyistService) EditLobbyist(ctx context.Context, adminID, id string, upd models.LobbyistUpdate) (*models.Lobbyist, error) {
	if upd.FirstName != nil && *upd.FirstName == "" {
		return nil, models.NewValidationError("first_name", "first name cannot be empty")
	}
	if upd.LastName != nil && *upd.LastName == "" {
		return nil, models.NewValidationError("last_name", "last name cannot be empty")
	}
	if upd.Cities != nil {
		upd.Cities = trimAll(upd.Cities)
	}
	if upd.SubjectAreas != nil {
		upd.SubjectAreas = trimAll(upd.SubjectAreas)
	}

	l, err := s.lobbyists.AdminUpdate(ctx, id, upd)
	if err != nil {
		return nil, lookupError(ctx, s.logger, "lobbyist", id, err)
	}

	meta := models.AuditMetadata{}
	if upd.IsActive != nil {
		meta["is_active"] = *upd.IsActive
	}
	s.audit(ctx, adminID, models.AuditEditLobbyist, id, meta)
	return l, nil
}

func (s *AdminLobbyistService) DeleteLobbyist(ctx context.Context, adminID, id string) error {
	l, err := s.lobbyists.GetByID(ctx, id)
	if err != nil {
		return lookupError(ctx, s.logger, "lobbyist", id, err)
	}
	if err := s.lobbyists.Delete(ctx, id); err != nil {
		return lookupError(ctx, s.logger, "lobbyist", id, err)
	}

	s.audit(ctx, adminID, models.AuditDeleteLobbyist, id, models.AuditMetadata{"slug": l.Slug})
	return nil
}

// UpdateLobbyistTier writes the tier to the profile and its linked user together.
func (s *AdminLobbyistService) UpdateLobbyistTier(ctx context.Context, adminID, id, tier string) (*models.Lobbyist, error) {
	if !slices.Contains(models.Tiers, tier) {
		return nil, models.NewValidationError("tier", "unknown tier")
	}

	l, err := s.lobbyists.SetTier(ctx, id, tier)
	if err != nil {
		return nil, lookupError(ctx, s.logger, "lobbyist", id, err)
	}

	s.audit(ctx, adminID, models.AuditUpdateTier, id, models.AuditMetadata{"tier": tier})
	return l, nil
}

func (s *AdminLobbyistService) audit(ctx context.Context, adminID, action, id string, meta models.AuditMetadata) {
	record(ctx, s.auditor, AuditEntry{
		ActorID:    adminID,
		Action:     action,
		TargetType: models.AuditTargetLobbyist,
		TargetID:   id,
		Success:    true,
		Metadata:   meta,
	})
}
