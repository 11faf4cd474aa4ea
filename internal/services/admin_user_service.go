package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/pkg/auth"
)

const minSuspensionReasonLength = 10

// AdminUserStore is the user persistence admins act on.
type AdminUserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type SuspensionStore interface {
	Suspend(ctx context.Context, in models.NewSuspension) (*models.Suspension, error)
	Unsuspend(ctx context.Context, userID, adminID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Suspension, error)
}

type StatsStore interface {
	PendingCounts(ctx context.Context) (*models.PendingCounts, error)
}

// AdminUserService implements account moderation: suspension, deletion and edits.
type AdminUserService struct {
	users       AdminUserStore
	suspensions SuspensionStore
	stats       StatsStore
	notifier    Notifier
	auditor     Auditor
	now         func() time.Time
	newTokenKey func() (string, error)
	logger      *slog.Logger
}

func NewAdminUserService(users AdminUserStore, suspensions SuspensionStore, stats StatsStore, notifier Notifier, auditor Auditor, logger *slog.Logger) *AdminUserService {
	return &AdminUserService{
		users:       users,
		suspensions: suspensions,
		stats:       stats,
		notifier:    notifier,
		auditor:     auditor,
		now:         time.Now,
		newTokenKey: auth.GenerateTokenKey,
		logger:      logger,
	}
}

// SuspendInput is an admin's suspension decision.
type SuspendInput struct {
	Reason    string
	Category  string
	ExpiresAt *time.Time
}

// SuspendUser suspends an account and revokes its sessions by rotating the
// token key. The last active admin cannot be suspended.
func (s *AdminUserService) SuspendUser(ctx context.Context, adminID, targetID string, in SuspendInput) (*models.Suspension, error) {
	if adminID == targetID {
		return nil, models.ErrSelfAction
	}

	reason := strings.TrimSpace(in.Reason)
	fields := map[string]string{}
	if len([]rune(reason)) < minSuspensionReasonLength {
		fields["reason"] = "reason must be at least 10 characters"
	}
	if !slices.Contains(models.SuspensionCategories, in.Category) {
		fields["category"] = "unknown suspension category"
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.now()) {
		fields["expires_at"] = "expiry must be in the future"
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, lookupError(ctx, s.logger, "user", targetID, err)
	}

	tokenKey, err := s.newTokenKey()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to generate token key", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	suspension, err := s.suspensions.Suspend(ctx, models.NewSuspension{
		UserID:      targetID,
		SuspendedBy: adminID,
		Reason:      reason,
		Category:    in.Category,
		ExpiresAt:   in.ExpiresAt,
		TokenKey:    tokenKey,
	})
	if err != nil {
		if errors.Is(err, models.ErrLastAdmin) {
			s.recordFailure(ctx, adminID, models.AuditSuspendUser, targetID, "last_admin")
			return nil, err
		}
		return nil, lookupError(ctx, s.logger, "user", targetID, err)
	}

	record(ctx, s.auditor, AuditEntry{
		ActorID:    adminID,
		Action:     models.AuditSuspendUser,
		TargetType: models.AuditTargetUser,
		TargetID:   targetID,
		Success:    true,
		Metadata:   models.AuditMetadata{"reason": reason, "category": in.Category},
	})
	sendBestEffort(ctx, s.logger, s.notifier, target.Email, EmailAccountSuspended, EmailData{
		Name:   target.FullName,
		Reason: reason,
		Until:  in.ExpiresAt,
	})
	return suspension, nil
}

// UnsuspendUser lifts every open suspension and reports how many were lifted.
func (s *AdminUserService) UnsuspendUser(ctx context.Context, adminID, targetID string) (int64, error) {
	lifted, err := s.suspensions.Unsuspend(ctx, targetID, adminID)
	if err != nil {
		return 0, lookupError(ctx, s.logger, "user", targetID, err)
	}

	record(ctx, s.auditor, AuditEntry{
		ActorID:    adminID,
		Action:     models.AuditUnsuspendUser,
		TargetType: models.AuditTargetUser,
		TargetID:   targetID,
		Success:    true,
		Metadata:   models.AuditMetadata{"lifted": lifted},
	})
	return lifted, nil
}

func (s *AdminUserService) ListSuspensions(ctx context.Context, userID string) ([]*models.Suspension, error) {
	out, err := s.suspensions.ListByUser(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list suspensions", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return out, nil
}

// DeleteUser hard-deletes an account; admins cannot delete themselves or the last admin.
func (s *AdminUserService) DeleteUser(ctx context.Context, adminID, targetID string) error {
	if adminID == targetID {
		return models.ErrSelfAction
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return lookupError(ctx, s.logger, "user", targetID, err)
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, models.ErrLastAdmin) {
			s.recordFailure(ctx, adminID, models.AuditDeleteUser, targetID, "last_admin")
			return err
		}
		return lookupError(ctx, s.logger, "user", targetID, err)
	}

	record(ctx, s.auditor, AuditEntry{
		ActorID:    adminID,
		Action:     models.AuditDeleteUser,
		TargetType: models.AuditTargetUser,
		TargetID:   targetID,
		Success:    true,
		Metadata:   models.AuditMetadata{"role": target.Role},
	})
	sendBestEffort(ctx, s.logger, s.notifier, target.Email, EmailAccountDeleted, EmailData{Name: target.FullName})
	return nil
}

// EditUser applies an admin edit; demoting the last admin is refused in the store.
func (s *AdminUserService) EditUser(ctx context.Context, adminID, targetID string, upd models.UserUpdate) (*models.User, error) {
	fields := map[string]string{}
	if upd.Role != nil && !slices.Contains([]string{models.RoleSearcher, models.RoleLobbyist, models.RoleAdmin}, *upd.Role) {
		fields["role"] = "unknown role"
	}
	if upd.SubscriptionTier != nil && !slices.Contains(models.Tiers, *upd.SubscriptionTier) {
		fields["subscription_tier"] = "unknown tier"
	}
	if upd.Email != nil {
		email := auth.NormalizeEmail(*upd.Email)
		if !strings.Contains(email, "@") {
			fields["email"] = "invalid email"
		}
		upd.Email = &email
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}

	user, err := s.users.Update(ctx, targetID, upd)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrLastAdmin):
			s.recordFailure(ctx, adminID, models.AuditEditUser, targetID, "last_admin")
			return nil, err
		case errors.Is(err, models.ErrConflict):
			return nil, err
		}
		return nil, lookupError(ctx, s.logger, "user", targetID, err)
	}

	meta := models.AuditMetadata{}
	if upd.Role != nil {
		meta["role"] = *upd.Role
	}
	if upd.SubscriptionTier != nil {
		meta["subscription_tier"] = *upd.SubscriptionTier
	}
	record(ctx, s.auditor, AuditEntry{
		ActorID:    adminID,
		Action:     models.AuditEditUser,
		TargetType: models.AuditTargetUser,
		TargetID:   targetID,
		Success:    true,
		Metadata:   meta,
	})
	return user, nil
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users  []*models.User `json:"users"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (s *AdminUserService) ListUsers(ctx context.Context, filter models.UserFilter) (*UserPage, error) {
	filter.Limit = clamp(filter.Limit, 1, 100, 50)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return &UserPage{Users: users, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Dashboard returns queue sizes, suspended accounts and the tier breakdown.
func (s *AdminUserService) Dashboard(ctx context.Context) (*models.PendingCounts, error) {
	counts, err := s.stats.PendingCounts(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "dashboard: failed to load counts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return counts, nil
}

func (s *AdminUserService) recordFailure(ctx context.Context, adminID, action, targetID, reason string) {
	record(ctx, s.auditor, AuditEntry{
		ActorID:    adminID,
		Action:     action,
		TargetType: models.AuditTargetUser,
		TargetID:   targetID,
		Success:    false,
		Metadata:   models.AuditMetadata{"reason": reason},
	})
}
