package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/auth"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	pkgauth "github.com/ezhulati/texaslobbyorg-sub001/pkg/auth"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
	pkglogger "github.com/ezhulati/texaslobbyorg-sub001/pkg/logger"
)

// AccountStore is the user persistence the auth flow needs.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	IssuePair(user *models.User) (*auth.TokenPair, error)
	ValidateToken(ctx context.Context, tokenString string) (*models.TokenClaims, error)
}

// AuthService handles registration, login and token refresh.
type AuthService struct {
	users       AccountStore
	tokens      TokenIssuer
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAuthService(users AccountStore, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		logger:      logger,
		auditLogger: pkglogger.NewAuditLogger(logger),
	}
}

// RegisterInput is a new searcher account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// Register creates a searcher account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.AuthResponse, error) {
	email := pkgauth.NormalizeEmail(in.Email)
	if email == "" {
		return nil, models.NewValidationError("email", "email is required")
	}
	if err := pkgauth.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError("password", err.Error())
	}
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, models.NewValidationError("full_name", "full name is required")
	}

	hash, err := pkgauth.HashPassword(in.Password)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     name,
		Role:         models.RoleSearcher,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logAttempt(ctx, "register", "", false, "email_taken")
			return nil, models.ErrConflict
		}
		s.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logAttempt(ctx, "register", user.ID, true, "")
	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return s.issue(ctx, user)
}

// Login verifies credentials. Suspended accounts are refused even with the
// right password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	if email = pkgauth.NormalizeEmail(email); email == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logAttempt(ctx, "login", "", false, "invalid_credentials")
			return nil, models.ErrUnauthorized
		}
		s.logger.ErrorContext(ctx, "failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logAttempt(ctx, "login", user.ID, false, "invalid_credentials")
		return nil, models.ErrUnauthorized
	}

	if user.IsSuspended {
		s.logAttempt(ctx, "login", user.ID, false, "account_suspended")
		return nil, models.ErrAccountSuspended
	}

	s.logAttempt(ctx, "login", user.ID, true, "")
	return s.issue(ctx, user)
}

// Refresh exchanges a refresh token for a new pair. Tokens signed with a
// rotated token key fail validation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	if refreshToken = strings.TrimSpace(refreshToken); refreshToken == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.tokens.ValidateToken(ctx, refreshToken)
	if err != nil {
		s.logger.InfoContext(ctx, "refresh token rejected", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}
	if claims.Type != models.TokenTypeRefresh {
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.ErrorContext(ctx, "failed to load user for refresh", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if user.IsSuspended {
		return nil, models.ErrAccountSuspended
	}

	return s.issue(ctx, user)
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(ctx, s.logger, "user", userID, err)
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to issue tokens", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return &models.AuthResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: user}, nil
}

func (s *AuthService) logAttempt(ctx context.Context, action, userID string, success bool, reason string) {
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		Action:     action,
		ActorID:    userID,
		TargetType: models.AuditTargetUser,
		TargetID:   userID,
		IPAddress:  pkghttp.ClientIPFromContext(ctx),
		Success:    success,
		Reason:     reason,
	})
}

// EnsureAdmin creates the first admin account when no user holds email.
// An existing account is left untouched. Reports whether one was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = pkgauth.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, models.NewValidationError("email", "admin email and password are required")
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		s.logger.InfoContext(ctx, "admin user already exists")
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return false, models.NewValidationError("password", err.Error())
	}
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin, err := s.users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Admin",
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logAttempt(ctx, "bootstrap_admin", admin.ID, true, "")
	s.logger.InfoContext(ctx, "admin user created", slog.String("user_id", admin.ID))
	return true, nil
}
