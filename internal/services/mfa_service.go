package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/auth"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
)

const defaultDeviceName = "Authenticator"

// TOTPProvider generates and checks device secrets.
type TOTPProvider interface {
	Enroll(accountEmail string) (*auth.Enrollment, error)
	DecryptSecret(ciphertext, nonce []byte) ([]byte, error)
	ValidateTOTP(secret []byte, code string, lastUsedAt *time.Time, now time.Time) (bool, error)
}

// MFAService enrolls admin TOTP devices and checks codes on destructive actions.
type MFAService struct {
	devices repositories.MFADeviceRepository
	totp    TOTPProvider
	auditor Auditor
	now     func() time.Time
	logger  *slog.Logger
}

func NewMFAService(devices repositories.MFADeviceRepository, totp TOTPProvider, auditor Auditor, logger *slog.Logger) *MFAService {
	return &MFAService{devices: devices, totp: totp, auditor: auditor, now: time.Now, logger: logger}
}

// SetupTOTP starts an enrollment. Earlier unverified devices are discarded.
func (s *MFAService) SetupTOTP(ctx context.Context, user *models.User, deviceName string) (*models.MFASetupResponse, error) {
	if !user.IsAdmin() {
		return nil, models.ErrForbidden
	}
	if deviceName = strings.TrimSpace(deviceName); deviceName == "" {
		deviceName = defaultDeviceName
	}

	if err := s.devices.DeleteUnverified(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear unverified devices", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	enrollment, err := s.totp.Enroll(user.Email)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to generate TOTP secret", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	device := &models.MFADevice{
		UserID:              user.ID,
		DeviceName:          deviceName,
		TOTPSecretEncrypted: enrollment.Ciphertext,
		TOTPSecretNonce:     enrollment.Nonce,
	}
	if err := s.devices.Create(ctx, device); err != nil {
		s.logger.ErrorContext(ctx, "failed to create MFA device", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.InfoContext(ctx, "MFA setup initiated", slog.String("user_id", user.ID), slog.String("device_id", device.ID))
	return &models.MFASetupResponse{DeviceID: device.ID, Secret: enrollment.Secret, QRCode: enrollment.QRCode}, nil
}

// VerifySetup confirms the first code from a new device and activates it.
func (s *MFAService) VerifySetup(ctx context.Context, userID, deviceID, code string) error {
	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return lookupError(ctx, s.logger, "mfa device", deviceID, err)
	}
	if device.UserID != userID {
		return models.ErrForbidden
	}
	if device.IsVerified() {
		return models.ErrConflict
	}

	if err := s.check(ctx, device, code); err != nil {
		record(ctx, s.auditor, AuditEntry{
			ActorID: userID, Action: models.AuditMFAEnroll,
			TargetType: models.AuditTargetUser, TargetID: userID, Success: false,
		})
		return err
	}

	if err := s.devices.MarkAsVerified(ctx, deviceID); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark device verified", slog.String("device_id", deviceID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	record(ctx, s.auditor, AuditEntry{
		ActorID: userID, Action: models.AuditMFAEnroll,
		TargetType: models.AuditTargetUser, TargetID: userID, Success: true,
		Metadata: map[string]any{"device_id": deviceID},
	})
	return nil
}

// Status reports whether the user has a verified device.
func (s *MFAService) Status(ctx context.Context, userID string) (*models.MFAStatus, error) {
	device, err := s.devices.GetVerifiedByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &models.MFAStatus{Enabled: false}, nil
		}
		s.logger.ErrorContext(ctx, "failed to load MFA status", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return &models.MFAStatus{Enabled: true, DeviceName: device.DeviceName, EnrolledAt: device.VerifiedAt}, nil
}

// CheckCode passes users without a verified device. Enrolled users must
// present a current, unreplayed code.
func (s *MFAService) CheckCode(ctx context.Context, userID, code string) error {
	device, err := s.devices.GetVerifiedByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		s.logger.ErrorContext(ctx, "failed to load MFA device", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if code == "" {
		return models.ErrMFARequired
	}
	return s.check(ctx, device, code)
}

func (s *MFAService) check(ctx context.Context, device *models.MFADevice, code string) error {
	secret, err := s.totp.DecryptSecret(device.TOTPSecretEncrypted, device.TOTPSecretNonce)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to decrypt TOTP secret", slog.String("device_id", device.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	valid, err := s.totp.ValidateTOTP(secret, code, device.LastUsedAt, s.now())
	if err != nil {
		if errors.Is(err, auth.ErrCodeReplay) {
			s.logger.WarnContext(ctx, "TOTP replay refused", slog.String("device_id", device.ID))
			return models.ErrInvalidMFACode
		}
		s.logger.WarnContext(ctx, "TOTP validation error", slog.String("device_id", device.ID), slog.Any("error", err))
		return models.ErrInvalidMFACode
	}
	if !valid {
		return models.ErrInvalidMFACode
	}

	if err := s.devices.UpdateLastUsedAt(ctx, device.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to stamp device use", slog.String("device_id", device.ID), slog.Any("error", err))
	}
	return nil
}
