package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MFADeviceRepository stores admin TOTP devices.
type MFADeviceRepository interface {
	Create(ctx context.Context, device *models.MFADevice) error
	GetByID(ctx context.Context, deviceID string) (*models.MFADevice, error)
	GetVerifiedByUserID(ctx context.Context, userID string) (*models.MFADevice, error)
	MarkAsVerified(ctx context.Context, deviceID string) error
	UpdateLastUsedAt(ctx context.Context, deviceID string) error
	DeleteUnverified(ctx context.Context, userID string) error
}

type MFADeviceStore struct {
	pool *pgxpool.Pool
}

func NewMFADeviceRepository(db *database.DB) *MFADeviceStore {
	return &MFADeviceStore{pool: db.Pool}
}

const selectMFADevice = `
	SELECT id, user_id, device_name, totp_secret_encrypted, totp_secret_nonce,
	       last_used_at, created_at, verified_at
	FROM mfa_devices`

func scanMFADevice(row pgx.Row) (*models.MFADevice, error) {
	var d models.MFADevice
	err := row.Scan(&d.ID, &d.UserID, &d.DeviceName, &d.TOTPSecretEncrypted, &d.TOTPSecretNonce,
		&d.LastUsedAt, &d.CreatedAt, &d.VerifiedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan mfa device: %w", err)
	}
	return &d, nil
}

// Create inserts an unverified device and fills in its id and creation time.
func (r *MFADeviceStore) Create(ctx context.Context, device *models.MFADevice) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO mfa_devices (user_id, device_name, totp_secret_encrypted, totp_secret_nonce)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		device.UserID, device.DeviceName, device.TOTPSecretEncrypted, device.TOTPSecretNonce,
	).Scan(&device.ID, &device.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create mfa device: %w", database.MapPostgresError(err))
	}
	return nil
}

func (r *MFADeviceStore) GetByID(ctx context.Context, deviceID string) (*models.MFADevice, error) {
	return scanMFADevice(r.pool.QueryRow(ctx, selectMFADevice+` WHERE id = $1`, deviceID))
}

// GetVerifiedByUserID returns the admin's first verified device, or
// ErrNotFound when they never finished enrollment.
func (r *MFADeviceStore) GetVerifiedByUserID(ctx context.Context, userID string) (*models.MFADevice, error) {
	return scanMFADevice(r.pool.QueryRow(ctx, selectMFADevice+`
		WHERE user_id = $1 AND verified_at IS NOT NULL
		ORDER BY verified_at
		LIMIT 1`, userID))
}

func (r *MFADeviceStore) MarkAsVerified(ctx context.Context, deviceID string) error {
	return r.touch(ctx, `UPDATE mfa_devices SET verified_at = NOW() WHERE id = $1`, deviceID)
}

func (r *MFADeviceStore) UpdateLastUsedAt(ctx context.Context, deviceID string) error {
	return r.touch(ctx, `UPDATE mfa_devices SET last_used_at = NOW() WHERE id = $1`, deviceID)
}

func (r *MFADeviceStore) touch(ctx context.Context, query, deviceID string) error {
	tag, err := r.pool.Exec(ctx, query, deviceID)
	if err != nil {
		return fmt.Errorf("failed to update mfa device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteUnverified drops abandoned enrollments before a new setup.
func (r *MFADeviceStore) DeleteUnverified(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM mfa_devices WHERE user_id = $1 AND verified_at IS NULL`, userID); err != nil {
		return fmt.Errorf("failed to delete unverified mfa devices: %w", err)
	}
	return nil
}
