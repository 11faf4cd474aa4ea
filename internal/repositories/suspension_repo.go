package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SuspensionRepository struct {
	pool *pgxpool.Pool
}

func NewSuspensionRepository(db *database.DB) *SuspensionRepository {
	return &SuspensionRepository{pool: db.Pool}
}

const suspensionColumns = `id, user_id, suspended_by, reason, category, expires_at, is_active, lifted_by, lifted_at, created_at`

func scanSuspensionRow(row rowScanner) (*models.Suspension, error) {
	var s models.Suspension
	var suspendedBy *string

	err := row.Scan(&s.ID, &s.UserID, &suspendedBy, &s.Reason, &s.Category,
		&s.ExpiresAt, &s.IsActive, &s.LiftedBy, &s.LiftedAt, &s.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if suspendedBy != nil {
		s.SuspendedBy = *suspendedBy
	}
	return &s, nil
}

// Suspend records a suspension, sets the user's flag and replaces their token
// key, all in one transaction that first runs the last-admin guard.
func (r *SuspensionRepository) Suspend(ctx context.Context, in models.NewSuspension) (*models.Suspension, error) {
	var created *models.Suspension

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := guardLastAdmin(ctx, tx, in.UserID); err != nil {
			return err
		}

		result, err := tx.Exec(ctx,
			`UPDATE users SET is_suspended = TRUE, token_key = $1, updated_at = NOW() WHERE id = $2`,
			in.TokenKey, in.UserID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		s, err := scanSuspensionRow(tx.QueryRow(ctx, `
			INSERT INTO user_suspensions (id, user_id, suspended_by, reason, category, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+suspensionColumns,
			uuid.New().String(), in.UserID, in.SuspendedBy, in.Reason, in.Category, in.ExpiresAt,
		))
		if err != nil {
			return err
		}

		created = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Unsuspend lifts every open suspension of the user and clears the flag.
// It returns the number of suspension records lifted.
func (r *SuspensionRepository) Unsuspend(ctx context.Context, userID, adminID string) (int64, error) {
	var lifted int64

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx,
			`UPDATE users SET is_suspended = FALSE, updated_at = NOW() WHERE id = $1`, userID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		result, err = tx.Exec(ctx, `
			UPDATE user_suspensions SET is_active = FALSE, lifted_by = $1, lifted_at = NOW()
			WHERE user_id = $2 AND is_active = TRUE`,
			adminID, userID)
		if err != nil {
			return database.MapPostgresError(err)
		}

		lifted = result.RowsAffected()
		return nil
	})
	return lifted, err
}

func (r *SuspensionRepository) ListByUser(ctx context.Context, userID string) ([]*models.Suspension, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+suspensionColumns+` FROM user_suspensions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suspensions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Suspension, 0)
	for rows.Next() {
		s, err := scanSuspensionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suspension: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ExpireDue deactivates suspensions whose expiry has passed and clears the
// flag of users left with no active suspension. Returns users released.
func (r *SuspensionRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	var released int64

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE user_suspensions SET is_active = FALSE, lifted_at = $1
			WHERE is_active = TRUE AND expires_at IS NOT NULL AND expires_at <= $1`, now); err != nil {
			return database.MapPostgresError(err)
		}

		result, err := tx.Exec(ctx, `
			UPDATE users u SET is_suspended = FALSE, updated_at = NOW()
			WHERE u.is_suspended = TRUE
			  AND NOT EXISTS (
				SELECT 1 FROM user_suspensions s WHERE s.user_id = u.id AND s.is_active = TRUE
			  )`)
		if err != nil {
			return database.MapPostgresError(err)
		}

		released = result.RowsAffected()
		return nil
	})
	return released, err
}
