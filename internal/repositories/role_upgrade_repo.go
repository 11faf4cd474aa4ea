package repositories

import (
	"context"
	"fmt"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoleUpgradeRepository struct {
	pool *pgxpool.Pool
}

func NewRoleUpgradeRepository(db *database.DB) *RoleUpgradeRepository {
	return &RoleUpgradeRepository{pool: db.Pool}
}

const roleUpgradeColumns = `id, user_id, requested_role, justification, is_registered_lobbyist,
	status, rejection_reason, reviewed_by, reviewed_at, created_at`

func scanRoleUpgradeRow(row rowScanner) (*models.RoleUpgradeRequest, error) {
	var u models.RoleUpgradeRequest
	err := row.Scan(&u.ID, &u.UserID, &u.RequestedRole, &u.Justification, &u.IsRegisteredLobbyist,
		&u.Status, &u.RejectionReason, &u.ReviewedBy, &u.ReviewedAt, &u.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &u, nil
}

func (r *RoleUpgradeRepository) Create(ctx context.Context, u *models.RoleUpgradeRequest) (*models.RoleUpgradeRequest, error) {
	return scanRoleUpgradeRow(r.pool.QueryRow(ctx, `
		INSERT INTO role_upgrade_requests (id, user_id, requested_role, justification, is_registered_lobbyist)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+roleUpgradeColumns,
		uuid.New().String(), u.UserID, u.RequestedRole, u.Justification, u.IsRegisteredLobbyist))
}

func (r *RoleUpgradeRepository) HasPending(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_upgrade_requests WHERE user_id = $1 AND status = 'pending')`,
		userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending role upgrade: %w", err)
	}
	return exists, nil
}

func (r *RoleUpgradeRepository) ListPending(ctx context.Context, limit int) ([]*models.RoleUpgradeRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+roleUpgradeColumns+` FROM role_upgrade_requests
		WHERE status = 'pending' ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query role upgrades: %w", err)
	}
	defer rows.Close()

	out := make([]*models.RoleUpgradeRequest, 0)
	for rows.Next() {
		u, err := scanRoleUpgradeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role upgrade: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Approve marks the request approved and changes the user's role in one transaction.
func (r *RoleUpgradeRepository) Approve(ctx context.Context, d models.Decision) (*models.RoleUpgradeRequest, error) {
	var approved *models.RoleUpgradeRequest

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		req, err := scanRoleUpgradeRow(tx.QueryRow(ctx,
			`SELECT `+roleUpgradeColumns+` FROM role_upgrade_requests WHERE id = $1 FOR UPDATE`, d.RequestID))
		if err != nil {
			return err
		}
		if req.Status != models.RequestPending {
			return models.ErrNotPending
		}

		updated, err := scanRoleUpgradeRow(tx.QueryRow(ctx, `
			UPDATE role_upgrade_requests SET status = 'approved', reviewed_by = $1, reviewed_at = $2
			WHERE id = $3
			RETURNING `+roleUpgradeColumns,
			d.AdminID, d.At, d.RequestID))
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2 AND role = 'searcher'`,
			req.RequestedRole, req.UserID); err != nil {
			return database.MapPostgresError(err)
		}

		approved = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

func (r *RoleUpgradeRepository) Reject(ctx context.Context, d models.Decision) (*models.RoleUpgradeRequest, error) {
	u, err := scanRoleUpgradeRow(r.pool.QueryRow(ctx, `
		UPDATE role_upgrade_requests SET
			status = 'rejected', rejection_reason = $1, reviewed_by = $2, reviewed_at = $3
		WHERE id = $4 AND status = 'pending'
		RETURNING `+roleUpgradeColumns,
		d.Reason, d.AdminID, d.At, d.RequestID))
	if err != nil {
		return nil, notPendingIfMissing(ctx, r.pool, "role_upgrade_requests", d.RequestID, err)
	}
	return u, nil
}
