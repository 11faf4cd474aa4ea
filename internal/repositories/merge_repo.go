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

type MergeRepository struct {
	pool *pgxpool.Pool
}

func NewMergeRepository(db *database.DB) *MergeRepository {
	return &MergeRepository{pool: db.Pool}
}

const mergeColumns = `id, requester_id, primary_lobbyist_id, duplicate_lobbyist_id, reason,
	status, rejection_reason, reviewed_by, reviewed_at, created_at`

func scanMergeRow(row rowScanner) (*models.MergeRequest, error) {
	var m models.MergeRequest
	err := row.Scan(&m.ID, &m.RequesterID, &m.PrimaryID, &m.DuplicateID, &m.Reason,
		&m.Status, &m.RejectionReason, &m.ReviewedBy, &m.ReviewedAt, &m.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &m, nil
}

func (r *MergeRepository) Create(ctx context.Context, m *models.MergeRequest) (*models.MergeRequest, error) {
	return scanMergeRow(r.pool.QueryRow(ctx, `
		INSERT INTO account_merge_requests (id, requester_id, primary_lobbyist_id, duplicate_lobbyist_id, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+mergeColumns,
		uuid.New().String(), m.RequesterID, m.PrimaryID, m.DuplicateID, m.Reason))
}

// HasPending checks for an open request over the same pair in either direction.
func (r *MergeRepository) HasPending(ctx context.Context, primaryID, duplicateID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM account_merge_requests
			WHERE status = 'pending'
			  AND ((primary_lobbyist_id = $1 AND duplicate_lobbyist_id = $2)
			    OR (primary_lobbyist_id = $2 AND duplicate_lobbyist_id = $1))
		)`, primaryID, duplicateID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending merge: %w", err)
	}
	return exists, nil
}

func (r *MergeRepository) ListPending(ctx context.Context, limit int) ([]*models.MergeRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+mergeColumns+` FROM account_merge_requests
		WHERE status = 'pending' ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query merges: %w", err)
	}
	defer rows.Close()

	out := make([]*models.MergeRequest, 0)
	for rows.Next() {
		m, err := scanMergeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan merge: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MergeResult reports what an approved merge moved.
type MergeResult struct {
	Request        *models.MergeRequest
	ClientsMoved   int64
	FavoritesMoved int64
}

// Approve folds the duplicate profile into the primary: clients and
// favorites move across, the duplicate is deactivated and points at the
// primary, and the request is closed. Everything commits or nothing does.
func (r *MergeRepository) Approve(ctx context.Context, d models.Decision) (*MergeResult, error) {
	res := &MergeResult{}

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		req, err := scanMergeRow(tx.QueryRow(ctx,
			`SELECT `+mergeColumns+` FROM account_merge_requests WHERE id = $1 FOR UPDATE`, d.RequestID))
		if err != nil {
			return err
		}
		if req.Status != models.RequestPending {
			return models.ErrNotPending
		}

		// Lock both profiles in a stable order.
		rows, err := tx.Query(ctx,
			`SELECT id FROM lobbyists WHERE id IN ($1, $2) ORDER BY id FOR UPDATE`, req.PrimaryID, req.DuplicateID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		locked, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return database.MapPostgresError(err)
		}
		if len(locked) != 2 {
			return models.ErrNotFound
		}

		tag, err := tx.Exec(ctx,
			`UPDATE clients SET lobbyist_id = $1 WHERE lobbyist_id = $2`, req.PrimaryID, req.DuplicateID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		res.ClientsMoved = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `
			INSERT INTO favorites (user_id, lobbyist_id, created_at)
			SELECT user_id, $1, created_at FROM favorites WHERE lobbyist_id = $2
			ON CONFLICT (user_id, lobbyist_id) DO NOTHING`, req.PrimaryID, req.DuplicateID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		res.FavoritesMoved = tag.RowsAffected()

		if _, err := tx.Exec(ctx, `DELETE FROM favorites WHERE lobbyist_id = $1`, req.DuplicateID); err != nil {
			return database.MapPostgresError(err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE lobbyists SET is_active = FALSE, merged_into = $1, updated_at = NOW()
			WHERE id = $2`, req.PrimaryID, req.DuplicateID); err != nil {
			return database.MapPostgresError(err)
		}

		updated, err := scanMergeRow(tx.QueryRow(ctx, `
			UPDATE account_merge_requests SET status = 'approved', reviewed_by = $1, reviewed_at = $2
			WHERE id = $3
			RETURNING `+mergeColumns,
			d.AdminID, d.At, d.RequestID))
		if err != nil {
			return err
		}

		res.Request = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *MergeRepository) Reject(ctx context.Context, d models.Decision) (*models.MergeRequest, error) {
	m, err := scanMergeRow(r.pool.QueryRow(ctx, `
		UPDATE account_merge_requests SET
			status = 'rejected', rejection_reason = $1, reviewed_by = $2, reviewed_at = $3
		WHERE id = $4 AND status = 'pending'
		RETURNING `+mergeColumns,
		d.Reason, d.AdminID, d.At, d.RequestID))
	if err != nil {
		return nil, notPendingIfMissing(ctx, r.pool, "account_merge_requests", d.RequestID, err)
	}
	return m, nil
}
