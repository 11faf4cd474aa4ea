package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClaimRepository struct {
	pool *pgxpool.Pool
}

func NewClaimRepository(db *database.DB) *ClaimRepository {
	return &ClaimRepository{pool: db.Pool}
}

const claimColumns = `id, user_id, lobbyist_id, first_name, last_name, email, phone,
	verification_document_key, status, rejection_reason, reviewed_by, reviewed_at, created_at`

func scanClaimRow(row rowScanner) (*models.ClaimRequest, error) {
	var c models.ClaimRequest
	err := row.Scan(&c.ID, &c.UserID, &c.LobbyistID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.VerificationDocKey, &c.Status, &c.RejectionReason, &c.ReviewedBy, &c.ReviewedAt, &c.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func (r *ClaimRepository) Create(ctx context.Context, c *models.ClaimRequest) (*models.ClaimRequest, error) {
	return scanClaimRow(r.pool.QueryRow(ctx, `
		INSERT INTO profile_claim_requests
			(id, user_id, lobbyist_id, first_name, last_name, email, phone, verification_document_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+claimColumns,
		uuid.New().String(), c.UserID, c.LobbyistID, c.FirstName, c.LastName, c.Email, c.Phone, c.VerificationDocKey,
	))
}

// HasPending reports whether the user already has an open claim on the profile.
func (r *ClaimRepository) HasPending(ctx context.Context, userID, lobbyistID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM profile_claim_requests
			WHERE user_id = $1 AND lobbyist_id = $2 AND status = 'pending'
		)`, userID, lobbyistID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending claim: %w", err)
	}
	return exists, nil
}

func (r *ClaimRepository) GetByID(ctx context.Context, id string) (*models.ClaimRequest, error) {
	return scanClaimRow(r.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM profile_claim_requests WHERE id = $1`, id))
}

func (r *ClaimRepository) ListPending(ctx context.Context, limit int) ([]*models.ClaimRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+claimColumns+` FROM profile_claim_requests
		WHERE status = 'pending' ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending claims: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ClaimRequest, 0)
	for rows.Next() {
		c, err := scanClaimRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// lockPendingClaim locks a claim row and fails unless it is still pending.
func lockPendingClaim(ctx context.Context, tx pgx.Tx, id string) (*models.ClaimRequest, error) {
	c, err := scanClaimRow(tx.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM profile_claim_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if c.Status != models.RequestPending {
		return nil, models.ErrNotPending
	}
	return c, nil
}

// Approve links the claimant to the profile, marks the claim approved and
// promotes the claimant, all in one transaction.
func (r *ClaimRepository) Approve(ctx context.Context, d models.Decision) (*models.ClaimRequest, error) {
	var approved *models.ClaimRequest

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		claim, err := lockPendingClaim(ctx, tx, d.RequestID)
		if err != nil {
			return err
		}

		var isClaimed bool
		if err := tx.QueryRow(ctx,
			`SELECT is_claimed FROM lobbyists WHERE id = $1 FOR UPDATE`, claim.LobbyistID,
		).Scan(&isClaimed); err != nil {
			return database.MapPostgresError(err)
		}
		if isClaimed {
			return models.ErrAlreadyClaimed
		}

		var ownsProfile bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM lobbyists WHERE user_id = $1)`, claim.UserID,
		).Scan(&ownsProfile); err != nil {
			return database.MapPostgresError(err)
		}
		if ownsProfile {
			return models.ErrProfileExists
		}

		if _, err := tx.Exec(ctx, `
			UPDATE lobbyists SET
				is_claimed = TRUE, claimed_by = $1, claimed_at = $2, user_id = $1, updated_at = NOW()
			WHERE id = $3`,
			claim.UserID, d.At, claim.LobbyistID); err != nil {
			return database.MapPostgresError(err)
		}

		updated, err := scanClaimRow(tx.QueryRow(ctx, `
			UPDATE profile_claim_requests SET status = 'approved', reviewed_by = $1, reviewed_at = $2
			WHERE id = $3
			RETURNING `+claimColumns,
			d.AdminID, d.At, d.RequestID))
		if err != nil {
			return err
		}

		if err := promoteToLobbyist(ctx, tx, claim.UserID); err != nil {
			return err
		}

		approved = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject closes a pending claim with a reason.
func (r *ClaimRepository) Reject(ctx context.Context, d models.Decision) (*models.ClaimRequest, error) {
	c, err := scanClaimRow(r.pool.QueryRow(ctx, `
		UPDATE profile_claim_requests SET
			status = 'rejected', rejection_reason = $1, reviewed_by = $2, reviewed_at = $3
		WHERE id = $4 AND status = 'pending'
		RETURNING `+claimColumns,
		d.Reason, d.AdminID, d.At, d.RequestID))
	if err != nil {
		return nil, notPendingIfMissing(ctx, r.pool, "profile_claim_requests", d.RequestID, err)
	}
	return c, nil
}

// notPendingIfMissing distinguishes "no such request" from "already resolved"
// after a conditional update matched no row.
func notPendingIfMissing(ctx context.Context, q database.Querier, table, id string, err error) error {
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	var exists bool
	if qErr := q.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table), id,
	).Scan(&exists); qErr != nil {
		return fmt.Errorf("failed to check request: %w", qErr)
	}
	if exists {
		return models.ErrNotPending
	}
	return models.ErrNotFound
}
