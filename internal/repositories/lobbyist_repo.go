package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LobbyistRepository struct {
	pool *pgxpool.Pool
}

func NewLobbyistRepository(db *database.DB) *LobbyistRepository {
	return &LobbyistRepository{pool: db.Pool}
}

var lobbyistFields = []string{
	"id", "user_id", "slug", "first_name", "last_name", "email",
	"phone", "website", "linkedin_url", "bio", "cities", "subject_areas", "photo_url",
	"subscription_tier", "view_count",
	"is_claimed", "claimed_by", "claimed_at", "is_active", "merged_into",
	"approval_status", "is_pending", "pending_reason", "is_rejected",
	"rejection_reason", "rejection_category", "rejection_count", "rejected_at", "rejected_by",
	"resubmission_count", "last_resubmission_at",
	"created_at", "updated_at",
}

var lobbyistColumns = strings.Join(lobbyistFields, ", ")

func scanLobbyistRow(row rowScanner) (*models.Lobbyist, error) {
	var l models.Lobbyist

	err := row.Scan(
		&l.ID, &l.UserID, &l.Slug, &l.FirstName, &l.LastName, &l.Email,
		&l.Phone, &l.Website, &l.LinkedInURL, &l.Bio, &l.Cities, &l.SubjectAreas, &l.PhotoURL,
		&l.SubscriptionTier, &l.ViewCount,
		&l.IsClaimed, &l.ClaimedBy, &l.ClaimedAt, &l.IsActive, &l.MergedInto,
		&l.ApprovalStatus, &l.IsPending, &l.PendingReason, &l.IsRejected,
		&l.RejectionReason, &l.RejectionCategory, &l.RejectionCount, &l.RejectedAt, &l.RejectedBy,
		&l.ResubmissionCount, &l.LastResubmissionAt,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &l, nil
}

func scanLobbyistRows(rows pgx.Rows) ([]models.Lobbyist, error) {
	defer rows.Close()

	out := make([]models.Lobbyist, 0)
	for rows.Next() {
		l, err := scanLobbyistRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lobbyist: %w", err)
		}
		out = append(out, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lobbyist rows: %w", err)
	}
	return out, nil
}

func (r *LobbyistRepository) GetByID(ctx context.Context, id string) (*models.Lobbyist, error) {
	return scanLobbyistRow(r.pool.QueryRow(ctx,
		`SELECT `+lobbyistColumns+` FROM lobbyists WHERE id = $1`, id))
}

func (r *LobbyistRepository) GetBySlug(ctx context.Context, slug string) (*models.Lobbyist, error) {
	return scanLobbyistRow(r.pool.QueryRow(ctx,
		`SELECT `+lobbyistColumns+` FROM lobbyists WHERE slug = $1`, slug))
}

// GetByOwner finds the profile a user created or claimed.
func (r *LobbyistRepository) GetByOwner(ctx context.Context, userID string) (*models.Lobbyist, error) {
	return scanLobbyistRow(r.pool.QueryRow(ctx, `
		SELECT `+lobbyistColumns+` FROM lobbyists
		WHERE user_id = $1 OR claimed_by = $1
		ORDER BY created_at LIMIT 1`, userID))
}

func (r *LobbyistRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM lobbyists WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// CreateForUser inserts a self-created profile in the pending state and
// promotes a searcher owner to lobbyist in the same transaction.
func (r *LobbyistRepository) CreateForUser(ctx context.Context, in models.NewLobbyist) (*models.Lobbyist, error) {
	var created *models.Lobbyist
	c := in.Content

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		l, err := scanLobbyistRow(tx.QueryRow(ctx, `
			INSERT INTO lobbyists (
				id, user_id, claimed_by, claimed_at, is_claimed, slug, first_name, last_name, email,
				phone, website, linkedin_url, bio, cities, subject_areas,
				is_active, approval_status, is_pending, pending_reason
			) VALUES (
				$1, $2, $2, NOW(), TRUE, $3, $4, $5, NULLIF($6, ''),
				NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11, $12,
				FALSE, 'pending', TRUE, 'New profile awaiting review'
			)
			RETURNING `+lobbyistColumns,
			uuid.New().String(), in.UserID, in.Slug, c.FirstName, c.LastName, c.Email,
			c.Phone, c.Website, c.LinkedInURL, c.Bio, nonNil(c.Cities), nonNil(c.SubjectAreas),
		))
		if err != nil {
			return err
		}

		if err := promoteToLobbyist(ctx, tx, in.UserID); err != nil {
			return err
		}

		created = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// promoteToLobbyist flips a searcher to lobbyist; admins keep their role.
func promoteToLobbyist(ctx context.Context, tx pgx.Tx, userID string) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET role = 'lobbyist', updated_at = NOW() WHERE id = $1 AND role = 'searcher'`, userID)
	return database.MapPostgresError(err)
}

// Approve publishes a profile and clears rejection state. rejection_count is history and is kept.
func (r *LobbyistRepository) Approve(ctx context.Context, id string) (*models.Lobbyist, error) {
	return scanLobbyistRow(r.pool.QueryRow(ctx, `
		UPDATE lobbyists SET
			approval_status = 'approved',
			is_active = TRUE,
			is_pending = FALSE,
			pending_reason = NULL,
			is_rejected = FALSE,
			rejection_reason = NULL,
			rejection_category = NULL,
			rejected_at = NULL,
			rejected_by = NULL,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+lobbyistColumns, id))
}

// Reject hides a profile and increments rejection_count in SQL so
// concurrent rejections cannot lose an increment.
func (r *LobbyistRepository) Reject(ctx context.Context, rej models.Rejection) (*models.Lobbyist, error) {
	return scanLobbyistRow(r.pool.QueryRow(ctx, `
		UPDATE lobbyists SET
			approval_status = 'rejected',
			is_active = FALSE,
			is_pending = FALSE,
			pending_reason = NULL,
			is_rejected = TRUE,
			rejection_reason = $2,
			rejection_category = $3,
			rejection_count = rejection_count + 1,
			rejected_at = $4,
			rejected_by = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+lobbyistColumns,
		rej.LobbyistID, rej.Reason, rej.Category, rej.At, rej.AdminID))
}

// Resubmit stores corrected content and returns the profile to review. The
// WHERE clause re-checks the rejected state and the attempt counter read by
// the caller; a concurrent resubmission makes it match nothing (ErrConflict).
func (r *LobbyistRepository) Resubmit(ctx context.Context, in models.Resubmission, expectedCount int) (*models.Lobbyist, error) {
	c := in.Content
	l, err := scanLobbyistRow(r.pool.QueryRow(ctx, `
		UPDATE lobbyists SET
			first_name = $2,
			last_name = $3,
			email = NULLIF($4, ''),
			phone = NULLIF($5, ''),
			website = NULLIF($6, ''),
			linkedin_url = NULLIF($7, ''),
			bio = NULLIF($8, ''),
			cities = $9,
			subject_areas = $10,
			is_rejected = FALSE,
			is_pending = TRUE,
			is_active = FALSE,
			approval_status = 'pending',
			pending_reason = $11,
			resubmission_count = resubmission_count + 1,
			last_resubmission_at = $12,
			updated_at = NOW()
		WHERE id = $1 AND is_rejected = TRUE AND resubmission_count = $13
		RETURNING `+lobbyistColumns,
		in.LobbyistID, c.FirstName, c.LastName, c.Email, c.Phone, c.Website, c.LinkedInURL, c.Bio,
		nonNil(c.Cities), nonNil(c.SubjectAreas), in.PendingReason, in.At, expectedCount,
	))
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrConflict
	}
	return l, err
}

// editableColumns maps owner-editable field names to columns.
var editableColumns = map[string]string{
	"bio":           "bio",
	"phone":         "phone",
	"website":       "website",
	"linkedin_url":  "linkedin_url",
	"cities":        "cities",
	"subject_areas": "subject_areas",
}

// IsEditableField reports whether an owner may edit field directly.
func IsEditableField(field string) bool {
	_, ok := editableColumns[field]
	return ok
}

// UpdateField sets one whitelisted content column; moderation state is untouched.
func (r *LobbyistRepository) UpdateField(ctx context.Context, id, field string, value any) (*models.Lobbyist, error) {
	column, ok := editableColumns[field]
	if !ok {
		return nil, models.ErrBadRequest
	}

	query := fmt.Sprintf(`UPDATE lobbyists SET %s = $1, updated_at = NOW() WHERE id = $2 RETURNING %s`,
		column, lobbyistColumns)
	return scanLobbyistRow(r.pool.QueryRow(ctx, query, value, id))
}

func (r *LobbyistRepository) UpdatePhoto(ctx context.Context, id, photoURL string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE lobbyists SET photo_url = $1, updated_at = NOW() WHERE id = $2`, photoURL, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AdminUpdate applies an admin edit; nil fields keep their value.
func (r *LobbyistRepository) AdminUpdate(ctx context.Context, id string, upd models.LobbyistUpdate) (*models.Lobbyist, error) {
	return scanLobbyistRow(r.pool.QueryRow(ctx, `
		UPDATE lobbyists SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			website = COALESCE($6, website),
			bio = COALESCE($7, bio),
			cities = COALESCE($8, cities),
			subject_areas = COALESCE($9, subject_areas),
			is_active = COALESCE($10, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+lobbyistColumns,
		id, upd.FirstName, upd.LastName, upd.Email, upd.Phone, upd.Website, upd.Bio,
		upd.Cities, upd.SubjectAreas, upd.IsActive,
	))
}

// SetTier changes a profile's tier and mirrors it to the linked user.
func (r *LobbyistRepository) SetTier(ctx context.Context, id, tier string) (*models.Lobbyist, error) {
	var updated *models.Lobbyist

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		l, err := scanLobbyistRow(tx.QueryRow(ctx,
			`UPDATE lobbyists SET subscription_tier = $2, updated_at = NOW() WHERE id = $1 RETURNING `+lobbyistColumns,
			id, tier))
		if err != nil {
			return err
		}

		if l.UserID != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE users SET subscription_tier = $1, updated_at = NOW() WHERE id = $2`,
				tier, *l.UserID); err != nil {
				return database.MapPostgresError(err)
			}
		}

		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *LobbyistRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM lobbyists WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *LobbyistRepository) ListPending(ctx context.Context, limit int) ([]models.Lobbyist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+lobbyistColumns+` FROM lobbyists
		WHERE approval_status = 'pending'
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending lobbyists: %w", err)
	}
	return scanLobbyistRows(rows)
}

// IncrementViewCount calls the increment_view_count SQL function.
func (r *LobbyistRepository) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `SELECT increment_view_count($1)`, id)
	return database.MapPostgresError(err)
}

// Search calls the search_lobbyists SQL function; ranking lives in SQL.
func (r *LobbyistRepository) Search(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, slug, first_name, last_name, cities, subject_areas, subscription_tier, photo_url, rank
		 FROM search_lobbyists($1, $2, $3, $4, $5)`,
		p.Query, p.City, p.Subject, p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search lobbyists: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SearchResult, error) {
		var res models.SearchResult
		var rank float32
		err := row.Scan(&res.ID, &res.Slug, &res.FirstName, &res.LastName, &res.Cities,
			&res.SubjectAreas, &res.SubscriptionTier, &res.PhotoURL, &rank)
		res.Rank = float64(rank)
		return res, err
	})
}

// DistinctCities lists city names used by visible profiles, for slug resolution.
func (r *LobbyistRepository) DistinctCities(ctx context.Context) ([]string, error) {
	return r.distinctArrayValues(ctx, "cities")
}

// DistinctSubjects lists subject-area names used by visible profiles.
func (r *LobbyistRepository) DistinctSubjects(ctx context.Context) ([]string, error) {
	return r.distinctArrayValues(ctx, "subject_areas")
}

func (r *LobbyistRepository) distinctArrayValues(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT v FROM lobbyists, unnest(%s) AS v
		WHERE is_active = TRUE AND approval_status = 'approved'
		ORDER BY v`, column)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", column, err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// SlugRow is the minimal projection used by the slug backfill.
type SlugRow struct {
	ID        string
	Slug      string
	FirstName string
	LastName  string
}

func (r *LobbyistRepository) ListSlugs(ctx context.Context) ([]SlugRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, slug, first_name, last_name FROM lobbyists ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list slugs: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[SlugRow])
}

func (r *LobbyistRepository) UpdateSlug(ctx context.Context, id, slug string) error {
	_, err := r.pool.Exec(ctx, `UPDATE lobbyists SET slug = $1, updated_at = NOW() WHERE id = $2`, slug, id)
	return database.MapPostgresError(err)
}

// ListClients returns a profile's clients, most recent year first.
func (r *LobbyistRepository) ListClients(ctx context.Context, lobbyistID string) ([]models.Client, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lobbyist_id, name, year, created_at FROM clients
		WHERE lobbyist_id = $1 ORDER BY year DESC, name`, lobbyistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.Client])
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
