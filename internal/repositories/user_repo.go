package repositories

import (
	"context"
	"fmt"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/pkg/auth"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...any) error
}

var userFields = []string{
	"id", "email", "password_hash", "full_name", "role", "subscription_tier",
	"stripe_customer_id", "stripe_subscription_id", "is_suspended", "token_key",
	"created_at", "updated_at",
}

const userColumns = `id, email, password_hash, full_name, role, subscription_tier,
	stripe_customer_id, stripe_subscription_id, is_suspended, token_key,
	created_at, updated_at`

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Role,
		&user.SubscriptionTier, &user.StripeCustomerID, &user.StripeSubscriptionID,
		&user.IsSuspended, &user.TokenKey, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE stripe_customer_id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, customerID))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	tokenKey, err := auth.GenerateTokenKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token key: %w", err)
	}
	user.TokenKey = tokenKey

	if user.Role == "" {
		user.Role = models.RoleSearcher
	}
	if user.SubscriptionTier == "" {
		user.SubscriptionTier = models.TierFree
	}

	query := `
		INSERT INTO users (id, email, password_hash, full_name, role, subscription_tier, token_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, auth.NormalizeEmail(user.Email), user.PasswordHash, user.FullName,
		user.Role, user.SubscriptionTier, user.TokenKey,
	))
}

// SetRole changes a role without the last-admin guard; only used to promote.
func (r *UserRepository) SetRole(ctx context.Context, id, role string) error {
	result, err := r.pool.Exec(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// List returns one page of users matching filter plus the total match count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(userFields...).From("users")
	applyUserFilter(sb, filter)
	sb.OrderBy("created_at").Desc()
	sb.Limit(filter.Limit).Offset(filter.Offset)

	query, args := sb.Build()
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	users, err := scanUserRows(rows)
	if err != nil {
		return nil, 0, err
	}

	cb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	cb.Select("COUNT(*)").From("users")
	applyUserFilter(cb, filter)

	countQuery, countArgs := cb.Build()
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	return users, total, nil
}

func applyUserFilter(sb *sqlbuilder.SelectBuilder, filter models.UserFilter) {
	if filter.Role != "" {
		sb.Where(sb.Equal("role", filter.Role))
	}
	if filter.IsSuspended != nil {
		sb.Where(sb.Equal("is_suspended", *filter.IsSuspended))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		sb.Where(sb.Or(
			fmt.Sprintf("email ILIKE %s", sb.Var(pattern)),
			fmt.Sprintf("full_name ILIKE %s", sb.Var(pattern)),
		))
	}
}

// Update applies an admin edit. Demoting the last active admin is refused
// with ErrLastAdmin inside the same transaction that holds the admin row locks.
func (r *UserRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	var updated *models.User

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if upd.Role != nil && *upd.Role != models.RoleAdmin {
			if err := guardLastAdmin(ctx, tx, id); err != nil {
				return err
			}
		}

		query := `
			UPDATE users SET
				full_name = COALESCE($1, full_name),
				email = COALESCE(LOWER($2), email),
				role = COALESCE($3, role),
				subscription_tier = COALESCE($4, subscription_tier),
				updated_at = NOW()
			WHERE id = $5
			RETURNING ` + userColumns

		user, err := scanUserRow(tx.QueryRow(ctx, query, upd.FullName, upd.Email, upd.Role, upd.SubscriptionTier, id))
		if err != nil {
			return err
		}

		if upd.SubscriptionTier != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE lobbyists SET subscription_tier = $1, updated_at = NOW() WHERE user_id = $2`,
				*upd.SubscriptionTier, id,
			); err != nil {
				return database.MapPostgresError(err)
			}
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete hard-deletes a user, refusing to remove the last active admin.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := guardLastAdmin(ctx, tx, id); err != nil {
			return err
		}

		result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// ApplyTier writes a tier to the user and mirrors it onto their profile in
// one transaction so the two never disagree.
func (r *UserRepository) ApplyTier(ctx context.Context, change models.TierChange) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE users SET
				subscription_tier = $1,
				stripe_customer_id = COALESCE($2, stripe_customer_id),
				stripe_subscription_id = COALESCE($3, stripe_subscription_id),
				updated_at = NOW()
			WHERE id = $4`,
			change.Tier, change.CustomerID, change.SubscriptionID, change.UserID,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		if _, err := tx.Exec(ctx,
			`UPDATE lobbyists SET subscription_tier = $1, updated_at = NOW() WHERE user_id = $2`,
			change.Tier, change.UserID,
		); err != nil {
			return database.MapPostgresError(err)
		}
		return nil
	})
}

// ClearSubscription drops the processor subscription id after cancellation.
func (r *UserRepository) ClearSubscription(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET stripe_subscription_id = NULL, updated_at = NOW() WHERE id = $1`, userID)
	return database.MapPostgresError(err)
}
