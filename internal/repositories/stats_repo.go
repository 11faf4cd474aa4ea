package repositories

import (
	"context"
	"fmt"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{pool: db.Pool}
}

// PendingCounts gathers the moderation queue sizes and the tier breakdown of
// visible profiles.
func (r *StatsRepository) PendingCounts(ctx context.Context) (*models.PendingCounts, error) {
	counts := &models.PendingCounts{Tiers: make(map[string]int)}

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM lobbyists WHERE approval_status = 'pending'),
			(SELECT COUNT(*) FROM profile_claim_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM role_upgrade_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM account_merge_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM users WHERE is_suspended = TRUE)`,
	).Scan(&counts.Lobbyists, &counts.Claims, &counts.RoleUpgrades, &counts.Merges, &counts.SuspendedUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending items: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT subscription_tier, COUNT(*)
		FROM lobbyists
		WHERE is_active = TRUE AND approval_status = 'approved'
		GROUP BY subscription_tier`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tiers: %w", err)
	}
	defer rows.Close()

	for _, tier := range models.Tiers {
		counts.Tiers[tier] = 0
	}
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, fmt.Errorf("failed to scan tier count: %w", err)
		}
		counts.Tiers[tier] = n
	}
	return counts, rows.Err()
}
