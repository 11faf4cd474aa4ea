package repositories

import (
	"context"
	"fmt"
	"slices"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/jackc/pgx/v5"
)

// guardLastAdmin locks every active admin row and returns ErrLastAdmin when
// targetID is the only one left. Concurrent removals of the "last two" admins
// serialize on these locks, so the count cannot go stale before the write.
func guardLastAdmin(ctx context.Context, tx pgx.Tx, targetID string) error {
	rows, err := tx.Query(ctx,
		`SELECT id FROM users WHERE role = 'admin' AND is_suspended = FALSE ORDER BY id FOR UPDATE`)
	if err != nil {
		return fmt.Errorf("failed to lock admin rows: %w", err)
	}

	adminIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to read admin rows: %w", err)
	}

	if len(adminIDs) <= 1 && slices.Contains(adminIDs, targetID) {
		return models.ErrLastAdmin
	}
	return nil
}
