package repositories

import (
	"context"
	"fmt"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FavoriteRepository struct {
	pool *pgxpool.Pool
}

func NewFavoriteRepository(db *database.DB) *FavoriteRepository {
	return &FavoriteRepository{pool: db.Pool}
}

// Toggle flips the favorite and reports whether the profile is now favorited.
func (r *FavoriteRepository) Toggle(ctx context.Context, userID, lobbyistID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND lobbyist_id = $2`, userID, lobbyistID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO favorites (user_id, lobbyist_id) VALUES ($1, $2)
		ON CONFLICT (user_id, lobbyist_id) DO NOTHING`, userID, lobbyistID)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return true, nil
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, lobbyist_id, created_at
		FROM favorites WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	favs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Favorite])
	if err != nil {
		return nil, fmt.Errorf("failed to scan favorites: %w", err)
	}
	return favs, nil
}
