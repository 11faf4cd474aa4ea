package services

import (
	"context"
	"log/slog"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
)

type FavoriteStore interface {
	Toggle(ctx context.Context, userID, lobbyistID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.Favorite, error)
}

type FavoriteService struct {
	favorites FavoriteStore
	lobbyists ProfileReader
	logger    *slog.Logger
}

// ProfileReader loads a profile by id.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*models.Lobbyist, error)
}

func NewFavoriteService(favorites FavoriteStore, lobbyists ProfileReader, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{favorites: favorites, lobbyists: lobbyists, logger: logger}
}

// ToggleFavorite reports whether the profile is favorited after the call.
func (s *FavoriteService) ToggleFavorite(ctx context.Context, userID, lobbyistID string) (bool, error) {
	l, err := s.lobbyists.GetByID(ctx, lobbyistID)
	if err != nil {
		return false, lookupError(ctx, s.logger, "lobbyist", lobbyistID, err)
	}
	if !l.IsVisible() {
		return false, models.ErrNotFound
	}

	favorited, err := s.favorites.Toggle(ctx, userID, l.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to toggle favorite",
			slog.String("user_id", userID), slog.String("lobbyist_id", l.ID), slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	return favorited, nil
}

func (s *FavoriteService) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	favs, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list favorites", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return favs, nil
}
