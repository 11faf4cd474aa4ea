package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/slug"
)

// SlugStore lists and rewrites profile slugs.
type SlugStore interface {
	ListSlugs(ctx context.Context) ([]repositories.SlugRow, error)
	UpdateSlug(ctx context.Context, id, slug string) error
}

// BackfillResult counts the outcome of a slug backfill.
type BackfillResult struct {
	Updated int
	Skipped int
}

// BackfillSlugs assigns a slug to every profile that lacks one, using the
// same collision rule as profile creation.
func BackfillSlugs(ctx context.Context, store SlugStore, logger *slog.Logger) (BackfillResult, error) {
	var res BackfillResult

	rows, err := store.ListSlugs(ctx)
	if err != nil {
		return res, fmt.Errorf("list slugs: %w", err)
	}

	taken := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.Slug != "" {
			taken[row.Slug] = struct{}{}
		}
	}

	for _, row := range rows {
		if row.Slug != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		candidate, err := uniqueSlug(row.FirstName, row.LastName, func(s string) bool {
			_, ok := taken[s]
			return ok
		})
		if err != nil {
			res.Skipped++
			logger.WarnContext(ctx, "no free slug for profile", slog.String("lobbyist_id", row.ID), slog.Any("error", err))
			continue
		}

		if err := store.UpdateSlug(ctx, row.ID, candidate); err != nil {
			return res, fmt.Errorf("update slug for %s: %w", row.ID, err)
		}
		taken[candidate] = struct{}{}
		res.Updated++
	}

	logger.InfoContext(ctx, "slug backfill finished", slog.Int("updated", res.Updated), slog.Int("skipped", res.Skipped))
	return res, nil
}

// uniqueSlug returns slug.Make(first, last) or, when taken, a suffixed
// variant, giving up after maxSlugAttempts tries.
func uniqueSlug(first, last string, taken func(string) bool) (string, error) {
	base := slug.Make(first, last)
	if base == "" {
		base = "lobbyist"
	}

	candidate := base
	for range maxSlugAttempts {
		if !taken(candidate) {
			return candidate, nil
		}
		next, err := slug.WithSuffix(base)
		if err != nil {
			return "", err
		}
		candidate = next
	}
	return "", models.ErrConflict
}
