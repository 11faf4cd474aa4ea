package repositories

import (
	"context"
	"fmt"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/huandu/go-sqlbuilder"
)

const tierOrder = "CASE subscription_tier WHEN 'featured' THEN 0 WHEN 'premium' THEN 1 ELSE 2 END"

// DirectoryQuery holds resolved filter values. City and Subject are display
// names, not slugs; slug resolution happens in the service layer.
type DirectoryQuery struct {
	City    string
	Subject string
	Tier    string
	Limit   int
	Offset  int
}

// buildDirectoryQueries returns the page query and the matching count query.
func buildDirectoryQueries(q DirectoryQuery) (string, []any, string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(lobbyistFields...).From("lobbyists")
	applyDirectoryFilter(sb, q)
	sb.OrderBy(tierOrder, "last_name", "first_name")
	sb.Limit(q.Limit).Offset(q.Offset)
	pageSQL, pageArgs := sb.Build()

	cb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	cb.Select("COUNT(*)").From("lobbyists")
	applyDirectoryFilter(cb, q)
	countSQL, countArgs := cb.Build()

	return pageSQL, pageArgs, countSQL, countArgs
}

func applyDirectoryFilter(sb *sqlbuilder.SelectBuilder, q DirectoryQuery) {
	sb.Where(
		sb.Equal("is_active", true),
		sb.Equal("approval_status", models.ApprovalApproved),
	)
	if q.City != "" {
		sb.Where(fmt.Sprintf("%s = ANY(cities)", sb.Var(q.City)))
	}
	if q.Subject != "" {
		sb.Where(fmt.Sprintf("%s = ANY(subject_areas)", sb.Var(q.Subject)))
	}
	if q.Tier != "" {
		sb.Where(sb.Equal("subscription_tier", q.Tier))
	}
}

// ListDirectory returns one page of visible profiles and the total match count.
func (r *LobbyistRepository) ListDirectory(ctx context.Context, q DirectoryQuery) ([]models.Lobbyist, int, error) {
	pageSQL, pageArgs, countSQL, countArgs := buildDirectoryQueries(q)

	rows, err := r.pool.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query directory: %w", err)
	}
	lobbyists, err := scanLobbyistRows(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count directory: %w", err)
	}

	return lobbyists, total, nil
}
