package repositories

import (
	"context"
	"fmt"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SupportRepository struct {
	pool *pgxpool.Pool
}

func NewSupportRepository(db *database.DB) *SupportRepository {
	return &SupportRepository{pool: db.Pool}
}

func (r *SupportRepository) CreateTicket(ctx context.Context, t *models.SupportTicket) (*models.SupportTicket, error) {
	out := *t
	err := r.pool.QueryRow(ctx, `
		INSERT INTO support_tickets (user_id, email, category, subject, description, page_url, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at`,
		t.UserID, t.Email, t.Category, t.Subject, t.Description, t.PageURL, t.IPAddress,
	).Scan(&out.ID, &out.Status, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create support ticket: %w", database.MapPostgresError(err))
	}
	return &out, nil
}

// CreateProfileReport fails with ErrBadRequest when the profile does not exist.
func (r *SupportRepository) CreateProfileReport(ctx context.Context, p *models.ProfileReport) (*models.ProfileReport, error) {
	out := *p
	err := r.pool.QueryRow(ctx, `
		INSERT INTO profile_reports (lobbyist_id, reporter_id, email, category, description, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at`,
		p.LobbyistID, p.ReporterID, p.Email, p.Category, p.Description, p.IPAddress,
	).Scan(&out.ID, &out.Status, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile report: %w", database.MapPostgresError(err))
	}
	return &out, nil
}
