package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BillRepository struct {
	pool *pgxpool.Pool
}

func NewBillRepository(db *database.DB) *BillRepository {
	return &BillRepository{pool: db.Pool}
}

func (r *BillRepository) GetByID(ctx context.Context, id string) (*models.Bill, error) {
	var b models.Bill
	err := r.pool.QueryRow(ctx, `
		SELECT id, bill_number, session, title, status, last_action, updated_at
		FROM bills WHERE id = $1`, id,
	).Scan(&b.ID, &b.BillNumber, &b.Session, &b.Title, &b.Status, &b.LastAction, &b.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &b, nil
}

// ListTags returns the caller's own labels on a bill.
func (r *BillRepository) ListTags(ctx context.Context, userID, billID string) ([]models.BillTag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, bill_id, user_id, tag, created_at
		FROM bill_tags
		WHERE bill_id = $1 AND user_id = $2
		ORDER BY created_at`, billID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill tags: %w", err)
	}
	tags, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.BillTag])
	if err != nil {
		return nil, fmt.Errorf("failed to scan bill tags: %w", err)
	}
	return tags, nil
}

// AddTag returns ErrConflict when the user already applied the same tag.
func (r *BillRepository) AddTag(ctx context.Context, userID, billID, tag string) (*models.BillTag, error) {
	var t models.BillTag
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bill_tags (bill_id, user_id, tag)
		VALUES ($1, $2, $3)
		RETURNING id, bill_id, user_id, tag, created_at`, billID, userID, tag,
	).Scan(&t.ID, &t.BillID, &t.UserID, &t.Tag, &t.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &t, nil
}

// ToggleWatch adds the bill to the watchlist, or removes it when already
// watched. It reports whether the bill is watched afterwards.
func (r *BillRepository) ToggleWatch(ctx context.Context, userID, billID string, notify bool) (bool, error) {
	watching := false
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM watchlist_entries WHERE user_id = $1 AND bill_id = $2`, userID, billID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO watchlist_entries (user_id, bill_id, notify)
			VALUES ($1, $2, $3)`, userID, billID, notify); err != nil {
			return database.MapPostgresError(err)
		}
		watching = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return watching, nil
}

func (r *BillRepository) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.user_id, w.bill_id, w.notify, w.last_notified_at, w.created_at,
		       b.id, b.bill_number, b.session, b.title, b.status, b.last_action, b.updated_at
		FROM watchlist_entries w
		JOIN bills b ON b.id = w.bill_id
		WHERE w.user_id = $1
		ORDER BY b.updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	entries := make([]models.WatchlistEntry, 0)
	for rows.Next() {
		var e models.WatchlistEntry
		var b models.Bill
		if err := rows.Scan(&e.ID, &e.UserID, &e.BillID, &e.Notify, &e.LastNotifiedAt, &e.CreatedAt,
			&b.ID, &b.BillNumber, &b.Session, &b.Title, &b.Status, &b.LastAction, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		e.Bill = &b
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PendingNotifications lists watched bills that changed after the watcher was
// last notified (or after since, for entries never notified). Entries in skip
// are left out.
func (r *BillRepository) PendingNotifications(ctx context.Context, since time.Time, skip []string, limit int) ([]models.WatchNotification, error) {
	if skip == nil {
		skip = []string{}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, u.email, u.full_name,
		       b.id, b.bill_number, b.session, b.title, b.status, b.last_action, b.updated_at
		FROM watchlist_entries w
		JOIN bills b ON b.id = w.bill_id
		JOIN users u ON u.id = w.user_id
		WHERE w.notify = TRUE
		  AND u.is_suspended = FALSE
		  AND b.updated_at > COALESCE(w.last_notified_at, $1)
		  AND w.id::text <> ALL($2::text[])
		ORDER BY w.user_id, b.updated_at
		LIMIT $3`, since, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch notifications: %w", err)
	}
	defer rows.Close()

	out := make([]models.WatchNotification, 0)
	for rows.Next() {
		var n models.WatchNotification
		b := &n.Bill
		if err := rows.Scan(&n.EntryID, &n.UserEmail, &n.UserName,
			&b.ID, &b.BillNumber, &b.Session, &b.Title, &b.Status, &b.LastAction, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watch notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *BillRepository) MarkNotified(ctx context.Context, entryID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE watchlist_entries SET last_notified_at = $1 WHERE id = $2`, at, entryID)
	if err != nil {
		return fmt.Errorf("failed to stamp watchlist entry: %w", err)
	}
	return nil
}
