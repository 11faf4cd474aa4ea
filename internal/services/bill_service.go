package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
)

const (
	maxTagLength      = 40
	notificationBatch = 500
)

type BillStore interface {
	GetByID(ctx context.Context, id string) (*models.Bill, error)
	ListTags(ctx context.Context, userID, billID string) ([]models.BillTag, error)
	AddTag(ctx context.Context, userID, billID, tag string) (*models.BillTag, error)
	ToggleWatch(ctx context.Context, userID, billID string, notify bool) (bool, error)
	ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	PendingNotifications(ctx context.Context, since time.Time, skip []string, limit int) ([]models.WatchNotification, error)
	MarkNotified(ctx context.Context, entryID string, at time.Time) error
}

// BillService covers per-user bill tags and watchlists.
type BillService struct {
	bills    BillStore
	notifier Notifier
	batch    int
	now      func() time.Time
	logger   *slog.Logger
}

func NewBillService(bills BillStore, notifier Notifier, logger *slog.Logger) *BillService {
	return &BillService{bills: bills, notifier: notifier, batch: notificationBatch, now: time.Now, logger: logger}
}

func (s *BillService) ListTags(ctx context.Context, userID, billID string) ([]models.BillTag, error) {
	if _, err := s.bills.GetByID(ctx, billID); err != nil {
		return nil, lookupError(ctx, s.logger, "bill", billID, err)
	}
	tags, err := s.bills.ListTags(ctx, userID, billID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list tags", slog.String("bill_id", billID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return tags, nil
}

func (s *BillService) AddTag(ctx context.Context, userID, billID, tag string) (*models.BillTag, error) {
	tag = strings.TrimSpace(tag)
	if n := len([]rune(tag)); n == 0 || n > maxTagLength {
		return nil, models.NewValidationError("tag", "tag must be 1 to 40 characters")
	}
	if _, err := s.bills.GetByID(ctx, billID); err != nil {
		return nil, lookupError(ctx, s.logger, "bill", billID, err)
	}

	created, err := s.bills.AddTag(ctx, userID, billID, tag)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "failed to add tag", slog.String("bill_id", billID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return created, nil
}

// ToggleWatch adds or removes a bill from the user's watchlist and reports
// whether it is now watched.
func (s *BillService) ToggleWatch(ctx context.Context, userID, billID string, notify bool) (bool, error) {
	if _, err := s.bills.GetByID(ctx, billID); err != nil {
		return false, lookupError(ctx, s.logger, "bill", billID, err)
	}
	watching, err := s.bills.ToggleWatch(ctx, userID, billID, notify)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to toggle watch", slog.String("bill_id", billID), slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	return watching, nil
}

func (s *BillService) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	entries, err := s.bills.ListWatchlist(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list watchlist", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return entries, nil
}

// NotifyResult summarises one notification run.
type NotifyResult struct {
	Sent   int
	Failed int
}

// NotifyWatchers emails watchers of bills that changed since they were last
// told, batch by batch until the queue is drained. Entries whose email fails
// are left unstamped for the next run and skipped for the rest of this one.
func (s *BillService) NotifyWatchers(ctx context.Context, since time.Time) (NotifyResult, error) {
	var res NotifyResult
	seen := []string{}

	for {
		pending, err := s.bills.PendingNotifications(ctx, since, seen, s.batch)
		if err != nil {
			return res, err
		}

		for _, n := range pending {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			seen = append(seen, n.EntryID)
			s.notifyOne(ctx, n, &res)
		}

		if len(pending) < s.batch {
			break
		}
	}

	s.logger.InfoContext(ctx, "watchlist notifications sent",
		slog.Int("sent", res.Sent), slog.Int("failed", res.Failed))
	return res, nil
}

func (s *BillService) notifyOne(ctx context.Context, n models.WatchNotification, res *NotifyResult) {
	data := EmailData{
		Name:       n.UserName,
		BillNumber: n.Bill.BillNumber,
		BillTitle:  n.Bill.Title,
		BillStatus: n.Bill.Status,
	}
	if n.Bill.LastAction != nil {
		data.LastAction = *n.Bill.LastAction
	}

	if err := s.notifier.Notify(ctx, n.UserEmail, EmailBillUpdate, data); err != nil {
		res.Failed++
		s.logger.WarnContext(ctx, "bill update email failed",
			slog.String("entry_id", n.EntryID), slog.Any("error", err))
		return
	}

	if err := s.bills.MarkNotified(ctx, n.EntryID, s.now()); err != nil {
		s.logger.ErrorContext(ctx, "failed to stamp watchlist entry",
			slog.String("entry_id", n.EntryID), slog.Any("error", err))
	}
	res.Sent++
}
