package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/ai"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/auth"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// MockUserStore implements the user-facing store interfaces for testing
type MockUserStore struct {
	GetByIDFunc               func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc            func(ctx context.Context, email string) (*models.User, error)
	GetByStripeCustomerIDFunc func(ctx context.Context, customerID string) (*models.User, error)
	CreateFunc                func(ctx context.Context, user *models.User) (*models.User, error)
	ListFunc                  func(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error)
	UpdateFunc                func(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	DeleteFunc                func(ctx context.Context, id string) error
	ApplyTierFunc             func(ctx context.Context, change models.TierChange) error
	ClearSubscriptionFunc     func(ctx context.Context, userID string) error
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	if m.GetByStripeCustomerIDFunc != nil {
		return m.GetByStripeCustomerIDFunc(ctx, customerID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserStore) List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.User{}, 0, nil
}

func (m *MockUserStore) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, upd)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserStore) ApplyTier(ctx context.Context, change models.TierChange) error {
	if m.ApplyTierFunc != nil {
		return m.ApplyTierFunc(ctx, change)
	}
	return nil
}

func (m *MockUserStore) ClearSubscription(ctx context.Context, userID string) error {
	if m.ClearSubscriptionFunc != nil {
		return m.ClearSubscriptionFunc(ctx, userID)
	}
	return nil
}

// MockLobbyistStore implements the profile store interfaces for testing
type MockLobbyistStore struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.Lobbyist, error)
	GetByOwnerFunc         func(ctx context.Context, userID string) (*models.Lobbyist, error)
	GetBySlugFunc          func(ctx context.Context, slug string) (*models.Lobbyist, error)
	SlugExistsFunc         func(ctx context.Context, slug string) (bool, error)
	CreateForUserFunc      func(ctx context.Context, in models.NewLobbyist) (*models.Lobbyist, error)
	ResubmitFunc           func(ctx context.Context, in models.Resubmission, expectedCount int) (*models.Lobbyist, error)
	UpdateFieldFunc        func(ctx context.Context, id, field string, value any) (*models.Lobbyist, error)
	UpdatePhotoFunc        func(ctx context.Context, id, photoURL string) error
	ApproveFunc            func(ctx context.Context, id string) (*models.Lobbyist, error)
	RejectFunc             func(ctx context.Context, rej models.Rejection) (*models.Lobbyist, error)
	ListPendingFunc        func(ctx context.Context, limit int) ([]models.Lobbyist, error)
	AdminUpdateFunc        func(ctx context.Context, id string, upd models.LobbyistUpdate) (*models.Lobbyist, error)
	SetTierFunc            func(ctx context.Context, id, tier string) (*models.Lobbyist, error)
	DeleteFunc             func(ctx context.Context, id string) error
	ListDirectoryFunc      func(ctx context.Context, q repositories.DirectoryQuery) ([]models.Lobbyist, int, error)
	IncrementViewCountFunc func(ctx context.Context, id string) error
	SearchFunc             func(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error)
	DistinctCitiesFunc     func(ctx context.Context) ([]string, error)
	DistinctSubjectsFunc   func(ctx context.Context) ([]string, error)
	ListClientsFunc        func(ctx context.Context, lobbyistID string) ([]models.Client, error)
}

func (m *MockLobbyistStore) GetByID(ctx context.Context, id string) (*models.Lobbyist, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockLobbyistStore) GetByOwner(ctx context.Context, userID string) (*models.Lobbyist, error) {
	if m.GetByOwnerFunc != nil {
		return m.GetByOwnerFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockLobbyistStore) GetBySlug(ctx context.Context, slug string) (*models.Lobbyist, error) {
	if m.GetBySlugFunc != nil {
		return m.GetBySlugFunc(ctx, slug)
	}
	return nil, models.ErrNotFound
}

func (m *MockLobbyistStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.SlugExistsFunc != nil {
		return m.SlugExistsFunc(ctx, slug)
	}
	return false, nil
}

func (m *MockLobbyistStore) CreateForUser(ctx context.Context, in models.NewLobbyist) (*models.Lobbyist, error) {
	if m.CreateForUserFunc != nil {
		return m.CreateForUserFunc(ctx, in)
	}
	return nil, models.ErrInternalServer
}

func (m *MockLobbyistStore) Resubmit(ctx context.Context, in models.Resubmission, expectedCount int) (*models.Lobbyist, error) {
	if m.ResubmitFunc != nil {
		return m.ResubmitFunc(ctx, in, expectedCount)
	}
	return nil, models.ErrInternalServer
}

func (m *MockLobbyistStore) UpdateField(ctx context.Context, id, field string, value any) (*models.Lobbyist, error) {
	if m.UpdateFieldFunc != nil {
		return m.UpdateFieldFunc(ctx, id, field, value)
	}
	return nil, models.ErrInternalServer
}

func (m *MockLobbyistStore) UpdatePhoto(ctx context.Context, id, photoURL string) error {
	if m.UpdatePhotoFunc != nil {
		return m.UpdatePhotoFunc(ctx, id, photoURL)
	}
	return nil
}

func (m *MockLobbyistStore) Approve(ctx context.Context, id string) (*models.Lobbyist, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, id)
	}
	return nil, models.ErrInternalServer
}

func (m *MockLobbyistStore) Reject(ctx context.Context, rej models.Rejection) (*models.Lobbyist, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, rej)
	}
	return nil, models.ErrInternalServer
}

func (m *MockLobbyistStore) ListPending(ctx context.Context, limit int) ([]models.Lobbyist, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, limit)
	}
	return []models.Lobbyist{}, nil
}

func (m *MockLobbyistStore) AdminUpdate(ctx context.Context, id string, upd models.LobbyistUpdate) (*models.Lobbyist, error) {
	if m.AdminUpdateFunc != nil {
		return m.AdminUpdateFunc(ctx, id, upd)
	}
	return nil, models.ErrInternalServer
}

func (m *MockLobbyistStore) SetTier(ctx context.Context, id, tier string) (*models.Lobbyist, error) {
	if m.SetTierFunc != nil {
		return m.SetTierFunc(ctx, id, tier)
	}
	return nil, models.ErrInternalServer
}

func (m *MockLobbyistStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockLobbyistStore) ListDirectory(ctx context.Context, q repositories.DirectoryQuery) ([]models.Lobbyist, int, error) {
	if m.ListDirectoryFunc != nil {
		return m.ListDirectoryFunc(ctx, q)
	}
	return []models.Lobbyist{}, 0, nil
}

func (m *MockLobbyistStore) IncrementViewCount(ctx context.Context, id string) error {
	if m.IncrementViewCountFunc != nil {
		return m.IncrementViewCountFunc(ctx, id)
	}
	return nil
}

func (m *MockLobbyistStore) Search(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, p)
	}
	return []models.SearchResult{}, nil
}

func (m *MockLobbyistStore) DistinctCities(ctx context.Context) ([]string, error) {
	if m.DistinctCitiesFunc != nil {
		return m.DistinctCitiesFunc(ctx)
	}
	return []string{}, nil
}

func (m *MockLobbyistStore) DistinctSubjects(ctx context.Context) ([]string, error) {
	if m.DistinctSubjectsFunc != nil {
		return m.DistinctSubjectsFunc(ctx)
	}
	return []string{}, nil
}

func (m *MockLobbyistStore) ListClients(ctx context.Context, lobbyistID string) ([]models.Client, error) {
	if m.ListClientsFunc != nil {
		return m.ListClientsFunc(ctx, lobbyistID)
	}
	return []models.Client{}, nil
}

// MockClaimStore implements ClaimRequestStore and ClaimDecisionStore for testing
type MockClaimStore struct {
	CreateFunc      func(ctx context.Context, c *models.ClaimRequest) (*models.ClaimRequest, error)
	HasPendingFunc  func(ctx context.Context, userID, lobbyistID string) (bool, error)
	GetByIDFunc     func(ctx context.Context, id string) (*models.ClaimRequest, error)
	ListPendingFunc func(ctx context.Context, limit int) ([]*models.ClaimRequest, error)
	ApproveFunc     func(ctx context.Context, d models.Decision) (*models.ClaimRequest, error)
	RejectFunc      func(ctx context.Context, d models.Decision) (*models.ClaimRequest, error)
}

func (m *MockClaimStore) Create(ctx context.Context, c *models.ClaimRequest) (*models.ClaimRequest, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	c.ID = "claim-1"
	c.Status = models.RequestPending
	return c, nil
}

func (m *MockClaimStore) HasPending(ctx context.Context, userID, lobbyistID string) (bool, error) {
	if m.HasPendingFunc != nil {
		return m.HasPendingFunc(ctx, userID, lobbyistID)
	}
	return false, nil
}

func (m *MockClaimStore) GetByID(ctx context.Context, id string) (*models.ClaimRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockClaimStore) ListPending(ctx context.Context, limit int) ([]*models.ClaimRequest, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, limit)
	}
	return []*models.ClaimRequest{}, nil
}

func (m *MockClaimStore) Approve(ctx context.Context, d models.Decision) (*models.ClaimRequest, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, d)
	}
	return nil, models.ErrInternalServer
}

func (m *MockClaimStore) Reject(ctx context.Context, d models.Decision) (*models.ClaimRequest, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, d)
	}
	return nil, models.ErrInternalServer
}

// MockRoleUpgradeStore implements the role upgrade store interfaces for testing
type MockRoleUpgradeStore struct {
	CreateFunc      func(ctx context.Context, u *models.RoleUpgradeRequest) (*models.RoleUpgradeRequest, error)
	HasPendingFunc  func(ctx context.Context, userID string) (bool, error)
	ListPendingFunc func(ctx context.Context, limit int) ([]*models.RoleUpgradeRequest, error)
	ApproveFunc     func(ctx context.Context, d models.Decision) (*models.RoleUpgradeRequest, error)
	RejectFunc      func(ctx context.Context, d models.Decision) (*models.RoleUpgradeRequest, error)
}

func (m *MockRoleUpgradeStore) Create(ctx context.Context, u *models.RoleUpgradeRequest) (*models.RoleUpgradeRequest, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	u.ID = "upgrade-1"
	u.Status = models.RequestPending
	return u, nil
}

func (m *MockRoleUpgradeStore) HasPending(ctx context.Context, userID string) (bool, error) {
	if m.HasPendingFunc != nil {
		return m.HasPendingFunc(ctx, userID)
	}
	return false, nil
}

func (m *MockRoleUpgradeStore) ListPending(ctx context.Context, limit int) ([]*models.RoleUpgradeRequest, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, limit)
	}
	return []*models.RoleUpgradeRequest{}, nil
}

func (m *MockRoleUpgradeStore) Approve(ctx context.Context, d models.Decision) (*models.RoleUpgradeRequest, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, d)
	}
	return nil, models.ErrInternalServer
}

func (m *MockRoleUpgradeStore) Reject(ctx context.Context, d models.Decision) (*models.RoleUpgradeRequest, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, d)
	}
	return nil, models.ErrInternalServer
}

// MockMergeStore implements the merge request store interfaces for testing
type MockMergeStore struct {
	CreateFunc      func(ctx context.Context, m *models.MergeRequest) (*models.MergeRequest, error)
	HasPendingFunc  func(ctx context.Context, primaryID, duplicateID string) (bool, error)
	ListPendingFunc func(ctx context.Context, limit int) ([]*models.MergeRequest, error)
	ApproveFunc     func(ctx context.Context, d models.Decision) (*repositories.MergeResult, error)
	RejectFunc      func(ctx context.Context, d models.Decision) (*models.MergeRequest, error)
}

func (m *MockMergeStore) Create(ctx context.Context, req *models.MergeRequest) (*models.MergeRequest, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	req.ID = "merge-1"
	req.Status = models.RequestPending
	return req, nil
}

func (m *MockMergeStore) HasPending(ctx context.Context, primaryID, duplicateID string) (bool, error) {
	if m.HasPendingFunc != nil {
		return m.HasPendingFunc(ctx, primaryID, duplicateID)
	}
	return false, nil
}

func (m *MockMergeStore) ListPending(ctx context.Context, limit int) ([]*models.MergeRequest, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, limit)
	}
	return []*models.MergeRequest{}, nil
}

func (m *MockMergeStore) Approve(ctx context.Context, d models.Decision) (*repositories.MergeResult, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, d)
	}
	return nil, models.ErrInternalServer
}

func (m *MockMergeStore) Reject(ctx context.Context, d models.Decision) (*models.MergeRequest, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, d)
	}
	return nil, models.ErrInternalServer
}

// MockSuspensionStore implements SuspensionStore for testing
type MockSuspensionStore struct {
	SuspendFunc    func(ctx context.Context, in models.NewSuspension) (*models.Suspension, error)
	UnsuspendFunc  func(ctx context.Context, userID, adminID string) (int64, error)
	ListByUserFunc func(ctx context.Context, userID string) ([]*models.Suspension, error)
}

func (m *MockSuspensionStore) Suspend(ctx context.Context, in models.NewSuspension) (*models.Suspension, error) {
	if m.SuspendFunc != nil {
		return m.SuspendFunc(ctx, in)
	}
	return &models.Suspension{ID: "susp-1", UserID: in.UserID, SuspendedBy: in.SuspendedBy,
		Reason: in.Reason, Category: in.Category, ExpiresAt: in.ExpiresAt, IsActive: true}, nil
}

func (m *MockSuspensionStore) Unsuspend(ctx context.Context, userID, adminID string) (int64, error) {
	if m.UnsuspendFunc != nil {
		return m.UnsuspendFunc(ctx, userID, adminID)
	}
	return 1, nil
}

func (m *MockSuspensionStore) ListByUser(ctx context.Context, userID string) ([]*models.Suspension, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.Suspension{}, nil
}

// MockStatsStore implements StatsStore for testing
type MockStatsStore struct {
	PendingCountsFunc func(ctx context.Context) (*models.PendingCounts, error)
}

func (m *MockStatsStore) PendingCounts(ctx context.Context) (*models.PendingCounts, error) {
	if m.PendingCountsFunc != nil {
		return m.PendingCountsFunc(ctx)
	}
	return &models.PendingCounts{}, nil
}

// MockAuditLogStore implements AuditLogStore for testing
type MockAuditLogStore struct {
	CreateFunc       func(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	ListRecentFunc   func(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
	ListByTargetFunc func(ctx context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error)
}

func (m *MockAuditLogStore) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	return log, nil
}

func (m *MockAuditLogStore) ListRecent(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit, offset)
	}
	return []*models.AuditLog{}, nil
}

func (m *MockAuditLogStore) ListByTarget(ctx context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error) {
	if m.ListByTargetFunc != nil {
		return m.ListByTargetFunc(ctx, targetType, targetID, limit)
	}
	return []*models.AuditLog{}, nil
}

// MockBillStore implements BillStore for testing
type MockBillStore struct {
	GetByIDFunc              func(ctx context.Context, id string) (*models.Bill, error)
	ListTagsFunc             func(ctx context.Context, userID, billID string) ([]models.BillTag, error)
	AddTagFunc               func(ctx context.Context, userID, billID, tag string) (*models.BillTag, error)
	ToggleWatchFunc          func(ctx context.Context, userID, billID string, notify bool) (bool, error)
	ListWatchlistFunc        func(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	PendingNotificationsFunc func(ctx context.Context, since time.Time, skip []string, limit int) ([]models.WatchNotification, error)
	MarkNotifiedFunc         func(ctx context.Context, entryID string, at time.Time) error
}

func (m *MockBillStore) GetByID(ctx context.Context, id string) (*models.Bill, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockBillStore) ListTags(ctx context.Context, userID, billID string) ([]models.BillTag, error) {
	if m.ListTagsFunc != nil {
		return m.ListTagsFunc(ctx, userID, billID)
	}
	return []models.BillTag{}, nil
}

func (m *MockBillStore) AddTag(ctx context.Context, userID, billID, tag string) (*models.BillTag, error) {
	if m.AddTagFunc != nil {
		return m.AddTagFunc(ctx, userID, billID, tag)
	}
	return &models.BillTag{ID: "tag-1", UserID: userID, BillID: billID, Tag: tag}, nil
}

func (m *MockBillStore) ToggleWatch(ctx context.Context, userID, billID string, notify bool) (bool, error) {
	if m.ToggleWatchFunc != nil {
		return m.ToggleWatchFunc(ctx, userID, billID, notify)
	}
	return true, nil
}

func (m *MockBillStore) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	if m.ListWatchlistFunc != nil {
		return m.ListWatchlistFunc(ctx, userID)
	}
	return []models.WatchlistEntry{}, nil
}

func (m *MockBillStore) PendingNotifications(ctx context.Context, since time.Time, skip []string, limit int) ([]models.WatchNotification, error) {
	if m.PendingNotificationsFunc != nil {
		return m.PendingNotificationsFunc(ctx, since, skip, limit)
	}
	return []models.WatchNotification{}, nil
}

func (m *MockBillStore) MarkNotified(ctx context.Context, entryID string, at time.Time) error {
	if m.MarkNotifiedFunc != nil {
		return m.MarkNotifiedFunc(ctx, entryID, at)
	}
	return nil
}

// MockFavoriteStore implements FavoriteStore for testing
type MockFavoriteStore struct {
	ToggleFunc     func(ctx context.Context, userID, lobbyistID string) (bool, error)
	ListByUserFunc func(ctx context.Context, userID string) ([]models.Favorite, error)
}

func (m *MockFavoriteStore) Toggle(ctx context.Context, userID, lobbyistID string) (bool, error) {
	if m.ToggleFunc != nil {
		return m.ToggleFunc(ctx, userID, lobbyistID)
	}
	return true, nil
}

func (m *MockFavoriteStore) ListByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []models.Favorite{}, nil
}

// MockSupportStore implements SupportStore for testing
type MockSupportStore struct {
	CreateTicketFunc        func(ctx context.Context, t *models.SupportTicket) (*models.SupportTicket, error)
	CreateProfileReportFunc func(ctx context.Context, p *models.ProfileReport) (*models.ProfileReport, error)
}

func (m *MockSupportStore) CreateTicket(ctx context.Context, t *models.SupportTicket) (*models.SupportTicket, error) {
	if m.CreateTicketFunc != nil {
		return m.CreateTicketFunc(ctx, t)
	}
	t.ID = "ticket-1"
	t.Status = "open"
	return t, nil
}

func (m *MockSupportStore) CreateProfileReport(ctx context.Context, p *models.ProfileReport) (*models.ProfileReport, error) {
	if m.CreateProfileReportFunc != nil {
		return m.CreateProfileReportFunc(ctx, p)
	}
	p.ID = "report-1"
	p.Status = "open"
	return p, nil
}

// SentEmail is one message captured by MockNotifier
type SentEmail struct {
	To   string
	Kind string
	Data EmailData
}

// MockNotifier records every email instead of sending it
type MockNotifier struct {
	mu          sync.Mutex
	Sent        []SentEmail
	AdminAlerts []EmailData
	NotifyErr   error
}

func (m *MockNotifier) Notify(_ context.Context, to, kind string, data EmailData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NotifyErr != nil {
		return m.NotifyErr
	}
	m.Sent = append(m.Sent, SentEmail{To: to, Kind: kind, Data: data})
	return nil
}

func (m *MockNotifier) NotifyAdmins(_ context.Context, data EmailData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AdminAlerts = append(m.AdminAlerts, data)
	return nil
}

// Kinds returns the kinds of the recorded emails in send order.
func (m *MockNotifier) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]string, 0, len(m.Sent))
	for _, e := range m.Sent {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// MockAuditor records audit entries
type MockAuditor struct {
	mu      sync.Mutex
	Entries []AuditEntry
}

func (m *MockAuditor) Record(_ context.Context, entry AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
}

// Last returns the most recent entry, or the zero entry.
func (m *MockAuditor) Last() AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Entries) == 0 {
		return AuditEntry{}
	}
	return m.Entries[len(m.Entries)-1]
}

// MockDocuments implements DocumentUploader and DocumentStorage for testing
type MockDocuments struct {
	UploadFunc func(ctx context.Context, userID string, data []byte) (string, error)
	URLFunc    func(ctx context.Context, key string, ttl time.Duration) (string, error)
	DeleteFunc func(ctx context.Context, key string) error
	Deleted    []string
}

func (m *MockDocuments) Upload(ctx context.Context, userID string, data []byte) (string, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, userID, data)
	}
	return "verification/" + userID + "/doc.pdf", nil
}

func (m *MockDocuments) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.URLFunc != nil {
		return m.URLFunc(ctx, key, ttl)
	}
	return "https://storage.test/" + key, nil
}

func (m *MockDocuments) Delete(ctx context.Context, key string) error {
	m.Deleted = append(m.Deleted, key)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

// MockPhotos implements PhotoUploader for testing
type MockPhotos struct {
	UploadFunc func(ctx context.Context, lobbyistID string, data []byte) (string, error)
}

func (m *MockPhotos) Upload(ctx context.Context, lobbyistID string, data []byte) (string, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, lobbyistID, data)
	}
	return "https://cdn.test/photos/" + lobbyistID + ".jpg", nil
}

// MockPaymentGateway implements PaymentGateway for testing
type MockPaymentGateway struct {
	GetSubscriptionFunc       func(ctx context.Context, id string) (*models.Subscription, error)
	ChangePriceFunc           func(ctx context.Context, sub *models.Subscription, priceID, tier string) error
	SetTierMetadataFunc       func(ctx context.Context, subscriptionID, tier string) error
	CreateCheckoutSessionFunc func(ctx context.Context, userID, email, tier string) (string, error)
	ParseWebhookFunc          func(payload []byte, signature string) (*models.PaymentEvent, error)
}

func (m *MockPaymentGateway) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	if m.GetSubscriptionFunc != nil {
		return m.GetSubscriptionFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockPaymentGateway) ChangePrice(ctx context.Context, sub *models.Subscription, priceID, tier string) error {
	if m.ChangePriceFunc != nil {
		return m.ChangePriceFunc(ctx, sub, priceID, tier)
	}
	return nil
}

func (m *MockPaymentGateway) SetTierMetadata(ctx context.Context, subscriptionID, tier string) error {
	if m.SetTierMetadataFunc != nil {
		return m.SetTierMetadataFunc(ctx, subscriptionID, tier)
	}
	return nil
}

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, userID, email, tier string) (string, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, userID, email, tier)
	}
	return "https://checkout.test/session", nil
}

func (m *MockPaymentGateway) ParseWebhook(payload []byte, signature string) (*models.PaymentEvent, error) {
	if m.ParseWebhookFunc != nil {
		return m.ParseWebhookFunc(payload, signature)
	}
	return nil, models.ErrBadRequest
}

// staticPriceBook maps premium and featured to fixed price IDs
type staticPriceBook map[string]string

func testPriceBook() staticPriceBook {
	return staticPriceBook{models.TierPremium: "price_premium", models.TierFeatured: "price_featured"}
}

func (p staticPriceBook) PriceForTier(tier string) string { return p[tier] }

func (p staticPriceBook) TierForPrice(priceID string) string {
	for tier, id := range p {
		if id == priceID {
			return tier
		}
	}
	return models.TierFree
}

// MockExtractor implements CriteriaExtractor for testing
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, query string) (*ai.Criteria, error)
}

func (m *MockExtractor) Extract(ctx context.Context, query string) (*ai.Criteria, error) {
	return m.ExtractFunc(ctx, query)
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssuePairFunc     func(user *models.User) (*auth.TokenPair, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*models.TokenClaims, error)
}

func (m *MockTokenIssuer) IssuePair(user *models.User) (*auth.TokenPair, error) {
	if m.IssuePairFunc != nil {
		return m.IssuePairFunc(user)
	}
	return &auth.TokenPair{AccessToken: "access-" + user.ID, RefreshToken: "refresh-" + user.ID}, nil
}

func (m *MockTokenIssuer) ValidateToken(ctx context.Context, tokenString string) (*models.TokenClaims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}
	return nil, models.ErrUnauthorized
}

// MockMFADeviceRepository implements repositories.MFADeviceRepository for testing
type MockMFADeviceRepository struct {
	CreateFunc              func(ctx context.Context, device *models.MFADevice) error
	GetByIDFunc             func(ctx context.Context, deviceID string) (*models.MFADevice, error)
	GetVerifiedByUserIDFunc func(ctx context.Context, userID string) (*models.MFADevice, error)
	MarkAsVerifiedFunc      func(ctx context.Context, deviceID string) error
	UpdateLastUsedAtFunc    func(ctx context.Context, deviceID string) error
	DeleteUnverifiedFunc    func(ctx context.Context, userID string) error
}

func (m *MockMFADeviceRepository) Create(ctx context.Context, device *models.MFADevice) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, device)
	}
	device.ID = "device-1"
	return nil
}

func (m *MockMFADeviceRepository) GetByID(ctx context.Context, deviceID string) (*models.MFADevice, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, deviceID)
	}
	return nil, models.ErrNotFound
}

func (m *MockMFADeviceRepository) GetVerifiedByUserID(ctx context.Context, userID string) (*models.MFADevice, error) {
	if m.GetVerifiedByUserIDFunc != nil {
		return m.GetVerifiedByUserIDFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockMFADeviceRepository) MarkAsVerified(ctx context.Context, deviceID string) error {
	if m.MarkAsVerifiedFunc != nil {
		return m.MarkAsVerifiedFunc(ctx, deviceID)
	}
	return nil
}

func (m *MockMFADeviceRepository) UpdateLastUsedAt(ctx context.Context, deviceID string) error {
	if m.UpdateLastUsedAtFunc != nil {
		return m.UpdateLastUsedAtFunc(ctx, deviceID)
	}
	return nil
}

func (m *MockMFADeviceRepository) DeleteUnverified(ctx context.Context, userID string) error {
	if m.DeleteUnverifiedFunc != nil {
		return m.DeleteUnverifiedFunc(ctx, userID)
	}
	return nil
}

// NewTestUser builds an active user with the given role.
func NewTestUser(id, email, role string) *models.User {
	return &models.User{
		ID:               id,
		Email:            email,
		FullName:         "Test " + role,
		Role:             role,
		SubscriptionTier: models.TierFree,
		TokenKey:         "token-key-" + id,
	}
}

// NewTestLobbyist builds an approved, active profile owned by ownerID.
func NewTestLobbyist(id, ownerID string) *models.Lobbyist {
	l := &models.Lobbyist{
		ID:               id,
		Slug:             "jane-doe",
		FirstName:        "Jane",
		LastName:         "Doe",
		Email:            strPtr("jane@example.com"),
		Cities:           []string{"Austin"},
		SubjectAreas:     []string{"Energy"},
		SubscriptionTier: models.TierFree,
		IsActive:         true,
		ApprovalStatus:   models.ApprovalApproved,
	}
	if ownerID != "" {
		l.UserID = strPtr(ownerID)
		l.IsClaimed = true
		l.ClaimedBy = strPtr(ownerID)
	}
	return l
}

// NewRejectedLobbyist builds a rejected profile with the given attempt history.
func NewRejectedLobbyist(id, ownerID string, resubmissions int, lastResubmission *time.Time) *models.Lobbyist {
	l := NewTestLobbyist(id, ownerID)
	l.IsActive = false
	l.ApprovalStatus = models.ApprovalRejected
	l.IsRejected = true
	l.RejectionCount = resubmissions + 1
	l.RejectionReason = strPtr("Missing information")
	l.ResubmissionCount = resubmissions
	l.LastResubmissionAt = lastResubmission
	return l
}
