package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/auth"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/services"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRequest creates an HTTP request with a JSON body.
func newTestRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withUser authenticates the request as a user with the given role.
func withUser(req *http.Request, id, role string) *http.Request {
	user := &models.User{ID: id, Email: id + "@example.com", FullName: "Test " + id, Role: role}
	return req.WithContext(auth.WithUser(req.Context(), user))
}

// withChiParams sets chi URL parameters that the router would normally extract.
func withChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// assertErrorResponse checks status and error code and returns the decoded body.
func assertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, status int, code string) pkghttp.ErrorResponse {
	t.Helper()
	assert.Equal(t, status, w.Code, "status mismatch: %s", w.Body.String())

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, code, resp.Error)
	assert.NotEmpty(t, resp.Message)
	return resp
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target))
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc func(ctx context.Context, in services.RegisterInput) (*models.AuthResponse, error)
	LoginFunc    func(ctx context.Context, email, password string) (*models.AuthResponse, error)
	RefreshFunc  func(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	MeFunc       func(ctx context.Context, userID string) (*models.User, error)
}

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput) (*models.AuthResponse, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, in)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.RefreshFunc(ctx, refreshToken)
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	if m.MeFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.MeFunc(ctx, userID)
}

// MockProfileService implements ProfileServiceInterface for testing
type MockProfileService struct {
	CreateProfileFunc      func(ctx context.Context, userID string, in services.CreateProfileInput) (*models.Lobbyist, error)
	SubmitClaimFunc        func(ctx context.Context, userID string, in services.ClaimInput) (*models.ClaimRequest, error)
	UploadDocumentFunc     func(ctx context.Context, userID string, data []byte) (string, error)
	UploadPhotoFunc        func(ctx context.Context, userID, lobbyistID string, data []byte) (string, error)
	ResubmitFunc           func(ctx context.Context, userID, lobbyistID string, in services.CreateProfileInput) (*models.Lobbyist, error)
	UpdateFieldFunc        func(ctx context.Context, userID, lobbyistID, field string, value any) (*models.Lobbyist, error)
	GetDashboardFunc       func(ctx context.Context, userID string) (*services.Dashboard, error)
	RequestRoleUpgradeFunc func(ctx context.Context, userID string, in services.RoleUpgradeInput) (*models.RoleUpgradeRequest, error)
	RequestMergeFunc       func(ctx context.Context, userID string, in services.MergeInput) (*models.MergeRequest, error)
}

func (m *MockProfileService) CreateProfile(ctx context.Context, userID string, in services.CreateProfileInput) (*models.Lobbyist, error) {
	if m.CreateProfileFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateProfileFunc(ctx, userID, in)
}

func (m *MockProfileService) SubmitClaim(ctx context.Context, userID string, in services.ClaimInput) (*models.ClaimRequest, error) {
	if m.SubmitClaimFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.SubmitClaimFunc(ctx, userID, in)
}

func (m *MockProfileService) UploadVerificationDocument(ctx context.Context, userID string, data []byte) (string, error) {
	if m.UploadDocumentFunc == nil {
		return "", models.ErrInternalServer
	}
	return m.UploadDocumentFunc(ctx, userID, data)
}

func (m *MockProfileService) UploadPhoto(ctx context.Context, userID, lobbyistID string, data []byte) (string, error) {
	if m.UploadPhotoFunc == nil {
		return "", models.ErrInternalServer
	}
	return m.UploadPhotoFunc(ctx, userID, lobbyistID, data)
}

func (m *MockProfileService) Resubmit(ctx context.Context, userID, lobbyistID string, in services.CreateProfileInput) (*models.Lobbyist, error) {
	if m.ResubmitFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.ResubmitFunc(ctx, userID, lobbyistID, in)
}

func (m *MockProfileService) UpdateField(ctx context.Context, userID, lobbyistID, field string, value any) (*models.Lobbyist, error) {
	if m.UpdateFieldFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.UpdateFieldFunc(ctx, userID, lobbyistID, field, value)
}

func (m *MockProfileService) GetDashboard(ctx context.Context, userID string) (*services.Dashboard, error) {
	if m.GetDashboardFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetDashboardFunc(ctx, userID)
}

func (m *MockProfileService) RequestRoleUpgrade(ctx context.Context, userID string, in services.RoleUpgradeInput) (*models.RoleUpgradeRequest, error) {
	if m.RequestRoleUpgradeFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RequestRoleUpgradeFunc(ctx, userID, in)
}

func (m *MockProfileService) RequestMerge(ctx context.Context, userID string, in services.MergeInput) (*models.MergeRequest, error) {
	if m.RequestMergeFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RequestMergeFunc(ctx, userID, in)
}

// MockModerationService implements ModerationServiceInterface for testing.
// Unset decision funcs succeed with an empty result.
type MockModerationService struct {
	ApproveLobbyistFunc func(ctx context.Context, adminID, lobbyistID string) (*models.Lobbyist, error)
	RejectLobbyistFunc  func(ctx context.Context, adminID, lobbyistID, reason, category string) (*models.Lobbyist, error)
	ApproveClaimFunc    func(ctx context.Context, adminID, claimID string) (*models.ClaimRequest, error)
	RejectClaimFunc     func(ctx context.Context, adminID, claimID, reason string) (*models.ClaimRequest, error)
	ApproveMergeFunc    func(ctx context.Context, adminID, requestID string) (*repositories.MergeResult, error)
	ListPendingFunc     func(ctx context.Context, kind string) (*services.PendingQueues, error)
	DocumentURLFunc     func(ctx context.Context, claimID string) (string, error)
}

func (m *MockModerationService) ApproveLobbyist(ctx context.Context, adminID, lobbyistID string) (*models.Lobbyist, error) {
	if m.ApproveLobbyistFunc == nil {
		return &models.Lobbyist{ID: lobbyistID}, nil
	}
	return m.ApproveLobbyistFunc(ctx, adminID, lobbyistID)
}

func (m *MockModerationService) RejectLobbyist(ctx context.Context, adminID, lobbyistID, reason, category string) (*models.Lobbyist, error) {
	if m.RejectLobbyistFunc == nil {
		return &models.Lobbyist{ID: lobbyistID}, nil
	}
	return m.RejectLobbyistFunc(ctx, adminID, lobbyistID, reason, category)
}

func (m *MockModerationService) ApproveClaim(ctx context.Context, adminID, claimID string) (*models.ClaimRequest, error) {
	if m.ApproveClaimFunc == nil {
		return &models.ClaimRequest{ID: claimID, Status: models.RequestApproved}, nil
	}
	return m.ApproveClaimFunc(ctx, adminID, claimID)
}

func (m *MockModerationService) RejectClaim(ctx context.Context, adminID, claimID, reason string) (*models.ClaimRequest, error) {
	if m.RejectClaimFunc == nil {
		return &models.ClaimRequest{ID: claimID, Status: models.RequestRejected}, nil
	}
	return m.RejectClaimFunc(ctx, adminID, claimID, reason)
}

func (m *MockModerationService) ApproveRoleUpgrade(_ context.Context, _, requestID string) (*models.RoleUpgradeRequest, error) {
	return &models.RoleUpgradeRequest{ID: requestID, Status: models.RequestApproved}, nil
}

func (m *MockModerationService) RejectRoleUpgrade(_ context.Context, _, requestID, _ string) (*models.RoleUpgradeRequest, error) {
	return &models.RoleUpgradeRequest{ID: requestID, Status: models.RequestRejected}, nil
}

func (m *MockModerationService) ApproveMerge(ctx context.Context, adminID, requestID string) (*repositories.MergeResult, error) {
	if m.ApproveMergeFunc == nil {
		return &repositories.MergeResult{Request: &models.MergeRequest{ID: requestID}}, nil
	}
	return m.ApproveMergeFunc(ctx, adminID, requestID)
}

func (m *MockModerationService) RejectMerge(_ context.Context, _, requestID, _ string) (*models.MergeRequest, error) {
	return &models.MergeRequest{ID: requestID, Status: models.RequestRejected}, nil
}

func (m *MockModerationService) ListPending(ctx context.Context, kind string) (*services.PendingQueues, error) {
	if m.ListPendingFunc == nil {
		return &services.PendingQueues{}, nil
	}
	return m.ListPendingFunc(ctx, kind)
}

func (m *MockModerationService) GetClaimDocumentURL(ctx context.Context, claimID string) (string, error) {
	if m.DocumentURLFunc == nil {
		return "", models.ErrNotFound
	}
	return m.DocumentURLFunc(ctx, claimID)
}

// MockAdminUserService implements AdminUserServiceInterface for testing
type MockAdminUserService struct {
	SuspendUserFunc   func(ctx context.Context, adminID, targetID string, in services.SuspendInput) (*models.Suspension, error)
	UnsuspendUserFunc func(ctx context.Context, adminID, targetID string) (int64, error)
	DeleteUserFunc    func(ctx context.Context, adminID, targetID string) error
	EditUserFunc      func(ctx context.Context, adminID, targetID string, upd models.UserUpdate) (*models.User, error)
	ListUsersFunc     func(ctx context.Context, filter models.UserFilter) (*services.UserPage, error)
	DashboardFunc     func(ctx context.Context) (*models.PendingCounts, error)
}

func (m *MockAdminUserService) SuspendUser(ctx context.Context, adminID, targetID string, in services.SuspendInput) (*models.Suspension, error) {
	if m.SuspendUserFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.SuspendUserFunc(ctx, adminID, targetID, in)
}

func (m *MockAdminUserService) UnsuspendUser(ctx context.Context, adminID, targetID string) (int64, error) {
	if m.UnsuspendUserFunc == nil {
		return 0, nil
	}
	return m.UnsuspendUserFunc(ctx, adminID, targetID)
}

func (m *MockAdminUserService) ListSuspensions(context.Context, string) ([]*models.Suspension, error) {
	return []*models.Suspension{}, nil
}

func (m *MockAdminUserService) DeleteUser(ctx context.Context, adminID, targetID string) error {
	if m.DeleteUserFunc == nil {
		return nil
	}
	return m.DeleteUserFunc(ctx, adminID, targetID)
}

func (m *MockAdminUserService) EditUser(ctx context.Context, adminID, targetID string, upd models.UserUpdate) (*models.User, error) {
	if m.EditUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.EditUserFunc(ctx, adminID, targetID, upd)
}

func (m *MockAdminUserService) ListUsers(ctx context.Context, filter models.UserFilter) (*services.UserPage, error) {
	if m.ListUsersFunc == nil {
		return &services.UserPage{Users: []*models.User{}}, nil
	}
	return m.ListUsersFunc(ctx, filter)
}

func (m *MockAdminUserService) Dashboard(ctx context.Context) (*models.PendingCounts, error) {
	if m.DashboardFunc == nil {
		return &models.PendingCounts{}, nil
	}
	return m.DashboardFunc(ctx)
}

// MockAdminLobbyistService implements AdminLobbyistServiceInterface for testing
type MockAdminLobbyistService struct {
	EditLobbyistFunc func(ctx context.Context, adminID, id string, upd models.LobbyistUpdate) (*models.Lobbyist, error)
	DeleteFunc       func(ctx context.Context, adminID, id string) error
	UpdateTierFunc   func(ctx context.Context, adminID, id, tier string) (*models.Lobbyist, error)
}

func (m *MockAdminLobbyistService) EditLobbyist(ctx context.Context, adminID, id string, upd models.LobbyistUpdate) (*models.Lobbyist, error) {
	if m.EditLobbyistFunc == nil {
		return &models.Lobbyist{ID: id}, nil
	}
	return m.EditLobbyistFunc(ctx, adminID, id, upd)
}

func (m *MockAdminLobbyistService) DeleteLobbyist(ctx context.Context, adminID, id string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, adminID, id)
}

func (m *MockAdminLobbyistService) UpdateLobbyistTier(ctx context.Context, adminID, id, tier string) (*models.Lobbyist, error) {
	if m.UpdateTierFunc == nil {
		return &models.Lobbyist{ID: id, SubscriptionTier: tier}, nil
	}
	return m.UpdateTierFunc(ctx, adminID, id, tier)
}

// MockSubscriptionService implements SubscriptionServiceInterface for testing
type MockSubscriptionService struct {
	CheckoutFunc func(ctx context.Context, userID, tier string) (string, error)
	UpgradeFunc  func(ctx context.Context, userID, tier string) error
	WebhookFunc  func(ctx context.Context, payload []byte, signature string) error
}

func (m *MockSubscriptionService) CreateCheckoutSession(ctx context.Context, userID, tier string) (string, error) {
	if m.CheckoutFunc == nil {
		return "", models.ErrDownstream
	}
	return m.CheckoutFunc(ctx, userID, tier)
}

func (m *MockSubscriptionService) UpgradeSubscription(ctx context.Context, userID, tier string) error {
	if m.UpgradeFunc == nil {
		return nil
	}
	return m.UpgradeFunc(ctx, userID, tier)
}

func (m *MockSubscriptionService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if m.WebhookFunc == nil {
		return nil
	}
	return m.WebhookFunc(ctx, payload, signature)
}

// MockSearchService implements SearchServiceInterface for testing
type MockSearchService struct {
	ListLobbyistsFunc func(ctx context.Context, f models.DirectoryFilter) (*models.DirectoryPage, error)
	GetBySlugFunc     func(ctx context.Context, slug string) (*services.ProfileView, error)
	SearchFunc        func(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error)
	AISearchFunc      func(ctx context.Context, query string) (*services.AISearchResult, error)
}

func (m *MockSearchService) ListLobbyists(ctx context.Context, f models.DirectoryFilter) (*models.DirectoryPage, error) {
	if m.ListLobbyistsFunc == nil {
		return &models.DirectoryPage{Lobbyists: []models.Lobbyist{}}, nil
	}
	return m.ListLobbyistsFunc(ctx, f)
}

func (m *MockSearchService) GetBySlug(ctx context.Context, slug string) (*services.ProfileView, error) {
	if m.GetBySlugFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetBySlugFunc(ctx, slug)
}

func (m *MockSearchService) Search(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error) {
	if m.SearchFunc == nil {
		return nil, nil
	}
	return m.SearchFunc(ctx, p)
}

func (m *MockSearchService) AISearch(ctx context.Context, query string) (*services.AISearchResult, error) {
	if m.AISearchFunc == nil {
		return &services.AISearchResult{Results: []models.SearchResult{}}, nil
	}
	return m.AISearchFunc(ctx, query)
}

// MockBillService implements BillServiceInterface for testing
type MockBillService struct {
	ListTagsFunc    func(ctx context.Context, userID, billID string) ([]models.BillTag, error)
	AddTagFunc      func(ctx context.Context, userID, billID, tag string) (*models.BillTag, error)
	ToggleWatchFunc func(ctx context.Context, userID, billID string, notify bool) (bool, error)
}

func (m *MockBillService) ListTags(ctx context.Context, userID, billID string) ([]models.BillTag, error) {
	if m.ListTagsFunc == nil {
		return []models.BillTag{}, nil
	}
	return m.ListTagsFunc(ctx, userID, billID)
}

func (m *MockBillService) AddTag(ctx context.Context, userID, billID, tag string) (*models.BillTag, error) {
	if m.AddTagFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.AddTagFunc(ctx, userID, billID, tag)
}

func (m *MockBillService) ToggleWatch(ctx context.Context, userID, billID string, notify bool) (bool, error) {
	if m.ToggleWatchFunc == nil {
		return false, models.ErrNotFound
	}
	return m.ToggleWatchFunc(ctx, userID, billID, notify)
}

func (m *MockBillService) ListWatchlist(context.Context, string) ([]models.WatchlistEntry, error) {
	return []models.WatchlistEntry{}, nil
}

// MockFavoriteService implements FavoriteServiceInterface for testing
type MockFavoriteService struct {
	ToggleFunc func(ctx context.Context, userID, lobbyistID string) (bool, error)
}

func (m *MockFavoriteService) ToggleFavorite(ctx context.Context, userID, lobbyistID string) (bool, error) {
	if m.ToggleFunc == nil {
		return false, models.ErrNotFound
	}
	return m.ToggleFunc(ctx, userID, lobbyistID)
}

func (m *MockFavoriteService) ListFavorites(context.Context, string) ([]models.Favorite, error) {
	return []models.Favorite{}, nil
}

// MockSupportService implements SupportServiceInterface for testing
type MockSupportService struct {
	ReportIssueFunc func(ctx context.Context, in services.ReportIssueInput, clientIP string) (*services.IssueReceipt, error)
}

func (m *MockSupportService) ReportIssue(ctx context.Context, in services.ReportIssueInput, clientIP string) (*services.IssueReceipt, error) {
	if m.ReportIssueFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.ReportIssueFunc(ctx, in, clientIP)
}

// MockMFAService implements MFAServiceInterface for testing
type MockMFAService struct {
	SetupFunc  func(ctx context.Context, user *models.User, deviceName string) (*models.MFASetupResponse, error)
	VerifyFunc func(ctx context.Context, userID, deviceID, code string) error
	StatusFunc func(ctx context.Context, userID string) (*models.MFAStatus, error)
}

func (m *MockMFAService) SetupTOTP(ctx context.Context, user *models.User, deviceName string) (*models.MFASetupResponse, error) {
	if m.SetupFunc == nil {
		return nil, models.ErrForbidden
	}
	return m.SetupFunc(ctx, user, deviceName)
}

func (m *MockMFAService) VerifySetup(ctx context.Context, userID, deviceID, code string) error {
	if m.VerifyFunc == nil {
		return nil
	}
	return m.VerifyFunc(ctx, userID, deviceID, code)
}

func (m *MockMFAService) Status(ctx context.Context, userID string) (*models.MFAStatus, error) {
	if m.StatusFunc == nil {
		return &models.MFAStatus{}, nil
	}
	return m.StatusFunc(ctx, userID)
}
