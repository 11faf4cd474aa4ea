package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adminNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type adminFixture struct {
	users       *MockUserStore
	suspensions *MockSuspensionStore
	notifier    *MockNotifier
	auditor     *MockAuditor
	svc         *AdminUserService
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		users:       &MockUserStore{},
		suspensions: &MockSuspensionStore{},
		notifier:    &MockNotifier{},
		auditor:     &MockAuditor{},
	}
	f.users.GetByIDFunc = func(_ context.Context, id string) (*models.User, error) {
		return NewTestUser(id, id+"@example.com", models.RoleLobbyist), nil
	}
	f.svc = NewAdminUserService(f.users, f.suspensions, &MockStatsStore{}, f.notifier, f.auditor, testLogger())
	f.svc.now = func() time.Time { return adminNow }
	f.svc.newTokenKey = func() (string, error) { return "rotated-key", nil }
	return f
}

func TestAdminUserService_SuspendUser_Success(t *testing.T) {
	f := newAdminFixture()
	until := adminNow.Add(7 * 24 * time.Hour)
	f.suspensions.SuspendFunc = func(_ context.Context, in models.NewSuspension) (*models.Suspension, error) {
		assert.Equal(t, "user-2", in.UserID)
		assert.Equal(t, "admin-1", in.SuspendedBy)
		assert.Equal(t, "rotated-key", in.TokenKey)
		assert.Equal(t, "Repeated spam listings", in.Reason)
		return &models.Suspension{ID: "s-1", UserID: in.UserID, IsActive: true, ExpiresAt: in.ExpiresAt}, nil
	}

	s, err := f.svc.SuspendUser(context.Background(), "admin-1", "user-2", SuspendInput{
		Reason: "  Repeated spam listings ", Category: "spam", ExpiresAt: &until,
	})

	require.NoError(t, err)
	assert.True(t, s.IsActive)
	entry := f.auditor.Last()
	assert.Equal(t, models.AuditSuspendUser, entry.Action)
	assert.True(t, entry.Success)
	require.Len(t, f.notifier.Sent, 1)
	assert.Equal(t, EmailAccountSuspended, f.notifier.Sent[0].Kind)
	assert.Equal(t, &until, f.notifier.Sent[0].Data.Until)
}

func TestAdminUserService_SuspendUser_Validation(t *testing.T) {
	past := adminNow.Add(-time.Minute)

	tests := []struct {
		name  string
		input SuspendInput
		field string
	}{
		{"nine character reason", SuspendInput{Reason: strings.Repeat("x", 9), Category: "spam"}, "reason"},
		{"unknown category", SuspendInput{Reason: "Posting fake profiles", Category: "vibes"}, "category"},
		{"expiry in the past", SuspendInput{Reason: "Posting fake profiles", Category: "fraud", ExpiresAt: &past}, "expires_at"},
		{"expiry now", SuspendInput{Reason: "Posting fake profiles", Category: "fraud", ExpiresAt: &adminNow}, "expires_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAdminFixture()
			f.suspensions.SuspendFunc = func(context.Context, models.NewSuspension) (*models.Suspension, error) {
				t.Fatal("store must not be called on invalid input")
				return nil, nil
			}

			_, err := f.svc.SuspendUser(context.Background(), "admin-1", "user-2", tt.input)

			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestAdminUserService_SuspendUser_TenCharacterReasonAccepted(t *testing.T) {
	f := newAdminFixture()

	_, err := f.svc.SuspendUser(context.Background(), "admin-1", "user-2", SuspendInput{
		Reason: strings.Repeat("x", 10), Category: "other",
	})

	assert.NoError(t, err)
}

func TestAdminUserService_SuspendUser_Self(t *testing.T) {
	f := newAdminFixture()

	_, err := f.svc.SuspendUser(context.Background(), "admin-1", "admin-1", SuspendInput{
		Reason: "Testing self suspension", Category: "other",
	})

	assert.ErrorIs(t, err, models.ErrSelfAction)
}

func TestAdminUserService_SuspendUser_LastAdmin(t *testing.T) {
	f := newAdminFixture()
	f.suspensions.SuspendFunc = func(context.Context, models.NewSuspension) (*models.Suspension, error) {
		return nil, models.ErrLastAdmin
	}

	_, err := f.svc.SuspendUser(context.Background(), "admin-1", "admin-2", SuspendInput{
		Reason: "Compromised account", Category: "other",
	})

	assert.ErrorIs(t, err, models.ErrLastAdmin)
	entry := f.auditor.Last()
	assert.False(t, entry.Success)
	assert.Equal(t, "last_admin", entry.Metadata["reason"])
	assert.Empty(t, f.notifier.Sent)
}

func TestAdminUserService_UnsuspendUser(t *testing.T) {
	f := newAdminFixture()
	f.suspensions.UnsuspendFunc = func(_ context.Context, userID, adminID string) (int64, error) {
		assert.Equal(t, "user-2", userID)
		assert.Equal(t, "admin-1", adminID)
		return 2, nil
	}

	lifted, err := f.svc.UnsuspendUser(context.Background(), "admin-1", "user-2")

	require.NoError(t, err)
	assert.EqualValues(t, 2, lifted)
	assert.Equal(t, models.AuditUnsuspendUser, f.auditor.Last().Action)
}

func TestAdminUserService_DeleteUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newAdminFixture()

		err := f.svc.DeleteUser(context.Background(), "admin-1", "user-2")

		require.NoError(t, err)
		assert.Equal(t, []string{EmailAccountDeleted}, f.notifier.Kinds())
		assert.Equal(t, models.AuditDeleteUser, f.auditor.Last().Action)
	})

	t.Run("self", func(t *testing.T) {
		f := newAdminFixture()
		assert.ErrorIs(t, f.svc.DeleteUser(context.Background(), "admin-1", "admin-1"), models.ErrSelfAction)
	})

	t.Run("last admin", func(t *testing.T) {
		f := newAdminFixture()
		f.users.DeleteFunc = func(context.Context, string) error { return models.ErrLastAdmin }

		err := f.svc.DeleteUser(context.Background(), "admin-1", "admin-2")

		assert.ErrorIs(t, err, models.ErrLastAdmin)
		assert.False(t, f.auditor.Last().Success)
		assert.Empty(t, f.notifier.Sent)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAdminFixture()
		f.users.GetByIDFunc = func(context.Context, string) (*models.User, error) { return nil, models.ErrNotFound }

		assert.ErrorIs(t, f.svc.DeleteUser(context.Background(), "admin-1", "ghost"), models.ErrNotFound)
	})
}

func TestAdminUserService_EditUser(t *testing.T) {
	role := "superuser"
	tier := "platinum"
	email := "no-at-sign"

	f := newAdminFixture()
	_, err := f.svc.EditUser(context.Background(), "admin-1", "user-2", models.UserUpdate{
		Role: &role, SubscriptionTier: &tier, Email: &email,
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)

	searcher := models.RoleSearcher
	f.users.UpdateFunc = func(context.Context, string, models.UserUpdate) (*models.User, error) {
		return nil, models.ErrLastAdmin
	}
	_, err = f.svc.EditUser(context.Background(), "admin-1", "admin-2", models.UserUpdate{Role: &searcher})
	assert.ErrorIs(t, err, models.ErrLastAdmin)

	mixed := "  Jane@Example.COM "
	f.users.UpdateFunc = func(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
		assert.Equal(t, "jane@example.com", *upd.Email)
		return NewTestUser(id, *upd.Email, models.RoleLobbyist), nil
	}
	u, err := f.svc.EditUser(context.Background(), "admin-1", "user-2", models.UserUpdate{Email: &mixed})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
}

func TestAdminUserService_ListUsers_ClampsLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 50},
		{-5, 50},
		{10, 10},
		{1000, 100},
	}

	for _, tt := range tests {
		f := newAdminFixture()
		f.users.ListFunc = func(_ context.Context, filter models.UserFilter) ([]*models.User, int, error) {
			assert.Equal(t, tt.want, filter.Limit)
			return []*models.User{}, 0, nil
		}

		page, err := f.svc.ListUsers(context.Background(), models.UserFilter{Limit: tt.in})
		require.NoError(t, err)
		assert.Equal(t, tt.want, page.Limit)
	}
}

func TestAdminLobbyistService(t *testing.T) {
	store := &MockLobbyistStore{
		GetByIDFunc: func(_ context.Context, id string) (*models.Lobbyist, error) {
			return NewTestLobbyist(id, ""), nil
		},
		SetTierFunc: func(_ context.Context, id, tier string) (*models.Lobbyist, error) {
			l := NewTestLobbyist(id, "")
			l.SubscriptionTier = tier
			return l, nil
		},
		AdminUpdateFunc: func(_ context.Context, id string, upd models.LobbyistUpdate) (*models.Lobbyist, error) {
			assert.Equal(t, []string{"Houston"}, upd.Cities)
			return NewTestLobbyist(id, ""), nil
		},
	}
	auditor := &MockAuditor{}
	svc := NewAdminLobbyistService(store, auditor, testLogger())
	ctx := context.Background()

	_, err := svc.UpdateLobbyistTier(ctx, "admin-1", "lob-1", "gold")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	l, err := svc.UpdateLobbyistTier(ctx, "admin-1", "lob-1", models.TierFeatured)
	require.NoError(t, err)
	assert.Equal(t, models.TierFeatured, l.SubscriptionTier)
	assert.Equal(t, models.AuditUpdateTier, auditor.Last().Action)

	empty := ""
	_, err = svc.EditLobbyist(ctx, "admin-1", "lob-1", models.LobbyistUpdate{FirstName: &empty})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.EditLobbyist(ctx, "admin-1", "lob-1", models.LobbyistUpdate{Cities: []string{" Houston ", ""}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLobbyist(ctx, "admin-1", "lob-1"))
	assert.Equal(t, models.AuditDeleteLobbyist, auditor.Last().Action)
	assert.Equal(t, "jane-doe", auditor.Last().Metadata["slug"])
}
