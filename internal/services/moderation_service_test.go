package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moderationFixture struct {
	lobbyists *MockLobbyistStore
	claims    *MockClaimStore
	upgrades  *MockRoleUpgradeStore
	merges    *MockMergeStore
	users     *MockUserStore
	documents *MockDocuments
	notifier  *MockNotifier
	auditor   *MockAuditor
	svc       *ModerationService
}

func newModerationFixture() *moderationFixture {
	f := &moderationFixture{
		lobbyists: &MockLobbyistStore{},
		claims:    &MockClaimStore{},
		upgrades:  &MockRoleUpgradeStore{},
		merges:    &MockMergeStore{},
		users:     &MockUserStore{},
		documents: &MockDocuments{},
		notifier:  &MockNotifier{},
		auditor:   &MockAuditor{},
	}
	f.users.GetByIDFunc = func(_ context.Context, id string) (*models.User, error) {
		return NewTestUser(id, id+"@example.com", models.RoleSearcher), nil
	}
	f.svc = NewModerationService(ModerationDeps{
		Lobbyists:    f.lobbyists,
		Claims:       f.claims,
		RoleUpgrades: f.upgrades,
		Merges:       f.merges,
		Users:        f.users,
		Documents:    f.documents,
		Notifier:     f.notifier,
		Auditor:      f.auditor,
		PublicURL:    "https://texaslobby.test/",
	}, testLogger())
	return f
}

func TestModerationService_ApproveLobbyist(t *testing.T) {
	f := newModerationFixture()
	f.lobbyists.ApproveFunc = func(_ context.Context, id string) (*models.Lobbyist, error) {
		return NewTestLobbyist(id, "user-1"), nil
	}

	l, err := f.svc.ApproveLobbyist(context.Background(), "admin-1", "lob-1")

	require.NoError(t, err)
	assert.True(t, l.IsVisible())
	assert.Equal(t, models.AuditApproveLobbyist, f.auditor.Last().Action)
	assert.Equal(t, "admin-1", f.auditor.Last().ActorID)
	require.Len(t, f.notifier.Sent, 1)
	assert.Equal(t, EmailProfileApproved, f.notifier.Sent[0].Kind)
	assert.Equal(t, "jane@example.com", f.notifier.Sent[0].To)
	assert.Equal(t, "https://texaslobby.test/lobbyists/jane-doe", f.notifier.Sent[0].Data.URL)
}

func TestModerationService_ApproveLobbyist_EmailFailureIsNotFatal(t *testing.T) {
	f := newModerationFixture()
	f.notifier.NotifyErr = errors.New("ses throttled")
	f.lobbyists.ApproveFunc = func(_ context.Context, id string) (*models.Lobbyist, error) {
		return NewTestLobbyist(id, "user-1"), nil
	}

	_, err := f.svc.ApproveLobbyist(context.Background(), "admin-1", "lob-1")

	assert.NoError(t, err)
}

func TestModerationService_RejectLobbyist_Validation(t *testing.T) {
	tests := []struct {
		name     string
		reason   string
		category string
		field    string
	}{
		{"reason too short", "Bad", "other", "reason"},
		{"whitespace padded short reason", "   abcd   ", "other", "reason"},
		{"unknown category", "Missing contact details", "rude", "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newModerationFixture()
			f.lobbyists.RejectFunc = func(context.Context, models.Rejection) (*models.Lobbyist, error) {
				t.Fatal("store must not be called on invalid input")
				return nil, nil
			}

			_, err := f.svc.RejectLobbyist(context.Background(), "admin-1", "lob-1", tt.reason, tt.category)

			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestModerationService_RejectLobbyist_IncrementsCount(t *testing.T) {
	f := newModerationFixture()
	stored := NewTestLobbyist("lob-1", "user-1")
	stored.RejectionCount = 1
	f.lobbyists.RejectFunc = func(_ context.Context, rej models.Rejection) (*models.Lobbyist, error) {
		assert.Equal(t, "Incomplete bio", rej.Reason)
		assert.Equal(t, "admin-1", rej.AdminID)
		stored.RejectionCount++
		stored.IsRejected = true
		stored.IsActive = false
		stored.ApprovalStatus = models.ApprovalRejected
		stored.RejectionReason = &rej.Reason
		return stored, nil
	}

	l, err := f.svc.RejectLobbyist(context.Background(), "admin-1", "lob-1", "  Incomplete bio ", "incomplete_profile")

	require.NoError(t, err)
	assert.Equal(t, 2, l.RejectionCount)
	assert.False(t, l.IsVisible())
	assert.Equal(t, 2, f.auditor.Last().Metadata["rejection_count"])
	require.Len(t, f.notifier.Sent, 1)
	assert.Equal(t, EmailProfileRejected, f.notifier.Sent[0].Kind)
	assert.Equal(t, "Incomplete bio", f.notifier.Sent[0].Data.Reason)
}

func TestModerationService_RejectLobbyist_EmailFallsBackToOwner(t *testing.T) {
	f := newModerationFixture()
	f.lobbyists.RejectFunc = func(context.Context, models.Rejection) (*models.Lobbyist, error) {
		l := NewTestLobbyist("lob-1", "user-7")
		l.Email = nil
		return l, nil
	}

	_, err := f.svc.RejectLobbyist(context.Background(), "admin-1", "lob-1", "Needs a photo", "other")

	require.NoError(t, err)
	require.Len(t, f.notifier.Sent, 1)
	assert.Equal(t, "user-7@example.com", f.notifier.Sent[0].To)
}

func TestModerationService_ClaimDecisions(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		f := newModerationFixture()
		f.claims.ApproveFunc = func(_ context.Context, d models.Decision) (*models.ClaimRequest, error) {
			assert.Equal(t, "admin-1", d.AdminID)
			return &models.ClaimRequest{ID: d.RequestID, LobbyistID: "lob-1", UserID: "user-1",
				Email: "jane@example.com", FirstName: "Jane", Status: models.RequestApproved}, nil
		}

		claim, err := f.svc.ApproveClaim(context.Background(), "admin-1", "claim-1")

		require.NoError(t, err)
		assert.Equal(t, models.RequestApproved, claim.Status)
		assert.Equal(t, []string{EmailClaimApproved}, f.notifier.Kinds())
	})

	t.Run("approve race with another claim", func(t *testing.T) {
		f := newModerationFixture()
		f.claims.ApproveFunc = func(context.Context, models.Decision) (*models.ClaimRequest, error) {
			return nil, models.ErrAlreadyClaimed
		}

		_, err := f.svc.ApproveClaim(context.Background(), "admin-1", "claim-1")

		assert.ErrorIs(t, err, models.ErrAlreadyClaimed)
		assert.Empty(t, f.auditor.Entries)
	})

	t.Run("claimant owns another profile", func(t *testing.T) {
		for _, repoErr := range []error{models.ErrProfileExists, models.ErrConflict} {
			f := newModerationFixture()
			f.claims.ApproveFunc = func(context.Context, models.Decision) (*models.ClaimRequest, error) {
				return nil, repoErr
			}

			_, err := f.svc.ApproveClaim(context.Background(), "admin-1", "claim-1")

			assert.ErrorIs(t, err, repoErr)
			assert.NotErrorIs(t, err, models.ErrInternalServer)
			assert.Empty(t, f.auditor.Entries)
		}
	})

	t.Run("decided twice", func(t *testing.T) {
		f := newModerationFixture()
		f.claims.ApproveFunc = func(context.Context, models.Decision) (*models.ClaimRequest, error) {
			return nil, models.ErrNotPending
		}

		_, err := f.svc.ApproveClaim(context.Background(), "admin-1", "claim-1")

		assert.ErrorIs(t, err, models.ErrNotPending)
	})

	t.Run("reject deletes document", func(t *testing.T) {
		f := newModerationFixture()
		f.documents.DeleteFunc = func(context.Context, string) error { return errors.New("bucket offline") }
		f.claims.RejectFunc = func(_ context.Context, d models.Decision) (*models.ClaimRequest, error) {
			assert.Equal(t, "Document unreadable", d.Reason)
			return &models.ClaimRequest{ID: d.RequestID, Email: "jane@example.com",
				VerificationDocKey: strPtr("verification/user-1/doc.pdf"), Status: models.RequestRejected}, nil
		}

		_, err := f.svc.RejectClaim(context.Background(), "admin-1", "claim-1", "Document unreadable")

		require.NoError(t, err)
		assert.Equal(t, []string{"verification/user-1/doc.pdf"}, f.documents.Deleted)
		assert.Equal(t, []string{EmailClaimRejected}, f.notifier.Kinds())
	})

	t.Run("store failure hidden", func(t *testing.T) {
		f := newModerationFixture()
		f.claims.RejectFunc = func(context.Context, models.Decision) (*models.ClaimRequest, error) {
			return nil, errors.New("connection reset")
		}

		_, err := f.svc.RejectClaim(context.Background(), "admin-1", "claim-1", "Document unreadable")

		assert.ErrorIs(t, err, models.ErrInternalServer)
	})
}

func TestModerationService_RoleUpgradeDecisions(t *testing.T) {
	f := newModerationFixture()
	f.upgrades.ApproveFunc = func(_ context.Context, d models.Decision) (*models.RoleUpgradeRequest, error) {
		return &models.RoleUpgradeRequest{ID: d.RequestID, UserID: "user-1", RequestedRole: models.RoleLobbyist}, nil
	}
	f.upgrades.RejectFunc = func(_ context.Context, d models.Decision) (*models.RoleUpgradeRequest, error) {
		return &models.RoleUpgradeRequest{ID: d.RequestID, UserID: "user-1"}, nil
	}

	_, err := f.svc.ApproveRoleUpgrade(context.Background(), "admin-1", "up-1")
	require.NoError(t, err)

	_, err = f.svc.RejectRoleUpgrade(context.Background(), "admin-1", "up-2", "No")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.RejectRoleUpgrade(context.Background(), "admin-1", "up-2", "Not on the TEC register")
	require.NoError(t, err)

	assert.Equal(t, []string{EmailRoleUpgradeApproved, EmailRoleUpgradeRejected}, f.notifier.Kinds())
	assert.Equal(t, "user-1@example.com", f.notifier.Sent[0].To)
}

func TestModerationService_ApproveMerge(t *testing.T) {
	f := newModerationFixture()
	f.merges.ApproveFunc = func(_ context.Context, d models.Decision) (*repositories.MergeResult, error) {
		return &repositories.MergeResult{
			Request:        &models.MergeRequest{ID: d.RequestID, RequesterID: "user-1", PrimaryID: "lob-1", DuplicateID: "lob-2"},
			ClientsMoved:   3,
			FavoritesMoved: 5,
		}, nil
	}
	f.lobbyists.GetByIDFunc = func(_ context.Context, id string) (*models.Lobbyist, error) {
		return NewTestLobbyist(id, "user-1"), nil
	}

	res, err := f.svc.ApproveMerge(context.Background(), "admin-1", "merge-1")

	require.NoError(t, err)
	assert.EqualValues(t, 3, res.ClientsMoved)
	entry := f.auditor.Last()
	assert.Equal(t, models.AuditApproveMerge, entry.Action)
	assert.Equal(t, "lob-2", entry.Metadata["duplicate_lobbyist_id"])
	require.Len(t, f.notifier.Sent, 1)
	assert.Equal(t, EmailMergeApproved, f.notifier.Sent[0].Kind)
}

func TestModerationService_ListPending(t *testing.T) {
	f := newModerationFixture()
	f.lobbyists.ListPendingFunc = func(_ context.Context, limit int) ([]models.Lobbyist, error) {
		assert.Equal(t, pendingQueueLimit, limit)
		return []models.Lobbyist{*NewTestLobbyist("lob-1", "")}, nil
	}
	f.claims.ListPendingFunc = func(context.Context, int) ([]*models.ClaimRequest, error) {
		t.Fatal("claims queue not requested")
		return nil, nil
	}

	q, err := f.svc.ListPending(context.Background(), QueueLobbyists)
	require.NoError(t, err)
	assert.Len(t, q.Lobbyists, 1)
	assert.Nil(t, q.Claims)

	_, err = f.svc.ListPending(context.Background(), "spam")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestModerationService_ListPending_All(t *testing.T) {
	f := newModerationFixture()

	q, err := f.svc.ListPending(context.Background(), "")

	require.NoError(t, err)
	assert.NotNil(t, q.Lobbyists)
	assert.NotNil(t, q.Claims)
	assert.NotNil(t, q.RoleUpgrades)
	assert.NotNil(t, q.Merges)
}

func TestModerationService_GetClaimDocumentURL(t *testing.T) {
	f := newModerationFixture()
	f.claims.GetByIDFunc = func(_ context.Context, id string) (*models.ClaimRequest, error) {
		if id == "claim-nodoc" {
			return &models.ClaimRequest{ID: id}, nil
		}
		return &models.ClaimRequest{ID: id, VerificationDocKey: strPtr("verification/u/doc.pdf")}, nil
	}
	var gotTTL time.Duration
	f.documents.URLFunc = func(_ context.Context, key string, ttl time.Duration) (string, error) {
		gotTTL = ttl
		return "https://signed.test/" + key, nil
	}

	url, err := f.svc.GetClaimDocumentURL(context.Background(), "claim-1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.test/verification/u/doc.pdf", url)
	assert.Equal(t, 5*time.Minute, gotTTL)

	_, err = f.svc.GetClaimDocumentURL(context.Background(), "claim-nodoc")
	assert.ErrorIs(t, err, models.ErrNotFound)

	f.documents.URLFunc = func(context.Context, string, time.Duration) (string, error) {
		return "", errors.New("presign failed")
	}
	_, err = f.svc.GetClaimDocumentURL(context.Background(), "claim-1")
	assert.ErrorIs(t, err, models.ErrDownstream)
}
