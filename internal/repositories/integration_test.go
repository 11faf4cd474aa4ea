package repositories

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/database"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testDB is shared by every integration test in the package.
var testDB *database.DB

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, pool, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration setup failed: %v\n", err)
		os.Exit(1)
	}
	testDB = &database.DB{Pool: pool}

	code := m.Run()

	pool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func startPostgres(ctx context.Context) (testcontainers.Container, *pgxpool.Pool, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("texaslobby"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("failed to create pool: %w", err)
	}

	goose.SetLogger(log.New(io.Discard, "", 0))
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, nil, err
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	return container, pool, nil
}

func requireDB(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("set INTEGRATION_TESTS=1 to run database tests")
	}
	ctx := context.Background()
	_, err := testDB.Pool.Exec(ctx, `TRUNCATE users, lobbyists, bills CASCADE`)
	require.NoError(t, err)
}

func seedUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	u, err := NewUserRepository(testDB).Create(context.Background(), &models.User{
		Email:        email,
		PasswordHash: "x",
		FullName:     "Test User",
		Role:         role,
	})
	require.NoError(t, err)
	return u
}

func seedProfile(t *testing.T, owner *models.User, slug string) *models.Lobbyist {
	t.Helper()
	l, err := NewLobbyistRepository(testDB).CreateForUser(context.Background(), models.NewLobbyist{
		UserID: owner.ID,
		Slug:   slug,
		Content: models.ProfileContent{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     owner.Email,
			Cities:    []string{"Austin"},
		},
	})
	require.NoError(t, err)
	return l
}

func seedUnclaimedProfile(t *testing.T, slug string) string {
	t.Helper()
	var id string
	err := testDB.Pool.QueryRow(context.Background(), `
		INSERT INTO lobbyists (slug, first_name, last_name, is_active, approval_status, is_pending)
		VALUES ($1, 'John', 'Roe', TRUE, 'approved', FALSE)
		RETURNING id`, slug).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestIntegration_CreateForUserPromotesSearcher(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	owner := seedUser(t, "jane@example.com", models.RoleSearcher)
	l := seedProfile(t, owner, "jane-doe")

	assert.Equal(t, models.ApprovalPending, l.ApprovalStatus)
	assert.False(t, l.IsActive)
	assert.True(t, l.IsClaimed)
	assert.True(t, l.IsOwnedBy(owner.ID))

	u, err := NewUserRepository(testDB).GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLobbyist, u.Role)

	_, err = NewLobbyistRepository(testDB).CreateForUser(ctx, models.NewLobbyist{
		UserID: owner.ID, Slug: "jane-doe-x1y2z3",
		Content: models.ProfileContent{FirstName: "Jane", LastName: "Doe"},
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestIntegration_RejectionCountOnlyGrowsOnReject(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewLobbyistRepository(testDB)

	admin := seedUser(t, "admin@example.com", models.RoleAdmin)
	owner := seedUser(t, "jane@example.com", models.RoleSearcher)
	l := seedProfile(t, owner, "jane-doe")

	rejected, err := repo.Reject(ctx, models.Rejection{
		LobbyistID: l.ID, AdminID: admin.ID, Reason: "incomplete bio", Category: "incomplete_profile", At: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rejected.RejectionCount)
	assert.True(t, rejected.IsRejected)
	assert.Equal(t, "incomplete bio", *rejected.RejectionReason)

	resubmitted, err := repo.Resubmit(ctx, models.Resubmission{
		LobbyistID:    l.ID,
		Content:       models.ProfileContent{FirstName: "Jane", LastName: "Doe", Bio: "Twenty years at the Capitol."},
		PendingReason: "Resubmitted after rejection (attempt 1 of 3)",
		At:            time.Now(),
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, resubmitted.RejectionCount)
	assert.Equal(t, 1, resubmitted.ResubmissionCount)
	assert.Equal(t, models.ApprovalPending, resubmitted.ApprovalStatus)

	_, err = repo.Resubmit(ctx, models.Resubmission{LobbyistID: l.ID, At: time.Now()}, 0)
	assert.ErrorIs(t, err, models.ErrConflict)

	approved, err := repo.Approve(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, approved.RejectionCount)
	assert.True(t, approved.IsVisible())
	assert.Nil(t, approved.RejectionReason)
}

func TestIntegration_LastAdminCannotBeSuspendedDemotedOrDeleted(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	admin := seedUser(t, "admin@example.com", models.RoleAdmin)
	users := NewUserRepository(testDB)
	suspensions := NewSuspensionRepository(testDB)

	_, err := suspensions.Suspend(ctx, models.NewSuspension{
		UserID: admin.ID, SuspendedBy: admin.ID, Reason: "0123456789", Category: "other", TokenKey: "rotated",
	})
	assert.ErrorIs(t, err, models.ErrLastAdmin)

	role := models.RoleSearcher
	_, err = users.Update(ctx, admin.ID, models.UserUpdate{Role: &role})
	assert.ErrorIs(t, err, models.ErrLastAdmin)

	assert.ErrorIs(t, users.Delete(ctx, admin.ID), models.ErrLastAdmin)

	after, err := users.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, after.Role)
	assert.False(t, after.IsSuspended)
	assert.Equal(t, admin.TokenKey, after.TokenKey)

	second := seedUser(t, "admin2@example.com", models.RoleAdmin)
	s, err := suspensions.Suspend(ctx, models.NewSuspension{
		UserID: admin.ID, SuspendedBy: second.ID, Reason: "0123456789", Category: "other", TokenKey: "rotated",
	})
	require.NoError(t, err)
	assert.True(t, s.IsActive)

	after, err = users.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, after.IsSuspended)
	assert.Equal(t, "rotated", after.TokenKey)

	lifted, err := suspensions.Unsuspend(ctx, admin.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), lifted)
}

func TestIntegration_ClaimApproval(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	admin := seedUser(t, "admin@example.com", models.RoleAdmin)
	claimant := seedUser(t, "john@example.com", models.RoleSearcher)
	other := seedUser(t, "other@example.com", models.RoleSearcher)
	profileID := seedUnclaimedProfile(t, "john-roe")

	claims := NewClaimRepository(testDB)
	first, err := claims.Create(ctx, &models.ClaimRequest{
		UserID: claimant.ID, LobbyistID: profileID, FirstName: "John", LastName: "Roe", Email: claimant.Email,
	})
	require.NoError(t, err)
	second, err := claims.Create(ctx, &models.ClaimRequest{
		UserID: other.ID, LobbyistID: profileID, FirstName: "John", LastName: "Roe", Email: other.Email,
	})
	require.NoError(t, err)

	pending, err := claims.HasPending(ctx, claimant.ID, profileID)
	require.NoError(t, err)
	assert.True(t, pending)

	approved, err := claims.Approve(ctx, models.Decision{RequestID: first.ID, AdminID: admin.ID, At: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, approved.Status)

	l, err := NewLobbyistRepository(testDB).GetByID(ctx, profileID)
	require.NoError(t, err)
	assert.True(t, l.IsClaimed)
	assert.True(t, l.IsOwnedBy(claimant.ID))

	u, err := NewUserRepository(testDB).GetByID(ctx, claimant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLobbyist, u.Role)

	_, err = claims.Approve(ctx, models.Decision{RequestID: first.ID, AdminID: admin.ID, At: time.Now()})
	assert.ErrorIs(t, err, models.ErrNotPending)

	_, err = claims.Approve(ctx, models.Decision{RequestID: second.ID, AdminID: admin.ID, At: time.Now()})
	assert.ErrorIs(t, err, models.ErrAlreadyClaimed)

	// the failed approval left the losing claim untouched
	still, err := claims.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, still.Status)
}

func TestIntegration_ClaimApprovalRefusesExistingOwner(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	admin := seedUser(t, "admin@example.com", models.RoleAdmin)
	owner := seedUser(t, "jane@example.com", models.RoleSearcher)
	seedProfile(t, owner, "jane-doe")
	profileID := seedUnclaimedProfile(t, "john-roe")

	claims := NewClaimRepository(testDB)
	claim, err := claims.Create(ctx, &models.ClaimRequest{
		UserID: owner.ID, LobbyistID: profileID, FirstName: "Jane", LastName: "Doe", Email: owner.Email,
	})
	require.NoError(t, err)

	_, err = claims.Approve(ctx, models.Decision{RequestID: claim.ID, AdminID: admin.ID, At: time.Now()})
	assert.ErrorIs(t, err, models.ErrProfileExists)

	still, err := claims.GetByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, still.Status)

	rejected, err := claims.Reject(ctx, models.Decision{RequestID: claim.ID, AdminID: admin.ID, Reason: "Already owns a profile", At: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, rejected.Status)
}

func TestIntegration_MergeMovesClientsAndFavorites(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	admin := seedUser(t, "admin@example.com", models.RoleAdmin)
	owner := seedUser(t, "jane@example.com", models.RoleSearcher)
	fan := seedUser(t, "fan@example.com", models.RoleSearcher)
	primary := seedProfile(t, owner, "jane-doe")
	duplicateID := seedUnclaimedProfile(t, "jane-doe-old")

	_, err := testDB.Pool.Exec(ctx,
		`INSERT INTO clients (lobbyist_id, name, year) VALUES ($1, 'Acme Energy', 2025)`, duplicateID)
	require.NoError(t, err)

	favs := NewFavoriteRepository(testDB)
	_, err = favs.Toggle(ctx, fan.ID, duplicateID)
	require.NoError(t, err)
	_, err = favs.Toggle(ctx, fan.ID, primary.ID)
	require.NoError(t, err)

	merges := NewMergeRepository(testDB)
	req, err := merges.Create(ctx, &models.MergeRequest{
		RequesterID: owner.ID, PrimaryID: primary.ID, DuplicateID: duplicateID,
	})
	require.NoError(t, err)

	dup, err := merges.HasPending(ctx, duplicateID, primary.ID)
	require.NoError(t, err)
	assert.True(t, dup)

	res, err := merges.Approve(ctx, models.Decision{RequestID: req.ID, AdminID: admin.ID, At: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ClientsMoved)
	assert.Equal(t, int64(0), res.FavoritesMoved)

	lobbyists := NewLobbyistRepository(testDB)
	clients, err := lobbyists.ListClients(ctx, primary.ID)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme Energy", clients[0].Name)

	old, err := lobbyists.GetByID(ctx, duplicateID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)
	require.NotNil(t, old.MergedInto)
	assert.Equal(t, primary.ID, *old.MergedInto)

	list, err := favs.ListByUser(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, primary.ID, list[0].LobbyistID)
}

func TestIntegration_ApplyTierWritesBothRows(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	owner := seedUser(t, "jane@example.com", models.RoleSearcher)
	l := seedProfile(t, owner, "jane-doe")

	customer := "cus_123"
	sub := "sub_123"
	users := NewUserRepository(testDB)
	require.NoError(t, users.ApplyTier(ctx, models.TierChange{
		UserID: owner.ID, Tier: models.TierFeatured, CustomerID: &customer, SubscriptionID: &sub,
	}))

	u, err := users.GetByStripeCustomerID(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, models.TierFeatured, u.SubscriptionTier)

	after, err := NewLobbyistRepository(testDB).GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierFeatured, after.SubscriptionTier)
}

func TestIntegration_SearchFunctionRanksVisibleOnly(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	owner := seedUser(t, "jane@example.com", models.RoleSearcher)
	hidden := seedProfile(t, owner, "jane-doe")
	visibleID := seedUnclaimedProfile(t, "john-roe")

	results, err := NewLobbyistRepository(testDB).Search(ctx, models.SearchParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, visibleID, results[0].ID)
	assert.NotEqual(t, hidden.ID, results[0].ID)

	require.NoError(t, NewLobbyistRepository(testDB).IncrementViewCount(ctx, visibleID))
	l, err := NewLobbyistRepository(testDB).GetByID(ctx, visibleID)
	require.NoError(t, err)
	assert.Equal(t, 1, l.ViewCount)
}

func TestIntegration_SearchTreatsWildcardsLiterally(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	seedUnclaimedProfile(t, "john-roe")
	repo := NewLobbyistRepository(testDB)

	for _, q := range []string{"%", "_", "J%n"} {
		results, err := repo.Search(ctx, models.SearchParams{Query: q, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, results, q)
	}

	results, err := repo.Search(ctx, models.SearchParams{Query: "john r", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
