package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/ai"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService_ListLobbyists(t *testing.T) {
	tests := []struct {
		name   string
		filter models.DirectoryFilter
		want   repositories.DirectoryQuery
	}{
		{
			name:   "defaults",
			filter: models.DirectoryFilter{},
			want:   repositories.DirectoryQuery{Limit: 20, Offset: 0},
		},
		{
			name:   "known city slug resolves to stored name",
			filter: models.DirectoryFilter{City: "fort-worth", Page: 3, PerPage: 10},
			want:   repositories.DirectoryQuery{City: "Fort Worth", Limit: 10, Offset: 20},
		},
		{
			name:   "unknown subject slug is title cased",
			filter: models.DirectoryFilter{Subject: "water-rights", Tier: models.TierFeatured},
			want:   repositories.DirectoryQuery{Subject: "Water Rights", Tier: models.TierFeatured, Limit: 20},
		},
		{
			name:   "page size capped",
			filter: models.DirectoryFilter{PerPage: 500, Page: -1},
			want:   repositories.DirectoryQuery{Limit: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got repositories.DirectoryQuery
			store := &MockLobbyistStore{
				DistinctCitiesFunc: func(context.Context) ([]string, error) {
					return []string{"Austin", "Fort Worth"}, nil
				},
				ListDirectoryFunc: func(_ context.Context, q repositories.DirectoryQuery) ([]models.Lobbyist, int, error) {
					got = q
					return []models.Lobbyist{*NewTestLobbyist("lob-1", "")}, 1, nil
				},
			}
			svc := NewSearchService(store, nil, testLogger())

			page, err := svc.ListLobbyists(context.Background(), tt.filter)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, page.Total)
		})
	}
}

func TestSearchService_ListLobbyists_UnknownTier(t *testing.T) {
	svc := NewSearchService(&MockLobbyistStore{}, nil, testLogger())

	_, err := svc.ListLobbyists(context.Background(), models.DirectoryFilter{Tier: "gold"})

	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSearchService_GetBySlug(t *testing.T) {
	pending := NewTestLobbyist("lob-2", "")
	pending.ApprovalStatus = models.ApprovalPending
	inactive := NewTestLobbyist("lob-3", "")
	inactive.IsActive = false

	tests := []struct {
		name    string
		profile *models.Lobbyist
		wantErr error
	}{
		{"visible", NewTestLobbyist("lob-1", ""), nil},
		{"pending hidden", pending, models.ErrNotFound},
		{"inactive hidden", inactive, models.ErrNotFound},
		{"missing", nil, models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viewed := 0
			store := &MockLobbyistStore{
				IncrementViewCountFunc: func(context.Context, string) error {
					viewed++
					return nil
				},
				ListClientsFunc: func(context.Context, string) ([]models.Client, error) {
					return nil, errors.New("clients table locked")
				},
			}
			if tt.profile != nil {
				store.GetBySlugFunc = func(_ context.Context, s string) (*models.Lobbyist, error) {
					assert.Equal(t, "jane-doe", s)
					return tt.profile, nil
				}
			}
			svc := NewSearchService(store, nil, testLogger())

			view, err := svc.GetBySlug(context.Background(), " Jane-Doe ")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, viewed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, viewed)
			assert.Empty(t, view.Clients)
		})
	}
}

func TestSearchService_AISearch(t *testing.T) {
	t.Run("model criteria", func(t *testing.T) {
		var params models.SearchParams
		store := &MockLobbyistStore{SearchFunc: func(_ context.Context, p models.SearchParams) ([]models.SearchResult, error) {
			params = p
			return []models.SearchResult{{ID: "lob-1"}}, nil
		}}
		extractor := &MockExtractor{ExtractFunc: func(context.Context, string) (*ai.Criteria, error) {
			return &ai.Criteria{Keywords: []string{"oil", "gas"}, Cities: []string{"Houston"}, SubjectAreas: []string{"Energy"}}, nil
		}}
		svc := NewSearchService(store, extractor, testLogger())

		res, err := svc.AISearch(context.Background(), "someone in Houston who knows oil and gas")

		require.NoError(t, err)
		assert.True(t, res.AIAssisted)
		assert.Equal(t, "oil gas", params.Query)
		assert.Equal(t, "Houston", params.City)
		assert.Equal(t, "Energy", params.Subject)
		assert.Len(t, res.Results, 1)
	})

	t.Run("falls back on model failure", func(t *testing.T) {
		var params models.SearchParams
		store := &MockLobbyistStore{SearchFunc: func(_ context.Context, p models.SearchParams) ([]models.SearchResult, error) {
			params = p
			return []models.SearchResult{}, nil
		}}
		extractor := &MockExtractor{ExtractFunc: func(context.Context, string) (*ai.Criteria, error) {
			return nil, errors.New("overloaded")
		}}
		svc := NewSearchService(store, extractor, testLogger())

		res, err := svc.AISearch(context.Background(), "water law")

		require.NoError(t, err)
		assert.False(t, res.AIAssisted)
		assert.Nil(t, res.Criteria)
		assert.Equal(t, "water law", params.Query)
	})

	t.Run("no extractor configured", func(t *testing.T) {
		svc := NewSearchService(&MockLobbyistStore{}, nil, testLogger())

		res, err := svc.AISearch(context.Background(), "water law")

		require.NoError(t, err)
		assert.False(t, res.AIAssisted)
	})

	t.Run("empty query", func(t *testing.T) {
		svc := NewSearchService(&MockLobbyistStore{}, nil, testLogger())

		_, err := svc.AISearch(context.Background(), "   ")

		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestSearchService_Search_ClampsLimit(t *testing.T) {
	store := &MockLobbyistStore{SearchFunc: func(_ context.Context, p models.SearchParams) ([]models.SearchResult, error) {
		assert.Equal(t, 100, p.Limit)
		assert.Equal(t, 0, p.Offset)
		assert.Equal(t, "energy", p.Query)
		return nil, nil
	}}
	svc := NewSearchService(store, nil, testLogger())

	_, err := svc.Search(context.Background(), models.SearchParams{Query: " energy ", Limit: 1000, Offset: -3})

	assert.NoError(t, err)
}
