package services

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/ai"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/repositories"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/slug"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 50
	maxSearchResults = 100
)

type DirectoryStore interface {
	ListDirectory(ctx context.Context, q repositories.DirectoryQuery) ([]models.Lobbyist, int, error)
	GetBySlug(ctx context.Context, slug string) (*models.Lobbyist, error)
	IncrementViewCount(ctx context.Context, id string) error
	Search(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error)
	DistinctCities(ctx context.Context) ([]string, error)
	DistinctSubjects(ctx context.Context) ([]string, error)
	ListClients(ctx context.Context, lobbyistID string) ([]models.Client, error)
}

// CriteriaExtractor turns a natural-language query into search criteria.
type CriteriaExtractor interface {
	Extract(ctx context.Context, query string) (*ai.Criteria, error)
}

// SearchService serves the public directory and search.
type SearchService struct {
	directory DirectoryStore
	extractor CriteriaExtractor
	logger    *slog.Logger
}

// NewSearchService accepts a nil extractor; AI search then always falls back.
func NewSearchService(directory DirectoryStore, extractor CriteriaExtractor, logger *slog.Logger) *SearchService {
	return &SearchService{directory: directory, extractor: extractor, logger: logger}
}

// ListLobbyists returns a page of visible profiles filtered by city and
// subject slugs and tier.
func (s *SearchService) ListLobbyists(ctx context.Context, f models.DirectoryFilter) (*models.DirectoryPage, error) {
	if f.Tier != "" && !slices.Contains(models.Tiers, f.Tier) {
		return nil, models.NewValidationError("tier", "unknown tier")
	}
	perPage := clamp(f.PerPage, 1, maxPageSize, defaultPageSize)
	page := max(f.Page, 1)

	q := repositories.DirectoryQuery{
		Tier:   f.Tier,
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}

	var err error
	if f.City != "" {
		if q.City, err = s.resolve(ctx, f.City, s.directory.DistinctCities); err != nil {
			return nil, err
		}
	}
	if f.Subject != "" {
		if q.Subject, err = s.resolve(ctx, f.Subject, s.directory.DistinctSubjects); err != nil {
			return nil, err
		}
	}

	lobbyists, total, err := s.directory.ListDirectory(ctx, q)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list directory", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &models.DirectoryPage{Lobbyists: lobbyists, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *SearchService) resolve(ctx context.Context, value string, known func(context.Context) ([]string, error)) (string, error) {
	names, err := known(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load slug names", slog.Any("error", err))
		return "", models.ErrInternalServer
	}
	return slug.Resolve(value, names), nil
}

// ProfileView is a public profile page.
type ProfileView struct {
	*models.Lobbyist
	Clients []models.Client `json:"clients"`
}

// GetBySlug returns a visible profile and counts the view.
func (s *SearchService) GetBySlug(ctx context.Context, profileSlug string) (*ProfileView, error) {
	l, err := s.directory.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(profileSlug)))
	if err != nil {
		return nil, lookupError(ctx, s.logger, "lobbyist slug", profileSlug, err)
	}
	if !l.IsVisible() {
		return nil, models.ErrNotFound
	}

	if err := s.directory.IncrementViewCount(ctx, l.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to increment view count", slog.String("lobbyist_id", l.ID), slog.Any("error", err))
	}

	clients, err := s.directory.ListClients(ctx, l.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load clients", slog.String("lobbyist_id", l.ID), slog.Any("error", err))
		clients = []models.Client{}
	}
	return &ProfileView{Lobbyist: l, Clients: clients}, nil
}

func (s *SearchService) Search(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error) {
	p.Query = strings.TrimSpace(p.Query)
	p.Limit = clamp(p.Limit, 1, maxSearchResults, defaultPageSize)
	if p.Offset < 0 {
		p.Offset = 0
	}

	results, err := s.directory.Search(ctx, p)
	if err != nil {
		s.logger.ErrorContext(ctx, "search failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return results, nil
}

// AISearchResult reports whether the language model shaped the query.
type AISearchResult struct {
	Results    []models.SearchResult `json:"results"`
	Criteria   *ai.Criteria          `json:"criteria,omitempty"`
	AIAssisted bool                  `json:"ai_assisted"`
}

// AISearch extracts structured criteria from a free-text query. When the
// model is unavailable the raw text is searched instead.
func (s *SearchService) AISearch(ctx context.Context, query string) (*AISearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("query", "query is required")
	}

	if s.extractor != nil {
		criteria, err := s.extractor.Extract(ctx, query)
		if err == nil {
			p := models.SearchParams{Query: criteria.Query(), Limit: defaultPageSize}
			if len(criteria.Cities) > 0 {
				p.City = criteria.Cities[0]
			}
			if len(criteria.SubjectAreas) > 0 {
				p.Subject = criteria.SubjectAreas[0]
			}

			results, err := s.Search(ctx, p)
			if err != nil {
				return nil, err
			}
			return &AISearchResult{Results: results, Criteria: criteria, AIAssisted: true}, nil
		}
		s.logger.WarnContext(ctx, "criteria extraction failed, falling back to keyword search", slog.Any("error", err))
	}

	results, err := s.Search(ctx, models.SearchParams{Query: query, Limit: defaultPageSize})
	if err != nil {
		return nil, err
	}
	return &AISearchResult{Results: results, AIAssisted: false}, nil
}
