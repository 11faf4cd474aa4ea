package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/services"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
	"github.com/go-chi/chi/v5"
)

// SearchServiceInterface covers the public directory.
type SearchServiceInterface interface {
	ListLobbyists(ctx context.Context, f models.DirectoryFilter) (*models.DirectoryPage, error)
	GetBySlug(ctx context.Context, profileSlug string) (*services.ProfileView, error)
	Search(ctx context.Context, p models.SearchParams) ([]models.SearchResult, error)
	AISearch(ctx context.Context, query string) (*services.AISearchResult, error)
}

// SearchHandler serves the public directory and search.
type SearchHandler struct {
	service SearchServiceInterface
	logger  *slog.Logger
}

func NewSearchHandler(service SearchServiceInterface, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{service: service, logger: logger}
}

// AISearchRequest is a free-text search.
type AISearchRequest struct {
	Query string `json:"query" validate:"required,max=500"`
}

// ListLobbyists handles GET /api/lobbyists?city=&subject=&tier=&page=&per_page=
func (h *SearchHandler) ListLobbyists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.ListLobbyists(r.Context(), models.DirectoryFilter{
		City:    q.Get("city"),
		Subject: q.Get("subject"),
		Tier:    q.Get("tier"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 0),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, page)
}

// GetBySlug handles GET /api/lobbyists/{slug}
func (h *SearchHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, view)
}

// Search handles GET /api/search?q=&city=&subject=&limit=&offset=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := h.service.Search(r.Context(), models.SearchParams{
		Query:   q.Get("q"),
		City:    q.Get("city"),
		Subject: q.Get("subject"),
		Limit:   queryInt(r, "limit", 0),
		Offset:  queryInt(r, "offset", 0),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

// AISearch handles POST /api/ai-search
func (h *SearchHandler) AISearch(w http.ResponseWriter, r *http.Request) {
	var req AISearchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.service.AISearch(r.Context(), req.Query)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, res)
}
