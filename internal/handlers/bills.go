package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	pkghttp "github.com/ezhulati/texaslobbyorg-sub001/pkg/http"
	"github.com/go-chi/chi/v5"
)

// BillServiceInterface covers per-user bill tags and the watchlist.
type BillServiceInterface interface {
	ListTags(ctx context.Context, userID, billID string) ([]models.BillTag, error)
	AddTag(ctx context.Context, userID, billID, tag string) (*models.BillTag, error)
	ToggleWatch(ctx context.Context, userID, billID string, notify bool) (bool, error)
	ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
}

// FavoriteServiceInterface covers saved profiles.
type FavoriteServiceInterface interface {
	ToggleFavorite(ctx context.Context, userID, lobbyistID string) (bool, error)
	ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error)
}

// BillHandler handles bill tags, watchlists and favorites.
type BillHandler struct {
	bills     BillServiceInterface
	favorites FavoriteServiceInterface
	logger    *slog.Logger
}

func NewBillHandler(bills BillServiceInterface, favorites FavoriteServiceInterface, logger *slog.Logger) *BillHandler {
	return &BillHandler{bills: bills, favorites: favorites, logger: logger}
}

// AddTagRequest labels a bill for the caller.
type AddTagRequest struct {
	Tag string `json:"tag" validate:"required"`
}

// WatchRequest toggles a bill on the caller's watchlist.
type WatchRequest struct {
	Notify bool `json:"notify"`
}

// ToggleFavoriteRequest names the profile to save or unsave.
type ToggleFavoriteRequest struct {
	LobbyistID string `json:"lobbyist_id" validate:"required"`
}

// ListTags handles GET /api/bills/{billId}/tags
func (h *BillHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	tags, err := h.bills.ListTags(r.Context(), user.ID, chi.URLParam(r, "billId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// AddTag handles POST /api/bills/{billId}/tags
func (h *BillHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req AddTagRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tag, err := h.bills.AddTag(r.Context(), user.ID, chi.URLParam(r, "billId"), req.Tag)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, tag)
}

// ToggleWatch handles POST /api/bills/{billId}/watch
func (h *BillHandler) ToggleWatch(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	req := WatchRequest{Notify: true}
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req) {
		return
	}

	watching, err := h.bills.ToggleWatch(r.Context(), user.ID, chi.URLParam(r, "billId"), req.Notify)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"watching": watching})
}

// Watchlist handles GET /api/watchlist
func (h *BillHandler) Watchlist(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	entries, err := h.bills.ListWatchlist(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// ToggleFavorite handles POST /api/favorites/toggle
func (h *BillHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req ToggleFavoriteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	favorited, err := h.favorites.ToggleFavorite(r.Context(), user.ID, req.LobbyistID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}

// Favorites handles GET /api/favorites
func (h *BillHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	favs, err := h.favorites.ListFavorites(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"favorites": favs})
}
