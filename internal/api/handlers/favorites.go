package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fairweather/internal/core"
	"fairweather/internal/types"
)

const warmTimeout = 15 * time.Second

// FavoriteStore persists favorite locations per owner.
type FavoriteStore interface {
	List(ctx context.Context, owner string) ([]types.Favorite, error)
	Create(ctx context.Context, owner string, f *types.Favorite) error
	Delete(ctx context.Context, owner, id string) error
}

// CacheWarmer refreshes the cached forecast of a location.
type CacheWarmer interface {
	Refresh(ctx context.Context, loc types.Location) error
}

// FavoriteRequest is the body of POST /v1/favorites.
type FavoriteRequest struct {
	Name string  `json:"name" validate:"required,max=80"`
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// FavoriteHandler manages the caller's favorite locations. A new favorite's
// forecast is warmed in the background when a warmer is configured.
type FavoriteHandler struct {
	store     FavoriteStore
	warmer    CacheWarmer
	validator *core.Validator
	clock     types.Clock
	logger    *slog.Logger
	newID     func() string
}

func NewFavoriteHandler(
	store FavoriteStore,
	warmer CacheWarmer,
	val *core.Validator,
	clock types.Clock,
	logger *slog.Logger,
) *FavoriteHandler {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FavoriteHandler{
		store:     store,
		warmer:    warmer,
		validator: val,
		clock:     clock,
		logger:    logger,
		newID:     func() string { return "fav_" + uuid.NewString() },
	}
}

// RegisterRoutes mounts the favorite endpoints under /v1/favorites.
func (h *FavoriteHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Delete("/{id}", h.HandleDelete)
}

// HandleList handles GET /v1/favorites.
func (h *FavoriteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	owner, err := core.RequireClientID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	favs, err := h.store.List(r.Context(), owner)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: favs})
}

// HandleCreate handles POST /v1/favorites.
func (h *FavoriteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner, err := core.RequireClientID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	var req FavoriteRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	fav := &types.Favorite{
		ID:        h.newID(),
		Name:      req.Name,
		Location:  types.Location{Lat: req.Lat, Lon: req.Lon},
		CreatedAt: h.clock.Now().UTC(),
	}
	if err := h.store.Create(r.Context(), owner, fav); err != nil {
		core.Error(w, r, err)
		return
	}
	h.warm(r.Context(), fav.Location)
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: fav})
}

// HandleDelete handles DELETE /v1/favorites/{id}.
func (h *FavoriteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner, err := core.RequireClientID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.store.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		core.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FavoriteHandler) warm(ctx context.Context, loc types.Location) {
	if h.warmer == nil {
		return
	}
	logger := types.LoggerFromContext(ctx, h.logger)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), warmTimeout)
	go func() {
		defer cancel()
		if err := h.warmer.Refresh(ctx, loc); err != nil {
			logger.Warn("favorite warm-up failed", "location", loc.String(), "error", err)
		}
	}()
}
