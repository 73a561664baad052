package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fairweather/internal/activities"
	"fairweather/internal/core"
	"fairweather/internal/types"
)

// CatalogService is the activity catalog as seen by the HTTP layer.
type CatalogService interface {
	Presets() []types.Activity
	List(ctx context.Context, owner string) ([]types.Activity, error)
	Get(ctx context.Context, owner, id string) (*types.Activity, error)
	Create(ctx context.Context, owner string, in activities.Input) (*types.Activity, error)
	Update(ctx context.Context, owner, id string, in activities.Input) (*types.Activity, error)
	Delete(ctx context.Context, owner, id string) error
	Starred(ctx context.Context, owner string) ([]string, error)
	Star(ctx context.Context, owner, id string) ([]string, error)
	Unstar(ctx context.Context, owner, id string) ([]string, error)
}

// StarredResponse lists starred activity IDs in the order they were starred.
type StarredResponse struct {
	IDs []string `json:"ids"`
	Max int      `json:"max"`
}

// ActivityHandler serves the activity catalog. Reads work anonymously and
// return the presets only; writes require X-Client-ID.
type ActivityHandler struct {
	catalog   CatalogService
	validator *core.Validator
	logger    *slog.Logger
}

func NewActivityHandler(catalog CatalogService, val *core.Validator, logger *slog.Logger) *ActivityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityHandler{catalog: catalog, validator: val, logger: logger}
}

// RegisterRoutes mounts the activity endpoints under /v1/activities.
func (h *ActivityHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/starred", h.HandleStarred)
	r.Put("/{id}/star", h.HandleStar)
	r.Delete("/{id}/star", h.HandleUnstar)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
}

// HandleList handles GET /v1/activities.
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	owner := types.GetClientID(r.Context())
	if owner == "" {
		core.JSON(w, r, http.StatusOK, core.APIResponse{Data: h.catalog.Presets()})
		return
	}
	list, err := h.catalog.List(r.Context(), owner)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: list})
}

// HandleGet handles GET /v1/activities/{id}.
func (h *ActivityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.catalog.Get(r.Context(), types.GetClientID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: a})
}

// HandleCreate handles POST /v1/activities.
func (h *ActivityHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner, in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	a, err := h.catalog.Create(r.Context(), owner, in)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "custom activity created", "activity_id", a.ID, "mode", a.Rules.Mode)
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: a})
}

// HandleUpdate handles PUT /v1/activities/{id}.
func (h *ActivityHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	a, err := h.catalog.Update(r.Context(), owner, chi.URLParam(r, "id"), in)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: a})
}

// HandleDelete handles DELETE /v1/activities/{id}.
func (h *ActivityHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner, err := core.RequireClientID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.catalog.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		core.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStarred handles GET /v1/activities/starred. Anonymous callers get
// the defaults.
func (h *ActivityHandler) HandleStarred(w http.ResponseWriter, r *http.Request) {
	ids, err := h.catalog.Starred(r.Context(), types.GetClientID(r.Context()))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: StarredResponse{IDs: ids, Max: activities.MaxStarred}})
}

// HandleStar handles PUT /v1/activities/{id}/star.
func (h *ActivityHandler) HandleStar(w http.ResponseWriter, r *http.Request) {
	h.changeStar(w, r, h.catalog.Star)
}

// HandleUnstar handles DELETE /v1/activities/{id}/star.
func (h *ActivityHandler) HandleUnstar(w http.ResponseWriter, r *http.Request) {
	h.changeStar(w, r, h.catalog.Unstar)
}

func (h *ActivityHandler) changeStar(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, owner, id string) ([]string, error)) {
	owner, err := core.RequireClientID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	ids, err := change(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: StarredResponse{IDs: ids, Max: activities.MaxStarred}})
}

// decodeInput resolves the owner and a validated body. On failure the error
// response has already been written.
func (h *ActivityHandler) decodeInput(w http.ResponseWriter, r *http.Request) (string, activities.Input, bool) {
	var in activities.Input
	owner, err := core.RequireClientID(r)
	if err != nil {
		core.Error(w, r, err)
		return "", in, false
	}
	if err := core.DecodeJSON(w, r, &in); err != nil {
		core.Error(w, r, err)
		return "", in, false
	}
	if err := h.validator.ValidateStruct(in); err != nil {
		core.Error(w, r, err)
		return "", in, false
	}
	return owner, in, true
}
