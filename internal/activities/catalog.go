// Package activities holds the activity catalog (built-in presets plus
// user-defined activities) and the Advisor that assesses them against a
// forecast.
package activities

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"fairweather/internal/types"
)

// Repository persists custom activities per owner.
type Repository interface {
	List(ctx context.Context, owner string) ([]types.Activity, error)
	Get(ctx context.Context, owner, id string) (*types.Activity, error)
	Create(ctx context.Context, owner string, a *types.Activity) error
	Update(ctx context.Context, owner string, a *types.Activity) error
	Delete(ctx context.Context, owner, id string) error
}

// Input is the user-editable part of a custom activity.
type Input struct {
	Label           string         `json:"label" validate:"required,max=60"`
	Icon            string         `json:"icon" validate:"max=20"`
	DurationMinutes int            `json:"durationMinutes" validate:"gte=1,lte=1440"`
	Rules           types.RuleSpec `json:"rules"`
}

const customIDPrefix = "custom_"

// Catalog lists presets followed by the owner's custom activities.
// Presets are read-only.
type Catalog struct {
	presets []types.Activity
	repo    Repository
	clock   types.Clock
	stars   StarStore
	newID   func() string
}

// NewCatalog builds a catalog over the given presets and repository.
func NewCatalog(presets []types.Activity, repo Repository, clock types.Clock, opts ...CatalogOption) *Catalog {
	if clock == nil {
		clock = types.RealClock{}
	}
	c := &Catalog{
		presets: presets,
		repo:    repo,
		clock:   clock,
		stars:   NewMemoryStarStore(),
		newID:   func() string { return customIDPrefix + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Presets returns a copy of the built-in activities.
func (c *Catalog) Presets() []types.Activity {
	return append([]types.Activity(nil), c.presets...)
}

// List returns the presets followed by the owner's custom activities.
func (c *Catalog) List(ctx context.Context, owner string) ([]types.Activity, error) {
	custom, err := c.repo.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]types.Activity, 0, len(c.presets)+len(custom))
	out = append(out, c.presets...)
	out = append(out, custom...)
	return out, nil
}

// Get resolves a preset or custom activity by ID.
func (c *Catalog) Get(ctx context.Context, owner, id string) (*types.Activity, error) {
	if p, ok := c.preset(id); ok {
		return &p, nil
	}
	return c.repo.Get(ctx, owner, id)
}

// Create validates and stores a new custom activity.
func (c *Catalog) Create(ctx context.Context, owner string, in Input) (*types.Activity, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	now := c.clock.Now().UTC()
	a := &types.Activity{
		ID:              c.newID(),
		Label:           strings.TrimSpace(in.Label),
		Icon:            NormalizeIcon(in.Icon),
		DurationMinutes: in.DurationMinutes,
		Rules:           in.Rules,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.repo.Create(ctx, owner, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces the editable fields of a custom activity.
func (c *Catalog) Update(ctx context.Context, owner, id string, in Input) (*types.Activity, error) {
	if _, ok := c.preset(id); ok {
		return nil, types.NewAppError(types.ErrCodeConflictPreset, "predefined activities cannot be modified", nil)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	existing, err := c.repo.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	existing.Label = strings.TrimSpace(in.Label)
	existing.Icon = NormalizeIcon(in.Icon)
	existing.DurationMinutes = in.DurationMinutes
	existing.Rules = in.Rules
	existing.UpdatedAt = c.clock.Now().UTC()
	if err := c.repo.Update(ctx, owner, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes a custom activity and its star.
func (c *Catalog) Delete(ctx context.Context, owner, id string) error {
	if _, ok := c.preset(id); ok {
		return types.NewAppError(types.ErrCodeConflictPreset, "predefined activities cannot be deleted", nil)
	}
	if err := c.repo.Delete(ctx, owner, id); err != nil {
		return err
	}
	_, err := c.Unstar(ctx, owner, id)
	return err
}

func (c *Catalog) preset(id string) (types.Activity, bool) {
	for _, p := range c.presets {
		if p.ID == id {
			return p, true
		}
	}
	return types.Activity{}, false
}

func validateInput(in Input) error {
	if strings.TrimSpace(in.Label) == "" {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField, "label is required", nil,
			map[string]any{"field": "label"})
	}
	return in.Rules.Validate()
}
