package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"fairweather/internal/activities"
	"fairweather/internal/types"
)

// ActivityRepository stores custom activities in the custom_activities table.
// Every query is scoped by owner.
type ActivityRepository struct {
	db DBTX
}

var _ activities.Repository = (*ActivityRepository)(nil)

func NewActivityRepository(db DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `a.id, a.label, a.icon, a.duration_minutes, a.rules, a.created_at, a.updated_at`

// scanActivity scans one row in activityColumns order.
func scanActivity(row pgx.Row) (*types.Activity, error) {
	var a types.Activity
	err := row.Scan(
		&a.ID,
		&a.Label,
		&a.Icon,
		&a.DurationMinutes,
		&a.Rules,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns the owner's custom activities, oldest first.
func (r *ActivityRepository) List(ctx context.Context, owner string) ([]types.Activity, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+activityColumns+`
		 FROM custom_activities a
		 WHERE a.owner_id = $1
		 ORDER BY a.created_at, a.id`,
		owner,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list activities", err)
	}
	defer rows.Close()

	out := []types.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan activity", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate activities", err)
	}
	return out, nil
}

// Get returns one custom activity. Another owner's activity is reported as
// not found.
func (r *ActivityRepository) Get(ctx context.Context, owner, id string) (*types.Activity, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+activityColumns+`
		 FROM custom_activities a
		 WHERE a.owner_id = $1 AND a.id = $2`,
		owner, id,
	)
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundActivity, "activity not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve activity", err)
	}
	return a, nil
}

// Create inserts a custom activity. The caller assigns the ID and timestamps.
func (r *ActivityRepository) Create(ctx context.Context, owner string, a *types.Activity) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO custom_activities
		 (owner_id, id, label, icon, duration_minutes, rules, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		owner,
		a.ID,
		a.Label,
		a.Icon,
		a.DurationMinutes,
		a.Rules,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewAppError(types.ErrCodeConflictActivityID, "activity id already exists", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create activity", err)
	}
	return nil
}

// Update writes the editable fields of an existing activity.
func (r *ActivityRepository) Update(ctx context.Context, owner string, a *types.Activity) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE custom_activities
		 SET label = $1,
		     icon = $2,
		     duration_minutes = $3,
		     rules = $4,
		     updated_at = $5
		 WHERE owner_id = $6 AND id = $7`,
		a.Label,
		a.Icon,
		a.DurationMinutes,
		a.Rules,
		a.UpdatedAt,
		owner,
		a.ID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update activity", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundActivity, "activity not found", nil)
	}
	return nil
}

func (r *ActivityRepository) Delete(ctx context.Context, owner, id string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM custom_activities WHERE owner_id = $1 AND id = $2`,
		owner, id,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete activity", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundActivity, "activity not found", nil)
	}
	return nil
}
