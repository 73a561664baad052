package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"fairweather/internal/activities"
	"fairweather/internal/types"
)

// StarRepository stores each owner's starred activity IDs as one ordered
// array in starred_activities.
type StarRepository struct {
	db DBTX
}

var _ activities.StarStore = (*StarRepository)(nil)

func NewStarRepository(db DBTX) *StarRepository {
	return &StarRepository{db: db}
}

// Get returns the owner's starred IDs. found is false when the owner has
// never changed their stars.
func (r *StarRepository) Get(ctx context.Context, owner string) ([]string, bool, error) {
	var ids []string
	err := r.db.QueryRow(ctx,
		`SELECT s.activity_ids FROM starred_activities s WHERE s.owner_id = $1`,
		owner,
	).Scan(&ids)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, types.NewAppError(types.ErrCodeInternalDB, "failed to load starred activities", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, true, nil
}

// Put replaces the owner's starred IDs.
func (r *StarRepository) Put(ctx context.Context, owner string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO starred_activities (owner_id, activity_ids, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (owner_id) DO UPDATE
		 SET activity_ids = EXCLUDED.activity_ids, updated_at = NOW()`,
		owner, ids,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to save starred activities", err)
	}
	return nil
}
