package db

import (
	"context"

	"fairweather/internal/types"
)

// FavoriteRepository stores saved locations in the favorites table.
type FavoriteRepository struct {
	db DBTX
}

func NewFavoriteRepository(db DBTX) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// List returns the owner's favorites, oldest first.
func (r *FavoriteRepository) List(ctx context.Context, owner string) ([]types.Favorite, error) {
	rows, err := r.db.Query(ctx,
		`SELECT f.id, f.name, f.lat, f.lon, f.created_at
		 FROM favorites f
		 WHERE f.owner_id = $1
		 ORDER BY f.created_at, f.id`,
		owner,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list favorites", err)
	}
	defer rows.Close()

	out := []types.Favorite{}
	for rows.Next() {
		var f types.Favorite
		if err := rows.Scan(&f.ID, &f.Name, &f.Location.Lat, &f.Location.Lon, &f.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan favorite", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate favorites", err)
	}
	return out, nil
}

// Create inserts a favorite. The caller assigns the ID and CreatedAt.
func (r *FavoriteRepository) Create(ctx context.Context, owner string, f *types.Favorite) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO favorites (owner_id, id, name, lat, lon, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		owner,
		f.ID,
		f.Name,
		f.Location.Lat,
		f.Location.Lon,
		f.CreatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create favorite", err)
	}
	return nil
}

func (r *FavoriteRepository) Delete(ctx context.Context, owner, id string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM favorites WHERE owner_id = $1 AND id = $2`,
		owner, id,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete favorite", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundFavorite, "favorite not found", nil)
	}
	return nil
}

// Locations returns every distinct favorite across all owners, rounded to the
// forecast cache cell so each cell is fetched once.
func (r *FavoriteRepository) Locations(ctx context.Context) ([]types.Location, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT ROUND(lat::numeric, 2)::float8, ROUND(lon::numeric, 2)::float8
		 FROM favorites
		 ORDER BY 1, 2`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list favorite locations", err)
	}
	defer rows.Close()

	var out []types.Location
	for rows.Next() {
		var loc types.Location
		if err := rows.Scan(&loc.Lat, &loc.Lon); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan favorite location", err)
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate favorite locations", err)
	}
	return out, nil
}
