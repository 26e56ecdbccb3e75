package track

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("track: not found")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const trackColumns = `id, name, location, lat, lng, images, rating, place_id, website, logo, type, created_at`

func scanTrack(row pgx.Row) (*Track, error) {
	t := &Track{}
	err := row.Scan(&t.ID, &t.Name, &t.Location, &t.Lat, &t.Lng, &t.Images, &t.Rating,
		&t.PlaceID, &t.Website, &t.Logo, &t.Type, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *Repository) collect(rows pgx.Rows) ([]*Track, error) {
	defer rows.Close()
	var tracks []*Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func (r *Repository) ByID(ctx context.Context, id string) (*Track, error) {
	return scanTrack(r.pool.QueryRow(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = $1`, id))
}

func (r *Repository) ByIDs(ctx context.Context, ids []string) ([]*Track, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// Name resolves a track's display name; satisfies the inbox TrackDirectory.
func (r *Repository) Name(ctx context.Context, id string) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM tracks WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return name, err
}

func (r *Repository) SearchByName(ctx context.Context, name string) ([]*Track, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE name ILIKE $1 ORDER BY name`, "%"+name+"%")
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// Nearby returns tracks within radiusMeters of the given point, closest
// first, using a haversine distance computed in SQL.
func (r *Repository) Nearby(ctx context.Context, lat, lng, radiusMeters float64) ([]*Track, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+trackColumns+`
		FROM (
			SELECT *, 2 * 6371000 * asin(sqrt(
				power(sin(radians(lat - $1) / 2), 2) +
				cos(radians($1)) * cos(radians(lat)) *
				power(sin(radians(lng - $2) / 2), 2)
			)) AS distance
			FROM tracks
		) nearby
		WHERE distance <= $3
		ORDER BY distance
	`, lat, lng, radiusMeters)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}
