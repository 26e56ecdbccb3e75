package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("user: not found")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, user_name, email, password, admin, push_token, profile_avatar,
	bike_name, bike_color, favorites, friends, blocked, owned, created_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.Password, &u.Admin, &u.PushToken,
		&u.ProfileAvatar, &u.Bike.Name, &u.Bike.Color, &u.Favorites, &u.Friends,
		&u.Blocked, &u.Owned, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *Repository) Create(ctx context.Context, u *User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, user_name, email, password, admin, push_token, profile_avatar,
		                   bike_name, bike_color, favorites, friends, blocked, owned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, u.ID, u.UserName, u.Email, u.Password, u.Admin, u.PushToken, u.ProfileAvatar,
		u.Bike.Name, u.Bike.Color, u.Favorites, u.Friends, u.Blocked, u.Owned)
	return err
}

func (r *Repository) ByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repository) ByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
}

// ByEmailOrUsername resolves a login identifier, which may be either field.
func (r *Repository) ByEmailOrUsername(ctx context.Context, identifier string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1 OR user_name = $1
	`, strings.ToLower(identifier)))
}

func (r *Repository) ByIDs(ctx context.Context, ids []string) ([]*User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// EmailExists and UserNameExists back the availability probes used during
// signup.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, strings.ToLower(email)).Scan(&exists)
	return exists, err
}

func (r *Repository) UserNameExists(ctx context.Context, userName string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE user_name = $1)`, strings.ToLower(userName)).Scan(&exists)
	return exists, err
}

func (r *Repository) Search(ctx context.Context, query string) ([]*User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE user_name ILIKE $1 OR email ILIKE $1
		LIMIT 10
	`, "%"+query+"%")
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// Update persists the enumerated mutable fields of a user.
func (r *Repository) Update(ctx context.Context, u *User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET push_token = $2, profile_avatar = $3, bike_name = $4, bike_color = $5,
		    favorites = $6, friends = $7, blocked = $8, owned = $9
		WHERE id = $1
	`, u.ID, u.PushToken, u.ProfileAvatar, u.Bike.Name, u.Bike.Color,
		u.Favorites, u.Friends, u.Blocked, u.Owned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PushTokensByFavoriteTrack returns the non-empty push tokens of every user
// whose favorites include the track. Drives announcement fan-out.
func (r *Repository) PushTokensByFavoriteTrack(ctx context.Context, trackID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT push_token FROM users
		WHERE $1 = ANY(favorites) AND push_token <> ''
	`, trackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func collectUsers(rows pgx.Rows) ([]*User, error) {
	defer rows.Close()
	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("user: scan rows: %w", rows.Err())
	}
	return users, nil
}
