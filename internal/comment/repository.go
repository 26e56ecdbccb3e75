package comment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"trackmate/internal/user"
)

var ErrNotFound = errors.New("comment: not found")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByTrack returns a page of a track's comments, newest first, with
// author profiles and replies joined in.
func (r *Repository) ListByTrack(ctx context.Context, trackID string, page, limit int) ([]*Comment, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	offset := (page - 1) * limit

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.track_id, c.user_id, c.text, c.likes, c.created_at,
		       u.user_name, u.profile_avatar
		FROM track_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.track_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2 OFFSET $3
	`, trackID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		c := &Comment{Author: &user.Profile{}, Replies: []Reply{}}
		if err := rows.Scan(&c.ID, &c.TrackID, &c.UserID, &c.Text, &c.Likes, &c.CreatedAt,
			&c.Author.UserName, &c.Author.ProfileAvatar); err != nil {
			return nil, err
		}
		c.Author.ID = c.UserID
		comments = append(comments, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	for _, c := range comments {
		replies, err := r.repliesFor(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Replies = replies
	}
	return comments, nil
}

func (r *Repository) repliesFor(ctx context.Context, commentID int64) ([]Reply, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.comment_id, p.user_id, p.text, p.likes, p.created_at,
		       u.user_name, u.profile_avatar
		FROM comment_replies p
		JOIN users u ON u.id = p.user_id
		WHERE p.comment_id = $1
		ORDER BY p.created_at ASC, p.id ASC
	`, commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies := []Reply{}
	for rows.Next() {
		rep := Reply{Author: &user.Profile{}}
		if err := rows.Scan(&rep.ID, &rep.CommentID, &rep.UserID, &rep.Text, &rep.Likes,
			&rep.CreatedAt, &rep.Author.UserName, &rep.Author.ProfileAvatar); err != nil {
			return nil, err
		}
		rep.Author.ID = rep.UserID
		replies = append(replies, rep)
	}
	return replies, rows.Err()
}

func (r *Repository) Create(ctx context.Context, c *Comment) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO track_comments (track_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, c.TrackID, c.UserID, c.Text).Scan(&c.ID, &c.CreatedAt)
}

func (r *Repository) AddReply(ctx context.Context, rep *Reply) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO comment_replies (comment_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, rep.CommentID, rep.UserID, rep.Text).Scan(&rep.ID, &rep.CreatedAt)
}

// Like adds the user to the comment's like set; liking twice is a no-op.
func (r *Repository) Like(ctx context.Context, commentID int64, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE track_comments
		SET likes = array_append(likes, $2)
		WHERE id = $1 AND NOT ($2 = ANY(likes))
	`, commentID, userID)
	return err
}

func (r *Repository) Unlike(ctx context.Context, commentID int64, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE track_comments
		SET likes = array_remove(likes, $2)
		WHERE id = $1
	`, commentID, userID)
	return err
}

func (r *Repository) LikeReply(ctx context.Context, replyID int64, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE comment_replies
		SET likes = array_append(likes, $2)
		WHERE id = $1 AND NOT ($2 = ANY(likes))
	`, replyID, userID)
	return err
}

func (r *Repository) UnlikeReply(ctx context.Context, replyID int64, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE comment_replies
		SET likes = array_remove(likes, $2)
		WHERE id = $1
	`, replyID, userID)
	return err
}

func (r *Repository) Exists(ctx context.Context, commentID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM track_comments WHERE id = $1)`, commentID).Scan(&exists)
	return exists, err
}
