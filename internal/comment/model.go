package comment

import (
	"time"

	"trackmate/internal/user"
)

// Comment is a top-level comment on a track, with its likes and replies.
type Comment struct {
	ID        int64         `json:"id"`
	TrackID   string        `json:"trackId"`
	UserID    string        `json:"userId"`
	Text      string        `json:"text"`
	Likes     []string      `json:"likes"`
	CreatedAt time.Time     `json:"createdAt"`
	Author    *user.Profile `json:"author,omitempty"`
	Replies   []Reply       `json:"replies"`
}

// Reply is a nested response to a comment.
type Reply struct {
	ID        int64         `json:"id"`
	CommentID int64         `json:"commentId"`
	UserID    string        `json:"userId"`
	Text      string        `json:"text"`
	Likes     []string      `json:"likes"`
	CreatedAt time.Time     `json:"createdAt"`
	Author    *user.Profile `json:"author,omitempty"`
}
