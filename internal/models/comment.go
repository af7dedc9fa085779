package models

import "time"

// VoteType is the direction of a comment vote.
type VoteType string

const (
	VoteUp   VoteType = "UP"
	VoteDown VoteType = "DOWN"
)

// Comment is a reply to a post or to another comment (ParentID set).
type Comment struct {
	ID          int64       `json:"id"`
	PostID      int64       `json:"post_id"`
	UserID      int64       `json:"user_id"`
	User        *UserPublic `json:"user,omitempty"`
	ParentID    *int64      `json:"parent_id"`
	Content     string      `json:"content"`
	IsAnonymous bool        `json:"is_anonymous"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Images      []string   `json:"images,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	IsOwner     bool       `json:"is_owner"`
	VoteCounts  VoteCounts `json:"vote_counts"`
	UserVote    *VoteType  `json:"user_vote,omitempty"`
	Replies     []Comment  `json:"replies,omitempty"`
}

// VoteCounts is the tally attached to a comment.
type VoteCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Total     int `json:"total"` // upvotes - downvotes
}

// CommentVote is a user's current vote on a comment, one per (comment, user).
type CommentVote struct {
	CommentID int64     `json:"comment_id"`
	UserID    int64     `json:"user_id"`
	Type      VoteType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
