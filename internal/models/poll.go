package models

import "time"

// Poll is a post attachment offering mutually exclusive choices. A post has at
// most one poll; votes are accepted until ExpiresAt (nil = never expires).
type Poll struct {
	ID        int64        `json:"id"`
	PostID    int64        `json:"post_id"`
	ExpiresAt *time.Time   `json:"expires_at"`
	CreatedAt time.Time    `json:"created_at"`
	Options   []PollOption `json:"options,omitempty"`
}

// Expired reports whether the poll no longer accepts votes at now.
func (p *Poll) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// PollOption is one selectable choice within a poll.
type PollOption struct {
	ID     int64  `json:"id"`
	PollID int64  `json:"poll_id"`
	Text   string `json:"text"`
}

// PollVote is a user's current selection within a poll. PollID is stored
// directly so that one-live-vote-per-(poll,user) is a database constraint,
// not an application-level join invariant.
type PollVote struct {
	ID        int64     `json:"id"`
	PollID    int64     `json:"poll_id"`
	OptionID  int64     `json:"option_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
