package models

import "time"

// Notification types. RefID points at the post or comment the event refers to.
const (
	NotifyNewPost        = "NEW_POST"
	NotifyNewFollower    = "NEW_FOLLOWER"
	NotifyPostLike       = "POST_LIKE"
	NotifyPostComment    = "POST_COMMENT"
	NotifyReportResolved = "REPORT_RESOLVED"
	NotifyContentRemoved = "CONTENT_REMOVED"
	NotifyContentWarning = "CONTENT_WARNING"
)

// Notification is a persisted in-app notification, also pushed over the
// realtime channel on creation.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	RefID     *int64    `json:"ref_id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
