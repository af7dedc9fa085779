package models

import "time"

// ReportStatus is the moderation workflow state of a report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "PENDING"
	ReportReviewed ReportStatus = "REVIEWED"
	ReportResolved ReportStatus = "RESOLVED"
	ReportRejected ReportStatus = "REJECTED"
)

// Report flags a post or a comment (exactly one of PostID/CommentID is set).
// ReporterID is nil for reports filed automatically by the moderation worker.
type Report struct {
	ID         int64        `json:"id"`
	ReporterID *int64       `json:"reporter_id"`
	Reporter   *UserPublic  `json:"reporter,omitempty"`
	PostID     *int64       `json:"post_id"`
	CommentID  *int64       `json:"comment_id"`
	Reason     string       `json:"reason"`
	Status     ReportStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`

	PostTitle      *string `json:"post_title,omitempty"`
	CommentContent *string `json:"comment_content,omitempty"`
}
