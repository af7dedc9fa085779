package models

import (
	"encoding/json"
	"time"
)

// PostType distinguishes plain posts from polls and rich-text posts.
type PostType string

const (
	PostTypeText PostType = "TEXT"
	PostTypeRich PostType = "RICH_TEXT"
	PostTypePoll PostType = "POLL"
)

// PostVisibility controls who can see a post.
type PostVisibility string

const (
	VisibilityPublic    PostVisibility = "PUBLIC"
	VisibilityFollowers PostVisibility = "FOLLOWERS"
	VisibilityPrivate   PostVisibility = "PRIVATE"
)

// PostStatus is the moderation/lifecycle state.
type PostStatus string

const (
	StatusVisible PostStatus = "VISIBLE"
	StatusHidden  PostStatus = "HIDDEN"
	StatusDeleted PostStatus = "DELETED"
)

// ContentFormat says how the post body is encoded.
type ContentFormat string

const (
	FormatPlainText  ContentFormat = "PLAIN_TEXT"
	FormatTiptapJSON ContentFormat = "TIPTAP_JSON"
)

// Post is a piece of user content. ContentJSON holds the rich-text document
// when ContentFormat is TIPTAP_JSON.
type Post struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	User          *UserPublic     `json:"user,omitempty"`
	Title         *string         `json:"title"`
	Content       *string         `json:"content"`
	ContentJSON   json.RawMessage `json:"content_json,omitempty"`
	ContentText   *string         `json:"content_text"`
	ContentFormat ContentFormat   `json:"content_format"`
	ThumbnailURL  *string         `json:"thumbnail_url"`
	Type          PostType        `json:"type"`
	Visibility    PostVisibility  `json:"visibility"`
	Status        PostStatus      `json:"status"`
	IsDraft       bool            `json:"is_draft"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Tags   []Tag    `json:"tags,omitempty"`
	Images []string `json:"images,omitempty"`

	LikeCount    int `json:"like_count"`
	CommentCount int `json:"comment_count"`
	ViewCount    int `json:"view_count"`
}

// PostLike is an append-only engagement event, one per (post, user).
type PostLike struct {
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostView is an append-only engagement event. UserID is nil for anonymous views.
type PostView struct {
	ID       int64     `json:"id"`
	PostID   int64     `json:"post_id"`
	UserID   *int64    `json:"user_id"`
	ViewedAt time.Time `json:"viewed_at"`
}

// Image is an uploaded attachment for a post or comment.
type Image struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"` // POST, COMMENT, AVATAR, FACE
	PostID    *int64    `json:"post_id,omitempty"`
	CommentID *int64    `json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark saves a post for a user, optionally into a collection.
type Bookmark struct {
	UserID       int64     `json:"user_id"`
	PostID       int64     `json:"post_id"`
	CollectionID *int64    `json:"collection_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Collection groups a user's bookmarks.
type Collection struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Tag labels posts and can be followed.
type Tag struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	PostCount   int     `json:"post_count,omitempty"`
	IsFollowing bool    `json:"is_following"`
}
