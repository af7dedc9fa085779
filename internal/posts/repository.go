package posts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
	"github.com/nmtun/seeboi-backend/internal/polls"
)

// ErrNotOwner is returned when a user modifies a post they do not own.
var ErrNotOwner = errors.New("not the post owner")

// CreateParams carries everything needed to create a post in one transaction.
type CreateParams struct {
	UserID        int64
	Title         *string
	Content       *string
	ContentJSON   []byte
	ContentText   *string
	ContentFormat models.ContentFormat
	ThumbnailURL  *string
	Type          models.PostType
	Visibility    models.PostVisibility
	IsDraft       bool
	Tags          []string
	Images        []string
	PollOptions   []string
	PollExpiresAt *time.Time
}

// ListOptions controls feed queries.
type ListOptions struct {
	ViewerID int64 // 0 = anonymous
	AuthorID int64 // 0 = all authors
	TagID    int64 // 0 = all tags
	Limit    int
	Offset   int
}

// Repository handles post persistence.
type Repository struct {
	pool  *pgxpool.Pool
	polls *polls.Repository
}

// NewRepository creates a post repository. The poll repository is used to
// create poll rows inside the post creation transaction.
func NewRepository(pool *pgxpool.Pool, pollRepo *polls.Repository) *Repository {
	return &Repository{pool: pool, polls: pollRepo}
}

const postColumns = `p.id, p.user_id, p.title, p.content, p.content_json, p.content_text, p.content_format,
	p.thumbnail_url, p.type, p.visibility, p.status, p.is_draft, p.deleted_at, p.created_at, p.updated_at,
	u.id, u.user_name, u.full_name, u.avatar_url,
	(SELECT COUNT(*) FROM post_likes WHERE post_id = p.id),
	(SELECT COUNT(*) FROM comments WHERE post_id = p.id),
	(SELECT COUNT(*) FROM post_views WHERE post_id = p.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var p models.Post
	var u models.UserPublic
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.ContentJSON, &p.ContentText, &p.ContentFormat,
		&p.ThumbnailURL, &p.Type, &p.Visibility, &p.Status, &p.IsDraft, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
		&u.ID, &u.UserName, &u.FullName, &u.AvatarURL,
		&p.LikeCount, &p.CommentCount, &p.ViewCount)
	if err != nil {
		return nil, err
	}
	p.User = &u
	return &p, nil
}

// Create inserts the post, its tags, images and poll atomically.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*models.Post, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO posts (user_id, title, content, content_json, content_text, content_format,
			thumbnail_url, type, visibility, is_draft)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	var p models.Post
	err = tx.QueryRow(ctx, q, params.UserID, params.Title, params.Content, params.ContentJSON,
		params.ContentText, params.ContentFormat, params.ThumbnailURL,
		params.Type, params.Visibility, params.IsDraft).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.UserID = params.UserID
	p.Title = params.Title
	p.Content = params.Content
	p.ContentJSON = params.ContentJSON
	p.ContentText = params.ContentText
	p.ContentFormat = params.ContentFormat
	p.ThumbnailURL = params.ThumbnailURL
	p.Type = params.Type
	p.Visibility = params.Visibility
	p.Status = models.StatusVisible
	p.IsDraft = params.IsDraft

	for _, name := range params.Tags {
		var tag models.Tag
		const qt = `INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id, name`
		if err := tx.QueryRow(ctx, qt, name).Scan(&tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			p.ID, tag.ID); err != nil {
			return nil, err
		}
		p.Tags = append(p.Tags, tag)
	}

	for _, url := range params.Images {
		if _, err := tx.Exec(ctx,
			`INSERT INTO images (user_id, post_id, kind, url) VALUES ($1, $2, 'POST', $3)`,
			params.UserID, p.ID, url); err != nil {
			return nil, err
		}
		p.Images = append(p.Images, url)
	}

	if params.Type == models.PostTypePoll {
		if _, err := r.polls.Create(ctx, tx, p.ID, params.PollExpiresAt, params.PollOptions); err != nil {
			return nil, err
		}
	}

	return &p, tx.Commit(ctx)
}

// GetByID returns a post with author, tags and images. Soft-deleted posts are
// only visible to their owner.
func (r *Repository) GetByID(ctx context.Context, id, viewerID int64) (*models.Post, error) {
	const q = `SELECT ` + postColumns + `
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.id = $1`
	p, err := scanPost(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if p.DeletedAt != nil && p.UserID != viewerID {
		return nil, pgx.ErrNoRows
	}
	if err := r.attachTagsAndImages(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) attachTagsAndImages(ctx context.Context, p *models.Post) error {
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, t.name, t.description FROM tags t
		 JOIN post_tags pt ON pt.tag_id = t.id WHERE pt.post_id = $1 ORDER BY t.name`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return err
		}
		p.Tags = append(p.Tags, t)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	irows, err := r.pool.Query(ctx,
		`SELECT url FROM images WHERE post_id = $1 AND kind = 'POST' ORDER BY id`, p.ID)
	if err != nil {
		return err
	}
	defer irows.Close()
	for irows.Next() {
		var url string
		if err := irows.Scan(&url); err != nil {
			return err
		}
		p.Images = append(p.Images, url)
	}
	return irows.Err()
}

// PostAuthor returns the author of a live post, or pgx.ErrNoRows.
func (r *Repository) PostAuthor(ctx context.Context, postID int64) (int64, error) {
	var authorID int64
	err := r.pool.QueryRow(ctx,
		`SELECT user_id FROM posts WHERE id = $1 AND deleted_at IS NULL AND is_draft = FALSE`,
		postID).Scan(&authorID)
	return authorID, err
}

// PostAuthorName returns the display name of a post's author.
func (r *Repository) PostAuthorName(ctx context.Context, postID int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx,
		`SELECT u.full_name FROM posts p JOIN users u ON u.id = p.user_id WHERE p.id = $1`,
		postID).Scan(&name)
	return name, err
}

// LogView appends a view event. userID nil records an anonymous view.
func (r *Repository) LogView(ctx context.Context, postID int64, userID *int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO post_views (post_id, user_id) VALUES ($1, $2)`, postID, userID)
	return err
}

// List returns visible published posts the viewer may see, newest first.
// FOLLOWERS posts appear only for followers and the author; PRIVATE posts
// only for the author.
func (r *Repository) List(ctx context.Context, opts ListOptions) ([]models.Post, error) {
	const q = `SELECT ` + postColumns + `
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.is_draft = FALSE
		  AND p.deleted_at IS NULL
		  AND p.status = 'VISIBLE'
		  AND ($2::bigint = 0 OR p.user_id = $2)
		  AND ($3::bigint = 0 OR EXISTS (SELECT 1 FROM post_tags WHERE post_id = p.id AND tag_id = $3))
		  AND (p.visibility = 'PUBLIC'
		       OR p.user_id = $1
		       OR (p.visibility = 'FOLLOWERS' AND EXISTS (
		             SELECT 1 FROM user_follows
		             WHERE follower_id = $1 AND following_id = p.user_id)))
		ORDER BY p.created_at DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.pool.Query(ctx, q, opts.ViewerID, opts.AuthorID, opts.TagID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ListDrafts returns the user's drafts, newest first.
func (r *Repository) ListDrafts(ctx context.Context, userID int64) ([]models.Post, error) {
	const q = `SELECT ` + postColumns + `
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1 AND p.is_draft = TRUE AND p.deleted_at IS NULL
		ORDER BY p.updated_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateParams carries updatable post fields.
type UpdateParams struct {
	Title         *string
	Content       *string
	ContentJSON   []byte
	ContentText   *string
	ThumbnailURL  *string
	Visibility    *models.PostVisibility
	Tags          []string
}

// Update edits a post. Only the owner may update.
func (r *Repository) Update(ctx context.Context, id, userID int64, params UpdateParams) (*models.Post, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ownerID int64
	if err := tx.QueryRow(ctx, `SELECT user_id FROM posts WHERE id = $1 AND deleted_at IS NULL`, id).Scan(&ownerID); err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrNotOwner
	}

	const q = `UPDATE posts SET
			title = COALESCE($2, title),
			content = COALESCE($3, content),
			content_json = COALESCE($4, content_json),
			content_text = COALESCE($5, content_text),
			thumbnail_url = COALESCE($6, thumbnail_url),
			visibility = COALESCE($7, visibility),
			updated_at = now()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, q, id, params.Title, params.Content, params.ContentJSON,
		params.ContentText, params.ThumbnailURL, params.Visibility); err != nil {
		return nil, err
	}

	if params.Tags != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, id); err != nil {
			return nil, err
		}
		for _, name := range params.Tags {
			var tagID int64
			const qt = `INSERT INTO tags (name) VALUES ($1)
				ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
				RETURNING id`
			if err := tx.QueryRow(ctx, qt, name).Scan(&tagID); err != nil {
				return nil, err
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, tagID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id, userID)
}

// Publish turns a draft into a live post.
func (r *Repository) Publish(ctx context.Context, id, userID int64) (*models.Post, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts SET is_draft = FALSE, created_at = now(), updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND is_draft = TRUE AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id, userID)
}

// SoftDelete marks a post deleted; it stays recoverable by its owner.
func (r *Repository) SoftDelete(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts SET deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Restore undoes a soft delete.
func (r *Repository) Restore(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts SET deleted_at = NULL, updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NOT NULL`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// HardDelete permanently removes a post; cascades take comments, votes,
// views, bookmarks and the poll with it.
func (r *Repository) HardDelete(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetStatus changes a post's moderation status (admin action).
func (r *Repository) SetStatus(ctx context.Context, id int64, status models.PostStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Like records a like; repeat likes are no-ops. Returns true if a new like
// was created.
func (r *Repository) Like(ctx context.Context, postID, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		postID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Unlike removes a like; unliking without a like is a no-op.
func (r *Repository) Unlike(ctx context.Context, postID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return err
}

// HasLiked reports whether the user has liked the post.
func (r *Repository) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	var liked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`,
		postID, userID).Scan(&liked)
	return liked, err
}

// ViewDetail is one row of the per-post view log.
type ViewDetail struct {
	UserID   *int64             `json:"user_id"`
	User     *models.UserPublic `json:"user,omitempty"`
	ViewedAt time.Time          `json:"viewed_at"`
}

// ViewDetails lists recent views of a post, newest first. Only the owner may
// call this; the handler enforces that.
func (r *Repository) ViewDetails(ctx context.Context, postID int64, limit int) ([]ViewDetail, error) {
	const q = `SELECT v.user_id, u.id, u.user_name, u.full_name, u.avatar_url, v.viewed_at
		FROM post_views v
		LEFT JOIN users u ON u.id = v.user_id
		WHERE v.post_id = $1
		ORDER BY v.viewed_at DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, postID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ViewDetail{}
	for rows.Next() {
		var d ViewDetail
		var uid *int64
		var userName, fullName, avatarURL *string
		if err := rows.Scan(&d.UserID, &uid, &userName, &fullName, &avatarURL, &d.ViewedAt); err != nil {
			return nil, err
		}
		if uid != nil {
			d.User = &models.UserPublic{ID: *uid, UserName: userName, AvatarURL: avatarURL}
			if fullName != nil {
				d.User.FullName = *fullName
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Bookmark saves a post for the user, optionally into a collection.
// Re-bookmarking moves it between collections.
func (r *Repository) Bookmark(ctx context.Context, postID, userID int64, collectionID *int64) error {
	const q = `INSERT INTO bookmarks (post_id, user_id, collection_id) VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO UPDATE SET collection_id = EXCLUDED.collection_id`
	_, err := r.pool.Exec(ctx, q, postID, userID, collectionID)
	return err
}

// Unbookmark removes a saved post.
func (r *Repository) Unbookmark(ctx context.Context, postID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM bookmarks WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return err
}

// ListBookmarks returns the user's saved posts, newest bookmark first.
// collectionID 0 means all collections.
func (r *Repository) ListBookmarks(ctx context.Context, userID, collectionID int64) ([]models.Post, error) {
	const q = `SELECT ` + postColumns + `
		FROM bookmarks b
		JOIN posts p ON p.id = b.post_id
		JOIN users u ON u.id = p.user_id
		WHERE b.user_id = $1
		  AND ($2::bigint = 0 OR b.collection_id = $2)
		  AND p.deleted_at IS NULL AND p.status = 'VISIBLE'
		ORDER BY b.created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
