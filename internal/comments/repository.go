package comments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

// ErrNotOwner is returned when a user modifies a comment they do not own.
var ErrNotOwner = errors.New("not the comment owner")

// anonymousName is shown instead of the author for anonymous comments.
const anonymousName = "Anonymous"

// Sort orders for comment listings.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortTop    = "top"
)

// CreateParams carries a new comment.
type CreateParams struct {
	PostID      int64
	UserID      int64
	ParentID    *int64
	Content     string
	IsAnonymous bool
	Images      []string
}

// Repository handles comment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a comment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a comment and its images. A reply must target a comment on
// the same post.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*models.Comment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if params.ParentID != nil {
		var parentPost int64
		if err := tx.QueryRow(ctx, `SELECT post_id FROM comments WHERE id = $1`, *params.ParentID).Scan(&parentPost); err != nil {
			return nil, err
		}
		if parentPost != params.PostID {
			return nil, pgx.ErrNoRows
		}
	}

	const q = `INSERT INTO comments (post_id, user_id, parent_id, content, is_anonymous)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, post_id, user_id, parent_id, content, is_anonymous, created_at, updated_at`
	var cm models.Comment
	err = tx.QueryRow(ctx, q, params.PostID, params.UserID, params.ParentID, params.Content, params.IsAnonymous).
		Scan(&cm.ID, &cm.PostID, &cm.UserID, &cm.ParentID, &cm.Content, &cm.IsAnonymous, &cm.CreatedAt, &cm.UpdatedAt)
	if err != nil {
		return nil, err
	}

	for _, url := range params.Images {
		if _, err := tx.Exec(ctx,
			`INSERT INTO images (user_id, comment_id, kind, url) VALUES ($1, $2, 'COMMENT', $3)`,
			params.UserID, cm.ID, url); err != nil {
			return nil, err
		}
		cm.Images = append(cm.Images, url)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.decorate(ctx, &cm, params.UserID)
}

// GetByID returns a comment decorated for the viewer.
func (r *Repository) GetByID(ctx context.Context, id, viewerID int64) (*models.Comment, error) {
	const q = `SELECT id, post_id, user_id, parent_id, content, is_anonymous, created_at, updated_at
		FROM comments WHERE id = $1`
	var cm models.Comment
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&cm.ID, &cm.PostID, &cm.UserID, &cm.ParentID, &cm.Content, &cm.IsAnonymous, &cm.CreatedAt, &cm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r.decorate(ctx, &cm, viewerID)
}

// decorate fills in author identity (respecting anonymity), vote tallies and
// the viewer's own vote.
func (r *Repository) decorate(ctx context.Context, cm *models.Comment, viewerID int64) (*models.Comment, error) {
	cm.IsOwner = viewerID != 0 && cm.UserID == viewerID

	if cm.IsAnonymous && !cm.IsOwner {
		cm.DisplayName = anonymousName
	} else {
		var u models.UserPublic
		err := r.pool.QueryRow(ctx,
			`SELECT id, user_name, full_name, avatar_url FROM users WHERE id = $1`, cm.UserID).
			Scan(&u.ID, &u.UserName, &u.FullName, &u.AvatarURL)
		if err != nil {
			return nil, err
		}
		if !cm.IsAnonymous {
			cm.User = &u
		}
		cm.DisplayName = u.FullName
		if cm.IsAnonymous {
			cm.DisplayName = anonymousName
		}
	}

	counts, err := r.voteCounts(ctx, cm.ID)
	if err != nil {
		return nil, err
	}
	cm.VoteCounts = counts

	if viewerID != 0 {
		var vt string
		err := r.pool.QueryRow(ctx,
			`SELECT vote_type FROM comment_votes WHERE comment_id = $1 AND user_id = $2`,
			cm.ID, viewerID).Scan(&vt)
		if err == nil {
			t := models.VoteType(vt)
			cm.UserVote = &t
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}
	return cm, nil
}

func (r *Repository) voteCounts(ctx context.Context, commentID int64) (models.VoteCounts, error) {
	var vc models.VoteCounts
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE vote_type = 'UP'),
		        COUNT(*) FILTER (WHERE vote_type = 'DOWN')
		 FROM comment_votes WHERE comment_id = $1`, commentID).
		Scan(&vc.Upvotes, &vc.Downvotes)
	vc.Total = vc.Upvotes - vc.Downvotes
	return vc, err
}

// ListByPost returns top-level comments with nested replies, decorated for
// the viewer. Replies always follow chronological order.
func (r *Repository) ListByPost(ctx context.Context, postID, viewerID int64, sort string) ([]models.Comment, error) {
	order := "c.created_at DESC"
	switch sort {
	case SortOldest:
		order = "c.created_at ASC"
	case SortTop:
		order = `(SELECT COUNT(*) FILTER (WHERE vote_type = 'UP') - COUNT(*) FILTER (WHERE vote_type = 'DOWN')
			FROM comment_votes WHERE comment_id = c.id) DESC, c.created_at DESC`
	}

	q := `SELECT c.id, c.post_id, c.user_id, c.parent_id, c.content, c.is_anonymous, c.created_at, c.updated_at
		FROM comments c
		WHERE c.post_id = $1 AND c.parent_id IS NULL
		ORDER BY ` + order
	rows, err := r.pool.Query(ctx, q, postID)
	if err != nil {
		return nil, err
	}
	top, err := r.collect(ctx, rows, viewerID)
	if err != nil {
		return nil, err
	}

	for i := range top {
		replies, err := r.replies(ctx, top[i].ID, viewerID)
		if err != nil {
			return nil, err
		}
		top[i].Replies = replies
	}
	return top, nil
}

func (r *Repository) replies(ctx context.Context, parentID, viewerID int64) ([]models.Comment, error) {
	const q = `SELECT c.id, c.post_id, c.user_id, c.parent_id, c.content, c.is_anonymous, c.created_at, c.updated_at
		FROM comments c WHERE c.parent_id = $1 ORDER BY c.created_at ASC`
	rows, err := r.pool.Query(ctx, q, parentID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows, viewerID)
}

func (r *Repository) collect(ctx context.Context, rows pgx.Rows, viewerID int64) ([]models.Comment, error) {
	defer rows.Close()
	out := []models.Comment{}
	for rows.Next() {
		var cm models.Comment
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.UserID, &cm.ParentID, &cm.Content,
			&cm.IsAnonymous, &cm.CreatedAt, &cm.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if _, err := r.decorate(ctx, &out[i], viewerID); err != nil {
			return nil, err
		}
		imgs, err := r.images(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Images = imgs
	}
	return out, nil
}

func (r *Repository) images(ctx context.Context, commentID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT url FROM images WHERE comment_id = $1 AND kind = 'COMMENT' ORDER BY id`, commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		out = append(out, url)
	}
	return out, rows.Err()
}

// Count returns the number of comments on a post.
func (r *Repository) Count(ctx context.Context, postID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&n)
	return n, err
}

// Update edits a comment's content. Owner only.
func (r *Repository) Update(ctx context.Context, id, userID int64, content string) (*models.Comment, error) {
	var ownerID int64
	if err := r.pool.QueryRow(ctx, `SELECT user_id FROM comments WHERE id = $1`, id).Scan(&ownerID); err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrNotOwner
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE comments SET content = $2, updated_at = now() WHERE id = $1`, id, content)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id, userID)
}

// Delete removes a comment (and its replies via cascade). Owner or admin.
func (r *Repository) Delete(ctx context.Context, id, userID int64, isAdmin bool) error {
	var ownerID int64
	if err := r.pool.QueryRow(ctx, `SELECT user_id FROM comments WHERE id = $1`, id).Scan(&ownerID); err != nil {
		return err
	}
	if ownerID != userID && !isAdmin {
		return ErrNotOwner
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return err
}

// Vote records or changes a user's vote on a comment. Voting the same
// direction twice is a no-op at the data level.
func (r *Repository) Vote(ctx context.Context, commentID, userID int64, voteType models.VoteType) (models.VoteCounts, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID).Scan(&exists); err != nil {
		return models.VoteCounts{}, err
	}
	if !exists {
		return models.VoteCounts{}, pgx.ErrNoRows
	}
	const q = `INSERT INTO comment_votes (comment_id, user_id, vote_type) VALUES ($1, $2, $3)
		ON CONFLICT (comment_id, user_id) DO UPDATE SET vote_type = EXCLUDED.vote_type, created_at = now()`
	if _, err := r.pool.Exec(ctx, q, commentID, userID, string(voteType)); err != nil {
		return models.VoteCounts{}, err
	}
	return r.voteCounts(ctx, commentID)
}

// RemoveVote deletes the user's vote on a comment; no-op when absent.
func (r *Repository) RemoveVote(ctx context.Context, commentID, userID int64) (models.VoteCounts, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID).Scan(&exists); err != nil {
		return models.VoteCounts{}, err
	}
	if !exists {
		return models.VoteCounts{}, pgx.ErrNoRows
	}
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM comment_votes WHERE comment_id = $1 AND user_id = $2`, commentID, userID); err != nil {
		return models.VoteCounts{}, err
	}
	return r.voteCounts(ctx, commentID)
}
