package search

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

// PostHit is a post search result with its relevance rank.
type PostHit struct {
	models.Post
	Rank float32 `json:"rank"`
}

// Repository runs search queries against Postgres full-text and trigram
// indexes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a search repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Users matches user names case-insensitively.
func (r *Repository) Users(ctx context.Context, query string, limit int) ([]models.UserPublic, error) {
	const q = `SELECT id, user_name, full_name, avatar_url FROM users
		WHERE full_name ILIKE '%' || $1 || '%' OR user_name ILIKE '%' || $1 || '%'
		ORDER BY full_name LIMIT $2`
	rows, err := r.pool.Query(ctx, q, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.UserPublic{}
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.UserName, &u.FullName, &u.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Posts combines full-text matching over title and body with trigram
// similarity on the title, so typo-ish queries still hit. Only public
// visible posts are searchable.
func (r *Repository) Posts(ctx context.Context, query string, viewerID int64, limit int) ([]PostHit, error) {
	const q = `SELECT p.id, p.user_id, p.title, p.content, p.content_text, p.content_format,
			p.thumbnail_url, p.type, p.visibility, p.status, p.created_at, p.updated_at,
			u.id, u.user_name, u.full_name, u.avatar_url,
			ts_rank(to_tsvector('simple', coalesce(p.title, '') || ' ' || coalesce(p.content_text, coalesce(p.content, ''))),
			        plainto_tsquery('simple', $1))
			+ similarity(coalesce(p.title, ''), $1) AS rank
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.is_draft = FALSE AND p.deleted_at IS NULL AND p.status = 'VISIBLE'
		  AND (p.visibility = 'PUBLIC' OR p.user_id = $2)
		  AND (to_tsvector('simple', coalesce(p.title, '') || ' ' || coalesce(p.content_text, coalesce(p.content, '')))
		         @@ plainto_tsquery('simple', $1)
		       OR similarity(coalesce(p.title, ''), $1) > 0.2)
		ORDER BY rank DESC, p.created_at DESC
		LIMIT $3`
	rows, err := r.pool.Query(ctx, q, query, viewerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []PostHit{}
	for rows.Next() {
		var hit PostHit
		var u models.UserPublic
		if err := rows.Scan(&hit.ID, &hit.UserID, &hit.Title, &hit.Content, &hit.ContentText, &hit.ContentFormat,
			&hit.ThumbnailURL, &hit.Type, &hit.Visibility, &hit.Status, &hit.CreatedAt, &hit.UpdatedAt,
			&u.ID, &u.UserName, &u.FullName, &u.AvatarURL, &hit.Rank); err != nil {
			return nil, err
		}
		hit.User = &u
		out = append(out, hit)
	}
	return out, rows.Err()
}
