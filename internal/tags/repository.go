package tags

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

// Repository handles tag persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tag repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all tags with their live post counts, most used first.
// Follow status is relative to the viewer (viewerID 0 = anonymous).
func (r *Repository) List(ctx context.Context, viewerID int64) ([]models.Tag, error) {
	const q = `SELECT t.id, t.name, t.description,
		(SELECT COUNT(*) FROM post_tags pt
		 JOIN posts p ON p.id = pt.post_id
		 WHERE pt.tag_id = t.id AND p.is_draft = FALSE AND p.deleted_at IS NULL AND p.status = 'VISIBLE'),
		EXISTS(SELECT 1 FROM tag_follows tf WHERE tf.tag_id = t.id AND tf.user_id = $1)
		FROM tags t
		ORDER BY 4 DESC, t.name`
	rows, err := r.pool.Query(ctx, q, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.PostCount, &t.IsFollowing); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a tag; duplicate names conflict.
func (r *Repository) Create(ctx context.Context, name string, description *string) (*models.Tag, error) {
	const q = `INSERT INTO tags (name, description) VALUES ($1, $2) RETURNING id, name, description`
	var t models.Tag
	if err := r.pool.QueryRow(ctx, q, name, description).Scan(&t.ID, &t.Name, &t.Description); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update edits a tag.
func (r *Repository) Update(ctx context.Context, id int64, name string, description *string) (*models.Tag, error) {
	const q = `UPDATE tags SET name = $2, description = $3 WHERE id = $1 RETURNING id, name, description`
	var t models.Tag
	if err := r.pool.QueryRow(ctx, q, id, name, description).Scan(&t.ID, &t.Name, &t.Description); err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes a tag and its post links.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Follow subscribes the user to a tag. Re-following is a no-op.
func (r *Repository) Follow(ctx context.Context, userID, tagID int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tags WHERE id = $1)`, tagID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tag_follows (user_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, tagID)
	return err
}

// Unfollow removes the subscription; no-op when absent.
func (r *Repository) Unfollow(ctx context.Context, userID, tagID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM tag_follows WHERE user_id = $1 AND tag_id = $2`, userID, tagID)
	return err
}

// Followed lists tags the user follows.
func (r *Repository) Followed(ctx context.Context, userID int64) ([]models.Tag, error) {
	const q = `SELECT t.id, t.name, t.description FROM tag_follows tf
		JOIN tags t ON t.id = tf.tag_id WHERE tf.user_id = $1 ORDER BY t.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
