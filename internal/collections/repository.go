package collections

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

// ErrDuplicateName means the user already has a collection with that name.
var ErrDuplicateName = errors.New("collection name already in use")

// ErrNotOwner means the collection belongs to another user.
var ErrNotOwner = errors.New("not the collection owner")

// Repository handles bookmark collection persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a collection repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create adds a collection for the user.
func (r *Repository) Create(ctx context.Context, userID int64, name string, description *string) (*models.Collection, error) {
	const q = `INSERT INTO collections (user_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, name, description, created_at`
	var col models.Collection
	err := r.pool.QueryRow(ctx, q, userID, name, description).
		Scan(&col.ID, &col.UserID, &col.Name, &col.Description, &col.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateName
	}
	if err != nil {
		return nil, err
	}
	return &col, nil
}

// List returns the user's collections with bookmark counts.
func (r *Repository) List(ctx context.Context, userID int64) ([]collectionWithCount, error) {
	const q = `SELECT c.id, c.user_id, c.name, c.description, c.created_at,
			COUNT(b.post_id)
		FROM collections c
		LEFT JOIN bookmarks b ON b.collection_id = c.id
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []collectionWithCount{}
	for rows.Next() {
		var col collectionWithCount
		if err := rows.Scan(&col.ID, &col.UserID, &col.Name, &col.Description, &col.CreatedAt, &col.BookmarkCount); err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

type collectionWithCount struct {
	models.Collection
	BookmarkCount int `json:"bookmark_count"`
}

func (r *Repository) ownerOf(ctx context.Context, id int64) (int64, error) {
	var ownerID int64
	err := r.pool.QueryRow(ctx, `SELECT user_id FROM collections WHERE id = $1`, id).Scan(&ownerID)
	return ownerID, err
}

// Rename updates a collection's name and description.
func (r *Repository) Rename(ctx context.Context, id, userID int64, name string, description *string) (*models.Collection, error) {
	ownerID, err := r.ownerOf(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrNotOwner
	}
	const q = `UPDATE collections SET name = $3, description = COALESCE($4, description)
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, description, created_at`
	var col models.Collection
	err = r.pool.QueryRow(ctx, q, id, userID, name, description).
		Scan(&col.ID, &col.UserID, &col.Name, &col.Description, &col.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateName
	}
	if err != nil {
		return nil, err
	}
	return &col, nil
}

// Delete removes a collection. Bookmarks inside it survive with no
// collection (the foreign key is ON DELETE SET NULL).
func (r *Repository) Delete(ctx context.Context, id, userID int64) error {
	ownerID, err := r.ownerOf(ctx, id)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return ErrNotOwner
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
