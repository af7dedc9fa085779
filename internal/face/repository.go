package face

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

// Repository persists saved face readings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a face reading repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save stores a reading: photo URL plus the combined report/interpretation.
func (r *Repository) Save(ctx context.Context, userID int64, imageURL string, result json.RawMessage) (*models.FaceReading, error) {
	const q = `INSERT INTO face_readings (user_id, image_url, result)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, image_url, result, created_at`
	var fr models.FaceReading
	err := r.pool.QueryRow(ctx, q, userID, imageURL, result).
		Scan(&fr.ID, &fr.UserID, &fr.ImageURL, &fr.Result, &fr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

// History returns the user's readings, newest first.
func (r *Repository) History(ctx context.Context, userID int64) ([]models.FaceReading, error) {
	const q = `SELECT id, user_id, image_url, result, created_at
		FROM face_readings WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.FaceReading{}
	for rows.Next() {
		var fr models.FaceReading
		if err := rows.Scan(&fr.ID, &fr.UserID, &fr.ImageURL, &fr.Result, &fr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, fr)
	}
	return out, rows.Err()
}

// GetByID returns one reading scoped to its owner.
func (r *Repository) GetByID(ctx context.Context, id, userID int64) (*models.FaceReading, error) {
	const q = `SELECT id, user_id, image_url, result, created_at
		FROM face_readings WHERE id = $1 AND user_id = $2`
	var fr models.FaceReading
	err := r.pool.QueryRow(ctx, q, id, userID).
		Scan(&fr.ID, &fr.UserID, &fr.ImageURL, &fr.Result, &fr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &fr, nil
}
