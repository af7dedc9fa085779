package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

// Repository handles user persistence for registration and login.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, password, full_name, user_name, avatar_url, birthday, gender, bio, role, xp, level, created_at, updated_at`

// rowScanner matches pgx.Row and pgx.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, u *models.User) error {
	return row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.UserName, &u.AvatarURL,
		&u.Birthday, &u.Gender, &u.Bio, &u.Role, &u.XP, &u.Level, &u.CreatedAt, &u.UpdatedAt)
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var u models.User
	if err := scanUser(r.pool.QueryRow(ctx, q, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	var u models.User
	if err := scanUser(r.pool.QueryRow(ctx, q, email), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user with the default role.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string) (*models.User, error) {
	const q = `INSERT INTO users (email, password, full_name)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	var u models.User
	if err := scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, fullName), &u); err != nil {
		return nil, err
	}
	return &u, nil
}
