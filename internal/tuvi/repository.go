package tuvi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

const chartColumns = `id, user_id, birth_date, birth_hour, gender, birth_place, is_lunar,
	can_name, chi_name, menh_element, chart_data, ai_reading, status, created_at, updated_at`

// Repository persists generated charts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a chart repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanChart(row interface{ Scan(dest ...any) error }) (*models.TuViChart, error) {
	var ch models.TuViChart
	err := row.Scan(&ch.ID, &ch.UserID, &ch.BirthDate, &ch.BirthHour, &ch.Gender, &ch.BirthPlace,
		&ch.IsLunar, &ch.Can, &ch.Chi, &ch.MenhElement, &ch.ChartData, &ch.AIReading, &ch.Status,
		&ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// Create stores a freshly generated chart.
func (r *Repository) Create(ctx context.Context, userID int64, solarDate time.Time, birthHour int,
	gender string, birthPlace *string, isLunar bool, chart *Chart) (*models.TuViChart, error) {
	data, err := json.Marshal(chart)
	if err != nil {
		return nil, err
	}
	const q = `INSERT INTO tuvi_charts (user_id, birth_date, birth_hour, gender, birth_place,
			is_lunar, can_name, chi_name, menh_element, chart_data, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'GENERATED')
		RETURNING ` + chartColumns
	return scanChart(r.pool.QueryRow(ctx, q, userID, solarDate, birthHour, gender, birthPlace,
		isLunar, chart.Input.Can, chart.Input.Chi, chart.Input.Menh, data))
}

// GetByID returns one chart.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.TuViChart, error) {
	return scanChart(r.pool.QueryRow(ctx, `SELECT `+chartColumns+` FROM tuvi_charts WHERE id = $1`, id))
}

// ListByUser returns the user's charts, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.TuViChart, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+chartColumns+` FROM tuvi_charts WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.TuViChart{}
	for rows.Next() {
		ch, err := scanChart(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ch)
	}
	return out, rows.Err()
}

// SaveReading attaches the AI interpretation to a chart.
func (r *Repository) SaveReading(ctx context.Context, id int64, reading string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tuvi_charts SET ai_reading = $2, status = 'INTERPRETED', updated_at = now() WHERE id = $1`,
		id, reading)
	return err
}
