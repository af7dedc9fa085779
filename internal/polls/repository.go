package polls

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

var (
	// ErrPollExpired is returned when a vote is attempted on an expired poll.
	ErrPollExpired = errors.New("poll expired")
	// ErrOptionNotInPoll is returned when the option does not belong to the poll.
	ErrOptionNotInPoll = errors.New("option not in poll")
	// ErrNotVoted is returned by Unvote when the user has no live vote.
	ErrNotVoted = errors.New("not voted")
)

// OptionResult is one option's tally within a poll result.
type OptionResult struct {
	OptionID   int64  `json:"option_id"`
	Text       string `json:"text"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Result is the full tally of a poll.
type Result struct {
	PollID     int64          `json:"poll_id"`
	PostID     int64          `json:"post_id"`
	TotalVotes int            `json:"total_votes"`
	ExpiresAt  *time.Time     `json:"expires_at"`
	Expired    bool           `json:"expired"`
	Options    []OptionResult `json:"options"`
	UserVote   *int64         `json:"user_vote,omitempty"`
}

// Repository handles poll persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a poll repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a poll with its options. Runs inside the caller's
// transaction so a poll post and its poll commit atomically.
func (r *Repository) Create(ctx context.Context, tx pgx.Tx, postID int64, expiresAt *time.Time, options []string) (*models.Poll, error) {
	const q = `INSERT INTO polls (post_id, expires_at) VALUES ($1, $2)
		RETURNING id, post_id, expires_at, created_at`
	var p models.Poll
	if err := tx.QueryRow(ctx, q, postID, expiresAt).Scan(&p.ID, &p.PostID, &p.ExpiresAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	const qo = `INSERT INTO poll_options (poll_id, text) VALUES ($1, $2) RETURNING id, poll_id, text`
	for _, text := range options {
		var o models.PollOption
		if err := tx.QueryRow(ctx, qo, p.ID, text).Scan(&o.ID, &o.PollID, &o.Text); err != nil {
			return nil, err
		}
		p.Options = append(p.Options, o)
	}
	return &p, nil
}

// GetByID returns a poll with its options.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Poll, error) {
	const q = `SELECT id, post_id, expires_at, created_at FROM polls WHERE id = $1`
	var p models.Poll
	if err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.PostID, &p.ExpiresAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	opts, err := r.options(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Options = opts
	return &p, nil
}

// GetByPostID returns the poll attached to a post, or pgx.ErrNoRows.
func (r *Repository) GetByPostID(ctx context.Context, postID int64) (*models.Poll, error) {
	const q = `SELECT id, post_id, expires_at, created_at FROM polls WHERE post_id = $1`
	var p models.Poll
	if err := r.pool.QueryRow(ctx, q, postID).Scan(&p.ID, &p.PostID, &p.ExpiresAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	opts, err := r.options(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Options = opts
	return &p, nil
}

func (r *Repository) options(ctx context.Context, pollID int64) ([]models.PollOption, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, poll_id, text FROM poll_options WHERE poll_id = $1 ORDER BY id`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var opts []models.PollOption
	for rows.Next() {
		var o models.PollOption
		if err := rows.Scan(&o.ID, &o.PollID, &o.Text); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

// FindVote returns the user's current option in a poll, or nil.
func (r *Repository) FindVote(ctx context.Context, pollID, userID int64) (*int64, error) {
	const q = `SELECT option_id FROM poll_votes WHERE poll_id = $1 AND user_id = $2`
	var optionID int64
	err := r.pool.QueryRow(ctx, q, pollID, userID).Scan(&optionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &optionID, nil
}

// Vote applies the three-way toggle for userID on optionID in one
// transaction. The current vote row is locked so concurrent requests from
// the same user serialize instead of violating the one-vote constraint.
// Returns pgx.ErrNoRows when the poll does not exist.
func (r *Repository) Vote(ctx context.Context, pollID, optionID, userID int64) (Action, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var expiresAt *time.Time
	if err := tx.QueryRow(ctx, `SELECT expires_at FROM polls WHERE id = $1`, pollID).Scan(&expiresAt); err != nil {
		return "", err
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return "", ErrPollExpired
	}

	var belongs bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM poll_options WHERE id = $1 AND poll_id = $2)`,
		optionID, pollID).Scan(&belongs); err != nil {
		return "", err
	}
	if !belongs {
		return "", ErrOptionNotInPoll
	}

	var current *int64
	var cur int64
	err = tx.QueryRow(ctx, `SELECT option_id FROM poll_votes WHERE poll_id = $1 AND user_id = $2 FOR UPDATE`,
		pollID, userID).Scan(&cur)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		current = nil
	case err != nil:
		return "", err
	default:
		current = &cur
	}

	action := Transition(current, optionID)
	switch action {
	case ActionVote:
		_, err = tx.Exec(ctx, `INSERT INTO poll_votes (poll_id, option_id, user_id) VALUES ($1, $2, $3)`,
			pollID, optionID, userID)
	case ActionUnvote:
		_, err = tx.Exec(ctx, `DELETE FROM poll_votes WHERE poll_id = $1 AND user_id = $2`, pollID, userID)
	case ActionChange:
		_, err = tx.Exec(ctx, `UPDATE poll_votes SET option_id = $1, created_at = now() WHERE poll_id = $2 AND user_id = $3`,
			optionID, pollID, userID)
	}
	if err != nil {
		return "", err
	}
	return action, tx.Commit(ctx)
}

// Unvote removes the user's vote regardless of poll expiry. Returns
// pgx.ErrNoRows when the poll does not exist and ErrNotVoted when the user
// has no live vote.
func (r *Repository) Unvote(ctx context.Context, pollID, userID int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM polls WHERE id = $1)`, pollID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM poll_votes WHERE poll_id = $1 AND user_id = $2`, pollID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotVoted
	}
	return nil
}

// Result tallies the poll. userID 0 means anonymous; UserVote stays nil.
func (r *Repository) Result(ctx context.Context, pollID, userID int64) (*Result, error) {
	poll, err := r.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int, len(poll.Options))
	rows, err := r.pool.Query(ctx,
		`SELECT option_id, COUNT(*) FROM poll_votes WHERE poll_id = $1 GROUP BY option_id`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	total := 0
	for rows.Next() {
		var optionID int64
		var n int
		if err := rows.Scan(&optionID, &n); err != nil {
			return nil, err
		}
		counts[optionID] = n
		total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		PollID:     poll.ID,
		PostID:     poll.PostID,
		TotalVotes: total,
		ExpiresAt:  poll.ExpiresAt,
		Expired:    poll.Expired(time.Now()),
		Options:    make([]OptionResult, 0, len(poll.Options)),
	}
	for _, o := range poll.Options {
		n := counts[o.ID]
		res.Options = append(res.Options, OptionResult{
			OptionID:   o.ID,
			Text:       o.Text,
			Count:      n,
			Percentage: Percentage(n, total),
		})
	}
	if userID != 0 {
		uv, err := r.FindVote(ctx, pollID, userID)
		if err != nil {
			return nil, err
		}
		res.UserVote = uv
	}
	return res, nil
}
