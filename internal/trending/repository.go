package trending

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

// Ranking axes for TopPosts.
const (
	RankViews = "views"
	RankLikes = "likes"
)

// TrendingPost is a post decorated with its engagement inside the window.
type TrendingPost struct {
	models.Post
	ViewsInPeriod int `json:"views_in_period"`
	LikesInPeriod int `json:"likes_in_period"`
}

// Stats is the platform-wide activity snapshot.
type Stats struct {
	Views24h int `json:"views_24h"`
	Likes24h int `json:"likes_24h"`
	Posts24h int `json:"posts_24h"`
	Views7d  int `json:"views_7d"`
}

// Repository computes trending rankings from the append-only engagement logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a trending repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TopPosts ranks public visible posts by view or like count since the window
// start. Posts deleted or hidden after accumulating engagement simply drop out
// of the ranking; the order of the remaining posts is preserved.
func (r *Repository) TopPosts(ctx context.Context, rankBy string, since time.Time, limit int) ([]TrendingPost, error) {
	qTop := `SELECT post_id, COUNT(*) AS n
		FROM post_views
		WHERE viewed_at >= $1
		GROUP BY post_id
		ORDER BY n DESC, post_id
		LIMIT $2`
	if rankBy == RankLikes {
		qTop = `SELECT post_id, COUNT(*) AS n
			FROM post_likes
			WHERE created_at >= $1
			GROUP BY post_id
			ORDER BY n DESC, post_id
			LIMIT $2`
	}
	rows, err := r.pool.Query(ctx, qTop, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var order []int64
	ranked := make(map[int64]int)
	for rows.Next() {
		var postID int64
		var n int
		if err := rows.Scan(&postID, &n); err != nil {
			return nil, err
		}
		order = append(order, postID)
		ranked[postID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return []TrendingPost{}, nil
	}

	const qPosts = `SELECT p.id, p.user_id, p.title, p.content, p.content_text, p.content_format,
			p.thumbnail_url, p.type, p.visibility, p.status, p.created_at, p.updated_at,
			u.id, u.user_name, u.full_name, u.avatar_url,
			(SELECT COUNT(*) FROM post_likes WHERE post_id = p.id) AS like_count,
			(SELECT COUNT(*) FROM comments WHERE post_id = p.id) AS comment_count,
			(SELECT COUNT(*) FROM post_views WHERE post_id = p.id) AS view_count
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = ANY($1)
		  AND p.status = 'VISIBLE'
		  AND p.visibility = 'PUBLIC'
		  AND p.is_draft = FALSE
		  AND p.deleted_at IS NULL`
	prows, err := r.pool.Query(ctx, qPosts, order)
	if err != nil {
		return nil, err
	}
	defer prows.Close()

	byID := make(map[int64]TrendingPost, len(order))
	for prows.Next() {
		var tp TrendingPost
		var u models.UserPublic
		if err := prows.Scan(&tp.ID, &tp.UserID, &tp.Title, &tp.Content, &tp.ContentText, &tp.ContentFormat,
			&tp.ThumbnailURL, &tp.Type, &tp.Visibility, &tp.Status, &tp.CreatedAt, &tp.UpdatedAt,
			&u.ID, &u.UserName, &u.FullName, &u.AvatarURL,
			&tp.LikeCount, &tp.CommentCount, &tp.ViewCount); err != nil {
			return nil, err
		}
		tp.User = &u
		byID[tp.ID] = tp
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}

	views, likes := ranked, ranked
	if rankBy == RankLikes {
		views, err = r.countInPeriod(ctx, qViewsInPeriod, order, since)
	} else {
		likes, err = r.countInPeriod(ctx, qLikesInPeriod, order, since)
	}
	if err != nil {
		return nil, err
	}

	out := make([]TrendingPost, 0, len(order))
	for _, id := range order {
		tp, ok := byID[id]
		if !ok {
			continue
		}
		tp.ViewsInPeriod = views[id]
		tp.LikesInPeriod = likes[id]
		out = append(out, tp)
	}
	return out, nil
}

const (
	qLikesInPeriod = `SELECT post_id, COUNT(*) FROM post_likes
		WHERE post_id = ANY($1) AND created_at >= $2
		GROUP BY post_id`
	qViewsInPeriod = `SELECT post_id, COUNT(*) FROM post_views
		WHERE post_id = ANY($1) AND viewed_at >= $2
		GROUP BY post_id`
)

func (r *Repository) countInPeriod(ctx context.Context, q string, postIDs []int64, since time.Time) (map[int64]int, error) {
	rows, err := r.pool.Query(ctx, q, postIDs, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]int, len(postIDs))
	for rows.Next() {
		var postID int64
		var n int
		if err := rows.Scan(&postID, &n); err != nil {
			return nil, err
		}
		out[postID] = n
	}
	return out, rows.Err()
}

// GetStats returns four activity counts, each from its own query. The first
// failing count aborts the read.
func (r *Repository) GetStats(ctx context.Context, now time.Time) (*Stats, error) {
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var s Stats
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM post_views WHERE viewed_at >= $1`, dayAgo).Scan(&s.Views24h); err != nil {
		return nil, err
	}
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM post_likes WHERE created_at >= $1`, dayAgo).Scan(&s.Likes24h); err != nil {
		return nil, err
	}
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE created_at >= $1 AND is_draft = FALSE AND deleted_at IS NULL`, dayAgo).Scan(&s.Posts24h); err != nil {
		return nil, err
	}
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM post_views WHERE viewed_at >= $1`, weekAgo).Scan(&s.Views7d); err != nil {
		return nil, err
	}
	return &s, nil
}
