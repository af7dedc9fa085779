package trending

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStore struct {
	posts     []TrendingPost
	gotRankBy string
	gotSince  time.Time
	gotLimit  int
	stats     *Stats
	postsErr  error
	statsErr  error
}

func (s *stubStore) TopPosts(ctx context.Context, rankBy string, since time.Time, limit int) ([]TrendingPost, error) {
	s.gotRankBy = rankBy
	s.gotSince = since
	s.gotLimit = limit
	return s.posts, s.postsErr
}

func (s *stubStore) GetStats(ctx context.Context, now time.Time) (*Stats, error) {
	return s.stats, s.statsErr
}

func newTestRouter(store Store, now time.Time) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, zap.NewNop())
	h.now = func() time.Time { return now }
	r := gin.New()
	r.GET("/trending", h.List)
	r.GET("/trending/stats", h.GetStats)
	return r
}

func TestListDefaultPeriodAndLimit(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	store := &stubStore{posts: []TrendingPost{}}
	r := newTestRouter(store, now)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trending?type=views", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, RankViews, store.gotRankBy)
	assert.Equal(t, now.Add(-24*time.Hour), store.gotSince)
	assert.Equal(t, defaultLimit, store.gotLimit)
}

func TestListRanksByLikes(t *testing.T) {
	store := &stubStore{posts: []TrendingPost{}}
	r := newTestRouter(store, time.Now())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trending?type=likes", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, RankLikes, store.gotRankBy)
}

func TestListTypeValidation(t *testing.T) {
	store := &stubStore{}
	r := newTestRouter(store, time.Now())

	for _, q := range []string{"/trending", "/trending?type=garbage", "/trending?type=LIKES"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, "query %s", q)
	}
	assert.Empty(t, store.gotRankBy, "store must not be consulted for a bad type")
}

func TestListLimitValidation(t *testing.T) {
	store := &stubStore{}
	r := newTestRouter(store, time.Now())

	for _, raw := range []string{"0", "-3", "51", "abc"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trending?type=views&limit="+raw, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", raw)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trending?type=views&limit=50", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, store.gotLimit)
}

func TestListUnknownPeriod(t *testing.T) {
	store := &stubStore{}
	r := newTestRouter(store, time.Now())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trending?type=views&period=year", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPreservesRankingOrder(t *testing.T) {
	store := &stubStore{posts: []TrendingPost{
		{ViewsInPeriod: 50},
		{ViewsInPeriod: 20},
		{ViewsInPeriod: 5},
	}}
	r := newTestRouter(store, time.Now())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trending?type=views&period=week", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Posts []TrendingPost `json:"posts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Posts, 3)
	assert.Equal(t, 50, resp.Data.Posts[0].ViewsInPeriod)
	assert.Equal(t, 5, resp.Data.Posts[2].ViewsInPeriod)
}

func TestGetStats(t *testing.T) {
	store := &stubStore{stats: &Stats{Views24h: 100, Likes24h: 10, Posts24h: 4, Views7d: 900}}
	r := newTestRouter(store, time.Now())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trending/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 900, resp.Data.Views7d)
}
