package polls

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/middleware"
)

type stubStore struct {
	voteAction  Action
	voteErr     error
	unvoteErr   error
	result      *Result
	resultErr   error
	userVote    *int64
	userVoteErr error
}

func (s *stubStore) Vote(ctx context.Context, pollID, optionID, userID int64) (Action, error) {
	return s.voteAction, s.voteErr
}

func (s *stubStore) Unvote(ctx context.Context, pollID, userID int64) error {
	return s.unvoteErr
}

func (s *stubStore) Result(ctx context.Context, pollID, userID int64) (*Result, error) {
	return s.result, s.resultErr
}

func (s *stubStore) FindVote(ctx context.Context, pollID, userID int64) (*int64, error) {
	return s.userVote, s.userVoteErr
}

func newTestRouter(store Store, userID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, nil, zap.NewNop())
	r := gin.New()
	setUser := func(c *gin.Context) {
		if userID != 0 {
			c.Set(middleware.ContextUserID, userID)
		}
		c.Next()
	}
	r.POST("/polls/:id/vote", setUser, h.Vote)
	r.DELETE("/polls/:id/vote", setUser, h.Unvote)
	r.GET("/polls/:id/result", setUser, h.GetResult)
	r.GET("/polls/:id/vote", setUser, h.GetUserVote)
	return r
}

func sampleResult() *Result {
	exp := time.Now().Add(time.Hour)
	return &Result{
		PollID:     1,
		PostID:     7,
		TotalVotes: 3,
		ExpiresAt:  &exp,
		Options: []OptionResult{
			{OptionID: 10, Text: "yes", Count: 2, Percentage: 67},
			{OptionID: 11, Text: "no", Count: 1, Percentage: 33},
		},
	}
}

func TestVoteReturnsActionTag(t *testing.T) {
	store := &stubStore{voteAction: ActionChange, result: sampleResult()}
	r := newTestRouter(store, 42)

	body, _ := json.Marshal(VoteRequest{OptionID: 11})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/polls/1/vote", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool         `json:"success"`
		Data    VoteResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, ActionChange, resp.Data.Action)
	assert.Equal(t, 3, resp.Data.Result.TotalVotes)
}

func TestVotePollNotFound(t *testing.T) {
	store := &stubStore{voteErr: pgx.ErrNoRows}
	r := newTestRouter(store, 42)

	body, _ := json.Marshal(VoteRequest{OptionID: 11})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/polls/99/vote", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVoteExpiredPoll(t *testing.T) {
	store := &stubStore{voteErr: ErrPollExpired}
	r := newTestRouter(store, 42)

	body, _ := json.Marshal(VoteRequest{OptionID: 11})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/polls/1/vote", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVoteForeignOption(t *testing.T) {
	store := &stubStore{voteErr: ErrOptionNotInPoll}
	r := newTestRouter(store, 42)

	body, _ := json.Marshal(VoteRequest{OptionID: 999})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/polls/1/vote", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnvoteWithoutVote(t *testing.T) {
	store := &stubStore{unvoteErr: ErrNotVoted}
	r := newTestRouter(store, 42)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/polls/1/vote", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnvoteWorksOnExpiredPoll(t *testing.T) {
	// the store applies no expiry check for unvote; handler must pass through
	store := &stubStore{result: sampleResult()}
	r := newTestRouter(store, 42)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/polls/1/vote", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data VoteResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ActionUnvote, resp.Data.Action)
}

func TestGetUserVoteAnonymous(t *testing.T) {
	store := &stubStore{userVote: ptr(10)}
	r := newTestRouter(store, 0) // no auth

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/polls/1/vote", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			OptionID *int64 `json:"option_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Data.OptionID)
}

func TestGetUserVoteAuthenticated(t *testing.T) {
	store := &stubStore{userVote: ptr(10)}
	r := newTestRouter(store, 42)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/polls/1/vote", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			OptionID *int64 `json:"option_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.OptionID)
	assert.Equal(t, int64(10), *resp.Data.OptionID)
}

type stubBroadcaster struct {
	rooms   []string
	events  []string
	results []Result
}

func (b *stubBroadcaster) PublishOnly(room, event string, payload interface{}) {
	b.rooms = append(b.rooms, room)
	b.events = append(b.events, event)
	if r, ok := payload.(Result); ok {
		b.results = append(b.results, r)
	}
}

func TestVotePublishesResultToPostRoom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &stubStore{voteAction: ActionVote, result: sampleResult()}
	store.result.UserVote = ptr(10)
	hub := &stubBroadcaster{}
	h := NewHandler(store, hub, zap.NewNop())
	r := gin.New()
	r.POST("/polls/:id/vote", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, int64(42))
		c.Next()
	}, h.Vote)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/polls/1/vote",
		bytes.NewBufferString(`{"option_id":10}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, hub.rooms, 1, "one publish per vote")
	assert.Equal(t, "post:7", hub.rooms[0])
	assert.Equal(t, "pollResult", hub.events[0])
	require.Len(t, hub.results, 1)
	assert.Nil(t, hub.results[0].UserVote, "published result must not carry a viewer vote")
}

func TestGetUserVoteStorageError(t *testing.T) {
	store := &stubStore{userVoteErr: errors.New("connection reset")}
	r := newTestRouter(store, 42)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/polls/1/vote", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetResultAnonymousOmitsUserVote(t *testing.T) {
	store := &stubStore{result: sampleResult()}
	r := newTestRouter(store, 0)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/polls/1/result", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Data.UserVote)
	assert.Len(t, resp.Data.Options, 2)
}
