package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/models"
	"github.com/nmtun/seeboi-backend/internal/moderation"
	"github.com/nmtun/seeboi-backend/pkg/queue"
)

type stubScanner struct{ verdict moderation.Verdict }

func (s *stubScanner) Scan(_ context.Context, _ string) moderation.Verdict { return s.verdict }

type stubContent struct {
	hidden     []int64
	authorName string
}

func (s *stubContent) SetStatus(_ context.Context, postID int64, status models.PostStatus) error {
	if status == models.StatusHidden {
		s.hidden = append(s.hidden, postID)
	}
	return nil
}

func (s *stubContent) PostAuthorName(_ context.Context, _ int64) (string, error) {
	return s.authorName, nil
}

type stubReports struct{ created []models.Report }

func (s *stubReports) Create(_ context.Context, reporterID *int64, postID, commentID *int64, reason string) (*models.Report, error) {
	rep := models.Report{ReporterID: reporterID, PostID: postID, CommentID: commentID, Reason: reason}
	s.created = append(s.created, rep)
	return &rep, nil
}

type stubFollowers struct{ ids []int64 }

func (s *stubFollowers) FollowerIDs(_ context.Context, _ int64) ([]int64, error) {
	return s.ids, nil
}

type sentNotification struct {
	userID int64
	ntype  string
}

type stubNotifier struct{ sent []sentNotification }

func (s *stubNotifier) Notify(_ context.Context, userID int64, ntype, _ string, _ *int64) error {
	s.sent = append(s.sent, sentNotification{userID: userID, ntype: ntype})
	return nil
}

func makeJob(t *testing.T, jobType queue.JobType, payload interface{}) *queue.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &queue.Job{ID: "job-1", Type: jobType, Payload: raw}
}

func newProcessor(scanner Scanner) (*Processor, *stubContent, *stubReports, *stubFollowers, *stubNotifier) {
	content := &stubContent{authorName: "Minh"}
	reports := &stubReports{}
	followers := &stubFollowers{}
	notifier := &stubNotifier{}
	p := NewProcessor(scanner, content, reports, followers, notifier, zap.NewNop())
	return p, content, reports, followers, notifier
}

func TestModerationScanSafeContentDoesNothing(t *testing.T) {
	p, content, reports, _, notifier := newProcessor(&stubScanner{
		verdict: moderation.Verdict{Label: moderation.LabelSafe, Confidence: 0.95},
	})

	job := makeJob(t, queue.JobTypeModerationScan, queue.ModerationScanPayload{
		ContentType: "post", ContentID: 7, AuthorID: 3, Text: "hello",
	})
	require.NoError(t, p.Process(context.Background(), job))

	assert.Empty(t, reports.created)
	assert.Empty(t, content.hidden)
	assert.Empty(t, notifier.sent)
}

func TestModerationScanToxicPostHighConfidenceHides(t *testing.T) {
	p, content, reports, _, notifier := newProcessor(&stubScanner{
		verdict: moderation.Verdict{Label: moderation.LabelToxic, Confidence: 0.97, Reason: "hate speech"},
	})

	job := makeJob(t, queue.JobTypeModerationScan, queue.ModerationScanPayload{
		ContentType: "post", ContentID: 7, AuthorID: 3, Text: "bad",
	})
	require.NoError(t, p.Process(context.Background(), job))

	require.Len(t, reports.created, 1)
	assert.Nil(t, reports.created[0].ReporterID)
	require.NotNil(t, reports.created[0].PostID)
	assert.Equal(t, int64(7), *reports.created[0].PostID)

	assert.Equal(t, []int64{7}, content.hidden)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, models.NotifyContentRemoved, notifier.sent[0].ntype)
	assert.Equal(t, int64(3), notifier.sent[0].userID)
}

func TestModerationScanToxicLowConfidenceOnlyWarns(t *testing.T) {
	p, content, reports, _, notifier := newProcessor(&stubScanner{
		verdict: moderation.Verdict{Label: moderation.LabelToxic, Confidence: 0.6, Reason: "maybe"},
	})

	job := makeJob(t, queue.JobTypeModerationScan, queue.ModerationScanPayload{
		ContentType: "post", ContentID: 7, AuthorID: 3, Text: "iffy",
	})
	require.NoError(t, p.Process(context.Background(), job))

	assert.Len(t, reports.created, 1)
	assert.Empty(t, content.hidden)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, models.NotifyContentWarning, notifier.sent[0].ntype)
}

func TestModerationScanToxicCommentFilesCommentReport(t *testing.T) {
	p, content, reports, _, _ := newProcessor(&stubScanner{
		verdict: moderation.Verdict{Label: moderation.LabelToxic, Confidence: 0.99, Reason: "abuse"},
	})

	job := makeJob(t, queue.JobTypeModerationScan, queue.ModerationScanPayload{
		ContentType: "comment", ContentID: 42, AuthorID: 5, Text: "bad",
	})
	require.NoError(t, p.Process(context.Background(), job))

	require.Len(t, reports.created, 1)
	assert.Nil(t, reports.created[0].PostID)
	require.NotNil(t, reports.created[0].CommentID)
	assert.Equal(t, int64(42), *reports.created[0].CommentID)
	assert.Empty(t, content.hidden)
}

func TestNotificationFanoutNotifiesEveryFollower(t *testing.T) {
	p, _, _, followers, notifier := newProcessor(&stubScanner{})
	followers.ids = []int64{10, 11, 12}

	job := makeJob(t, queue.JobTypeNotificationFanout, queue.NotificationFanoutPayload{
		PostID: 9, AuthorID: 3,
	})
	require.NoError(t, p.Process(context.Background(), job))

	require.Len(t, notifier.sent, 3)
	for i, want := range []int64{10, 11, 12} {
		assert.Equal(t, want, notifier.sent[i].userID)
		assert.Equal(t, models.NotifyNewPost, notifier.sent[i].ntype)
	}
}

func TestUnknownJobTypeIsDropped(t *testing.T) {
	p, _, _, _, _ := newProcessor(&stubScanner{})
	job := &queue.Job{ID: "job-x", Type: "mystery"}
	assert.NoError(t, p.Process(context.Background(), job))
}
