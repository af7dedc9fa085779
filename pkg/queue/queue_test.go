package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueForRoutesByJobType(t *testing.T) {
	assert.Equal(t, QueueModeration, queueFor(JobTypeModerationScan))
	assert.Equal(t, QueueNotifications, queueFor(JobTypeNotificationFanout))
	// Unknown types land on the moderation queue rather than vanishing.
	assert.Equal(t, QueueModeration, queueFor(JobType("mystery")))
}

func TestJobEnvelopeRoundTrip(t *testing.T) {
	payload, err := json.Marshal(ModerationScanPayload{
		ContentType: "post",
		ContentID:   11,
		AuthorID:    3,
		Text:        "hello",
	})
	require.NoError(t, err)

	job := Job{
		ID:        "job-1",
		Type:      JobTypeModerationScan,
		Payload:   payload,
		Attempt:   2,
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(job)
	require.NoError(t, err)

	var got Job
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, job.Type, got.Type)
	assert.Equal(t, job.Attempt, got.Attempt)
	assert.True(t, job.CreatedAt.Equal(got.CreatedAt))

	var p ModerationScanPayload
	require.NoError(t, json.Unmarshal(got.Payload, &p))
	assert.Equal(t, int64(11), p.ContentID)
	assert.Equal(t, "hello", p.Text)
}
