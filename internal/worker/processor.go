package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/models"
	"github.com/nmtun/seeboi-backend/internal/moderation"
	"github.com/nmtun/seeboi-backend/pkg/queue"
)

// Scanner runs the AI toxicity scan.
type Scanner interface {
	Scan(ctx context.Context, content string) moderation.Verdict
}

// ContentStore hides or flags scanned content.
type ContentStore interface {
	SetStatus(ctx context.Context, postID int64, status models.PostStatus) error
	PostAuthorName(ctx context.Context, postID int64) (string, error)
}

// ReportStore files system reports.
type ReportStore interface {
	Create(ctx context.Context, reporterID *int64, postID, commentID *int64, reason string) (*models.Report, error)
}

// FollowerSource lists a user's followers for fanout.
type FollowerSource interface {
	FollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Notifier creates a notification and pushes it over the realtime channel.
type Notifier interface {
	Notify(ctx context.Context, userID int64, ntype, content string, refID *int64) error
}

// Processor executes background jobs pulled off the Redis queue.
type Processor struct {
	scanner   Scanner
	content   ContentStore
	reports   ReportStore
	followers FollowerSource
	notifier  Notifier
	logger    *zap.Logger
}

// NewProcessor wires the job processor.
func NewProcessor(scanner Scanner, content ContentStore, reports ReportStore,
	followers FollowerSource, notifier Notifier, logger *zap.Logger) *Processor {
	return &Processor{
		scanner:   scanner,
		content:   content,
		reports:   reports,
		followers: followers,
		notifier:  notifier,
		logger:    logger,
	}
}

// Process dispatches one job. A returned error sends the job through the
// retry path.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeModerationScan:
		return p.processModerationScan(ctx, job)
	case queue.JobTypeNotificationFanout:
		return p.processNotificationFanout(ctx, job)
	default:
		p.logger.Warn("unknown job type", zap.String("type", string(job.Type)), zap.String("job_id", job.ID))
		return nil
	}
}

// processModerationScan runs the AI scan over new content. Toxic verdicts
// file a system report; high-confidence toxic posts are hidden immediately
// and their author is told.
func (p *Processor) processModerationScan(ctx context.Context, job *queue.Job) error {
	var payload queue.ModerationScanPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Error("bad moderation payload", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	verdict := p.scanner.Scan(ctx, payload.Text)
	p.logger.Info("moderation scan complete",
		zap.String("content_type", payload.ContentType),
		zap.Int64("content_id", payload.ContentID),
		zap.String("label", string(verdict.Label)),
		zap.Float64("confidence", verdict.Confidence))

	if verdict.Label != moderation.LabelToxic {
		return nil
	}

	var postID, commentID *int64
	if payload.ContentType == "comment" {
		commentID = &payload.ContentID
	} else {
		postID = &payload.ContentID
	}
	reason := fmt.Sprintf("AI moderation: %s (confidence %.2f)", verdict.Reason, verdict.Confidence)
	if _, err := p.reports.Create(ctx, nil, postID, commentID, reason); err != nil {
		return fmt.Errorf("file system report: %w", err)
	}

	// Only high-confidence toxic posts are hidden without human review.
	if postID != nil && verdict.Confidence >= 0.9 {
		if err := p.content.SetStatus(ctx, *postID, models.StatusHidden); err != nil {
			return fmt.Errorf("hide post %d: %w", *postID, err)
		}
		_ = p.notifier.Notify(ctx, payload.AuthorID, models.NotifyContentRemoved,
			"Your post was hidden pending moderation review", postID)
		return nil
	}

	_ = p.notifier.Notify(ctx, payload.AuthorID, models.NotifyContentWarning,
		"Your content was flagged for moderation review", &payload.ContentID)
	return nil
}

// processNotificationFanout notifies every follower about a new post.
func (p *Processor) processNotificationFanout(ctx context.Context, job *queue.Job) error {
	var payload queue.NotificationFanoutPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Error("bad fanout payload", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	authorName, err := p.content.PostAuthorName(ctx, payload.PostID)
	if err != nil {
		return fmt.Errorf("resolve author of post %d: %w", payload.PostID, err)
	}

	followerIDs, err := p.followers.FollowerIDs(ctx, payload.AuthorID)
	if err != nil {
		return fmt.Errorf("list followers of %d: %w", payload.AuthorID, err)
	}

	content := fmt.Sprintf("%s published a new post", authorName)
	delivered := 0
	for _, followerID := range followerIDs {
		if err := p.notifier.Notify(ctx, followerID, models.NotifyNewPost, content, &payload.PostID); err != nil {
			p.logger.Warn("fanout notification failed",
				zap.Int64("follower_id", followerID), zap.Error(err))
			continue
		}
		delivered++
	}
	p.logger.Info("fanout complete",
		zap.Int64("post_id", payload.PostID),
		zap.Int("followers", len(followerIDs)),
		zap.Int("delivered", delivered))
	return nil
}
