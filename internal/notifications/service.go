package notifications

import (
	"context"

	"go.uber.org/zap"
)

// Pusher delivers a realtime event to a user's personal room.
type Pusher interface {
	NotifyUser(userID int64, event string, payload interface{})
}

// Service persists notifications and pushes them live. All feature handlers
// and the worker go through this one entry point.
type Service struct {
	repo   *Repository
	pusher Pusher
	logger *zap.Logger
}

// NewService creates a notification service. pusher may be nil (worker
// processes still push via Redis pub/sub when a hub is wired).
func NewService(repo *Repository, pusher Pusher, logger *zap.Logger) *Service {
	return &Service{repo: repo, pusher: pusher, logger: logger}
}

// Notify stores the notification and pushes it to the user's room. Delivery
// is best effort; persistence is not.
func (s *Service) Notify(ctx context.Context, userID int64, ntype, content string, refID *int64) error {
	n, err := s.repo.Create(ctx, userID, ntype, content, refID)
	if err != nil {
		return err
	}
	if s.pusher != nil {
		s.pusher.NotifyUser(userID, "notification", n)
	}
	return nil
}
