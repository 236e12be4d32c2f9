package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string, ts time.Time) error
}

// NotificationService manages user notifications.
type NotificationService struct {
	repo   notificationStore
	clock  clock.Clock
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationStore, clk clock.Clock, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &NotificationService{repo: repo, clock: clk, logger: logger}
}

// ListForUser returns a user's notifications, optionally unread only.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly)
}

// MarkRead stamps a notification read. Already-read notifications are a
// not-found.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	err := s.repo.MarkRead(ctx, id, s.clock.Now())
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrNotFound
	}
	return err
}
