// Package notify delivers notifications as persisted in-app messages.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

// InAppNotifier stores notifications in the database. A dedupe key on the
// notification suppresses repeats: the same alert fired twice within a scan
// window is dropped silently.
type InAppNotifier struct {
	repo   port.NotificationRepository
	logger *zap.Logger
}

// NewInAppNotifier creates an in-app notifier backed by the notification store
func NewInAppNotifier(repo port.NotificationRepository, logger *zap.Logger) port.Notifier {
	return &InAppNotifier{
		repo:   repo,
		logger: logger,
	}
}

// Send persists the notification unless its dedupe key was already delivered
func (n *InAppNotifier) Send(ctx context.Context, notification *entity.Notification) error {
	if notification.DedupeKey != "" {
		exists, err := n.repo.ExistsByDedupeKey(ctx, notification.DedupeKey)
		if err != nil {
			return fmt.Errorf("failed to check dedupe key: %w", err)
		}
		if exists {
			n.logger.Debug("Notification suppressed by dedupe key",
				zap.String("dedupe_key", notification.DedupeKey))
			return nil
		}
	}

	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	if err := n.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	n.logger.Info("Notification dispatched",
		zap.Int64("recipient_id", notification.RecipientID),
		zap.String("kind", notification.Kind),
		zap.String("subject", notification.Subject))
	return nil
}

// Verify interface compliance
var _ port.Notifier = (*InAppNotifier)(nil)
