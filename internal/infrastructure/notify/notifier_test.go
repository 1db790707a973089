package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

type mockNotificationRepo struct {
	created    []*entity.Notification
	createErr  error
	existing   map[string]bool
	existsErr  error
	listResult []*entity.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, notification)
	return nil
}

func (m *mockNotificationRepo) ExistsByDedupeKey(ctx context.Context, key string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.existing[key], nil
}

func (m *mockNotificationRepo) ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error) {
	return m.listResult, nil
}

func TestInAppNotifier_Send(t *testing.T) {
	t.Run("stores the notification", func(t *testing.T) {
		repo := &mockNotificationRepo{}
		notifier := NewInAppNotifier(repo, zap.NewNop())

		err := notifier.Send(context.Background(), &entity.Notification{
			RecipientID: 10,
			Kind:        entity.NotificationSLAWarning,
			Subject:     "Agreement approaching its SLA limit",
		})
		require.NoError(t, err)
		require.Len(t, repo.created, 1)
		assert.False(t, repo.created[0].CreatedAt.IsZero(), "created_at should be defaulted")
	})

	t.Run("suppresses a repeated dedupe key", func(t *testing.T) {
		repo := &mockNotificationRepo{existing: map[string]bool{"sla:1:SLA_WARNING:2026-03-20": true}}
		notifier := NewInAppNotifier(repo, zap.NewNop())

		err := notifier.Send(context.Background(), &entity.Notification{
			RecipientID: 10,
			Kind:        entity.NotificationSLAWarning,
			DedupeKey:   "sla:1:SLA_WARNING:2026-03-20",
		})
		require.NoError(t, err)
		assert.Empty(t, repo.created, "duplicate must be dropped silently")
	})

	t.Run("keeps the caller's timestamp", func(t *testing.T) {
		repo := &mockNotificationRepo{}
		notifier := NewInAppNotifier(repo, zap.NewNop())

		at := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
		err := notifier.Send(context.Background(), &entity.Notification{
			RecipientID: 10,
			Kind:        entity.NotificationSLACritical,
			CreatedAt:   at,
		})
		require.NoError(t, err)
		require.Len(t, repo.created, 1)
		assert.Equal(t, at, repo.created[0].CreatedAt)
	})

	t.Run("propagates store failures", func(t *testing.T) {
		repo := &mockNotificationRepo{createErr: errors.New("disk full")}
		notifier := NewInAppNotifier(repo, zap.NewNop())

		err := notifier.Send(context.Background(), &entity.Notification{RecipientID: 10})
		assert.Error(t, err)
	})

	t.Run("propagates dedupe lookup failures", func(t *testing.T) {
		repo := &mockNotificationRepo{existsErr: errors.New("db closed")}
		notifier := NewInAppNotifier(repo, zap.NewNop())

		err := notifier.Send(context.Background(), &entity.Notification{RecipientID: 10, DedupeKey: "k"})
		assert.Error(t, err)
		assert.Empty(t, repo.created)
	})
}
