// Package notify maintains the per-user notification feed and delivers Web
// Push messages to registered device endpoints.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/Deepakgauttam/twitter-clone/internal/errors"
	"github.com/Deepakgauttam/twitter-clone/internal/logger"
	"github.com/Deepakgauttam/twitter-clone/internal/models"
)

// Feed manages notification rows. List mutations run inside the caller's
// transaction (PushTx); push delivery happens after commit (Deliver) so a
// slow or failing push service never holds a transaction open.
type Feed struct {
	db     *gorm.DB
	sender Sender
}

// NewFeed returns a Feed. sender may be nil, which disables push delivery.
func NewFeed(db *gorm.DB, sender Sender) *Feed {
	return &Feed{db: db, sender: sender}
}

// PushTx appends event to userID's feed within tx, creating the feed row on
// first use. The list stays newest-first and is truncated to
// models.MaxNotifications.
func (f *Feed) PushTx(tx *gorm.DB, userID string, event models.NotificationEvent) error {
	var row models.Notification
	if err := tx.Where(models.Notification{UserID: userID}).FirstOrCreate(&row).Error; err != nil {
		return err
	}

	row.Notifications = row.Notifications.Insert(event)
	return tx.Save(&row).Error
}

// Deliver sends event to every device endpoint registered for userID, pruning
// endpoints the push service reports as gone. Call it after the transaction
// that recorded the event has committed.
func (f *Feed) Deliver(ctx context.Context, userID string, event models.NotificationEvent) {
	if f.sender == nil {
		return
	}

	var row models.Notification
	if err := f.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return
	}
	if len(row.Subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("failed to encode push payload", zap.Error(err))
		return
	}

	// One goroutine per endpoint; a slow or failing endpoint never blocks
	// the others
	var (
		mu   sync.Mutex
		gone []string
		wg   sync.WaitGroup
	)
	for _, sub := range row.Subscriptions {
		wg.Add(1)
		go func(sub models.PushSubscription) {
			defer wg.Done()
			if err := f.sender.Send(ctx, sub, payload); err != nil {
				if errors.Is(err, ErrSubscriptionGone) {
					mu.Lock()
					gone = append(gone, sub.Endpoint)
					mu.Unlock()
					return
				}
				logger.Log.Warn("push delivery failed",
					logger.WithUserID(userID),
					zap.Error(err),
				)
			}
		}(sub)
	}
	wg.Wait()

	if len(gone) > 0 {
		if err := f.pruneEndpoints(ctx, userID, gone); err != nil {
			logger.Log.Warn("failed to prune gone subscriptions",
				logger.WithUserID(userID),
				zap.Error(err),
			)
		}
	}
}

func (f *Feed) pruneEndpoints(ctx context.Context, userID string, endpoints []string) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Notification
		if err := tx.Where("user_id = ?", userID).First(&row).Error; err != nil {
			return err
		}
		for _, endpoint := range endpoints {
			row.Subscriptions = row.Subscriptions.Remove(endpoint)
		}
		return tx.Save(&row).Error
	})
}

// Subscribe registers a device endpoint for userID. Registering an endpoint
// that is already present is a no-op; the bool reports whether the set changed.
func (f *Feed) Subscribe(ctx context.Context, userID string, sub models.PushSubscription) (bool, error) {
	if strings.TrimSpace(sub.Endpoint) == "" {
		return false, apperrors.InvalidSubscription("subscription endpoint is required")
	}
	if sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return false, apperrors.InvalidSubscription("subscription keys are required")
	}

	changed := false
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Notification
		if err := tx.Where(models.Notification{UserID: userID}).FirstOrCreate(&row).Error; err != nil {
			return err
		}
		if row.Subscriptions.Contains(sub.Endpoint) {
			return nil
		}
		row.Subscriptions = append(row.Subscriptions, sub)
		changed = true
		return tx.Save(&row).Error
	})
	return changed, err
}

// Unsubscribe removes a device endpoint. Removing an absent endpoint is a
// no-op; the bool reports whether the set changed.
func (f *Feed) Unsubscribe(ctx context.Context, userID, endpoint string) (bool, error) {
	changed := false
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Notification
		if err := tx.Where("user_id = ?", userID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !row.Subscriptions.Contains(endpoint) {
			return nil
		}
		row.Subscriptions = row.Subscriptions.Remove(endpoint)
		changed = true
		return tx.Save(&row).Error
	})
	return changed, err
}

// List returns userID's notification feed, newest first. Users with no feed
// row get an empty list.
func (f *Feed) List(ctx context.Context, userID string) (models.NotificationEvents, error) {
	var row models.Notification
	if err := f.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotificationEvents{}, nil
		}
		return nil, err
	}
	if row.Notifications == nil {
		return models.NotificationEvents{}, nil
	}
	return row.Notifications, nil
}

// MarkRead flags one event as read. The bool reports whether anything changed.
func (f *Feed) MarkRead(ctx context.Context, userID, eventID string) (bool, error) {
	changed := false
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Notification
		if err := tx.Where("user_id = ?", userID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		for i := range row.Notifications {
			if row.Notifications[i].ID == eventID && !row.Notifications[i].Read {
				row.Notifications[i].Read = true
				changed = true
			}
		}
		if !changed {
			return nil
		}
		return tx.Save(&row).Error
	})
	return changed, err
}

// MarkAllRead flags every event as read and returns how many changed.
func (f *Feed) MarkAllRead(ctx context.Context, userID string) (int, error) {
	count := 0
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Notification
		if err := tx.Where("user_id = ?", userID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		for i := range row.Notifications {
			if !row.Notifications[i].Read {
				row.Notifications[i].Read = true
				count++
			}
		}
		if count == 0 {
			return nil
		}
		return tx.Save(&row).Error
	})
	return count, err
}
