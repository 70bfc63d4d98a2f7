package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification event types. There is intentionally no "unliked" or
// "unreposted" type: undo transitions never notify.
const (
	NotifMentioned  = "mentioned"
	NotifReplied    = "replied"
	NotifLiked      = "liked"
	NotifFollowed   = "followed"
	NotifUnfollowed = "unfollowed"
	NotifReposted   = "reposted"
)

// MaxNotifications bounds the per-user notification list; truncation drops the
// oldest entries.
const MaxNotifications = 20

// NotificationBody references the user/post that triggered the event.
type NotificationBody struct {
	UserID string `json:"user,omitempty"`
	PostID string `json:"post,omitempty"`
	Link   string `json:"link,omitempty"`
}

// NotificationEvent is a single entry in a user's notification list.
type NotificationEvent struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Title     string           `json:"title"`
	Body      NotificationBody `json:"body"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// SubscriptionKeys carries the client's web-push encryption keys.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription is one registered device endpoint. Endpoint identity keys
// the subscription set: subscribing the same endpoint twice is a no-op.
type PushSubscription struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

// NotificationEvents is the bounded, newest-first event list.
type NotificationEvents []NotificationEvent

// Insert places e at its sorted position (newest-first) and truncates to
// MaxNotifications, dropping the oldest entries.
func (n NotificationEvents) Insert(e NotificationEvent) NotificationEvents {
	i := 0
	for i < len(n) && n[i].CreatedAt.After(e.CreatedAt) {
		i++
	}
	out := make(NotificationEvents, 0, len(n)+1)
	out = append(out, n[:i]...)
	out = append(out, e)
	out = append(out, n[i:]...)
	if len(out) > MaxNotifications {
		out = out[:MaxNotifications]
	}
	return out
}

// Subscriptions is the registered device endpoint list.
type Subscriptions []PushSubscription

// Contains reports whether an endpoint is already registered.
func (s Subscriptions) Contains(endpoint string) bool {
	for _, sub := range s {
		if sub.Endpoint == endpoint {
			return true
		}
	}
	return false
}

// Remove drops the subscription with the given endpoint, if present.
func (s Subscriptions) Remove(endpoint string) Subscriptions {
	out := make(Subscriptions, 0, len(s))
	for _, sub := range s {
		if sub.Endpoint != endpoint {
			out = append(out, sub)
		}
	}
	return out
}

// Notification is the per-user notification feed document: the bounded event
// list plus the device push subscriptions.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"-"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	Notifications NotificationEvents `gorm:"type:jsonb;serializer:json" json:"notifications"`
	Subscriptions Subscriptions      `gorm:"type:jsonb;serializer:json" json:"subscriptions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}
