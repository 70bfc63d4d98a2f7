package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/Deepakgauttam/twitter-clone/internal/models"
)

// ErrSubscriptionGone marks an endpoint the push service no longer knows
// about. The feed prunes the subscription when it sees this.
var ErrSubscriptionGone = errors.New("push subscription gone")

// Sender delivers one encrypted payload to one device endpoint.
type Sender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) error
}

// WebPushSender sends VAPID-signed Web Push messages.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subject    string
}

// NewWebPushSender returns a sender configured with the server's VAPID keys.
func NewWebPushSender(publicKey, privateKey, subject string) *WebPushSender {
	return &WebPushSender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
	}
}

func (w *WebPushSender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  w.publicKey,
		VAPIDPrivateKey: w.privateKey,
		Subscriber:      w.subject,
		TTL:             60,
	})
	if err != nil {
		return fmt.Errorf("push send failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("push send failed: status %d", resp.StatusCode)
	}
	return nil
}
