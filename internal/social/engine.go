// Package social implements the state transitions of the social graph:
// follow/unfollow, like/unlike, repost/unrepost, replies and new posts. Every
// transition is serialized per (transition, actor, target) key and applies all
// of its writes in one database transaction, so concurrent duplicate requests
// collapse into one application plus no-ops and partial application cannot
// occur.
package social

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Deepakgauttam/twitter-clone/internal/identity"
	"github.com/Deepakgauttam/twitter-clone/internal/metrics"
	"github.com/Deepakgauttam/twitter-clone/internal/models"
	"github.com/Deepakgauttam/twitter-clone/internal/notify"
	"github.com/Deepakgauttam/twitter-clone/internal/timeline"
)

// Engine applies social graph transitions.
type Engine struct {
	db        *gorm.DB
	registry  *identity.Registry
	feed      *notify.Feed
	timelines *timeline.Service
	locks     keyedMutex
	now       func() time.Time
}

// NewEngine wires the engine to its collaborators.
func NewEngine(db *gorm.DB, registry *identity.Registry, feed *notify.Feed, timelines *timeline.Service) *Engine {
	return &Engine{
		db:        db,
		registry:  registry,
		feed:      feed,
		timelines: timelines,
		now:       time.Now,
	}
}

// WithClock overrides the engine's time source. Tests use it to pin event and
// post timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// pendingEvent is a notification recorded inside a transaction whose push
// delivery is still owed. Delivery happens after commit so a slow push
// service never extends the transaction.
type pendingEvent struct {
	userID string
	event  models.NotificationEvent
}

// deliver pushes committed events to their recipients' devices.
func (e *Engine) deliver(ctx context.Context, pending []pendingEvent) {
	m := metrics.Get()
	for _, p := range pending {
		m.NotificationsPushedTotal.WithLabelValues(p.event.Type).Inc()
		e.feed.Deliver(ctx, p.userID, p.event)
	}
}

// finishTransition records outcome metrics for one transition.
func (e *Engine) finishTransition(name string, start time.Time, changed bool) {
	outcome := "applied"
	if !changed {
		outcome = "noop"
	}
	m := metrics.Get()
	m.TransitionsTotal.WithLabelValues(name, outcome).Inc()
	m.TransitionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
