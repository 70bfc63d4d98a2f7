package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/Deepakgauttam/twitter-clone/internal/database"
	apperrors "github.com/Deepakgauttam/twitter-clone/internal/errors"
	"github.com/Deepakgauttam/twitter-clone/internal/logger"
	"github.com/Deepakgauttam/twitter-clone/internal/models"
)

type fakeSender struct {
	mu   sync.Mutex
	sent map[string]int
	gone map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(map[string]int), gone: make(map[string]bool)}
}

func (f *fakeSender) Send(_ context.Context, sub models.PushSubscription, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gone[sub.Endpoint] {
		return ErrSubscriptionGone
	}
	f.sent[sub.Endpoint]++
	return nil
}

type FeedTestSuite struct {
	suite.Suite
	db     *gorm.DB
	sender *fakeSender
	feed   *Feed
	ctx    context.Context
}

func (s *FeedTestSuite) SetupTest() {
	logger.InitializeForTests()

	db, err := database.OpenTest()
	s.Require().NoError(err)
	s.db = db
	s.sender = newFakeSender()
	s.feed = NewFeed(db, s.sender)
	s.ctx = context.Background()
}

func (s *FeedTestSuite) actor() *models.User {
	return &models.User{ID: "actor-1", ScreenName: "alice"}
}

func (s *FeedTestSuite) subscription(endpoint string) models.PushSubscription {
	return models.PushSubscription{
		Endpoint: endpoint,
		Keys:     models.SubscriptionKeys{P256dh: "p256dh-key", Auth: "auth-key"},
	}
}

func (s *FeedTestSuite) TestPushKeepsNewestTwenty() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		event := Event(models.NotifLiked, s.actor(), nil, base.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.feed.PushTx(s.db, "bob", event))
	}

	events, err := s.feed.List(s.ctx, "bob")
	s.Require().NoError(err)
	s.Require().Len(events, models.MaxNotifications)

	// Newest first; the five oldest were dropped
	s.Equal(base.Add(24*time.Minute), events[0].CreatedAt)
	s.Equal(base.Add(5*time.Minute), events[len(events)-1].CreatedAt)
	for i := 1; i < len(events); i++ {
		s.False(events[i].CreatedAt.After(events[i-1].CreatedAt))
	}
}

func (s *FeedTestSuite) TestListEmptyForUnknownUser() {
	events, err := s.feed.List(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *FeedTestSuite) TestSubscribeIsIdempotent() {
	sub := s.subscription("https://push.example/ep1")

	changed, err := s.feed.Subscribe(s.ctx, "bob", sub)
	s.Require().NoError(err)
	s.True(changed)

	changed, err = s.feed.Subscribe(s.ctx, "bob", sub)
	s.Require().NoError(err)
	s.False(changed)

	var row models.Notification
	s.Require().NoError(s.db.Where("user_id = ?", "bob").First(&row).Error)
	s.Len(row.Subscriptions, 1)
}

func (s *FeedTestSuite) TestSubscribeRejectsMalformed() {
	_, err := s.feed.Subscribe(s.ctx, "bob", models.PushSubscription{})
	apiErr, ok := apperrors.AsAPIError(err)
	s.Require().True(ok)
	s.Equal(apperrors.ErrInvalidSubscription, apiErr.Code)

	_, err = s.feed.Subscribe(s.ctx, "bob", models.PushSubscription{Endpoint: "https://push.example/ep1"})
	apiErr, ok = apperrors.AsAPIError(err)
	s.Require().True(ok)
	s.Equal(apperrors.ErrInvalidSubscription, apiErr.Code)
}

func (s *FeedTestSuite) TestUnsubscribe() {
	sub := s.subscription("https://push.example/ep1")
	_, err := s.feed.Subscribe(s.ctx, "bob", sub)
	s.Require().NoError(err)

	changed, err := s.feed.Unsubscribe(s.ctx, "bob", sub.Endpoint)
	s.Require().NoError(err)
	s.True(changed)

	changed, err = s.feed.Unsubscribe(s.ctx, "bob", sub.Endpoint)
	s.Require().NoError(err)
	s.False(changed)
}

func (s *FeedTestSuite) TestDeliverPrunesGoneEndpoints() {
	healthy := s.subscription("https://push.example/healthy")
	dead := s.subscription("https://push.example/dead")
	_, err := s.feed.Subscribe(s.ctx, "bob", healthy)
	s.Require().NoError(err)
	_, err = s.feed.Subscribe(s.ctx, "bob", dead)
	s.Require().NoError(err)

	s.sender.gone[dead.Endpoint] = true

	event := Event(models.NotifFollowed, s.actor(), nil, time.Now().UTC())
	s.Require().NoError(s.feed.PushTx(s.db, "bob", event))
	s.feed.Deliver(s.ctx, "bob", event)

	s.Equal(1, s.sender.sent[healthy.Endpoint])
	s.Zero(s.sender.sent[dead.Endpoint])

	var row models.Notification
	s.Require().NoError(s.db.Where("user_id = ?", "bob").First(&row).Error)
	s.Require().Len(row.Subscriptions, 1)
	s.Equal(healthy.Endpoint, row.Subscriptions[0].Endpoint)
}

func (s *FeedTestSuite) TestDeliverReachesEveryEndpoint() {
	endpoints := []string{
		"https://push.example/ep1",
		"https://push.example/ep2",
		"https://push.example/ep3",
		"https://push.example/ep4",
		"https://push.example/ep5",
	}
	for _, ep := range endpoints {
		_, err := s.feed.Subscribe(s.ctx, "bob", s.subscription(ep))
		s.Require().NoError(err)
	}

	event := Event(models.NotifLiked, s.actor(), nil, time.Now().UTC())
	s.feed.Deliver(s.ctx, "bob", event)

	for _, ep := range endpoints {
		s.Equal(1, s.sender.sent[ep])
	}
}

func (s *FeedTestSuite) TestMarkReadAndMarkAllRead() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := Event(models.NotifLiked, s.actor(), nil, base)
	second := Event(models.NotifFollowed, s.actor(), nil, base.Add(time.Minute))
	s.Require().NoError(s.feed.PushTx(s.db, "bob", first))
	s.Require().NoError(s.feed.PushTx(s.db, "bob", second))

	changed, err := s.feed.MarkRead(s.ctx, "bob", first.ID)
	s.Require().NoError(err)
	s.True(changed)

	changed, err = s.feed.MarkRead(s.ctx, "bob", first.ID)
	s.Require().NoError(err)
	s.False(changed)

	count, err := s.feed.MarkAllRead(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(1, count)

	events, err := s.feed.List(s.ctx, "bob")
	s.Require().NoError(err)
	for _, e := range events {
		s.True(e.Read)
	}
}

func (s *FeedTestSuite) TestEventTitles() {
	post := &models.Post{ID: "post-1", PublicIDStr: "42"}
	at := time.Now().UTC()

	e := Event(models.NotifLiked, s.actor(), post, at)
	s.Equal("@alice liked your post", e.Title)
	s.Equal("/post/42", e.Body.Link)
	s.Equal("post-1", e.Body.PostID)

	e = Event(models.NotifUnfollowed, s.actor(), nil, at)
	s.Equal("@alice unfollowed you", e.Title)
	s.Equal("/user/alice", e.Body.Link)
}

func TestFeedTestSuite(t *testing.T) {
	suite.Run(t, new(FeedTestSuite))
}
