package timeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/Deepakgauttam/twitter-clone/internal/database"
	"github.com/Deepakgauttam/twitter-clone/internal/logger"
	"github.com/Deepakgauttam/twitter-clone/internal/models"
)

type TimelineTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *Service
	ctx     context.Context
	seq     int64
}

// nextPublicID hands out distinct public ids; public_id_str carries a unique
// index, so every inserted row needs its own.
func (s *TimelineTestSuite) nextPublicID() (int64, string) {
	s.seq++
	return s.seq, fmt.Sprintf("%d", s.seq)
}

func (s *TimelineTestSuite) SetupTest() {
	logger.InitializeForTests()

	db, err := database.OpenTest()
	s.Require().NoError(err)
	s.db = db
	s.service = NewService(db, nil)
	s.ctx = context.Background()
}

func (s *TimelineTestSuite) createUser(screenName string) *models.User {
	id, idStr := s.nextPublicID()
	user := &models.User{PublicID: id, PublicIDStr: idStr, ScreenName: screenName, Name: screenName}
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *TimelineTestSuite) createPost(author *models.User, text string, at time.Time) *models.Post {
	id, idStr := s.nextPublicID()
	post := &models.Post{
		PublicID:    id,
		PublicIDStr: idStr,
		UserID:      author.ID,
		Text:        text,
		CreatedAt:   at,
	}
	s.Require().NoError(s.db.Create(post).Error)
	return post
}

func (s *TimelineTestSuite) timelineRow(userID string) models.HomeTimeline {
	var row models.HomeTimeline
	s.Require().NoError(s.db.Where("user_id = ?", userID).First(&row).Error)
	return row
}

func (s *TimelineTestSuite) TestFanOutReachesAllRecipients() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	carol := s.createUser("carol")
	post := s.createPost(alice, "hello", time.Now().UTC())

	recipients := []string{alice.ID, bob.ID, carol.ID}
	s.Require().NoError(s.service.FanOutTx(s.db, post, recipients))

	for _, id := range recipients {
		row := s.timelineRow(id)
		s.True(row.Posts.Contains(post.ID))
	}
}

func (s *TimelineTestSuite) TestFanOutIsIdempotent() {
	alice := s.createUser("alice")
	post := s.createPost(alice, "hello", time.Now().UTC())

	s.Require().NoError(s.service.FanOutTx(s.db, post, []string{alice.ID}))
	s.Require().NoError(s.service.FanOutTx(s.db, post, []string{alice.ID}))

	row := s.timelineRow(alice.ID)
	s.Len(row.Posts, 1)
}

func (s *TimelineTestSuite) TestFanOutKeepsNewestFirst() {
	alice := s.createUser("alice")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := s.createPost(alice, "older", base)
	newer := s.createPost(alice, "newer", base.Add(time.Hour))

	// Insert out of chronological order
	s.Require().NoError(s.service.FanOutTx(s.db, newer, []string{alice.ID}))
	s.Require().NoError(s.service.FanOutTx(s.db, older, []string{alice.ID}))

	row := s.timelineRow(alice.ID)
	s.Require().Len(row.Posts, 2)
	s.Equal(newer.ID, row.Posts[0].PostID)
	s.Equal(older.ID, row.Posts[1].PostID)
}

func (s *TimelineTestSuite) TestBackfillCopiesAuthorPosts() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	p1 := s.createPost(alice, "one", base)
	p2 := s.createPost(alice, "two", base.Add(time.Minute))

	s.Require().NoError(s.service.BackfillTx(s.db, bob.ID, alice.ID))

	row := s.timelineRow(bob.ID)
	s.Require().Len(row.Posts, 2)
	s.Equal(p2.ID, row.Posts[0].PostID)
	s.Equal(p1.ID, row.Posts[1].PostID)

	// Backfilling again changes nothing
	s.Require().NoError(s.service.BackfillTx(s.db, bob.ID, alice.ID))
	s.Len(s.timelineRow(bob.ID).Posts, 2)
}

func (s *TimelineTestSuite) TestRemoveAuthorStripsOnlyThatAuthor() {
	alice := s.createUser("alice")
	carol := s.createUser("carol")
	bob := s.createUser("bob")
	now := time.Now().UTC()

	alicePost := s.createPost(alice, "from alice", now)
	carolPost := s.createPost(carol, "from carol", now.Add(time.Second))

	s.Require().NoError(s.service.FanOutTx(s.db, alicePost, []string{bob.ID}))
	s.Require().NoError(s.service.FanOutTx(s.db, carolPost, []string{bob.ID}))

	s.Require().NoError(s.service.RemoveAuthorTx(s.db, bob.ID, alice.ID))

	row := s.timelineRow(bob.ID)
	s.Require().Len(row.Posts, 1)
	s.Equal(carolPost.ID, row.Posts[0].PostID)
}

func (s *TimelineTestSuite) TestRemovePost() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	post := s.createPost(alice, "gone soon", time.Now().UTC())

	s.Require().NoError(s.service.FanOutTx(s.db, post, []string{alice.ID, bob.ID}))
	s.Require().NoError(s.service.RemovePostTx(s.db, post.ID, []string{alice.ID, bob.ID}))

	s.Empty(s.timelineRow(alice.ID).Posts)
	s.Empty(s.timelineRow(bob.ID).Posts)
}

func (s *TimelineTestSuite) TestHomePagination() {
	alice := s.createUser("alice")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	total := PageSize*2 + 5
	for i := 0; i < total; i++ {
		post := s.createPost(alice, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.service.FanOutTx(s.db, post, []string{alice.ID}))
	}

	page1, err := s.service.Home(s.ctx, alice.ID, 1)
	s.Require().NoError(err)
	s.Len(page1.Posts, PageSize)
	s.True(page1.HasMore)
	s.Equal(fmt.Sprintf("post %d", total-1), page1.Posts[0].Text)

	page3, err := s.service.Home(s.ctx, alice.ID, 3)
	s.Require().NoError(err)
	s.Len(page3.Posts, 5)
	s.False(page3.HasMore)
	s.Equal("post 0", page3.Posts[len(page3.Posts)-1].Text)

	page4, err := s.service.Home(s.ctx, alice.ID, 4)
	s.Require().NoError(err)
	s.Empty(page4.Posts)
	s.False(page4.HasMore)
}

func (s *TimelineTestSuite) TestHomeForUnknownUserIsEmpty() {
	page, err := s.service.Home(s.ctx, "no-such-user", 1)
	s.Require().NoError(err)
	s.Empty(page.Posts)
	s.False(page.HasMore)
}

func (s *TimelineTestSuite) TestHomeSkipsDestroyedPosts() {
	alice := s.createUser("alice")
	post := s.createPost(alice, "doomed", time.Now().UTC())
	s.Require().NoError(s.service.FanOutTx(s.db, post, []string{alice.ID}))

	s.Require().NoError(s.db.Unscoped().Delete(&models.Post{}, "id = ?", post.ID).Error)

	page, err := s.service.Home(s.ctx, alice.ID, 1)
	s.Require().NoError(err)
	s.Empty(page.Posts)
}

func TestTimelineTestSuite(t *testing.T) {
	suite.Run(t, new(TimelineTestSuite))
}
