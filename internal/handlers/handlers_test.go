package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/Deepakgauttam/twitter-clone/internal/auth"
	"github.com/Deepakgauttam/twitter-clone/internal/database"
	"github.com/Deepakgauttam/twitter-clone/internal/identity"
	"github.com/Deepakgauttam/twitter-clone/internal/logger"
	"github.com/Deepakgauttam/twitter-clone/internal/notify"
	"github.com/Deepakgauttam/twitter-clone/internal/social"
	"github.com/Deepakgauttam/twitter-clone/internal/timeline"
)

type HandlersTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (s *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger.InitializeForTests()

	db, err := database.OpenTest()
	s.Require().NoError(err)
	s.db = db
	database.DB = db

	feed := notify.NewFeed(db, nil)
	timelines := timeline.NewService(db, nil)
	engine := social.NewEngine(db, identity.New(), feed, timelines)
	authService := auth.NewService([]byte("test-secret"), engine, db)

	h := NewHandlers(engine, feed, timelines, authService, db)
	s.router = SetupRouter(h)
}

func (s *HandlersTestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// register creates an account and returns its token.
func (s *HandlersTestSuite) register(screenName string) string {
	w := s.request(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"screen_name": screenName,
		"name":        screenName,
		"password":    "secret-password",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return s.decode(w)["token"].(string)
}

func (s *HandlersTestSuite) TestRegisterLoginMe() {
	token := s.register("alice")

	w := s.request(http.MethodGet, "/api/v1/auth/me", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("alice", s.decode(w)["screen_name"])

	w = s.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"screen_name": "alice",
		"password":    "secret-password",
	})
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotEmpty(s.decode(w)["token"])
}

func (s *HandlersTestSuite) TestRegisterDuplicateConflicts() {
	s.register("alice")

	w := s.request(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"screen_name": "alice",
		"password":    "secret-password",
	})
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlersTestSuite) TestLoginBadPassword() {
	s.register("alice")

	w := s.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"screen_name": "alice",
		"password":    "wrong-password",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestProtectedRoutesRequireToken() {
	w := s.request(http.MethodPost, "/api/v1/posts", "", gin.H{"text": "nope"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodGet, "/api/v1/timeline/home", "garbage-token", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestCreateAndFetchPost() {
	token := s.register("alice")

	w := s.request(http.MethodPost, "/api/v1/posts", token, gin.H{"text": "hello #world"})
	s.Require().Equal(http.StatusCreated, w.Code)
	created := s.decode(w)
	s.Equal("1", created["id_str"])

	w = s.request(http.MethodGet, "/api/v1/posts/1", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("hello #world", s.decode(w)["text"])

	w = s.request(http.MethodGet, "/api/v1/posts/999", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestFollowAndTimelineFlow() {
	aliceToken := s.register("alice")
	bobToken := s.register("bob")

	w := s.request(http.MethodPost, "/api/v1/posts", aliceToken, gin.H{"text": "first post"})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.request(http.MethodPost, "/api/v1/users/alice/follow", bobToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["changed"])

	// Backfill puts alice's earlier post on bob's home timeline
	w = s.request(http.MethodGet, "/api/v1/timeline/home", bobToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	posts := s.decode(w)["posts"].([]interface{})
	s.Require().Len(posts, 1)

	w = s.request(http.MethodGet, "/api/v1/users/alice/followers", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	followers := s.decode(w)["users"].([]interface{})
	s.Require().Len(followers, 1)

	// Unfollow strips the post again
	w = s.request(http.MethodDelete, "/api/v1/users/alice/follow", bobToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/timeline/home", bobToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Empty(s.decode(w)["posts"])
}

func (s *HandlersTestSuite) TestSelfFollowRejected() {
	token := s.register("alice")

	w := s.request(http.MethodPost, "/api/v1/users/alice/follow", token, nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersTestSuite) TestLikeAndNotificationFlow() {
	aliceToken := s.register("alice")
	bobToken := s.register("bob")

	w := s.request(http.MethodPost, "/api/v1/posts", aliceToken, gin.H{"text": "like me"})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.request(http.MethodPost, "/api/v1/posts/1/like", bobToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	res := s.decode(w)
	s.Equal(true, res["changed"])
	s.Equal(float64(1), res["count"])

	// Second like is a no-op
	w = s.request(http.MethodPost, "/api/v1/posts/1/like", bobToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(false, s.decode(w)["changed"])

	w = s.request(http.MethodGet, "/api/v1/posts/1/likes", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	likers := s.decode(w)["users"].([]interface{})
	s.Require().Len(likers, 1)
	s.Equal("bob", likers[0].(map[string]interface{})["screen_name"])

	w = s.request(http.MethodGet, "/api/v1/notifications", aliceToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal(float64(1), body["unread_count"])

	w = s.request(http.MethodPost, "/api/v1/notifications/read-all", aliceToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), s.decode(w)["marked"])
}

func (s *HandlersTestSuite) TestRepostAndReply() {
	aliceToken := s.register("alice")
	bobToken := s.register("bob")

	w := s.request(http.MethodPost, "/api/v1/posts", aliceToken, gin.H{"text": "original"})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.request(http.MethodPost, "/api/v1/posts/1/repost", bobToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	res := s.decode(w)
	s.Equal(true, res["changed"])
	s.NotNil(res["repost"])

	w = s.request(http.MethodPost, "/api/v1/posts/1/reply", bobToken, gin.H{"text": "nice one"})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.request(http.MethodGet, "/api/v1/posts/1/replies", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	replies := s.decode(w)["posts"].([]interface{})
	s.Require().Len(replies, 1)

	w = s.request(http.MethodGet, "/api/v1/posts/1/reposts", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().Len(s.decode(w)["users"].([]interface{}), 1)

	w = s.request(http.MethodDelete, "/api/v1/posts/1/repost", bobToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["changed"])
}

func (s *HandlersTestSuite) TestSubscribeValidation() {
	token := s.register("alice")

	w := s.request(http.MethodPost, "/api/v1/notifications/subscribe", token, gin.H{
		"endpoint": "",
	})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.request(http.MethodPost, "/api/v1/notifications/subscribe", token, gin.H{
		"endpoint": "https://push.example/ep",
		"keys":     gin.H{"p256dh": "key", "auth": "secret"},
	})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["changed"])
}

func (s *HandlersTestSuite) TestSearchAndTrends() {
	token := s.register("alice")

	w := s.request(http.MethodPost, "/api/v1/posts", token, gin.H{"text": "all about #golang"})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.request(http.MethodGet, "/api/v1/search/users?q=ali", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["users"].([]interface{}), 1)

	w = s.request(http.MethodGet, "/api/v1/search/posts?q=golang", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["posts"].([]interface{}), 1)

	w = s.request(http.MethodGet, "/api/v1/trends", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	trends := s.decode(w)["trends"].([]interface{})
	s.Require().Len(trends, 1)

	w = s.request(http.MethodGet, "/api/v1/search/users", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestSuggestionsExcludeSelfAndFollowed() {
	aliceToken := s.register("alice")
	s.register("bob")
	s.register("carol")

	w := s.request(http.MethodPost, "/api/v1/users/bob/follow", aliceToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/users/suggestions", aliceToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	users := s.decode(w)["users"].([]interface{})
	s.Require().Len(users, 1)
	s.Equal("carol", users[0].(map[string]interface{})["screen_name"])
}

func (s *HandlersTestSuite) TestUpdateProfile() {
	token := s.register("alice")

	w := s.request(http.MethodPut, "/api/v1/users/me", token, gin.H{
		"description": "building things",
	})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("building things", s.decode(w)["description"])
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
