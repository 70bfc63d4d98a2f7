package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/Deepakgauttam/twitter-clone/internal/database"
	apperrors "github.com/Deepakgauttam/twitter-clone/internal/errors"
	"github.com/Deepakgauttam/twitter-clone/internal/identity"
	"github.com/Deepakgauttam/twitter-clone/internal/logger"
	"github.com/Deepakgauttam/twitter-clone/internal/notify"
	"github.com/Deepakgauttam/twitter-clone/internal/social"
	"github.com/Deepakgauttam/twitter-clone/internal/timeline"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *Service
}

func (s *AuthServiceTestSuite) SetupTest() {
	logger.InitializeForTests()

	db, err := database.OpenTest()
	s.Require().NoError(err)
	s.db = db

	feed := notify.NewFeed(db, nil)
	timelines := timeline.NewService(db, nil)
	engine := social.NewEngine(db, identity.New(), feed, timelines)
	s.service = NewService([]byte("test-secret"), engine, db)
}

func (s *AuthServiceTestSuite) TestRegisterThenValidateToken() {
	resp, err := s.service.Register(context.Background(), RegisterRequest{
		ScreenName: "alice",
		Name:       "Alice",
		Password:   "secret-password",
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.Token)
	s.Equal("alice", resp.User.ScreenName)

	user, err := s.service.ValidateToken(resp.Token)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, user.ID)
}

func (s *AuthServiceTestSuite) TestLogin() {
	_, err := s.service.Register(context.Background(), RegisterRequest{
		ScreenName: "alice",
		Password:   "secret-password",
	})
	s.Require().NoError(err)

	resp, err := s.service.Login(context.Background(), LoginRequest{
		ScreenName: "alice",
		Password:   "secret-password",
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.Token)
}

func (s *AuthServiceTestSuite) TestLoginFailuresAreIndistinguishable() {
	_, err := s.service.Register(context.Background(), RegisterRequest{
		ScreenName: "alice",
		Password:   "secret-password",
	})
	s.Require().NoError(err)

	_, badPassword := s.service.Login(context.Background(), LoginRequest{
		ScreenName: "alice",
		Password:   "wrong-password",
	})
	_, unknownUser := s.service.Login(context.Background(), LoginRequest{
		ScreenName: "nobody",
		Password:   "secret-password",
	})

	s.Require().Error(badPassword)
	s.Require().Error(unknownUser)
	apiErr1, ok := apperrors.AsAPIError(badPassword)
	s.Require().True(ok)
	apiErr2, ok := apperrors.AsAPIError(unknownUser)
	s.Require().True(ok)
	s.Equal(apiErr1.Message, apiErr2.Message)
}

func (s *AuthServiceTestSuite) TestValidateTokenRejectsGarbage() {
	_, err := s.service.ValidateToken("not-a-token")
	s.Error(err)

	other := NewService([]byte("other-secret"), nil, s.db)
	resp, err := s.service.Register(context.Background(), RegisterRequest{
		ScreenName: "alice",
		Password:   "secret-password",
	})
	s.Require().NoError(err)

	// Token signed with a different secret is rejected
	_, err = other.ValidateToken(resp.Token)
	s.Error(err)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
