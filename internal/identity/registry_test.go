package identity

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/Deepakgauttam/twitter-clone/internal/database"
)

type RegistryTestSuite struct {
	suite.Suite
	db       *gorm.DB
	registry *Registry
}

func (s *RegistryTestSuite) SetupTest() {
	db, err := database.OpenTest()
	s.Require().NoError(err)
	s.db = db
	s.registry = New()
}

func (s *RegistryTestSuite) TestUserIDsAreMonotonic() {
	for want := int64(1); want <= 5; want++ {
		tx := s.db.Begin()
		got, err := s.registry.NextUserID(tx)
		s.Require().NoError(err)
		s.Require().NoError(tx.Commit().Error)
		s.Equal(want, got)
	}
}

func (s *RegistryTestSuite) TestUserAndPostCountersAreIndependent() {
	tx := s.db.Begin()
	userID, err := s.registry.NextUserID(tx)
	s.Require().NoError(err)
	postID, err := s.registry.NextPostID(tx)
	s.Require().NoError(err)
	postID2, err := s.registry.NextPostID(tx)
	s.Require().NoError(err)
	s.Require().NoError(tx.Commit().Error)

	s.Equal(int64(1), userID)
	s.Equal(int64(1), postID)
	s.Equal(int64(2), postID2)
}

func (s *RegistryTestSuite) TestRollbackDoesNotBurnIDs() {
	tx := s.db.Begin()
	got, err := s.registry.NextPostID(tx)
	s.Require().NoError(err)
	s.Equal(int64(1), got)
	s.Require().NoError(tx.Rollback().Error)

	tx = s.db.Begin()
	got, err = s.registry.NextPostID(tx)
	s.Require().NoError(err)
	s.Require().NoError(tx.Commit().Error)
	s.Equal(int64(1), got)
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}
