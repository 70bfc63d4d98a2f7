package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Deepakgauttam/twitter-clone/internal/models"
)

// Creating one row of every model through gorm catches drift between the
// struct tags and the hand-written test DDL.
func TestOpenTestSchemaMatchesModels(t *testing.T) {
	db, err := OpenTest()
	require.NoError(t, err)

	user := &models.User{
		PublicID:             1,
		PublicIDStr:          "1",
		ScreenName:           "alice",
		Name:                 "Alice",
		ProfileImageURLHTTPS: "https://img.example/alice.png",
	}
	require.NoError(t, db.Create(user).Error)

	var loaded models.User
	require.NoError(t, db.Where("screen_name = ?", "alice").First(&loaded).Error)
	require.Equal(t, "https://img.example/alice.png", loaded.ProfileImageURLHTTPS)

	post := &models.Post{
		PublicID:    1,
		PublicIDStr: "1",
		UserID:      user.ID,
		Text:        "hello",
	}
	require.NoError(t, db.Create(post).Error)

	require.NoError(t, db.Create(&models.Friendship{UserID: user.ID}).Error)
	require.NoError(t, db.Create(&models.PostEngagement{PostID: post.ID}).Error)
	require.NoError(t, db.Create(&models.HomeTimeline{UserID: user.ID}).Error)
	require.NoError(t, db.Create(&models.Notification{UserID: user.ID}).Error)
	require.NoError(t, db.Create(&models.InternalSetting{Ver: "1.0"}).Error)
	require.NoError(t, db.Create(&models.Hashtag{Name: "golang"}).Error)
}
