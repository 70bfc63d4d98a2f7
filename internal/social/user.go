package social

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/Deepakgauttam/twitter-clone/internal/errors"
	"github.com/Deepakgauttam/twitter-clone/internal/models"
)

var screenNameRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

// CreateUser registers an account: allots a public id and creates the user
// row together with its friendship, timeline and notification documents, all
// in one transaction.
func (e *Engine) CreateUser(ctx context.Context, screenName, name string, passwordHash *string) (*models.User, error) {
	screenName = strings.TrimSpace(screenName)
	if !screenNameRe.MatchString(screenName) {
		return nil, apperrors.ValidationError("screen_name", "screen name must be 1-15 letters, digits or underscores")
	}
	if strings.TrimSpace(name) == "" {
		name = screenName
	}

	var existing models.User
	err := e.db.WithContext(ctx).
		Where("LOWER(screen_name) = LOWER(?)", screenName).
		First(&existing).Error
	if err == nil {
		return nil, apperrors.AlreadyExists("user")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &models.User{
		ScreenName:   screenName,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    e.now().UTC(),
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		publicID, err := e.registry.NextUserID(tx)
		if err != nil {
			return err
		}
		user.PublicID = publicID
		user.PublicIDStr = strconv.FormatInt(publicID, 10)

		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Friendship{UserID: user.ID}).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Notification{UserID: user.ID}).Error; err != nil {
			return err
		}
		return e.timelines.EnsureTx(tx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ProfileUpdate carries the mutable profile fields; nil means leave as is.
// ScreenName is immutable after signup and deliberately absent.
type ProfileUpdate struct {
	Name               *string
	Description        *string
	Location           *string
	URL                *string
	ProfileBannerColor *string
}

// UpdateProfile applies a partial profile update and returns the fresh user.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, apperrors.ValidationError("name", "name cannot be empty")
		}
		changes["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		changes["description"] = *upd.Description
	}
	if upd.Location != nil {
		changes["location"] = *upd.Location
	}
	if upd.URL != nil {
		changes["url"] = *upd.URL
	}
	if upd.ProfileBannerColor != nil {
		changes["profile_banner_color"] = *upd.ProfileBannerColor
	}
	if len(changes) == 0 {
		return user, nil
	}

	if err := e.db.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
		return nil, err
	}
	return e.getUser(ctx, userID)
}

// getUser loads a user by document id.
func (e *Engine) getUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := e.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByScreenName resolves a handle, case-insensitively.
func (e *Engine) GetUserByScreenName(ctx context.Context, screenName string) (*models.User, error) {
	var user models.User
	err := e.db.WithContext(ctx).
		Where("LOWER(screen_name) = LOWER(?)", screenName).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// GetPostByPublicID resolves a post by its public id string, with author and
// referenced posts preloaded.
func (e *Engine) GetPostByPublicID(ctx context.Context, publicID string) (*models.Post, error) {
	var post models.Post
	err := e.db.WithContext(ctx).
		Preload("User").
		Preload("RetweetedStatus").
		Preload("RetweetedStatus.User").
		Preload("QuotedStatus").
		Preload("QuotedStatus.User").
		Where("public_id_str = ?", publicID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("post")
		}
		return nil, err
	}
	return &post, nil
}

// getPost loads a post by document id with its author.
func (e *Engine) getPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := e.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", postID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("post")
		}
		return nil, err
	}
	return &post, nil
}

// followerIDs returns the follower set of userID from the friendship store.
func followerIDs(tx *gorm.DB, userID string) (models.StringArray, error) {
	var row models.Friendship
	if err := tx.Where(models.Friendship{UserID: userID}).FirstOrCreate(&row).Error; err != nil {
		return nil, err
	}
	return row.FollowerIDs, nil
}
