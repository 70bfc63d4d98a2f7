package models

import (
	"time"

	"gorm.io/gorm"
)

// Friendship is the social graph store entry: one row per user. Both sets are
// ordered most-recent-first. "Friend" means followee; the naming is kept from
// the public API.
//
// Mirror invariant: A appears in B's FollowerIDs exactly when B appears in A's
// FriendIDs. Neither set ever contains the row owner.
type Friendship struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"-"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	FollowerIDs StringArray `gorm:"type:text[]" json:"follower_ids"`
	FriendIDs   StringArray `gorm:"type:text[]" json:"friend_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

// PostEngagement is the engagement ledger entry: one row per post. All lists
// are ordered most-recent-first.
//
// |LikedBy| must equal the post's FavoriteCount and |RepostedBy| its
// RetweetCount at rest.
type PostEngagement struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"-"`
	PostID string `gorm:"uniqueIndex;not null" json:"post_id"`

	LikedBy    StringArray `gorm:"type:text[]" json:"liked_by"`
	RepostedBy StringArray `gorm:"type:text[]" json:"reposted_by"`
	ReplyPosts StringArray `gorm:"type:text[]" json:"reply_posts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *PostEngagement) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = generateUUID()
	}
	return nil
}

// InternalSetting is the identity registry's backing row. A single row
// (Ver "1.0") holds the last allotted public ids.
type InternalSetting struct {
	Ver           string `gorm:"primaryKey" json:"ver"`
	CurrentUserID int64  `gorm:"default:0" json:"current_user_id"`
	CurrentPostID int64  `gorm:"default:0" json:"current_post_id"`

	UpdatedAt time.Time `json:"updated_at"`
}
