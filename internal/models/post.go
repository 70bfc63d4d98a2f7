package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a status update. A repost is a distinct Post authored by the
// reposting user whose RetweetedStatusID points at the original; a reply is a
// distinct Post carrying the in_reply_to_* references.
//
// FavoriteCount and RetweetCount are derived: they must equal the cardinality
// of the post's engagement sets (LikedBy, RepostedBy). Only the social engine
// mutates them.
type Post struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"-"`
	PublicID    int64  `gorm:"uniqueIndex" json:"id"`
	PublicIDStr string `gorm:"uniqueIndex" json:"id_str"`

	UserID string `gorm:"not null;index" json:"-"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Text string `gorm:"type:text;not null" json:"text"`

	// Repost/quote/reply chain references (document ids)
	RetweetedStatusID *string `gorm:"type:uuid;index" json:"-"`
	RetweetedStatus   *Post   `gorm:"foreignKey:RetweetedStatusID" json:"retweeted_status,omitempty"`
	QuotedStatusID    *string `gorm:"type:uuid" json:"-"`
	QuotedStatus      *Post   `gorm:"foreignKey:QuotedStatusID" json:"quoted_status,omitempty"`

	InReplyToStatusIDStr string `json:"in_reply_to_status_id_str,omitempty"`
	InReplyToUserIDStr   string `json:"in_reply_to_user_id_str,omitempty"`
	InReplyToScreenName  string `json:"in_reply_to_screen_name,omitempty"`

	FavoriteCount int `gorm:"default:0" json:"favorite_count"`
	RetweetCount  int `gorm:"default:0" json:"retweet_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

// Hashtag tracks tag usage for the trends listing. UseCount is bumped when a
// post containing the tag is created; no decay or scoring is applied.
type Hashtag struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"-"`
	Name       string    `gorm:"uniqueIndex;not null" json:"name"`
	UseCount   int       `gorm:"default:0" json:"use_count"`
	LastUsedAt time.Time `json:"last_used_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (h *Hashtag) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = generateUUID()
	}
	return nil
}
