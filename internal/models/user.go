package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer.
// Ordered id sets (followers, friends, liked_by, ...) are stored in this type,
// most-recent-first.
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	// Split by comma (ids never contain commas)
	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// Contains reports whether id is a member of the set.
func (a StringArray) Contains(id string) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

// PushFront inserts id at position 0. Callers gate on Contains first; the set
// itself does not deduplicate.
func (a StringArray) PushFront(id string) StringArray {
	out := make(StringArray, 0, len(a)+1)
	out = append(out, id)
	return append(out, a...)
}

// Pull removes every occurrence of id.
func (a StringArray) Pull(id string) StringArray {
	out := make(StringArray, 0, len(a))
	for _, v := range a {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// User represents an account. PublicID/PublicIDStr are the stable public
// identifiers handed out by the identity registry; ScreenName is the unique
// handle and immutable after signup.
//
// FollowersCount, FriendsCount and StatusesCount are derived counters: they
// must equal the cardinality of the corresponding Friendship sets and the
// user's post count. Only the social engine mutates them.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"-"`
	PublicID    int64  `gorm:"uniqueIndex" json:"id"`
	PublicIDStr string `gorm:"uniqueIndex" json:"id_str"`

	ScreenName  string `gorm:"uniqueIndex;not null" json:"screen_name"`
	Name        string `json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Location    string `json:"location"`
	URL         string `json:"url"`

	Protected bool `gorm:"default:false" json:"protected"`
	Verified  bool `gorm:"default:false" json:"verified"`

	FollowersCount int `gorm:"default:0" json:"followers_count"`
	FriendsCount   int `gorm:"default:0" json:"friends_count"`
	StatusesCount  int `gorm:"default:0" json:"statuses_count"`

	DefaultProfileImage  bool   `gorm:"default:true" json:"default_profile_image"`
	// gorm would split the trailing S off HTTPS; pin the column name
	ProfileImageURLHTTPS string `gorm:"column:profile_image_url_https" json:"profile_image_url_https"`
	ProfileBannerURL     string `json:"profile_banner_url"`
	ProfileBannerColor   string `json:"profile_banner_color"`

	PasswordHash *string `gorm:"type:text" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

// generateUUID is the shared document-id generator for all models
func generateUUID() string {
	return uuid.New().String()
}
