package models

import (
	"time"

	"gorm.io/gorm"
)

// TimelineEntry is a single (post, created_at) pair in a home timeline.
type TimelineEntry struct {
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TimelineEntries is an ordered list of entries, newest-first by CreatedAt.
type TimelineEntries []TimelineEntry

// Contains reports whether the list holds an entry for postID.
func (t TimelineEntries) Contains(postID string) bool {
	for _, e := range t {
		if e.PostID == postID {
			return true
		}
	}
	return false
}

// Insert places e at its sorted position (newest-first, ties keep insertion
// order behind existing entries).
func (t TimelineEntries) Insert(e TimelineEntry) TimelineEntries {
	i := 0
	for i < len(t) && t[i].CreatedAt.After(e.CreatedAt) {
		i++
	}
	out := make(TimelineEntries, 0, len(t)+1)
	out = append(out, t[:i]...)
	out = append(out, e)
	return append(out, t[i:]...)
}

// RemovePost drops every entry referencing postID.
func (t TimelineEntries) RemovePost(postID string) TimelineEntries {
	out := make(TimelineEntries, 0, len(t))
	for _, e := range t {
		if e.PostID != postID {
			out = append(out, e)
		}
	}
	return out
}

// HomeTimeline is the per-user personalized feed: the user's own posts plus
// posts of everyone they follow, maintained by write-time fan-out rather than
// recomputed on read.
type HomeTimeline struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"-"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	Posts TimelineEntries `gorm:"type:jsonb;serializer:json" json:"posts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *HomeTimeline) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = generateUUID()
	}
	return nil
}
