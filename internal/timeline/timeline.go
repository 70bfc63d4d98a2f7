// Package timeline maintains the per-user home timelines. Timelines are built
// at write time: publishing a post fans it out to the author and every
// follower, and follow/unfollow backfill or strip an author's posts.
package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Deepakgauttam/twitter-clone/internal/cache"
	"github.com/Deepakgauttam/twitter-clone/internal/logger"
	"github.com/Deepakgauttam/twitter-clone/internal/models"
)

// PageSize is the number of posts per home timeline page.
const PageSize = 20

// backfillLimit caps how many of a newly followed author's posts are copied
// into the follower's timeline.
const backfillLimit = 50

// cacheTTL bounds staleness of cached home pages.
const cacheTTL = 30 * time.Second

// HomePage is one page of a user's home timeline.
type HomePage struct {
	Posts   []models.Post `json:"posts"`
	Page    int           `json:"page"`
	HasMore bool          `json:"has_more"`
}

// Service reads and maintains home timeline rows. All write methods take the
// caller's transaction so timeline updates commit atomically with the
// transition that caused them.
type Service struct {
	db    *gorm.DB
	cache *cache.RedisClient
}

// NewService returns a timeline Service. cacheClient may be nil; pages are
// then always read from the database.
func NewService(db *gorm.DB, cacheClient *cache.RedisClient) *Service {
	return &Service{db: db, cache: cacheClient}
}

// EnsureTx creates an empty timeline row for userID if none exists.
func (s *Service) EnsureTx(tx *gorm.DB, userID string) error {
	var row models.HomeTimeline
	return tx.Where(models.HomeTimeline{UserID: userID}).FirstOrCreate(&row).Error
}

// FanOutTx inserts post into the timelines of every user in recipientIDs
// (normally the author plus all followers). Timelines that already carry the
// post are left alone.
func (s *Service) FanOutTx(tx *gorm.DB, post *models.Post, recipientIDs []string) error {
	entry := models.TimelineEntry{PostID: post.ID, CreatedAt: post.CreatedAt}

	for _, userID := range recipientIDs {
		var row models.HomeTimeline
		if err := tx.Where(models.HomeTimeline{UserID: userID}).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("failed to load timeline for %s: %w", userID, err)
		}
		if row.Posts.Contains(post.ID) {
			continue
		}
		row.Posts = row.Posts.Insert(entry)
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to save timeline for %s: %w", userID, err)
		}
	}
	return nil
}

// BackfillTx copies authorID's recent posts into followerID's timeline. Used
// when a follow is established so the new followee's posts appear without
// waiting for their next publish.
func (s *Service) BackfillTx(tx *gorm.DB, followerID, authorID string) error {
	var posts []models.Post
	if err := tx.Where("user_id = ?", authorID).
		Order("created_at DESC").
		Limit(backfillLimit).
		Find(&posts).Error; err != nil {
		return fmt.Errorf("failed to load posts for backfill: %w", err)
	}
	if len(posts) == 0 {
		return s.EnsureTx(tx, followerID)
	}

	var row models.HomeTimeline
	if err := tx.Where(models.HomeTimeline{UserID: followerID}).FirstOrCreate(&row).Error; err != nil {
		return fmt.Errorf("failed to load timeline for %s: %w", followerID, err)
	}

	for _, post := range posts {
		if row.Posts.Contains(post.ID) {
			continue
		}
		row.Posts = row.Posts.Insert(models.TimelineEntry{PostID: post.ID, CreatedAt: post.CreatedAt})
	}
	return tx.Save(&row).Error
}

// RemoveAuthorTx strips every post authored by authorID from followerID's
// timeline. Used when a follow is withdrawn.
func (s *Service) RemoveAuthorTx(tx *gorm.DB, followerID, authorID string) error {
	var postIDs []string
	if err := tx.Model(&models.Post{}).
		Where("user_id = ?", authorID).
		Pluck("id", &postIDs).Error; err != nil {
		return fmt.Errorf("failed to list author posts: %w", err)
	}
	if len(postIDs) == 0 {
		return nil
	}

	var row models.HomeTimeline
	if err := tx.Where("user_id = ?", followerID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load timeline for %s: %w", followerID, err)
	}

	drop := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		drop[id] = true
	}
	kept := make(models.TimelineEntries, 0, len(row.Posts))
	for _, e := range row.Posts {
		if !drop[e.PostID] {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(row.Posts) {
		return nil
	}
	row.Posts = kept
	return tx.Save(&row).Error
}

// RemovePostTx drops postID from the timelines of every user in userIDs. Used
// when an unrepost destroys the repost post.
func (s *Service) RemovePostTx(tx *gorm.DB, postID string, userIDs []string) error {
	for _, userID := range userIDs {
		var row models.HomeTimeline
		if err := tx.Where("user_id = ?", userID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return fmt.Errorf("failed to load timeline for %s: %w", userID, err)
		}
		if !row.Posts.Contains(postID) {
			continue
		}
		row.Posts = row.Posts.RemovePost(postID)
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to save timeline for %s: %w", userID, err)
		}
	}
	return nil
}

// Home returns one page of userID's home timeline, newest first. Pages are
// cached briefly in Redis when a cache client is configured.
func (s *Service) Home(ctx context.Context, userID string, page int) (*HomePage, error) {
	if page < 1 {
		page = 1
	}

	cacheKey := fmt.Sprintf("timeline:home:%s:%d", userID, page)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached HomePage
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var row models.HomeTimeline
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &HomePage{Posts: []models.Post{}, Page: page}, nil
		}
		return nil, err
	}

	start := (page - 1) * PageSize
	if start >= len(row.Posts) {
		return &HomePage{Posts: []models.Post{}, Page: page}, nil
	}
	end := start + PageSize
	if end > len(row.Posts) {
		end = len(row.Posts)
	}
	entries := row.Posts[start:end]

	posts, err := s.loadPosts(ctx, entries)
	if err != nil {
		return nil, err
	}

	result := &HomePage{
		Posts:   posts,
		Page:    page,
		HasMore: end < len(row.Posts),
	}

	if s.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := s.cache.SetEx(ctx, cacheKey, raw, cacheTTL); err != nil {
				logger.Log.Warn("failed to cache timeline page", zap.Error(err))
			}
		}
	}
	return result, nil
}

// loadPosts resolves timeline entries to posts, preserving entry order and
// dropping entries whose post has since been destroyed.
func (s *Service) loadPosts(ctx context.Context, entries models.TimelineEntries) ([]models.Post, error) {
	if len(entries) == 0 {
		return []models.Post{}, nil
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.PostID
	}

	var posts []models.Post
	if err := s.db.WithContext(ctx).
		Preload("User").
		Preload("RetweetedStatus").
		Preload("RetweetedStatus.User").
		Preload("QuotedStatus").
		Preload("QuotedStatus.User").
		Where("id IN ?", ids).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	ordered := make([]models.Post, 0, len(entries))
	for _, e := range entries {
		if p, ok := byID[e.PostID]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// Invalidate drops cached home pages for the given users. Call it after a
// transition that changed their timelines has committed.
func (s *Service) Invalidate(ctx context.Context, userIDs ...string) {
	if s.cache == nil {
		return
	}
	for _, userID := range userIDs {
		keys, err := s.cache.Keys(ctx, fmt.Sprintf("timeline:home:%s:*", userID))
		if err != nil || len(keys) == 0 {
			continue
		}
		if err := s.cache.Del(ctx, keys...); err != nil {
			logger.Log.Warn("failed to invalidate timeline cache",
				logger.WithUserID(userID),
				zap.Error(err),
			)
		}
	}
}
