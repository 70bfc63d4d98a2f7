package social

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Deepakgauttam/twitter-clone/internal/metrics"
	"github.com/Deepakgauttam/twitter-clone/internal/models"
	"github.com/Deepakgauttam/twitter-clone/internal/notify"
	"github.com/Deepakgauttam/twitter-clone/internal/util"
)

// EngageResult reports a like/unlike/unrepost outcome. Changed is false when
// the requested state was already in effect; Count is the post's resulting
// counter for that engagement.
type EngageResult struct {
	Changed bool `json:"changed"`
	Count   int  `json:"count"`
}

// RepostResult reports a repost outcome. Repost is the created repost post,
// nil when the user had already reposted.
type RepostResult struct {
	Changed bool         `json:"changed"`
	Count   int          `json:"count"`
	Repost  *models.Post `json:"repost,omitempty"`
}

// Like records userID liking postID. Liking a post twice is a no-op. The
// post's author is notified unless they are the liker; a fresh like after an
// unlike notifies again.
func (e *Engine) Like(ctx context.Context, userID, postID string) (*EngageResult, error) {
	start := time.Now()

	unlock := e.locks.lock("like:" + userID + ":" + postID)
	defer unlock()

	actor, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	post, err := e.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	res := &EngageResult{}
	var pending []pendingEvent
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eng models.PostEngagement
		if err := tx.Where(models.PostEngagement{PostID: post.ID}).FirstOrCreate(&eng).Error; err != nil {
			return err
		}
		if eng.LikedBy.Contains(userID) {
			res.Count = len(eng.LikedBy)
			return nil
		}

		eng.LikedBy = eng.LikedBy.PushFront(userID)
		if err := tx.Save(&eng).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).
			Where("id = ?", post.ID).
			UpdateColumn("favorite_count", len(eng.LikedBy)).Error; err != nil {
			return err
		}
		res.Changed = true
		res.Count = len(eng.LikedBy)

		if post.UserID != userID {
			event := notify.Event(models.NotifLiked, actor, post, e.now().UTC())
			if err := e.feed.PushTx(tx, post.UserID, event); err != nil {
				return err
			}
			pending = append(pending, pendingEvent{userID: post.UserID, event: event})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.deliver(ctx, pending)
	e.finishTransition("like", start, res.Changed)
	return res, nil
}

// Unlike withdraws a like. Unliking a post that was never liked is a no-op,
// and no notification is sent either way.
func (e *Engine) Unlike(ctx context.Context, userID, postID string) (*EngageResult, error) {
	start := time.Now()

	unlock := e.locks.lock("like:" + userID + ":" + postID)
	defer unlock()

	post, err := e.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	res := &EngageResult{}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eng models.PostEngagement
		if err := tx.Where(models.PostEngagement{PostID: post.ID}).FirstOrCreate(&eng).Error; err != nil {
			return err
		}
		if !eng.LikedBy.Contains(userID) {
			res.Count = len(eng.LikedBy)
			return nil
		}

		eng.LikedBy = eng.LikedBy.Pull(userID)
		if err := tx.Save(&eng).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).
			Where("id = ?", post.ID).
			UpdateColumn("favorite_count", len(eng.LikedBy)).Error; err != nil {
			return err
		}
		res.Changed = true
		res.Count = len(eng.LikedBy)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.finishTransition("unlike", start, res.Changed)
	return res, nil
}

// resolveRepostTarget follows a repost back to the post it republishes, so
// engaging with a repost engages the original.
func (e *Engine) resolveRepostTarget(ctx context.Context, postID string) (*models.Post, error) {
	post, err := e.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.RetweetedStatusID != nil {
		return e.getPost(ctx, *post.RetweetedStatusID)
	}
	return post, nil
}

// Repost publishes a repost of postID: a distinct post authored by userID
// referencing the original, fanned out to the reposter's followers. Reposting
// twice is a no-op. The original author is notified unless they are the
// reposter.
func (e *Engine) Repost(ctx context.Context, userID, postID string) (*RepostResult, error) {
	start := time.Now()

	actor, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	target, err := e.resolveRepostTarget(ctx, postID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock("repost:" + userID + ":" + target.ID)
	defer unlock()

	res := &RepostResult{}
	var pending []pendingEvent
	var recipients []string
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eng models.PostEngagement
		if err := tx.Where(models.PostEngagement{PostID: target.ID}).FirstOrCreate(&eng).Error; err != nil {
			return err
		}
		if eng.RepostedBy.Contains(userID) {
			res.Count = len(eng.RepostedBy)
			return nil
		}

		repost := &models.Post{
			UserID:            actor.ID,
			Text:              "RT @" + target.User.ScreenName + ": " + util.TruncateRunes(target.Text, 50),
			RetweetedStatusID: &target.ID,
			CreatedAt:         e.now().UTC(),
		}
		recipients, err = e.publishTx(tx, repost)
		if err != nil {
			return err
		}

		eng.RepostedBy = eng.RepostedBy.PushFront(userID)
		if err := tx.Save(&eng).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).
			Where("id = ?", target.ID).
			UpdateColumn("retweet_count", len(eng.RepostedBy)).Error; err != nil {
			return err
		}
		res.Changed = true
		res.Count = len(eng.RepostedBy)
		res.Repost = repost

		if target.UserID != userID {
			event := notify.Event(models.NotifReposted, actor, target, e.now().UTC())
			if err := e.feed.PushTx(tx, target.UserID, event); err != nil {
				return err
			}
			pending = append(pending, pendingEvent{userID: target.UserID, event: event})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Changed {
		e.deliver(ctx, pending)
		e.timelines.Invalidate(ctx, recipients...)
		metrics.Get().FanoutRecipients.Observe(float64(len(recipients)))
	}
	e.finishTransition("repost", start, res.Changed)
	return res, nil
}

// Unrepost withdraws a repost: the repost post is destroyed and stripped from
// every timeline that carried it. Unreposting a post that was never reposted
// is a no-op, and no notification is sent.
func (e *Engine) Unrepost(ctx context.Context, userID, postID string) (*EngageResult, error) {
	start := time.Now()

	target, err := e.resolveRepostTarget(ctx, postID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock("repost:" + userID + ":" + target.ID)
	defer unlock()

	res := &EngageResult{}
	var recipients []string
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eng models.PostEngagement
		if err := tx.Where(models.PostEngagement{PostID: target.ID}).FirstOrCreate(&eng).Error; err != nil {
			return err
		}
		if !eng.RepostedBy.Contains(userID) {
			res.Count = len(eng.RepostedBy)
			return nil
		}

		var repost models.Post
		err := tx.Where("user_id = ? AND retweeted_status_id = ?", userID, target.ID).
			First(&repost).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			followers, ferr := followerIDs(tx, userID)
			if ferr != nil {
				return ferr
			}
			recipients = append([]string{userID}, followers...)
			if err := e.timelines.RemovePostTx(tx, repost.ID, recipients); err != nil {
				return err
			}
			if err := tx.Unscoped().Delete(&models.Post{}, "id = ?", repost.ID).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.PostEngagement{}, "post_id = ?", repost.ID).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).
				Where("id = ?", userID).
				UpdateColumn("statuses_count", gorm.Expr("statuses_count - 1")).Error; err != nil {
				return err
			}
		}

		eng.RepostedBy = eng.RepostedBy.Pull(userID)
		if err := tx.Save(&eng).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).
			Where("id = ?", target.ID).
			UpdateColumn("retweet_count", len(eng.RepostedBy)).Error; err != nil {
			return err
		}
		res.Changed = true
		res.Count = len(eng.RepostedBy)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Changed {
		e.timelines.Invalidate(ctx, recipients...)
	}
	e.finishTransition("unrepost", start, res.Changed)
	return res, nil
}

// Likers lists the users who liked postID, most recent first.
func (e *Engine) Likers(ctx context.Context, postID string) ([]models.User, error) {
	return e.engagementUsers(ctx, postID, true)
}

// Reposters lists the users who reposted postID, most recent first.
func (e *Engine) Reposters(ctx context.Context, postID string) ([]models.User, error) {
	return e.engagementUsers(ctx, postID, false)
}

func (e *Engine) engagementUsers(ctx context.Context, postID string, liked bool) ([]models.User, error) {
	var eng models.PostEngagement
	if err := e.db.WithContext(ctx).Where("post_id = ?", postID).First(&eng).Error; err != nil {
		return []models.User{}, nil
	}

	ids := eng.RepostedBy
	if liked {
		ids = eng.LikedBy
	}
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	if err := e.db.WithContext(ctx).Where("id IN ?", []string(ids)).Find(&users).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}
