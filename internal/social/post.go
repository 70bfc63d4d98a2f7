package social

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/Deepakgauttam/twitter-clone/internal/errors"
	"github.com/Deepakgauttam/twitter-clone/internal/metrics"
	"github.com/Deepakgauttam/twitter-clone/internal/models"
	"github.com/Deepakgauttam/twitter-clone/internal/notify"
	"github.com/Deepakgauttam/twitter-clone/internal/timeline"
	"github.com/Deepakgauttam/twitter-clone/internal/util"
)

// publishTx creates the post row and its engagement document, allots the
// public id, bumps the author's statuses_count and fans the post out to the
// author plus all followers. Returns the fan-out recipients.
func (e *Engine) publishTx(tx *gorm.DB, post *models.Post) ([]string, error) {
	publicID, err := e.registry.NextPostID(tx)
	if err != nil {
		return nil, err
	}
	post.PublicID = publicID
	post.PublicIDStr = strconv.FormatInt(publicID, 10)

	if err := tx.Create(post).Error; err != nil {
		return nil, err
	}
	if err := tx.Create(&models.PostEngagement{PostID: post.ID}).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.User{}).
		Where("id = ?", post.UserID).
		UpdateColumn("statuses_count", gorm.Expr("statuses_count + 1")).Error; err != nil {
		return nil, err
	}

	followers, err := followerIDs(tx, post.UserID)
	if err != nil {
		return nil, err
	}
	recipients := append([]string{post.UserID}, followers...)
	if err := e.timelines.FanOutTx(tx, post, recipients); err != nil {
		return nil, err
	}
	return recipients, nil
}

// recordHashtagsTx bumps the usage counters of every #tag in text.
func (e *Engine) recordHashtagsTx(tx *gorm.DB, text string) error {
	now := e.now().UTC()
	for _, tag := range util.ExtractHashtags(text) {
		var h models.Hashtag
		if err := tx.Where(models.Hashtag{Name: tag}).FirstOrCreate(&h).Error; err != nil {
			return err
		}
		if err := tx.Model(&h).Updates(map[string]interface{}{
			"use_count":    gorm.Expr("use_count + 1"),
			"last_used_at": now,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

// mentionEventsTx records a "mentioned" notification for every @handle in the
// post that resolves to a real user, skipping the author and anyone in
// exclude (users already notified another way by this transition).
func (e *Engine) mentionEventsTx(tx *gorm.DB, actor *models.User, post *models.Post, exclude map[string]bool) ([]pendingEvent, error) {
	handles := util.ExtractMentions(post.Text)
	if len(handles) == 0 {
		return nil, nil
	}

	var mentioned []models.User
	if err := tx.Where("LOWER(screen_name) IN ?", handles).Find(&mentioned).Error; err != nil {
		return nil, err
	}

	var pending []pendingEvent
	for _, user := range mentioned {
		if user.ID == actor.ID || exclude[user.ID] {
			continue
		}
		event := notify.Event(models.NotifMentioned, actor, post, e.now().UTC())
		if err := e.feed.PushTx(tx, user.ID, event); err != nil {
			return nil, err
		}
		pending = append(pending, pendingEvent{userID: user.ID, event: event})
	}
	return pending, nil
}

// CreatePost publishes a new post: id allotment, engagement document,
// hashtag counters, mention notifications and timeline fan-out commit
// atomically.
func (e *Engine) CreatePost(ctx context.Context, userID, text string) (*models.Post, error) {
	start := time.Now()

	author, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	text = util.FilterText(text)
	if text == "" {
		return nil, apperrors.ValidationError("text", "text is required")
	}

	post := &models.Post{
		UserID:    author.ID,
		Text:      text,
		CreatedAt: e.now().UTC(),
	}

	var pending []pendingEvent
	var recipients []string
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipients, err = e.publishTx(tx, post)
		if err != nil {
			return err
		}
		if err := e.recordHashtagsTx(tx, post.Text); err != nil {
			return err
		}
		pending, err = e.mentionEventsTx(tx, author, post, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.deliver(ctx, pending)
	e.timelines.Invalidate(ctx, recipients...)
	metrics.Get().FanoutRecipients.Observe(float64(len(recipients)))
	e.finishTransition("new_post", start, true)

	post.User = *author
	return post, nil
}

// Reply publishes a reply to target: a distinct post carrying the
// in_reply_to references, appended to the target's reply list. The target's
// author is notified unless they are the replier.
func (e *Engine) Reply(ctx context.Context, userID, targetPostID, text string) (*models.Post, error) {
	start := time.Now()

	author, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	target, err := e.getPost(ctx, targetPostID)
	if err != nil {
		return nil, err
	}

	text = util.FilterText(text)
	if text == "" {
		return nil, apperrors.ValidationError("text", "text is required")
	}
	if !strings.Contains(strings.ToLower(text), "@"+strings.ToLower(target.User.ScreenName)) {
		text = "@" + target.User.ScreenName + " " + text
		text = util.FilterText(text)
	}

	post := &models.Post{
		UserID:               author.ID,
		Text:                 text,
		QuotedStatusID:       &target.ID,
		InReplyToStatusIDStr: target.PublicIDStr,
		InReplyToUserIDStr:   target.User.PublicIDStr,
		InReplyToScreenName:  target.User.ScreenName,
		CreatedAt:            e.now().UTC(),
	}

	var pending []pendingEvent
	var recipients []string
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipients, err = e.publishTx(tx, post)
		if err != nil {
			return err
		}
		if err := e.recordHashtagsTx(tx, post.Text); err != nil {
			return err
		}

		var eng models.PostEngagement
		if err := tx.Where(models.PostEngagement{PostID: target.ID}).FirstOrCreate(&eng).Error; err != nil {
			return err
		}
		eng.ReplyPosts = eng.ReplyPosts.PushFront(post.ID)
		if err := tx.Save(&eng).Error; err != nil {
			return err
		}

		exclude := map[string]bool{}
		if target.UserID != author.ID {
			event := notify.Event(models.NotifReplied, author, post, e.now().UTC())
			if err := e.feed.PushTx(tx, target.UserID, event); err != nil {
				return err
			}
			pending = append(pending, pendingEvent{userID: target.UserID, event: event})
			exclude[target.UserID] = true
		}

		mentionPending, err := e.mentionEventsTx(tx, author, post, exclude)
		if err != nil {
			return err
		}
		pending = append(pending, mentionPending...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.deliver(ctx, pending)
	e.timelines.Invalidate(ctx, recipients...)
	metrics.Get().FanoutRecipients.Observe(float64(len(recipients)))
	e.finishTransition("reply", start, true)

	post.User = *author
	return post, nil
}

// Replies lists the direct replies to a post, newest reply first.
func (e *Engine) Replies(ctx context.Context, postID string) ([]models.Post, error) {
	var eng models.PostEngagement
	if err := e.db.WithContext(ctx).Where("post_id = ?", postID).First(&eng).Error; err != nil {
		return []models.Post{}, nil
	}
	if len(eng.ReplyPosts) == 0 {
		return []models.Post{}, nil
	}

	var posts []models.Post
	if err := e.db.WithContext(ctx).
		Preload("User").
		Where("id IN ?", []string(eng.ReplyPosts)).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]models.Post, 0, len(eng.ReplyPosts))
	for _, id := range eng.ReplyPosts {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// Timelines exposes the engine's timeline collaborator to handlers that only
// hold the engine.
func (e *Engine) Timelines() *timeline.Service {
	return e.timelines
}
