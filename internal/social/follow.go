package social

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/Deepakgauttam/twitter-clone/internal/errors"
	"github.com/Deepakgauttam/twitter-clone/internal/models"
	"github.com/Deepakgauttam/twitter-clone/internal/notify"
)

// FollowResult reports a follow/unfollow outcome. Changed is false when the
// requested relation already held; the counts are the resulting derived
// counters of both sides.
type FollowResult struct {
	Changed        bool `json:"changed"`
	FollowersCount int  `json:"followers_count"`
	FriendsCount   int  `json:"friends_count"`
}

// Follow establishes follower -> target. Following someone twice is a no-op;
// following yourself is rejected. The target is notified, and the follower's
// timeline is backfilled with the target's recent posts.
func (e *Engine) Follow(ctx context.Context, followerID, targetID string) (*FollowResult, error) {
	start := time.Now()

	if followerID == targetID {
		return nil, apperrors.ValidationError("user_id", "cannot follow yourself")
	}

	unlock := e.locks.lock("follow:" + followerID + ":" + targetID)
	defer unlock()

	follower, err := e.getUser(ctx, followerID)
	if err != nil {
		return nil, err
	}
	target, err := e.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	res := &FollowResult{}
	var pending []pendingEvent
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var targetRow models.Friendship
		if err := tx.Where(models.Friendship{UserID: target.ID}).FirstOrCreate(&targetRow).Error; err != nil {
			return err
		}
		if targetRow.FollowerIDs.Contains(follower.ID) {
			res.FollowersCount = len(targetRow.FollowerIDs)
			res.FriendsCount = follower.FriendsCount
			return nil
		}

		var followerRow models.Friendship
		if err := tx.Where(models.Friendship{UserID: follower.ID}).FirstOrCreate(&followerRow).Error; err != nil {
			return err
		}

		// Mirror invariant: both sides change together or not at all
		targetRow.FollowerIDs = targetRow.FollowerIDs.PushFront(follower.ID)
		followerRow.FriendIDs = followerRow.FriendIDs.PushFront(target.ID)
		if err := tx.Save(&targetRow).Error; err != nil {
			return err
		}
		if err := tx.Save(&followerRow).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", target.ID).
			UpdateColumn("followers_count", len(targetRow.FollowerIDs)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("id = ?", follower.ID).
			UpdateColumn("friends_count", len(followerRow.FriendIDs)).Error; err != nil {
			return err
		}
		res.Changed = true
		res.FollowersCount = len(targetRow.FollowerIDs)
		res.FriendsCount = len(followerRow.FriendIDs)

		event := notify.Event(models.NotifFollowed, follower, nil, e.now().UTC())
		if err := e.feed.PushTx(tx, target.ID, event); err != nil {
			return err
		}
		pending = append(pending, pendingEvent{userID: target.ID, event: event})

		return e.timelines.BackfillTx(tx, follower.ID, target.ID)
	})
	if err != nil {
		return nil, err
	}

	if res.Changed {
		e.deliver(ctx, pending)
		e.timelines.Invalidate(ctx, follower.ID)
	}
	e.finishTransition("follow", start, res.Changed)
	return res, nil
}

// Unfollow withdraws follower -> target. Unfollowing someone never followed
// is a no-op. The target is notified of the unfollow, and their posts are
// stripped from the follower's timeline.
func (e *Engine) Unfollow(ctx context.Context, followerID, targetID string) (*FollowResult, error) {
	start := time.Now()

	if followerID == targetID {
		return nil, apperrors.ValidationError("user_id", "cannot unfollow yourself")
	}

	unlock := e.locks.lock("follow:" + followerID + ":" + targetID)
	defer unlock()

	follower, err := e.getUser(ctx, followerID)
	if err != nil {
		return nil, err
	}
	target, err := e.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	res := &FollowResult{}
	var pending []pendingEvent
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var targetRow models.Friendship
		if err := tx.Where(models.Friendship{UserID: target.ID}).FirstOrCreate(&targetRow).Error; err != nil {
			return err
		}
		if !targetRow.FollowerIDs.Contains(follower.ID) {
			res.FollowersCount = len(targetRow.FollowerIDs)
			res.FriendsCount = follower.FriendsCount
			return nil
		}

		var followerRow models.Friendship
		if err := tx.Where(models.Friendship{UserID: follower.ID}).FirstOrCreate(&followerRow).Error; err != nil {
			return err
		}

		targetRow.FollowerIDs = targetRow.FollowerIDs.Pull(follower.ID)
		followerRow.FriendIDs = followerRow.FriendIDs.Pull(target.ID)
		if err := tx.Save(&targetRow).Error; err != nil {
			return err
		}
		if err := tx.Save(&followerRow).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", target.ID).
			UpdateColumn("followers_count", len(targetRow.FollowerIDs)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("id = ?", follower.ID).
			UpdateColumn("friends_count", len(followerRow.FriendIDs)).Error; err != nil {
			return err
		}
		res.Changed = true
		res.FollowersCount = len(targetRow.FollowerIDs)
		res.FriendsCount = len(followerRow.FriendIDs)

		// Unfollow notifies, unlike unlike/unrepost
		event := notify.Event(models.NotifUnfollowed, follower, nil, e.now().UTC())
		if err := e.feed.PushTx(tx, target.ID, event); err != nil {
			return err
		}
		pending = append(pending, pendingEvent{userID: target.ID, event: event})

		return e.timelines.RemoveAuthorTx(tx, follower.ID, target.ID)
	})
	if err != nil {
		return nil, err
	}

	if res.Changed {
		e.deliver(ctx, pending)
		e.timelines.Invalidate(ctx, follower.ID)
	}
	e.finishTransition("unfollow", start, res.Changed)
	return res, nil
}

// Followers lists the users following userID, most recent first.
func (e *Engine) Followers(ctx context.Context, userID string) ([]models.User, error) {
	return e.friendshipUsers(ctx, userID, true)
}

// Friends lists the users userID follows, most recent first.
func (e *Engine) Friends(ctx context.Context, userID string) ([]models.User, error) {
	return e.friendshipUsers(ctx, userID, false)
}

func (e *Engine) friendshipUsers(ctx context.Context, userID string, followers bool) ([]models.User, error) {
	var row models.Friendship
	if err := e.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return []models.User{}, nil
	}

	ids := row.FriendIDs
	if followers {
		ids = row.FollowerIDs
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
