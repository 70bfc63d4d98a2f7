package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/Deepakgauttam/twitter-clone/internal/models"
)

// Event builds a notification event for the given type. The actor is the user
// whose transition triggered it; post is nil for follow/unfollow events. The
// caller supplies the timestamp so ordering stays under the engine's clock.
func Event(typ string, actor *models.User, post *models.Post, at time.Time) models.NotificationEvent {
	e := models.NotificationEvent{
		ID:        uuid.New().String(),
		Type:      typ,
		Title:     title(typ, actor),
		CreatedAt: at,
	}

	e.Body.UserID = actor.ID
	if post != nil {
		e.Body.PostID = post.ID
		e.Body.Link = "/post/" + post.PublicIDStr
	} else {
		e.Body.Link = "/user/" + actor.ScreenName
	}
	return e
}

func title(typ string, actor *models.User) string {
	handle := "@" + actor.ScreenName
	switch typ {
	case models.NotifMentioned:
		return handle + " mentioned you"
	case models.NotifReplied:
		return handle + " replied to your post"
	case models.NotifLiked:
		return handle + " liked your post"
	case models.NotifFollowed:
		return handle + " followed you"
	case models.NotifUnfollowed:
		return handle + " unfollowed you"
	case models.NotifReposted:
		return handle + " reposted your post"
	default:
		return handle + " interacted with you"
	}
}
