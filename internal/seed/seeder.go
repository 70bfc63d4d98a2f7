// Package seed fills a development database with plausible users, posts and
// engagement. Everything goes through the social engine so derived counters
// and mirror invariants hold in seeded data too.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Deepakgauttam/twitter-clone/internal/logger"
	"github.com/Deepakgauttam/twitter-clone/internal/models"
	"github.com/Deepakgauttam/twitter-clone/internal/social"
)

// DefaultPassword is the password every seeded account gets.
const DefaultPassword = "password123"

// Seeder handles database seeding operations
type Seeder struct {
	db     *gorm.DB
	engine *social.Engine
	rng    *rand.Rand
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, engine *social.Engine) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:     db,
		engine: engine,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedDev seeds the development database with userCount accounts and roughly
// postCount posts, plus follows, likes, reposts and replies.
func (s *Seeder) SeedDev(ctx context.Context, userCount, postCount int) error {
	if userCount < 2 {
		userCount = 2
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}
	passwordHash := string(hashed)

	logger.Log.Info("Seeding users...")
	users, err := s.seedUsers(ctx, userCount, &passwordHash)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Seeding follows...")
	if err := s.seedFollows(ctx, users); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("Seeding posts...")
	posts, err := s.seedPosts(ctx, users, postCount)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Seeding engagement...")
	if err := s.seedEngagement(ctx, users, posts); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	logger.Log.Info("Seeding complete")
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, count int, passwordHash *string) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	seen := map[string]bool{}

	for len(users) < count {
		screenName := sanitizeScreenName(gofakeit.Username())
		if screenName == "" || seen[screenName] {
			continue
		}
		seen[screenName] = true

		user, err := s.engine.CreateUser(ctx, screenName, gofakeit.Name(), passwordHash)
		if err != nil {
			return nil, err
		}

		bio := gofakeit.Sentence(8)
		city := gofakeit.City()
		if _, err := s.engine.UpdateProfile(ctx, user.ID, social.ProfileUpdate{
			Description: &bio,
			Location:    &city,
		}); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedFollows(ctx context.Context, users []*models.User) error {
	for _, follower := range users {
		// Everybody follows a handful of random accounts
		for i := 0; i < 3+s.rng.Intn(5); i++ {
			target := users[s.rng.Intn(len(users))]
			if target.ID == follower.ID {
				continue
			}
			if _, err := s.engine.Follow(ctx, follower.ID, target.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, count int) ([]*models.Post, error) {
	tags := []string{"music", "golang", "news", "coffee", "travel", "art"}
	posts := make([]*models.Post, 0, count)

	for i := 0; i < count; i++ {
		author := users[s.rng.Intn(len(users))]
		text := gofakeit.Sentence(6 + s.rng.Intn(12))
		if s.rng.Intn(3) == 0 {
			text += " #" + tags[s.rng.Intn(len(tags))]
		}
		if s.rng.Intn(5) == 0 {
			text += " @" + users[s.rng.Intn(len(users))].ScreenName
		}

		post, err := s.engine.CreatePost(ctx, author.ID, text)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedEngagement(ctx context.Context, users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		for i := 0; i < s.rng.Intn(4); i++ {
			if _, err := s.engine.Like(ctx, users[s.rng.Intn(len(users))].ID, post.ID); err != nil {
				return err
			}
		}
		if s.rng.Intn(5) == 0 {
			if _, err := s.engine.Repost(ctx, users[s.rng.Intn(len(users))].ID, post.ID); err != nil {
				return err
			}
		}
		if s.rng.Intn(4) == 0 {
			replier := users[s.rng.Intn(len(users))]
			if _, err := s.engine.Reply(ctx, replier.ID, post.ID, gofakeit.Sentence(5+s.rng.Intn(8))); err != nil {
				return err
			}
		}
	}
	return nil
}

// sanitizeScreenName coerces arbitrary fake usernames into the handle
// alphabet.
func sanitizeScreenName(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 15 {
		out = out[:15]
	}
	return out
}
