package database

import (
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBCounter int64

// OpenTest opens an isolated in-memory SQLite database with the full schema
// pre-created. Postgres-only column types (text[], jsonb) are declared as
// TEXT; the custom serializers round-trip through plain strings, so the same
// model code runs against both engines.
func OpenTest() (*gorm.DB, error) {
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open test database: %w", err)
	}

	// SQLite-compatible DDL mirroring the postgres schema
	statements := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			public_id INTEGER,
			public_id_str TEXT UNIQUE,
			screen_name TEXT UNIQUE NOT NULL,
			name TEXT,
			description TEXT,
			location TEXT,
			url TEXT,
			protected INTEGER DEFAULT 0,
			verified INTEGER DEFAULT 0,
			followers_count INTEGER DEFAULT 0,
			friends_count INTEGER DEFAULT 0,
			statuses_count INTEGER DEFAULT 0,
			default_profile_image INTEGER DEFAULT 1,
			profile_image_url_https TEXT,
			profile_banner_url TEXT,
			profile_banner_color TEXT,
			password_hash TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE posts (
			id TEXT PRIMARY KEY,
			public_id INTEGER,
			public_id_str TEXT UNIQUE,
			user_id TEXT NOT NULL,
			text TEXT NOT NULL,
			retweeted_status_id TEXT,
			quoted_status_id TEXT,
			in_reply_to_status_id_str TEXT,
			in_reply_to_user_id_str TEXT,
			in_reply_to_screen_name TEXT,
			favorite_count INTEGER DEFAULT 0,
			retweet_count INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE friendships (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			follower_ids TEXT,
			friend_ids TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE post_engagements (
			id TEXT PRIMARY KEY,
			post_id TEXT UNIQUE NOT NULL,
			liked_by TEXT,
			reposted_by TEXT,
			reply_posts TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE home_timelines (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			posts TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE notifications (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			notifications TEXT,
			subscriptions TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE internal_settings (
			ver TEXT PRIMARY KEY,
			current_user_id INTEGER DEFAULT 0,
			current_post_id INTEGER DEFAULT 0,
			updated_at DATETIME
		)`,
		`CREATE TABLE hashtags (
			id TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			use_count INTEGER DEFAULT 0,
			last_used_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("failed to create test schema: %w", err)
		}
	}

	return db, nil
}
