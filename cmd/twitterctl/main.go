// twitterctl is the operational CLI: schema migration and development
// seeding against the configured database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Deepakgauttam/twitter-clone/internal/config"
	"github.com/Deepakgauttam/twitter-clone/internal/database"
	"github.com/Deepakgauttam/twitter-clone/internal/identity"
	"github.com/Deepakgauttam/twitter-clone/internal/logger"
	"github.com/Deepakgauttam/twitter-clone/internal/notify"
	"github.com/Deepakgauttam/twitter-clone/internal/seed"
	"github.com/Deepakgauttam/twitter-clone/internal/social"
	"github.com/Deepakgauttam/twitter-clone/internal/timeline"
)

var (
	seedUsers int
	seedPosts int
)

var rootCmd = &cobra.Command{
	Use:   "twitterctl",
	Short: "Operational tooling for the twitter-clone backend",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return err
		}
		defer database.Close()
		if err := database.Migrate(); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with development data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return err
		}
		defer database.Close()
		if err := database.Migrate(); err != nil {
			return err
		}

		feed := notify.NewFeed(database.DB, nil)
		timelines := timeline.NewService(database.DB, nil)
		engine := social.NewEngine(database.DB, identity.New(), feed, timelines)

		seeder := seed.NewSeeder(database.DB, engine)
		if err := seeder.SeedDev(context.Background(), seedUsers, seedPosts); err != nil {
			return err
		}
		fmt.Printf("seeded %d users and ~%d posts (password %q)\n", seedUsers, seedPosts, seed.DefaultPassword)
		return nil
	},
}

func setup() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}
	return database.Initialize(cfg.DSN())
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 25, "number of users to create")
	seedCmd.Flags().IntVar(&seedPosts, "posts", 100, "number of posts to create")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
