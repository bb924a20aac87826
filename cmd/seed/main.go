// Command main fills the database with generated users, follows, posts and engagement.
package main

import (
	"context"
	"flag"
	"log"

	"postshare/internal/config"
	"postshare/internal/database"
	"postshare/internal/seed"
)

func main() {
	opts := seed.DefaultOptions
	flag.IntVar(&opts.NumUsers, "users", opts.NumUsers, "Number of users to create")
	flag.IntVar(&opts.NumPosts, "posts", opts.NumPosts, "Number of posts to create")
	flag.IntVar(&opts.MaxFollows, "follows", opts.MaxFollows, "Maximum users each user follows")
	flag.IntVar(&opts.MaxLikes, "likes", opts.MaxLikes, "Maximum likes per post")
	flag.IntVar(&opts.MaxComments, "comments", opts.MaxComments, "Maximum comments per post")
	flag.IntVar(&opts.MaxDays, "days", opts.MaxDays, "Spread post dates over this many past days")
	flag.BoolVar(&opts.ShouldClean, "clean", true, "Clean database before seeding")
	flag.BoolVar(&opts.SkipBcrypt, "fast", false, "Skip password hashing; seeded users cannot log in")
	flag.Int64Var(&opts.RandomSeed, "seed", 0, "Random seed for a reproducible data set (0 = time based)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", opts.NumUsers, opts.NumPosts, opts.ShouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	report, err := seed.Seed(context.Background(), db, opts)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Created %d users, %d follows, %d posts, %d likes, %d comments, %d replies",
		report.Users, report.Follows, report.Posts, report.Likes, report.Comments, report.Replies)
	log.Printf("📧 All seeded users have the password: %s", seed.DemoPassword)
}
