// Command main seeds the configured store with demo and random data.
package main

import (
	"context"
	"flag"
	"log"

	"quill/internal/auth"
	"quill/internal/bootstrap"
	"quill/internal/config"
	"quill/internal/observability"
	"quill/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 10, "Number of random users to create")
	numPosts := flag.Int("posts", 50, "Number of random posts to create")
	demo := flag.Bool("demo", true, "Create the demo account and its posts")
	fakerSeed := flag.Int64("seed", 0, "Seed for generated data (0 picks a random one)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, demo=%v\n", *numUsers, *numPosts, *demo)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.InitLogger(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to connect to store: %v", err)
	}
	defer func() { _ = rt.Close(ctx) }()

	s := seed.NewSeeder(rt.Users, rt.Posts, auth.NewBcryptHasher(cfg.BcryptCost))

	if *demo {
		if _, err := s.Demo(ctx); err != nil {
			log.Fatalf("❌ Demo seeding failed: %v", err)
		}
		log.Printf("👤 Demo account: %s / %s\n", seed.DemoUsername, seed.DemoPassword)
	}

	users, posts, err := s.Random(ctx, seed.NewFactory(*fakerSeed), *numUsers, *numPosts)
	if err != nil {
		log.Fatalf("❌ Random seeding failed after %d users, %d posts: %v", len(users), posts, err)
	}

	log.Printf("✨ All done! Created %d users and %d posts.\n", len(users), posts)
	if len(users) > 0 {
		log.Printf("📧 All generated users have the password: %s\n", seed.DefaultPassword)
	}
}
