// Command seed fills the database with demo sellers, buyers and listings.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"secondmain/internal/config"
	"secondmain/internal/database"
	"secondmain/internal/middleware"
	"secondmain/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	sellers := flag.Int("sellers", defaults.NumSellers, "Number of seller accounts to create")
	buyers := flag.Int("buyers", defaults.NumBuyers, "Number of buyer accounts to create")
	perSeller := flag.Int("listings", defaults.ListingsPerSeller, "Listings per seller")
	maxDays := flag.Int("days", defaults.MaxDays, "Spread listing creation dates over this many days")
	adminPhone := flag.String("admin-phone", defaults.AdminPhone, "Phone of the admin account (empty to skip)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build the dataset without writing it")
	randomSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := middleware.NewLogger(cfg.Env)

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumSellers:        *sellers,
		NumBuyers:         *buyers,
		ListingsPerSeller: *perSeller,
		MaxDays:           *maxDays,
		Clean:             *shouldClean,
		DryRun:            *dryRun,
		AdminPhone:        *adminPhone,
		BcryptCost:        cfg.BcryptCost,
		RandomSeed:        *randomSeed,
	}

	summary, err := seed.Run(ctx, db, opts, logger)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	logger.Info("seeding complete",
		slog.Int("users", summary.Users),
		slog.Int("listings", summary.Listings),
		slog.Bool("dry_run", opts.DryRun),
	)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
