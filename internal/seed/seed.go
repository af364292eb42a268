package seed

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"secondmain/internal/models"
	"secondmain/internal/repository"
)

// Options configuration for the seeder
type Options struct {
	NumSellers        int
	NumBuyers         int
	ListingsPerSeller int
	MaxDays           int
	// Clean removes existing listings and users before seeding.
	Clean bool
	// DryRun builds entities without writing anything.
	DryRun bool
	// AdminPhone, when set, creates an admin account with DefaultPassword.
	AdminPhone string
	BcryptCost int
	RandomSeed int64
}

// DefaultOptions returns a small demo dataset.
func DefaultOptions() Options {
	return Options{
		NumSellers:        5,
		NumBuyers:         5,
		ListingsPerSeller: 6,
		MaxDays:           60,
		AdminPhone:        "+33600999999",
		BcryptCost:        10,
	}
}

// Summary reports what a seed run created.
type Summary struct {
	Users    int
	Listings int
}

var (
	cities = []string{
		"Paris", "Lyon", "Marseille", "Toulouse", "Nice", "Nantes",
		"Strasbourg", "Montpellier", "Bordeaux", "Lille", "Rennes", "Dakar",
	}

	adjectives = []string{
		"en très bon état", "comme neuf", "peu servi", "à saisir", "vintage",
		"avec facture", "jamais utilisé", "prix négociable", "complet", "original",
	}

	itemNouns = map[models.Category][]string{
		models.CategoryElectronics: {"iPhone 12", "Casque Bose", "Console PS4", "Écran 27 pouces", "Appareil photo Canon"},
		models.CategoryFurniture:   {"Canapé d'angle", "Table en chêne", "Armoire ancienne", "Bureau blanc", "Lot de chaises"},
		models.CategoryFashion:     {"Veste en cuir", "Sac à main", "Baskets Nike", "Robe d'été", "Manteau laine"},
		models.CategoryAutomotive:  {"Jantes alu", "Siège auto", "Pneus hiver", "Coffre de toit", "Casque moto"},
		models.CategoryKids:        {"Poussette", "Lit bébé", "Lot de jouets", "Trottinette enfant", "Livres jeunesse"},
		models.CategoryHome:        {"Machine à café", "Aspirateur robot", "Lampe design", "Service de table", "Miroir mural"},
		models.CategorySport:       {"Vélo de route", "Raquette de tennis", "Tapis de yoga", "Haltères", "Planche de surf"},
		models.CategoryOther:       {"Collection de vinyles", "Guitare acoustique", "Plantes vertes", "Lot de BD", "Outils de jardin"},
	}
)

// Run seeds the database behind db according to opts.
func Run(ctx context.Context, db *gorm.DB, opts Options, logger *slog.Logger) (*Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Clean && !opts.DryRun {
		if err := Clean(ctx, db); err != nil {
			return nil, err
		}
		logger.Info("existing data removed")
	}

	var users repository.UserRepository
	var listings repository.ListingRepository
	if db != nil {
		users = repository.NewUserRepository(db, opts.BcryptCost)
		listings = repository.NewListingRepository(db)
	}
	f := NewFactory(users, listings, opts, logger)
	summary := &Summary{}

	if opts.AdminPhone != "" {
		if _, err := f.CreateUser(ctx, models.RoleAdmin, func(u *models.User) {
			u.FullName = "Administrateur"
			u.Phone = opts.AdminPhone
			u.Email = nil
			u.IsVerified = true
		}); err != nil {
			return nil, fmt.Errorf("failed to create admin: %w", err)
		}
		summary.Users++
	}

	for i := 0; i < opts.NumSellers; i++ {
		seller, err := f.CreateUser(ctx, models.RoleSeller)
		if err != nil {
			return nil, fmt.Errorf("failed to create seller: %w", err)
		}
		summary.Users++

		for j := 0; j < opts.ListingsPerSeller; j++ {
			if _, err := f.CreateListing(ctx, seller); err != nil {
				return nil, fmt.Errorf("failed to create listing: %w", err)
			}
			summary.Listings++
		}
	}

	for i := 0; i < opts.NumBuyers; i++ {
		if _, err := f.CreateUser(ctx, models.RoleBuyer); err != nil {
			return nil, fmt.Errorf("failed to create buyer: %w", err)
		}
		summary.Users++
	}

	logger.Info("seed completed",
		slog.Int("users", summary.Users),
		slog.Int("listings", summary.Listings),
		slog.Bool("dry_run", opts.DryRun),
	)
	return summary, nil
}

// Clean deletes every listing and user.
func Clean(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Listing{}).Error; err != nil {
			return fmt.Errorf("failed to clean listings: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("failed to clean users: %w", err)
		}
		return nil
	})
}
