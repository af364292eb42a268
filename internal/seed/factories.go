// Package seed provides helpers to create demo data for the marketplace
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"secondmain/internal/models"
	"secondmain/internal/repository"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	users    repository.UserRepository
	listings repository.ListingRepository
	faker    *gofakeit.Faker
	opts     Options
	logger   *slog.Logger
	// synthetic ID counter when running in DryRun mode
	nextID uint
	seq    int
}

// NewFactory creates a Factory. Repositories may be nil in DryRun mode.
func NewFactory(users repository.UserRepository, listings repository.ListingRepository, opts Options, logger *slog.Logger) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		users:    users,
		listings: listings,
		faker:    gofakeit.New(seed),
		opts:     opts,
		logger:   logger,
		nextID:   1000,
	}
}

// BuildUser constructs a user with a unique phone and email but does not
// persist it.
func (f *Factory) BuildUser(role models.Role, overrides ...func(*models.User)) *models.User {
	f.seq++
	email := fmt.Sprintf("%s.%d@example.com", strings.ToLower(f.faker.Username()), f.seq)
	user := &models.User{
		FullName:   f.faker.Name(),
		Email:      &email,
		Phone:      fmt.Sprintf("+33600%06d", f.seq),
		Role:       role,
		IsVerified: f.faker.Bool(),
		Avatar:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Location:   f.faker.RandomString(cities),
		IsActive:   true,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user with DefaultPassword.
func (f *Factory) CreateUser(ctx context.Context, role models.Role, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(role, overrides...)

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		f.logger.Debug("[dry-run] CreateUser", slog.String("phone", user.Phone), slog.String("role", string(user.Role)))
		return user, nil
	}

	if err := f.users.Create(ctx, user, DefaultPassword); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildListing constructs an active listing owned by owner that passes
// creation validation, without persisting it.
func (f *Factory) BuildListing(owner *models.User, overrides ...func(*models.Listing)) *models.Listing {
	category := models.Categories[f.faker.Number(0, len(models.Categories)-1)]
	condition := models.Conditions[f.faker.Number(0, len(models.Conditions)-1)]

	imageCount := f.faker.Number(3, 5)
	images := make([]string, 0, imageCount)
	for i := 0; i < imageCount; i++ {
		images = append(images, fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID()))
	}

	listing := &models.Listing{
		Title:       f.title(category),
		Description: f.description(),
		Price:       math.Round(f.faker.Price(1, 2500)*100) / 100,
		Category:    category,
		Condition:   condition,
		Location:    owner.Location,
		Images:      images,
		OwnerID:     owner.ID,
		Status:      models.StatusActive,
		Views:       f.faker.Number(0, 500),
		IsFeatured:  f.faker.Number(1, 10) == 1,
		CreatedAt:   f.pastTime(),
	}
	if listing.Location == "" {
		listing.Location = f.faker.RandomString(cities)
	}
	listing.UpdatedAt = listing.CreatedAt

	for _, override := range overrides {
		override(listing)
	}
	return listing
}

// CreateListing builds and persists a listing for owner.
func (f *Factory) CreateListing(ctx context.Context, owner *models.User, overrides ...func(*models.Listing)) (*models.Listing, error) {
	listing := f.BuildListing(owner, overrides...)

	if f.opts.DryRun {
		f.nextID++
		listing.ID = f.nextID
		f.logger.Debug("[dry-run] CreateListing", slog.Uint64("owner_id", uint64(owner.ID)), slog.String("title", listing.Title))
		return listing, nil
	}

	if err := f.listings.Create(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (f *Factory) title(category models.Category) string {
	nouns, ok := itemNouns[category]
	if !ok {
		nouns = itemNouns[models.CategoryOther]
	}
	return fmt.Sprintf("%s %s", f.faker.RandomString(nouns), f.faker.RandomString(adjectives))
}

func (f *Factory) description() string {
	desc := f.faker.Paragraph(1, 3, 8, " ")
	for len(desc) < 20 {
		desc += " " + f.faker.Sentence(6)
	}
	if len(desc) > 5000 {
		desc = desc[:5000]
	}
	return desc
}

// pastTime spreads creation dates over the last MaxDays days.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute
	return time.Now().Add(-back).UTC().Truncate(time.Second)
}
