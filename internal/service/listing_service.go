package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"secondmain/internal/models"
	"secondmain/internal/observability"
	"secondmain/internal/policy"
	"secondmain/internal/repository"
	"secondmain/internal/storage"
	"secondmain/internal/validation"
)

const (
	DefaultMaxUploadFiles = 5
	DefaultMaxUploadBytes = 5 * 1024 * 1024
)

// ListingService implements the listing lifecycle: creation with photo
// uploads, reads, owner-or-admin updates and soft deletion.
type ListingService struct {
	listings       repository.ListingRepository
	store          storage.Store
	logger         *slog.Logger
	maxUploadFiles int
	maxUploadBytes int64
}

// CreateListingInput carries a new listing. Exactly one image source is used:
// uploaded files when present, the URL list otherwise.
type CreateListingInput struct {
	Title       string
	Description string
	Price       string
	Category    string
	Condition   string
	Location    string
	ImageURLs   []string
	Uploads     []storage.Upload
	// BaseURL is the scheme and host of the request, used to build absolute
	// URLs for uploaded files.
	BaseURL string
}

// UpdateListingInput holds optional replacements; nil or empty values keep
// the current value.
type UpdateListingInput struct {
	Title       *string
	Description *string
	Price       *string
	Category    *string
	Condition   *string
	Location    *string
	Images      []string
	Status      *string
}

func NewListingService(
	listings repository.ListingRepository,
	store storage.Store,
	logger *slog.Logger,
	maxUploadFiles int,
	maxUploadBytes int64,
) *ListingService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadFiles <= 0 {
		maxUploadFiles = DefaultMaxUploadFiles
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ListingService{
		listings:       listings,
		store:          store,
		logger:         logger,
		maxUploadFiles: maxUploadFiles,
		maxUploadBytes: maxUploadBytes,
	}
}

// Create stores the uploaded photos, validates the submission and persists
// the listing for actor. Any failure after the first file is stored removes
// every file stored by this call.
func (s *ListingService) Create(ctx context.Context, actor *models.User, in CreateListingInput) (listing *models.Listing, err error) {
	ctx, span := observability.StartSpan(ctx, "ListingService", "Create",
		attribute.Int("uploads", len(in.Uploads)),
	)
	defer func() {
		if err != nil {
			observability.ListingCreateFailures.WithLabelValues(observability.ErrorCode(err)).Inc()
		} else {
			observability.ListingsCreated.Inc()
		}
		observability.EndSpan(span, err)
	}()

	return s.create(ctx, actor, in)
}

func (s *ListingService) create(ctx context.Context, actor *models.User, in CreateListingInput) (*models.Listing, error) {
	if actor == nil {
		return nil, models.ErrMissingCredential
	}

	var stored []string
	rollback := func() {
		// cleanup must run even when the request context is already done
		cleanupCtx := context.WithoutCancel(ctx)
		for _, key := range stored {
			if err := s.store.Delete(cleanupCtx, key); err != nil {
				observability.UploadRollbacks.WithLabelValues("failed").Inc()
				s.logger.WarnContext(ctx, "failed to remove uploaded file during rollback",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
				continue
			}
			observability.UploadRollbacks.WithLabelValues("removed").Inc()
		}
	}

	images := in.ImageURLs
	if len(in.Uploads) > 0 {
		if len(in.Uploads) > s.maxUploadFiles {
			return nil, models.NewValidationError(fmt.Sprintf("At most %d images can be uploaded", s.maxUploadFiles))
		}
		images = make([]string, 0, len(in.Uploads))
		for _, upload := range in.Uploads {
			if _, err := storage.CheckImage(upload, s.maxUploadBytes); err != nil {
				rollback()
				return nil, err
			}
			key, err := s.store.Save(ctx, upload)
			if err != nil {
				rollback()
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, models.NewPersistenceError(ctxErr)
				}
				return nil, asAppError(err)
			}
			stored = append(stored, key)
			images = append(images, s.store.URL(key, in.BaseURL))
		}
	}

	listing, err := buildListing(in, images)
	if err != nil {
		rollback()
		return nil, err
	}
	listing.OwnerID = actor.ID
	listing.Status = models.StatusActive

	if err := ctx.Err(); err != nil {
		rollback()
		return nil, models.NewPersistenceError(err)
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		rollback()
		if models.HasCode(err, models.CodePersistence) {
			return nil, err
		}
		return nil, models.NewPersistenceError(err)
	}

	s.logger.InfoContext(ctx, "listing created",
		slog.Uint64("listing_id", uint64(listing.ID)),
		slog.Int("images", len(listing.Images)),
	)

	listing.Owner = actor
	return listing.WithSeller(), nil
}

// buildListing applies the creation rules in order: required fields, photo
// count, then field formats.
func buildListing(in CreateListingInput, images []string) (*models.Listing, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	category := strings.TrimSpace(in.Category)
	location := strings.TrimSpace(in.Location)

	if title == "" || description == "" || strings.TrimSpace(in.Price) == "" || category == "" || location == "" {
		return nil, models.NewValidationError("Title, description, price, category and location are required")
	}
	if err := validation.ValidateImages(images); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	price, err := validation.ParsePrice(in.Price)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateDescription(description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateCategory(models.Category(category)); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateListingLocation(location); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	condition := models.ConditionGood
	if c := strings.TrimSpace(in.Condition); c != "" {
		condition = models.Condition(c)
		if err := validation.ValidateCondition(condition); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	return &models.Listing{
		Title:       title,
		Description: description,
		Price:       price,
		Category:    models.Category(category),
		Condition:   condition,
		Location:    location,
		Images:      append([]string(nil), images...),
	}, nil
}

// Get returns a listing in any status and records the view.
func (s *ListingService) Get(ctx context.Context, id uint) (*models.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.listings.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	listing.Views++
	return listing.WithSellerDetail(), nil
}

func (s *ListingService) Search(ctx context.Context, filter repository.ListingFilter) (*models.ListingPage, error) {
	page, err := s.listings.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, l := range page.Items {
		l.WithSeller()
	}
	return page, nil
}

// ListByOwner returns the public, active listings of a user.
func (s *ListingService) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Listing, error) {
	return s.withSellers(s.listings.ListByOwner(ctx, ownerID, true))
}

// ListMine returns every listing of actor regardless of status.
func (s *ListingService) ListMine(ctx context.Context, actor *models.User) ([]*models.Listing, error) {
	if actor == nil {
		return nil, models.ErrMissingCredential
	}
	return s.withSellers(s.listings.ListByOwner(ctx, actor.ID, false))
}

func (s *ListingService) withSellers(listings []*models.Listing, err error) ([]*models.Listing, error) {
	if err != nil {
		return nil, err
	}
	for _, l := range listings {
		l.WithSeller()
	}
	return listings, nil
}

// Update applies the provided fields after checking that actor may modify
// the listing.
func (s *ListingService) Update(ctx context.Context, actor *models.User, id uint, in UpdateListingInput) (*models.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeMutation(actor, listing); err != nil {
		return nil, err
	}
	if listing.Status == models.StatusDeleted {
		return nil, models.NewNotFoundError("Listing", id)
	}

	if err := applyListingUpdate(actor, listing, in); err != nil {
		return nil, err
	}

	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, err
	}

	updated, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return updated.WithSeller(), nil
}

func applyListingUpdate(actor *models.User, listing *models.Listing, in UpdateListingInput) error {
	if v := trimmed(in.Title); v != "" {
		if err := validation.ValidateTitle(v); err != nil {
			return models.NewValidationError(err.Error())
		}
		listing.Title = v
	}
	if v := trimmed(in.Description); v != "" {
		if err := validation.ValidateDescription(v); err != nil {
			return models.NewValidationError(err.Error())
		}
		listing.Description = v
	}
	if v := trimmed(in.Price); v != "" {
		price, err := validation.ParsePrice(v)
		if err != nil {
			return models.NewValidationError(err.Error())
		}
		listing.Price = price
	}
	if v := trimmed(in.Category); v != "" {
		if err := validation.ValidateCategory(models.Category(v)); err != nil {
			return models.NewValidationError(err.Error())
		}
		listing.Category = models.Category(v)
	}
	if v := trimmed(in.Condition); v != "" {
		if err := validation.ValidateCondition(models.Condition(v)); err != nil {
			return models.NewValidationError(err.Error())
		}
		listing.Condition = models.Condition(v)
	}
	if v := trimmed(in.Location); v != "" {
		if err := validation.ValidateListingLocation(v); err != nil {
			return models.NewValidationError(err.Error())
		}
		listing.Location = v
	}
	if len(in.Images) > 0 {
		if err := validation.ValidateImages(in.Images); err != nil {
			return models.NewValidationError(err.Error())
		}
		listing.Images = append([]string(nil), in.Images...)
	}
	if v := trimmed(in.Status); v != "" {
		status := models.ListingStatus(v)
		if !status.Valid() || status == models.StatusDeleted {
			return models.NewValidationError("Status must be active, sold or suspended")
		}
		if !policy.AllowedStatus(actor, status) {
			return models.NewForbiddenError("Only administrators can suspend listings")
		}
		listing.Status = status
	}
	return nil
}

// Delete soft-deletes the listing. Deleting an already deleted listing
// succeeds without writing.
func (s *ListingService) Delete(ctx context.Context, actor *models.User, id uint) error {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.AuthorizeMutation(actor, listing); err != nil {
		return err
	}
	if listing.Status == models.StatusDeleted {
		return nil
	}
	if err := s.listings.SetStatus(ctx, id, models.StatusDeleted); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "listing deleted", slog.Uint64("listing_id", uint64(id)))
	return nil
}

// SetFeatured toggles the featured flag. Admin only.
func (s *ListingService) SetFeatured(ctx context.Context, actor *models.User, id uint, featured bool) (*models.Listing, error) {
	if err := policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.listings.SetFeatured(ctx, id, featured); err != nil {
		return nil, err
	}
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return listing.WithSeller(), nil
}

func asAppError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
