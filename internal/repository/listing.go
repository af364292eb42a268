package repository

import (
	"context"
	"errors"

	"secondmain/internal/models"

	"gorm.io/gorm"
)

// ListingRepository defines the interface for listing data operations
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	Search(ctx context.Context, filter ListingFilter) (*models.ListingPage, error)
	ListByOwner(ctx context.Context, ownerID uint, activeOnly bool) ([]*models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	IncrementViews(ctx context.Context, id uint) error
	SetStatus(ctx context.Context, id uint, status models.ListingStatus) error
	SetFeatured(ctx context.Context, id uint, featured bool) error
}

// listingRepository implements ListingRepository
type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// editableColumns are the columns Update writes.
var editableColumns = []string{
	"title", "description", "price", "category", "condition",
	"location", "images", "status",
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if err := r.db.WithContext(ctx).Omit("Owner").Create(listing).Error; err != nil {
		return models.NewPersistenceError(err)
	}
	return nil
}

// GetByID returns the listing regardless of status, with its owner preloaded.
func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Preload("Owner").First(&listing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Listing", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &listing, nil
}

// Search runs filter against active listings. The total is counted with the
// same predicate before pagination is applied.
func (r *listingRepository) Search(ctx context.Context, filter ListingFilter) (*models.ListingPage, error) {
	filter = filter.normalized()
	db := r.db.WithContext(ctx)

	var total int64
	if err := filter.where(db.Model(&models.Listing{})).Count(&total).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	listings := make([]*models.Listing, 0, filter.Limit)
	if total > int64(filter.Offset()) {
		err := filter.order(filter.where(db.Model(&models.Listing{}))).
			Preload("Owner").
			Limit(filter.Limit).
			Offset(filter.Offset()).
			Find(&listings).Error
		if err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	return &models.ListingPage{
		Items: listings,
		Pagination: models.Pagination{
			Total: total,
			Page:  filter.Page,
			Pages: filter.Pages(total),
			Limit: filter.Limit,
		},
	}, nil
}

// ListByOwner returns the owner's listings, newest first.
func (r *listingRepository) ListByOwner(ctx context.Context, ownerID uint, activeOnly bool) ([]*models.Listing, error) {
	q := r.db.WithContext(ctx).Preload("Owner").Where("owner_id = ?", ownerID)
	if activeOnly {
		q = q.Where("status = ?", models.StatusActive)
	}

	listings := []*models.Listing{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	err := r.db.WithContext(ctx).
		Model(listing).
		Select(editableColumns).
		Updates(listing).Error
	if err != nil {
		return models.NewPersistenceError(err)
	}
	return nil
}

// IncrementViews bumps the counter in the database so concurrent readers
// never lose an increment.
func (r *listingRepository) IncrementViews(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	return checkListingWrite(result, id)
}

func (r *listingRepository) SetStatus(ctx context.Context, id uint, status models.ListingStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Update("status", status)
	return checkListingWrite(result, id)
}

func (r *listingRepository) SetFeatured(ctx context.Context, id uint, featured bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Update("is_featured", featured)
	return checkListingWrite(result, id)
}

func checkListingWrite(result *gorm.DB, id uint) error {
	if result.Error != nil {
		return models.NewPersistenceError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Listing", id)
	}
	return nil
}
