// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"secondmain/internal/auth"
	"secondmain/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error)
	Create(ctx context.Context, user *models.User, password string) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, password string) error
	SetActive(ctx context.Context, id uint, active bool) error
}

type userRepository struct {
	db         *gorm.DB
	bcryptCost int
}

// NewUserRepository returns a new UserRepository implementation. Passwords
// are hashed with bcryptCost on every write.
func NewUserRepository(db *gorm.DB, bcryptCost int) UserRepository {
	return &userRepository{db: db, bcryptCost: bcryptCost}
}

// profileColumns are the columns Update may touch. The password hash only
// changes through UpdatePassword.
var profileColumns = []string{
	"full_name", "email", "phone", "role", "is_verified",
	"verification_code", "avatar", "location", "is_active",
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByIdentifier returns the user whose email or phone equals identifier,
// or nil when there is none. Emails are stored lower-cased, so the email side
// is compared case-insensitively.
func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if identifier == "" {
		return nil, nil
	}
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR phone = ?", strings.ToLower(identifier), identifier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if email != "" {
		q = q.Where("phone = ? OR email = ?", phone, email)
	} else {
		q = q.Where("phone = ?", phone)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User, password string) error {
	hash, err := auth.HashPassword(password, r.bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = hash

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A user with this phone or email already exists")
		}
		return models.NewPersistenceError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Model(user).
		Select(profileColumns).
		Updates(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A user with this phone or email already exists")
		}
		return models.NewPersistenceError(err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, password string) error {
	hash, err := auth.HashPassword(password, r.bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return r.updateColumn(ctx, id, "password", hash)
}

func (r *userRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.updateColumn(ctx, id, "is_active", active)
}

func (r *userRepository) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return models.NewPersistenceError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}
