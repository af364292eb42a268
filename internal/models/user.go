// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Role names a user's capability set.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// User represents an account on the marketplace. Accounts are never
// hard-deleted; IsActive is cleared instead.
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	FullName         string    `gorm:"size:100;not null" json:"fullName"`
	Email            *string   `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Phone            string    `gorm:"size:32;uniqueIndex;not null" json:"phone"`
	Password         string    `gorm:"not null" json:"-"`
	Role             Role      `gorm:"size:16;not null;default:buyer" json:"role"`
	IsVerified       bool      `gorm:"not null;default:false" json:"isVerified"`
	VerificationCode *string   `gorm:"size:16" json:"-"`
	Avatar           string    `json:"avatar"`
	Location         string    `gorm:"size:100" json:"location"`
	IsActive         bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// EmailValue returns the email or an empty string.
func (u *User) EmailValue() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

// Seller is the public projection of a listing owner embedded in listing
// responses.
type Seller struct {
	ID        uint       `json:"id"`
	FullName  string     `json:"fullName"`
	Phone     string     `json:"phone"`
	Location  string     `json:"location"`
	Avatar    string     `json:"avatar"`
	Email     string     `json:"email,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// SellerOf builds the summary projection of u.
func SellerOf(u *User) *Seller {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &Seller{
		ID:       u.ID,
		FullName: u.FullName,
		Phone:    u.Phone,
		Location: u.Location,
		Avatar:   u.Avatar,
	}
}

// SellerDetailOf builds the detail projection of u, adding contact email and
// membership date.
func SellerDetailOf(u *User) *Seller {
	s := SellerOf(u)
	if s == nil {
		return nil
	}
	s.Email = u.EmailValue()
	created := u.CreatedAt
	s.CreatedAt = &created
	return s
}
