package models

import (
	"time"
)

// Category is the fixed set of listing categories.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryFurniture   Category = "Furniture"
	CategoryFashion     Category = "Fashion"
	CategoryAutomotive  Category = "Automotive"
	CategoryKids        Category = "Kids"
	CategoryHome        Category = "Home"
	CategorySport       Category = "Sport"
	CategoryOther       Category = "Other"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryElectronics, CategoryFurniture, CategoryFashion, CategoryAutomotive,
	CategoryKids, CategoryHome, CategorySport, CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Condition describes the state of the item for sale.
type Condition string

const (
	ConditionNew        Condition = "New"
	ConditionLikeNew    Condition = "Like-new"
	ConditionGood       Condition = "Good"
	ConditionAcceptable Condition = "Acceptable"
	ConditionPoor       Condition = "Poor"
)

// Conditions lists every accepted condition.
var Conditions = []Condition{
	ConditionNew, ConditionLikeNew, ConditionGood, ConditionAcceptable, ConditionPoor,
}

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	StatusActive    ListingStatus = "active"
	StatusSold      ListingStatus = "sold"
	StatusSuspended ListingStatus = "suspended"
	StatusDeleted   ListingStatus = "deleted"
)

// Valid reports whether s is a known status.
func (s ListingStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSold, StatusSuspended, StatusDeleted:
		return true
	}
	return false
}

// Listing represents a classified ad.
type Listing struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Title       string        `gorm:"size:200;not null" json:"title"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Price       float64       `gorm:"type:decimal(10,2);not null;index" json:"price"`
	Category    Category      `gorm:"size:32;not null;index" json:"category"`
	Condition   Condition     `gorm:"size:32;not null;default:Good" json:"condition"`
	Location    string        `gorm:"size:100;not null;index" json:"location"`
	Images      []string      `gorm:"type:text;not null;serializer:json" json:"images"`
	OwnerID     uint          `gorm:"column:owner_id;not null;index" json:"userId"`
	Owner       *User         `gorm:"foreignKey:OwnerID" json:"-"`
	Status      ListingStatus `gorm:"size:16;not null;default:active;index" json:"status"`
	Views       int           `gorm:"not null;default:0" json:"views"`
	IsFeatured  bool          `gorm:"not null;default:false" json:"isFeatured"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	// Seller is filled from Owner before the listing leaves the service layer.
	Seller *Seller `gorm:"-" json:"seller,omitempty"`
}

// WithSeller sets the summary owner projection from the preloaded owner.
func (l *Listing) WithSeller() *Listing {
	l.Seller = SellerOf(l.Owner)
	return l
}

// WithSellerDetail sets the detail owner projection from the preloaded owner.
func (l *Listing) WithSellerDetail() *Listing {
	l.Seller = SellerDetailOf(l.Owner)
	return l
}

// Pagination describes a page of search results.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
}

// ListingPage is the result of a listing search.
type ListingPage struct {
	Items      []*Listing `json:"items"`
	Pagination Pagination `json:"pagination"`
}
