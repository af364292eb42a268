package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"secondmain/internal/models"
)

// MinListingImages is the number of photos a listing must carry.
const MinListingImages = 3

// MaxListingPrice is the largest value a decimal(10,2) column holds.
const MaxListingPrice = 99999999.99

// ValidateTitle checks the listing title length
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < 5 || n > 200 {
		return fmt.Errorf("title must be between 5 and 200 characters")
	}
	return nil
}

// ValidateDescription checks the listing description length
func ValidateDescription(description string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(description))
	if n < 20 || n > 5000 {
		return fmt.Errorf("description must be between 20 and 5000 characters")
	}
	return nil
}

// ParsePrice parses a decimal price and rounds it to cents.
func ParsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("price is required")
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("price must be a number")
	}
	if err := ValidatePrice(price); err != nil {
		return 0, err
	}
	return math.Round(price*100) / 100, nil
}

// ValidatePrice checks the price bounds
func ValidatePrice(price float64) error {
	if price < 0 {
		return fmt.Errorf("price must be positive")
	}
	if price > MaxListingPrice {
		return fmt.Errorf("price must not exceed %.2f", MaxListingPrice)
	}
	return nil
}

// ValidateCategory checks the category against the fixed set
func ValidateCategory(category models.Category) error {
	if !category.Valid() {
		return fmt.Errorf("invalid category %q", category)
	}
	return nil
}

// ValidateCondition checks the item condition against the fixed set
func ValidateCondition(condition models.Condition) error {
	if !condition.Valid() {
		return fmt.Errorf("invalid condition %q", condition)
	}
	return nil
}

// ValidateListingLocation checks the required listing location
func ValidateListingLocation(location string) error {
	if strings.TrimSpace(location) == "" {
		return fmt.Errorf("location is required")
	}
	return ValidateLocation(location)
}

// ValidateImages checks the photo count and that every entry is non-empty.
func ValidateImages(images []string) error {
	if len(images) < MinListingImages {
		return fmt.Errorf("at least %d images are required", MinListingImages)
	}
	for i, img := range images {
		if strings.TrimSpace(img) == "" {
			return fmt.Errorf("image %d is empty", i+1)
		}
	}
	return nil
}
