package repository

import (
	"math"
	"strconv"
	"strings"

	"secondmain/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// AllSentinel disables the category and location filters.
	AllSentinel = "All"

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// sortColumns maps the public sort keys to listing columns.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"views":     "views",
	"title":     "title",
	"updatedAt": "updated_at",
}

// ListingQuery is the raw, untrusted form of a search request as it arrives
// on the query string.
type ListingQuery struct {
	Category  string `query:"category"`
	Location  string `query:"location"`
	MinPrice  string `query:"minPrice"`
	MaxPrice  string `query:"maxPrice"`
	Condition string `query:"condition"`
	Search    string `query:"search"`
	SortBy    string `query:"sortBy"`
	Order     string `query:"order"`
	Page      string `query:"page"`
	Limit     string `query:"limit"`
}

// ListingFilter is a validated search request.
type ListingFilter struct {
	Category  string
	Location  string
	MinPrice  *float64
	MaxPrice  *float64
	Condition string
	Search    string
	SortBy    string
	Desc      bool
	Page      int
	Limit     int
}

// Parse validates q and fills in defaults. Unknown sort keys, unknown order
// directions and non-numeric price bounds are validation errors; page and
// limit fall back to their defaults and limit is clamped to MaxPageSize.
func (q ListingQuery) Parse() (ListingFilter, error) {
	f := ListingFilter{
		Category:  strings.TrimSpace(q.Category),
		Location:  strings.TrimSpace(q.Location),
		Condition: strings.TrimSpace(q.Condition),
		Search:    strings.TrimSpace(q.Search),
		SortBy:    "createdAt",
		Desc:      true,
		Page:      1,
		Limit:     DefaultPageSize,
	}

	if f.Category == AllSentinel {
		f.Category = ""
	}
	if f.Location == AllSentinel {
		f.Location = ""
	}

	var err error
	if f.MinPrice, err = parsePriceBound("minPrice", q.MinPrice); err != nil {
		return ListingFilter{}, err
	}
	if f.MaxPrice, err = parsePriceBound("maxPrice", q.MaxPrice); err != nil {
		return ListingFilter{}, err
	}

	if sortBy := strings.TrimSpace(q.SortBy); sortBy != "" {
		if _, ok := sortColumns[sortBy]; !ok {
			return ListingFilter{}, models.NewValidationError("Invalid sortBy: must be one of createdAt, price, views, title, updatedAt")
		}
		f.SortBy = sortBy
	}

	switch strings.ToLower(strings.TrimSpace(q.Order)) {
	case "", "desc":
		f.Desc = true
	case "asc":
		f.Desc = false
	default:
		return ListingFilter{}, models.NewValidationError("Invalid order: must be asc or desc")
	}

	if page, err := strconv.Atoi(strings.TrimSpace(q.Page)); err == nil && page > 0 {
		f.Page = page
	}
	if limit, err := strconv.Atoi(strings.TrimSpace(q.Limit)); err == nil && limit > 0 {
		f.Limit = limit
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	f.Page = clampPage(f.Page, f.Limit)

	return f, nil
}

// clampPage caps page so that Offset cannot overflow. The capped page is
// still far beyond any stored row, so it stays an empty page.
func clampPage(page, limit int) int {
	if maxPage := math.MaxInt/limit + 1; page > maxPage {
		return maxPage
	}
	return page
}

func parsePriceBound(name, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, models.NewValidationError("Invalid " + name + ": must be a number")
	}
	return &v, nil
}

// normalized fills in defaults for a filter built without Parse.
func (f ListingFilter) normalized() ListingFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = "createdAt"
	}
	f.Page = clampPage(f.Page, f.Limit)
	return f
}

// Offset is the number of rows skipped before the requested page.
func (f ListingFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pages returns ceil(total/limit).
func (f ListingFilter) Pages(total int64) int {
	if f.Limit <= 0 {
		return 0
	}
	return int((total + int64(f.Limit) - 1) / int64(f.Limit))
}

// where applies the conjunctive predicate shared by the count and the page
// query. Only active listings are ever returned.
func (f ListingFilter) where(db *gorm.DB) *gorm.DB {
	db = db.Where("status = ?", models.StatusActive)
	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}
	if f.Location != "" {
		db = db.Where("location = ?", f.Location)
	}
	if f.MinPrice != nil {
		db = db.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		db = db.Where("price <= ?", *f.MaxPrice)
	}
	if f.Condition != "" {
		db = db.Where(clause.Eq{Column: clause.Column{Name: "condition"}, Value: f.Condition})
	}
	if f.Search != "" {
		// both sides go through the database LOWER so they fold the same way
		pattern := "%" + escapeLike(f.Search) + "%"
		db = db.Where(`(LOWER(title) LIKE LOWER(?) ESCAPE '\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\')`, pattern, pattern)
	}
	return db
}

// order sorts by the requested key then by id so pages never overlap.
func (f ListingFilter) order(db *gorm.DB) *gorm.DB {
	return db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: sortColumns[f.SortBy]}, Desc: f.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
