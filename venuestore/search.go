package venuestore

import (
	"fmt"
	"math"
	"strings"
)

// SearchFilter selects venues by an optional name keyword, an optional city, and an optional budget.
// The keyword matches any part of the name, the city must match as a whole, both case-insensitively.
// A zero SearchFilter matches every venue.
type SearchFilter struct {
	keyword         string
	city            string
	maxPricePerHour float64
	hasMaxPrice     bool
}

// BuildSearchFilter returns an empty filter that matches every venue.
func BuildSearchFilter() SearchFilter {
	return SearchFilter{}
}

// NameContaining restricts the filter to venues whose name contains keyword.
func (f SearchFilter) NameContaining(keyword string) SearchFilter {
	f.keyword = strings.TrimSpace(keyword)
	return f
}

// InCity restricts the filter to venues located in city.
func (f SearchFilter) InCity(city string) SearchFilter {
	f.city = strings.TrimSpace(city)
	return f
}

// WithMaxPricePerHour restricts the filter to venues not more expensive than maxPrice.
func (f SearchFilter) WithMaxPricePerHour(maxPrice float64) SearchFilter {
	f.maxPricePerHour = maxPrice
	f.hasMaxPrice = true

	return f
}

// Keyword returns the name keyword, empty if unrestricted.
func (f SearchFilter) Keyword() string {
	return f.keyword
}

// City returns the city, empty if unrestricted.
func (f SearchFilter) City() string {
	return f.city
}

// MaxPricePerHour returns the budget and whether one is set.
func (f SearchFilter) MaxPricePerHour() (float64, bool) {
	return f.maxPricePerHour, f.hasMaxPrice
}

// Validate rejects budgets that are negative or not a number.
func (f SearchFilter) Validate() error {
	if f.hasMaxPrice && (math.IsNaN(f.maxPricePerHour) || math.IsInf(f.maxPricePerHour, 0) || f.maxPricePerHour < 0) {
		return validationError(fmt.Sprintf("max price per hour must be a non-negative number, got %v", f.maxPricePerHour))
	}

	return nil
}

// Matches evaluates the filter against one venue.
func (f SearchFilter) Matches(v Venue) bool {
	if f.keyword != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(f.keyword)) {
		return false
	}

	if f.city != "" && !strings.EqualFold(v.City, f.city) {
		return false
	}

	if f.hasMaxPrice && v.PricePerHour > f.maxPricePerHour {
		return false
	}

	return true
}

// String renders the filter for logs and span attributes.
func (f SearchFilter) String() string {
	parts := make([]string, 0, 3)

	if f.keyword != "" {
		parts = append(parts, "keyword="+f.keyword)
	}

	if f.city != "" {
		parts = append(parts, "city="+f.city)
	}

	if f.hasMaxPrice {
		parts = append(parts, fmt.Sprintf("max_price=%.2f", f.maxPricePerHour))
	}

	if len(parts) == 0 {
		return "all"
	}

	return strings.Join(parts, ",")
}
