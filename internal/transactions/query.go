package transactions

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultPage is used when no valid page is requested.
	DefaultPage = 1
	// DefaultPerPage is used when no valid page size is requested.
	DefaultPerPage = 10
	// MaxPerPage caps the page size a caller can request.
	MaxPerPage = 100
)

// PriceRange is a half-open price interval [Min, Max).
type PriceRange struct {
	Min float64
	Max float64
}

// Bounded reports whether the range has an upper limit.
func (r PriceRange) Bounded() bool {
	return !math.IsInf(r.Max, 1)
}

// Contains reports whether price falls inside the range.
func (r PriceRange) Contains(price float64) bool {
	return price >= r.Min && (!r.Bounded() || price < r.Max)
}

// Label renders the range the way the dashboard expects, e.g. "101-200" or "901-above".
func (r PriceRange) Label() string {
	if !r.Bounded() {
		return fmt.Sprintf("%g-above", r.Min)
	}
	return fmt.Sprintf("%g-%g", r.Min, r.Max)
}

// PriceBuckets are the fixed histogram intervals. Buckets after the first
// start one unit past the previous upper bound, so prices in [100,101),
// [200,201) and so on are not counted by any bucket.
var PriceBuckets = []PriceRange{
	{Min: 0, Max: 100},
	{Min: 101, Max: 200},
	{Min: 201, Max: 300},
	{Min: 301, Max: 400},
	{Min: 401, Max: 500},
	{Min: 501, Max: 600},
	{Min: 601, Max: 700},
	{Min: 701, Max: 800},
	{Min: 801, Max: 900},
	{Min: 901, Max: math.Inf(1)},
}

// Filter selects transactions by calendar month of sale and, optionally, by
// search text and price range. The zero value of each optional part matches
// everything.
type Filter struct {
	Month  int
	Search string
	Price  *PriceRange
}

// NewFilter returns a filter that matches transactions sold in month (1-12)
// of any year. Months outside that range match nothing.
func NewFilter(month int) Filter {
	return Filter{Month: month}
}

// WithSearch narrows the filter to transactions whose title or description
// contains text (case-insensitive), or whose price equals text when it is a number.
func (f Filter) WithSearch(text string) Filter {
	f.Search = text
	return f
}

// WithPriceRange narrows the filter to prices inside r.
func (f Filter) WithPriceRange(r PriceRange) Filter {
	f.Price = &r
	return f
}

// Paginate turns the filter into a paged query. Values below 1 fall back to
// DefaultPage and DefaultPerPage; perPage is capped at MaxPerPage.
func (f Filter) Paginate(page, perPage int) Query {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Query{Filter: f, Page: page, PerPage: perPage}
}

// searchPrice returns the search text as a price when it parses as a finite number.
func (f Filter) searchPrice() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(f.Search), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Matches evaluates the filter against a single transaction.
func (f Filter) Matches(t Transaction) bool {
	if int(t.DateOfSale.UTC().Month()) != f.Month {
		return false
	}
	if f.Price != nil && !f.Price.Contains(t.Price) {
		return false
	}
	if f.Search == "" {
		return true
	}

	needle := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle) {
		return true
	}
	if price, ok := f.searchPrice(); ok && t.Price == price {
		return true
	}
	return false
}

// Query is a filter plus a pagination window.
type Query struct {
	Filter
	Page    int
	PerPage int
}

// Skip is the number of matching transactions before the requested page.
// It saturates at math.MaxInt instead of overflowing for very large pages.
func (q Query) Skip() int {
	if q.Page < 1 || q.PerPage < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PerPage {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PerPage
}

// TotalPages returns ceil(total / perPage).
func TotalPages(total int64, perPage int) int64 {
	if perPage < 1 {
		return 0
	}
	pages := total / int64(perPage)
	if total%int64(perPage) != 0 {
		pages++
	}
	return pages
}
