package transactions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"
)

// Fetcher loads the full set of seed transactions from an external source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Transaction, error)
}

// HTTPFetcher downloads the seed feed as a JSON array over HTTP.
type HTTPFetcher struct {
	client *resty.Client
	url    string
}

// NewHTTPFetcher creates a fetcher for url. A zero timeout leaves the client default.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	client := resty.New().
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPFetcher{client: client, url: url}
}

// Close releases the underlying HTTP client.
func (f *HTTPFetcher) Close() error {
	return f.client.Close()
}

// Fetch downloads and decodes the feed. Every failure is reported as ErrFetch.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]Transaction, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(f.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: seed source returned status %d", ErrFetch, res.StatusCode())
	}
	return DecodeSeed(res.Bytes())
}

// seedRecord is the loosely typed shape of one feed element.
type seedRecord struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Category    string      `json:"category"`
	Image       string      `json:"image"`
	Sold        bool        `json:"sold"`
	DateOfSale  string      `json:"dateOfSale"`
}

// DecodeSeed parses a JSON array of sale records into transactions. The whole
// feed is rejected if any element has a missing or negative price, no
// category, or an unparseable sale date.
func DecodeSeed(data []byte) ([]Transaction, error) {
	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding feed: %v", ErrFetch, err)
	}

	txs := make([]Transaction, 0, len(records))
	for i, r := range records {
		t, err := r.toTransaction()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrFetch, i, err)
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func (r seedRecord) toTransaction() (Transaction, error) {
	if r.Price == "" {
		return Transaction{}, fmt.Errorf("missing price")
	}
	price, err := r.Price.Float64()
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid price %q", r.Price)
	}
	if price < 0 {
		return Transaction{}, fmt.Errorf("negative price %v", price)
	}

	category := strings.TrimSpace(r.Category)
	if category == "" {
		return Transaction{}, fmt.Errorf("missing category")
	}

	soldAt, err := time.Parse(time.RFC3339, r.DateOfSale)
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid dateOfSale %q", r.DateOfSale)
	}

	var productID int64
	if r.ID != "" {
		if productID, err = r.ID.Int64(); err != nil {
			return Transaction{}, fmt.Errorf("invalid id %q", r.ID)
		}
	}

	return Transaction{
		ProductID:   int(productID),
		Title:       r.Title,
		Description: r.Description,
		Price:       price,
		Category:    category,
		Image:       r.Image,
		Sold:        r.Sold,
		DateOfSale:  soldAt.UTC(),
	}, nil
}
