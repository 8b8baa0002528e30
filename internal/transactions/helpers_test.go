package transactions

import (
	"context"
	"errors"
	"time"
)

// sale builds a transaction dated mid-month in 2021 so the UTC month is unambiguous.
func sale(month int, price float64, sold bool, category, title string) Transaction {
	return Transaction{
		Title:       title,
		Description: "description of " + title,
		Price:       price,
		Category:    category,
		Sold:        sold,
		DateOfSale:  time.Date(2021, time.Month(month), 15, 12, 0, 0, 0, time.UTC),
	}
}

// mayFixture is the three-record month from the dashboard examples: prices
// 50, 150 and 999, one of them sold.
func mayFixture() []Transaction {
	return []Transaction{
		sale(5, 50, true, "electronics", "Phone case"),
		sale(5, 150, false, "men's clothing", "Jacket"),
		sale(5, 999, false, "electronics", "Laptop"),
	}
}

func seededStorage(txs []Transaction) *LocalStorage {
	s := NewLocalStorage()
	_, _ = s.ReplaceAll(context.Background(), txs)
	return s
}

var errStoreDown = errors.New("store unavailable")

// failingStorage wraps LocalStorage and fails the calls selected by its hooks.
type failingStorage struct {
	*LocalStorage
	failFind      bool
	failSummarize bool
	failGroup     bool
	failReplace   bool
	failCount     func(f Filter) bool
}

func (s *failingStorage) ReplaceAll(ctx context.Context, txs []Transaction) (int, error) {
	if s.failReplace {
		return 0, errStoreDown
	}
	return s.LocalStorage.ReplaceAll(ctx, txs)
}

func (s *failingStorage) Find(ctx context.Context, q Query) ([]Transaction, error) {
	if s.failFind {
		return nil, errStoreDown
	}
	return s.LocalStorage.Find(ctx, q)
}

func (s *failingStorage) Count(ctx context.Context, f Filter) (int64, error) {
	if s.failCount != nil && s.failCount(f) {
		return 0, errStoreDown
	}
	return s.LocalStorage.Count(ctx, f)
}

func (s *failingStorage) Summarize(ctx context.Context, f Filter) (Statistics, error) {
	if s.failSummarize {
		return Statistics{}, errStoreDown
	}
	return s.LocalStorage.Summarize(ctx, f)
}

func (s *failingStorage) GroupByCategory(ctx context.Context, f Filter) ([]CategoryCount, error) {
	if s.failGroup {
		return nil, errStoreDown
	}
	return s.LocalStorage.GroupByCategory(ctx, f)
}

// staticFetcher returns a fixed feed or error.
type staticFetcher struct {
	txs   []Transaction
	err   error
	calls int
}

func (f *staticFetcher) Fetch(context.Context) ([]Transaction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Transaction, len(f.txs))
	copy(out, f.txs)
	return out, nil
}
