package transactions

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a transaction with the given ID is not found.
var ErrNotFound = errors.New("transaction not found")

// ErrEmptyID is returned when an ID lookup is made with an empty ID.
var ErrEmptyID = errors.New("empty transaction ID")

// Storage is the record store behind the query layer. Implementations only
// evaluate filters; rounding, defaults and fan-out live in Service.
type Storage interface {
	// ReplaceAll deletes every stored transaction and inserts txs, returning the inserted count.
	ReplaceAll(ctx context.Context, txs []Transaction) (int, error)
	Read(ctx context.Context, id string) (*Transaction, error)
	Find(ctx context.Context, q Query) ([]Transaction, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Summarize(ctx context.Context, f Filter) (Statistics, error)
	GroupByCategory(ctx context.Context, f Filter) ([]CategoryCount, error)
}

// LocalStorage provides an in-memory implementation for storing transactions.
type LocalStorage struct {
	mu    sync.RWMutex
	order []string
	m     map[string]Transaction
}

// NewLocalStorage instantiates a new LocalStorage with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[string]Transaction{},
	}
}

// ReplaceAll assigns a fresh ID to every transaction and swaps the whole set in.
func (l *LocalStorage) ReplaceAll(_ context.Context, txs []Transaction) (int, error) {
	m := make(map[string]Transaction, len(txs))
	order := make([]string, 0, len(txs))
	for _, t := range txs {
		t.ID = uuid.NewString()
		m[t.ID] = t
		order = append(order, t.ID)
	}

	l.mu.Lock()
	l.m = m
	l.order = order
	l.mu.Unlock()

	return len(txs), nil
}

// Read retrieves a transaction by ID.
// Returns ErrNotFound if the transaction is not found.
func (l *LocalStorage) Read(_ context.Context, id string) (*Transaction, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

// Find returns the page of matching transactions in insertion order.
func (l *LocalStorage) Find(ctx context.Context, q Query) ([]Transaction, error) {
	matched, err := l.match(ctx, q.Filter)
	if err != nil {
		return nil, err
	}

	start := q.Skip()
	if start < 0 || start >= len(matched) {
		return []Transaction{}, nil
	}
	end := start + q.PerPage
	if end < start || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

// Count returns the number of matching transactions.
func (l *LocalStorage) Count(ctx context.Context, f Filter) (int64, error) {
	matched, err := l.match(ctx, f)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Summarize totals price and sold flags over the matching transactions.
func (l *LocalStorage) Summarize(ctx context.Context, f Filter) (Statistics, error) {
	matched, err := l.match(ctx, f)
	if err != nil {
		return Statistics{}, err
	}

	var stats Statistics
	for _, t := range matched {
		stats.TotalAmount += t.Price
		if t.Sold {
			stats.SoldItems++
		} else {
			stats.NotSoldItems++
		}
	}
	return stats, nil
}

// GroupByCategory counts matching transactions per category, sorted by name.
func (l *LocalStorage) GroupByCategory(ctx context.Context, f Filter) ([]CategoryCount, error) {
	matched, err := l.match(ctx, f)
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	for _, t := range matched {
		counts[t.Category]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (l *LocalStorage) match(ctx context.Context, f Filter) ([]Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	matched := make([]Transaction, 0)
	for _, id := range l.order {
		if t := l.m[id]; f.Matches(t) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}
