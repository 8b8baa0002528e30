package transactions

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidMonth is returned when a month outside 1-12 is rejected.
var ErrInvalidMonth = errors.New("invalid month")

// ErrFetch wraps failures while loading the seed feed.
var ErrFetch = errors.New("failed to fetch seed data")

// ErrQuery wraps failures reported by the record store.
var ErrQuery = errors.New("query failed")

// Service runs the dashboard queries against a Storage backend.
type Service struct {
	storage Storage
	fetcher Fetcher
	logger  *zap.Logger
}

// NewService creates a new Service. fetcher may be nil if Initialize is never called.
func NewService(storage Storage, fetcher Fetcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		storage: storage,
		fetcher: fetcher,
		logger:  logger,
	}
}

// ValidateMonth reports ErrInvalidMonth unless month is in 1-12.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}
	return nil
}

// Initialize replaces the store contents with the seed feed and returns the inserted count.
func (s *Service) Initialize(ctx context.Context) (int, error) {
	if s.fetcher == nil {
		return 0, fmt.Errorf("%w: no seed source configured", ErrFetch)
	}

	txs, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.logger.Error("failed to fetch seed data", zap.Error(err))
		return 0, err
	}

	n, err := s.storage.ReplaceAll(ctx, txs)
	if err != nil {
		s.logger.Error("failed to replace transactions", zap.Int("fetched", len(txs)), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	s.logger.Info("transactions initialized", zap.Int("count", n))
	return n, nil
}

// Get returns a single transaction by store ID.
func (s *Service) Get(ctx context.Context, id string) (*Transaction, error) {
	t, err := s.storage.Read(ctx, id)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmptyID) {
		return nil, err
	}
	if err != nil {
		return nil, s.queryError("read", err, zap.String("id", id))
	}
	return t, nil
}

// List returns one page of the month's transactions narrowed by search.
// Total and TotalPages count the whole month and ignore search.
func (s *Service) List(ctx context.Context, month int, search string, page, perPage int) (*Page, error) {
	q := NewFilter(month).WithSearch(search).Paginate(page, perPage)

	var (
		rows  []Transaction
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.storage.Find(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.storage.Count(gctx, NewFilter(month))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.queryError("list", err, zap.Int("month", month), zap.String("search", search))
	}

	if rows == nil {
		rows = []Transaction{}
	}

	result := &Page{
		Transactions: rows,
		Total:        total,
		Page:         q.Page,
		PerPage:      q.PerPage,
		TotalPages:   TotalPages(total, q.PerPage),
	}

	s.logger.Debug("transactions listed",
		zap.Int("month", month),
		zap.String("search", search),
		zap.Int("page", q.Page),
		zap.Int("results_count", len(rows)),
		zap.Int64("total", total),
	)
	return result, nil
}

// Statistics sums price and counts sold and unsold items for the month.
func (s *Service) Statistics(ctx context.Context, month int) (Statistics, error) {
	stats, err := s.storage.Summarize(ctx, NewFilter(month))
	if err != nil {
		return Statistics{}, s.queryError("statistics", err, zap.Int("month", month))
	}
	stats.TotalAmount = roundAmount(stats.TotalAmount)
	return stats, nil
}

// BarChart counts the month's transactions in each of PriceBuckets, one query per bucket.
func (s *Service) BarChart(ctx context.Context, month int) ([]PriceRangeCount, error) {
	bars := make([]PriceRangeCount, len(PriceBuckets))

	g, gctx := errgroup.WithContext(ctx)
	for i, bucket := range PriceBuckets {
		g.Go(func() error {
			n, err := s.storage.Count(gctx, NewFilter(month).WithPriceRange(bucket))
			if err != nil {
				return err
			}
			bars[i] = PriceRangeCount{Range: bucket.Label(), Count: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.queryError("bar chart", err, zap.Int("month", month))
	}
	return bars, nil
}

// PieChart counts the month's transactions per category.
func (s *Service) PieChart(ctx context.Context, month int) ([]CategoryCount, error) {
	counts, err := s.storage.GroupByCategory(ctx, NewFilter(month))
	if err != nil {
		return nil, s.queryError("pie chart", err, zap.Int("month", month))
	}
	if counts == nil {
		counts = []CategoryCount{}
	}
	return counts, nil
}

// Combined validates month and runs Statistics, BarChart and PieChart in
// parallel. Any failing branch fails the whole call.
func (s *Service) Combined(ctx context.Context, month int) (*Combined, error) {
	if err := ValidateMonth(month); err != nil {
		s.logger.Warn("invalid month for combined report", zap.Int("month", month))
		return nil, err
	}

	var out Combined
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Statistics, err = s.Statistics(gctx, month)
		return err
	})
	g.Go(func() error {
		var err error
		out.BarChart, err = s.BarChart(gctx, month)
		return err
	})
	g.Go(func() error {
		var err error
		out.PieChart, err = s.PieChart(gctx, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) queryError(op string, err error, fields ...zap.Field) error {
	if errors.Is(err, ErrQuery) {
		return err
	}
	s.logger.Error("query failed", append(fields, zap.String("op", op), zap.Error(err))...)
	return fmt.Errorf("%w: %s: %v", ErrQuery, op, err)
}

func roundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}
