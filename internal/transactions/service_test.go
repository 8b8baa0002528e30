package transactions

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T, storage Storage) *Service {
	t.Helper()
	return NewService(storage, nil, zaptest.NewLogger(t))
}

func TestNewService(t *testing.T) {
	svc := NewService(NewLocalStorage(), nil, nil)

	require.NotNil(t, svc)
	assert.NotNil(t, svc.storage)
	assert.NotNil(t, svc.logger, "a nil logger is replaced with a no-op one")
}

func TestService_Statistics(t *testing.T) {
	svc := newTestService(t, seededStorage(mayFixture()))

	stats, err := svc.Statistics(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, Statistics{TotalAmount: 1199, SoldItems: 1, NotSoldItems: 2}, stats)
}

func TestService_StatisticsEmptyMonth(t *testing.T) {
	svc := newTestService(t, seededStorage(mayFixture()))

	for _, m := range []int{6, 0, 13} {
		stats, err := svc.Statistics(context.Background(), m)
		require.NoError(t, err)
		assert.Equal(t, Statistics{}, stats, "month %d", m)
	}
}

func TestService_StatisticsRoundsTotal(t *testing.T) {
	svc := newTestService(t, seededStorage([]Transaction{
		sale(2, 0.1, true, "c", "a"),
		sale(2, 0.2, false, "c", "b"),
		sale(2, 10.004, false, "c", "d"),
	}))

	stats, err := svc.Statistics(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 10.3, stats.TotalAmount)
	assert.Equal(t, int64(3), stats.SoldItems+stats.NotSoldItems)
}

func TestService_BarChart(t *testing.T) {
	svc := newTestService(t, seededStorage(mayFixture()))

	bars, err := svc.BarChart(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, bars, len(PriceBuckets))

	want := map[string]int64{"0-100": 1, "101-200": 1, "901-above": 1}
	var sum int64
	for i, bar := range bars {
		assert.Equal(t, PriceBuckets[i].Label(), bar.Range, "bars keep bucket order")
		assert.Equal(t, want[bar.Range], bar.Count, bar.Range)
		sum += bar.Count
	}
	assert.Equal(t, int64(3), sum)
}

func TestService_BarChartFailsWhenAnyBucketFails(t *testing.T) {
	storage := &failingStorage{
		LocalStorage: seededStorage(mayFixture()),
		failCount:    func(f Filter) bool { return f.Price != nil && f.Price.Min == 501 },
	}
	svc := newTestService(t, storage)

	bars, err := svc.BarChart(context.Background(), 5)
	assert.ErrorIs(t, err, ErrQuery)
	assert.Nil(t, bars, "no partial results")
}

func TestService_PieChart(t *testing.T) {
	svc := newTestService(t, seededStorage(mayFixture()))

	slices, err := svc.PieChart(context.Background(), 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []CategoryCount{
		{Category: "electronics", Count: 2},
		{Category: "men's clothing", Count: 1},
	}, slices)

	empty, err := svc.PieChart(context.Background(), 8)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestService_ListOnlyReturnsRequestedMonth(t *testing.T) {
	var txs []Transaction
	for m := 1; m <= 12; m++ {
		for i := 0; i < m; i++ {
			txs = append(txs, sale(m, float64(i), false, "c", "item"))
		}
	}
	svc := newTestService(t, seededStorage(txs))

	for m := 1; m <= 12; m++ {
		page, err := svc.List(context.Background(), m, "", 1, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(m), page.Total)
		require.Len(t, page.Transactions, m)
		for _, tx := range page.Transactions {
			assert.Equal(t, m, int(tx.DateOfSale.UTC().Month()))
		}
	}
}

func TestService_ListSearchDoesNotNarrowTotal(t *testing.T) {
	svc := newTestService(t, seededStorage(mayFixture()))

	page, err := svc.List(context.Background(), 5, "abc", 1, 10)
	require.NoError(t, err)

	assert.Empty(t, page.Transactions)
	assert.NotNil(t, page.Transactions)
	assert.Equal(t, int64(3), page.Total, "total counts the whole month, not the search")
	assert.Equal(t, int64(1), page.TotalPages)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PerPage)
}

func TestService_ListSearchByTitleAndPrice(t *testing.T) {
	svc := newTestService(t, seededStorage(mayFixture()))

	byTitle, err := svc.List(context.Background(), 5, "laptop", 1, 10)
	require.NoError(t, err)
	require.Len(t, byTitle.Transactions, 1)
	assert.Equal(t, "Laptop", byTitle.Transactions[0].Title)

	byPrice, err := svc.List(context.Background(), 5, "150", 1, 10)
	require.NoError(t, err)
	require.Len(t, byPrice.Transactions, 1)
	assert.Equal(t, 150.0, byPrice.Transactions[0].Price)
}

func TestService_ListPagination(t *testing.T) {
	var txs []Transaction
	for i := 0; i < 23; i++ {
		txs = append(txs, sale(9, float64(i), false, "c", "item"))
	}
	svc := newTestService(t, seededStorage(txs))

	first, err := svc.List(context.Background(), 9, "", 1, 10)
	require.NoError(t, err)
	second, err := svc.List(context.Background(), 9, "", 2, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(23), second.Total)
	assert.Equal(t, int64(3), second.TotalPages)
	assert.Len(t, second.Transactions, 10)

	firstIDs := map[string]bool{}
	for _, tx := range first.Transactions {
		firstIDs[tx.ID] = true
	}
	for _, tx := range second.Transactions {
		assert.False(t, firstIDs[tx.ID], "page 2 must not repeat page 1")
	}
}

func TestService_ListDefaultsPaging(t *testing.T) {
	svc := newTestService(t, seededStorage(mayFixture()))

	page, err := svc.List(context.Background(), 5, "", 0, -3)
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, page.Page)
	assert.Equal(t, DefaultPerPage, page.PerPage)
}

func TestService_ListOversizedPaging(t *testing.T) {
	svc := newTestService(t, seededStorage(mayFixture()))

	huge, err := svc.List(context.Background(), 5, "", 1, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, MaxPerPage, huge.PerPage)
	assert.Len(t, huge.Transactions, 3)
	assert.Equal(t, int64(1), huge.TotalPages)

	far, err := svc.List(context.Background(), 5, "", 1000000000000000000, 10)
	require.NoError(t, err)
	assert.Empty(t, far.Transactions)
	assert.Equal(t, int64(3), far.Total)
	assert.Equal(t, int64(1), far.TotalPages)
}

func TestValidateMonth(t *testing.T) {
	assert.NoError(t, ValidateMonth(1))
	assert.NoError(t, ValidateMonth(12))

	err := ValidateMonth(13)
	assert.ErrorIs(t, err, ErrInvalidMonth)
	assert.Equal(t, "invalid month: got 13", err.Error())
}

func TestService_ListStoreFailure(t *testing.T) {
	svc := newTestService(t, &failingStorage{LocalStorage: seededStorage(mayFixture()), failFind: true})

	page, err := svc.List(context.Background(), 5, "", 1, 10)
	assert.ErrorIs(t, err, ErrQuery)
	assert.ErrorContains(t, err, errStoreDown.Error())
	assert.Nil(t, page)
}

func TestService_CombinedValidatesMonth(t *testing.T) {
	svc := newTestService(t, seededStorage(mayFixture()))

	for _, m := range []int{0, 13, -1} {
		got, err := svc.Combined(context.Background(), m)
		assert.ErrorIs(t, err, ErrInvalidMonth, "month %d", m)
		assert.Nil(t, got)
	}
	for m := 1; m <= 12; m++ {
		_, err := svc.Combined(context.Background(), m)
		assert.NoError(t, err, "month %d", m)
	}
}

func TestService_Combined(t *testing.T) {
	svc := newTestService(t, seededStorage(mayFixture()))

	got, err := svc.Combined(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, Statistics{TotalAmount: 1199, SoldItems: 1, NotSoldItems: 2}, got.Statistics)
	assert.Len(t, got.BarChart, 10)
	assert.Equal(t, "901-above", got.BarChart[9].Range)
	assert.Equal(t, int64(1), got.BarChart[9].Count)
	assert.Len(t, got.PieChart, 2)
}

func TestService_CombinedIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name    string
		storage *failingStorage
	}{
		{name: "statistics fails", storage: &failingStorage{failSummarize: true}},
		{name: "category breakdown fails", storage: &failingStorage{failGroup: true}},
		{name: "one bucket fails", storage: &failingStorage{failCount: func(f Filter) bool { return f.Price != nil && !f.Price.Bounded() }}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.storage.LocalStorage = seededStorage(mayFixture())
			svc := newTestService(t, tt.storage)

			got, err := svc.Combined(context.Background(), 5)
			assert.ErrorIs(t, err, ErrQuery)
			assert.Nil(t, got)
		})
	}
}

func TestService_Initialize(t *testing.T) {
	storage := seededStorage([]Transaction{sale(1, 1, true, "old", "stale")})
	fetcher := &staticFetcher{txs: mayFixture()}
	svc := NewService(storage, fetcher, zaptest.NewLogger(t))

	n, err := svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Running it again ends in the same state.
	n, err = svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, fetcher.calls)

	stale, err := storage.Count(context.Background(), NewFilter(1))
	require.NoError(t, err)
	assert.Zero(t, stale)

	may, err := storage.Count(context.Background(), NewFilter(5))
	require.NoError(t, err)
	assert.Equal(t, int64(3), may)
}

func TestService_InitializeFetchFailureKeepsData(t *testing.T) {
	storage := seededStorage(mayFixture())
	svc := NewService(storage, &staticFetcher{err: ErrFetch}, zaptest.NewLogger(t))

	_, err := svc.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrFetch)

	n, err := storage.Count(context.Background(), NewFilter(5))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestService_InitializeWithoutFetcher(t *testing.T) {
	svc := newTestService(t, NewLocalStorage())

	_, err := svc.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
}

func TestService_InitializeStoreFailure(t *testing.T) {
	storage := &failingStorage{LocalStorage: NewLocalStorage(), failReplace: true}
	svc := NewService(storage, &staticFetcher{txs: mayFixture()}, zaptest.NewLogger(t))

	_, err := svc.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrQuery)
}

func TestService_Get(t *testing.T) {
	storage := seededStorage(mayFixture())
	svc := newTestService(t, storage)

	page, err := svc.List(context.Background(), 5, "", 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)

	got, err := svc.Get(context.Background(), page.Transactions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, page.Transactions[0].Title, got.Title)

	_, err = svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
