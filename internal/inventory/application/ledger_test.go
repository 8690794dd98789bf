package application

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/storefront/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/storefront/internal/inventory/domain"
	"github.com/wyfcoding/storefront/internal/inventory/infrastructure/persistence/mysql"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

type invalidations struct {
	mu  sync.Mutex
	ids []string
}

func (i *invalidations) Invalidate(_ context.Context, ids ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ids = append(i.ids, ids...)
}

type fixture struct {
	db       *db.DB
	ledger   *Ledger
	products catalogdomain.ProductRepository
	evicted  *invalidations
}

func newFixture(t *testing.T, stock int) *fixture {
	t.Helper()
	d, err := db.OpenMemory(t.Name())
	require.NoError(t, err)
	require.NoError(t, d.AutoMigrate(&catalogmysql.ProductModel{}, &mysql.ReservationModel{}))
	t.Cleanup(func() { _ = d.Close() })

	products := catalogmysql.NewProductRepository(d.DB)
	require.NoError(t, products.Save(context.Background(), &catalogdomain.Product{
		ID: "p1", Name: "Phone", Price: decimal.NewFromInt(1000), Category: "Electronics", Stock: stock,
	}))

	evicted := &invalidations{}
	return &fixture{
		db:       d,
		ledger:   NewLedger(mysql.NewStockStore(d.DB), metrics.Nop{}, evicted),
		products: products,
		evicted:  evicted,
	}
}

func (f *fixture) stock(t *testing.T) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func (f *fixture) reserve(ctx context.Context, productID string, qty int) (*domain.Reservation, error) {
	var r *domain.Reservation
	err := f.db.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		r, err = f.ledger.Reserve(txCtx, productID, qty, "ORD-test")
		return err
	})
	if err != nil {
		return nil, err
	}
	f.ledger.Committed(ctx, r)
	return r, nil
}

func TestReserve_DecrementsStock(t *testing.T) {
	f := newFixture(t, 5)

	r, err := f.reserve(context.Background(), "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Quantity)
	assert.Equal(t, 2, r.Remaining)
	assert.Equal(t, 2, f.stock(t))
	assert.Equal(t, []string{"p1"}, f.evicted.ids)
}

func TestReserve_InsufficientLeavesStockUnchanged(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.reserve(context.Background(), "p1", 10)
	require.Error(t, err)
	e, ok := xerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.KindInsufficientStock, e.Kind)
	assert.Equal(t, 2, f.stock(t))
	assert.Empty(t, f.evicted.ids)
}

func TestReserve_ExactStock(t *testing.T) {
	f := newFixture(t, 4)

	_, err := f.reserve(context.Background(), "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t))

	_, err = f.reserve(context.Background(), "p1", 1)
	assert.True(t, xerrors.Is(err, xerrors.KindInsufficientStock))
}

func TestReserve_UnknownProduct(t *testing.T) {
	f := newFixture(t, 5)

	_, err := f.reserve(context.Background(), "missing", 1)
	assert.True(t, xerrors.Is(err, xerrors.KindNotFound))
}

func TestReserve_InvalidQuantity(t *testing.T) {
	f := newFixture(t, 5)

	for _, q := range []int{0, -2} {
		_, err := f.reserve(context.Background(), "p1", q)
		assert.True(t, xerrors.Is(err, xerrors.KindValidation))
	}
	assert.Equal(t, 5, f.stock(t))
}

func TestReserve_RolledBackWithCallerTransaction(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	err := f.db.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := f.ledger.Reserve(txCtx, "p1", 2, "ORD-x"); err != nil {
			return err
		}
		return xerrors.New(xerrors.KindInternal, "order write failed")
	})
	require.Error(t, err)
	assert.Equal(t, 5, f.stock(t))

	history, err := f.ledger.History(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestReserve_ConcurrentNeverOversells(t *testing.T) {
	const initial = 10
	f := newFixture(t, initial)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		reserved  int
		rejected  int
		unexpects []error
	)
	for i := range 25 {
		qty := 1 + i%2
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reserve(ctx, "p1", qty)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				reserved += qty
			case xerrors.Is(err, xerrors.KindInsufficientStock):
				rejected++
			default:
				unexpects = append(unexpects, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, unexpects)
	assert.Positive(t, rejected)
	assert.Equal(t, initial-reserved, f.stock(t))
	assert.GreaterOrEqual(t, f.stock(t), 0)

	history, err := f.ledger.History(ctx, "p1")
	require.NoError(t, err)
	sum := 0
	for _, r := range history {
		sum += r.Quantity
	}
	assert.Equal(t, reserved, sum)
}
