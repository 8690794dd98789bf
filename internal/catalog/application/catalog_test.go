package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/internal/catalog/infrastructure/persistence/mysql"
	catalogredis "github.com/wyfcoding/storefront/internal/catalog/infrastructure/persistence/redis"
	inventoryapp "github.com/wyfcoding/storefront/internal/inventory/application"
	inventorymysql "github.com/wyfcoding/storefront/internal/inventory/infrastructure/persistence/mysql"
	"github.com/wyfcoding/storefront/pkg/cache"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

type recordedEvent struct {
	topic string
	key   string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{topic: topic, key: key})
	return nil
}

func setup(t *testing.T) (*CatalogCommandService, *CatalogQueryService, *recordingPublisher) {
	t.Helper()
	d, err := db.OpenMemory(t.Name())
	require.NoError(t, err)
	require.NoError(t, d.AutoMigrate(&mysql.ProductModel{}))
	t.Cleanup(func() { _ = d.Close() })

	repo := mysql.NewProductRepository(d.DB)
	pub := &recordingPublisher{}
	return NewCatalogCommandService(repo, pub), NewCatalogQueryService(repo), pub
}

func phone() CreateProductCommand {
	return CreateProductCommand{
		Name:        "Phone",
		Description: "A smartphone",
		Price:       "1000",
		Category:    "Electronics",
		Brand:       "Acme",
		Stock:       "5",
	}
}

func TestCreateProduct(t *testing.T) {
	cmds, queries, pub := setup(t)
	ctx := context.Background()

	p, err := cmds.CreateProduct(ctx, phone())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, []recordedEvent{{topic: domain.ProductCreatedTopic, key: p.ID}}, pub.events)

	got, err := queries.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phone", got.Name)
	assert.Equal(t, 5, got.Stock)
}

func TestCreateProduct_MissingFields(t *testing.T) {
	cmds, _, _ := setup(t)

	_, err := cmds.CreateProduct(context.Background(), CreateProductCommand{Name: "Phone", Stock: 1})
	require.Error(t, err)
	e, ok := xerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.KindValidation, e.Kind)
	assert.ElementsMatch(t, []string{"description", "price", "category"}, e.Fields)
}

func TestCreateProduct_BadNumbers(t *testing.T) {
	cmds, _, _ := setup(t)

	tests := []struct {
		name  string
		price any
		stock any
	}{
		{"negative price", "-1", 1},
		{"price not a number", "abc", 1},
		{"negative stock", "10", -3},
		{"fractional stock", "10", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := phone()
			cmd.Price = tt.price
			cmd.Stock = tt.stock
			_, err := cmds.CreateProduct(context.Background(), cmd)
			assert.True(t, xerrors.Is(err, xerrors.KindValidation), "got %v", err)
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	cmds, queries, pub := setup(t)
	ctx := context.Background()
	p, err := cmds.CreateProduct(ctx, phone())
	require.NoError(t, err)

	updated, err := cmds.UpdateProduct(ctx, p.ID, map[string]any{"price": 899.5, "stock": "12", "rating": 4.8})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("899.5")))

	got, err := queries.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Stock)
	assert.Equal(t, "Phone", got.Name)
	assert.InDelta(t, 4.8, got.Rating, 1e-9)
	assert.Len(t, pub.events, 2)

	_, err = cmds.UpdateProduct(ctx, p.ID, map[string]any{"name": "  "})
	assert.True(t, xerrors.Is(err, xerrors.KindValidation))

	_, err = cmds.UpdateProduct(ctx, "missing", map[string]any{"stock": 1})
	assert.True(t, xerrors.Is(err, xerrors.KindNotFound))
}

// stockFixture 商品目录与库存账本共用同一个数据库
type stockFixture struct {
	db     *db.DB
	base   domain.ProductRepository
	cmds   *CatalogCommandService
	ledger *inventoryapp.Ledger
}

func newStockFixture(t *testing.T, repo func(domain.ProductRepository) domain.ProductRepository) *stockFixture {
	t.Helper()
	d, err := db.OpenMemory(t.Name())
	require.NoError(t, err)
	require.NoError(t, d.AutoMigrate(&mysql.ProductModel{}, &inventorymysql.ReservationModel{}))
	t.Cleanup(func() { _ = d.Close() })

	base := mysql.NewProductRepository(d.DB)
	require.NoError(t, base.Save(context.Background(), &domain.Product{
		ID: "p1", Name: "Phone", Price: decimal.NewFromInt(1000), Category: "Electronics", Stock: 5,
	}))
	return &stockFixture{
		db:     d,
		base:   base,
		cmds:   NewCatalogCommandService(repo(base), &recordingPublisher{}),
		ledger: inventoryapp.NewLedger(inventorymysql.NewStockStore(d.DB), metrics.Nop{}),
	}
}

func (f *stockFixture) reserve(qty int) error {
	return f.db.WithTx(context.Background(), func(txCtx context.Context) error {
		_, err := f.ledger.Reserve(txCtx, "p1", qty, "ORD-test")
		return err
	})
}

func (f *stockFixture) stock(t *testing.T) int {
	t.Helper()
	p, err := f.base.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func TestUpdateProduct_KeepsReservationBehindStaleCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })

	var cached *catalogredis.CachedProductRepository
	f := newStockFixture(t, func(base domain.ProductRepository) domain.ProductRepository {
		cached = catalogredis.NewCachedProductRepository(base, rc, time.Minute, metrics.Nop{})
		return cached
	})
	ctx := context.Background()

	warm, err := cached.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 5, warm.Stock)

	// 账本未配置缓存失效，缓存仍是预留前的库存
	require.NoError(t, f.reserve(3))

	updated, err := f.cmds.UpdateProduct(ctx, "p1", map[string]any{"name": "Phone 2"})
	require.NoError(t, err)
	assert.Equal(t, "Phone 2", updated.Name)
	assert.Equal(t, 2, updated.Stock)
	assert.Equal(t, 2, f.stock(t))
}

func TestUpdateProduct_ConcurrentWithReservations(t *testing.T) {
	f := newStockFixture(t, func(base domain.ProductRepository) domain.ProductRepository { return base })
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.reserve(1))
		}()
		go func() {
			defer wg.Done()
			_, err := f.cmds.UpdateProduct(ctx, "p1", map[string]any{"rating": float64(i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.stock(t))

	_, err := f.cmds.UpdateProduct(ctx, "p1", map[string]any{"stock": 10})
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(t))
}

func TestDeleteProduct(t *testing.T) {
	cmds, queries, _ := setup(t)
	ctx := context.Background()
	p, err := cmds.CreateProduct(ctx, phone())
	require.NoError(t, err)

	require.NoError(t, cmds.DeleteProduct(ctx, p.ID))
	_, err = queries.GetProduct(ctx, p.ID)
	assert.True(t, xerrors.Is(err, xerrors.KindNotFound))

	assert.True(t, xerrors.Is(cmds.DeleteProduct(ctx, p.ID), xerrors.KindNotFound))
}

func TestListProducts_FiltersAndFacets(t *testing.T) {
	cmds, queries, _ := setup(t)
	ctx := context.Background()

	for _, c := range []CreateProductCommand{
		{Name: "Phone", Description: "smart", Price: "1000", Category: "Electronics", Brand: "Acme", Stock: 5},
		{Name: "Laptop", Description: "fast", Price: "2500", Category: "Electronics", Brand: "Bolt", Stock: 2},
		{Name: "Mug", Description: "ceramic", Price: "12", Category: "Kitchen", Brand: "Acme", Stock: 40},
	} {
		_, err := cmds.CreateProduct(ctx, c)
		require.NoError(t, err)
	}

	list, err := queries.ListProducts(ctx, domain.ProductFilter{Category: "electronics", Sort: domain.SortPriceDesc})
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "Laptop", list.Products[0].Name)
	assert.Equal(t, []string{"Electronics", "Kitchen"}, list.Categories)
	assert.Equal(t, []string{"Acme", "Bolt"}, list.Brands)

	ceiling := decimal.NewFromInt(100)
	list, err = queries.ListProducts(ctx, domain.ProductFilter{MaxPrice: &ceiling})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Mug", list.Products[0].Name)

	byCat, err := queries.ByCategory(ctx, "Kitchen")
	require.NoError(t, err)
	assert.Len(t, byCat, 1)

	brands, err := queries.Brands(ctx)
	require.NoError(t, err)
	assert.Contains(t, brands, domain.Facet{Name: "Acme", Count: 2})
}

func TestFeaturedAndNewArrivals(t *testing.T) {
	cmds, queries, _ := setup(t)
	ctx := context.Background()

	now := time.Now()
	cmds.now = func() time.Time { return now.Add(-60 * 24 * time.Hour) }
	old := phone()
	old.Rating = 4.9
	_, err := cmds.CreateProduct(ctx, old)
	require.NoError(t, err)

	cmds.now = func() time.Time { return now }
	fresh := phone()
	fresh.Name = "Tablet"
	fresh.Rating = 3
	_, err = cmds.CreateProduct(ctx, fresh)
	require.NoError(t, err)

	featured, err := queries.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "Phone", featured[0].Name)

	arrivals, err := queries.NewArrivals(ctx)
	require.NoError(t, err)
	require.Len(t, arrivals, 1)
	assert.Equal(t, "Tablet", arrivals[0].Name)
}
