package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/ustock-backend/internal/database/dbtest"
	"github.com/javajoker/ustock-backend/internal/models"
	"github.com/javajoker/ustock-backend/internal/utils"
)

type fakeLookup struct {
	mu    sync.Mutex
	infos map[string]*ProductInfo
	err   error
	hits  []models.ProductSummary
	calls atomic.Int32

	// beforeReturn runs inside Lookup, after the call was counted.
	beforeReturn func()
}

func (f *fakeLookup) Lookup(ctx context.Context, barcode string) (*ProductInfo, error) {
	f.calls.Add(1)
	if f.beforeReturn != nil {
		f.beforeReturn()
	}
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.infos[barcode]
	if !ok {
		return nil, newError(KindNotFound, "fake.Lookup", "product not found in external catalog")
	}
	copied := *info
	return &copied, nil
}

func (f *fakeLookup) Search(ctx context.Context, query string, limit int) ([]models.ProductSummary, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > limit {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

type fakeEstimator struct {
	price decimal.Decimal
	mu    sync.Mutex
	reqs  []PriceRequest
}

func (f *fakeEstimator) Estimate(ctx context.Context, req PriceRequest) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.price
}

func (f *fakeEstimator) requests() []PriceRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PriceRequest(nil), f.reqs...)
}

type fakeMirror struct {
	url string
	err error
}

func (f *fakeMirror) MirrorImage(ctx context.Context, barcode, sourceURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type ProductServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	lookup    *fakeLookup
	estimator *fakeEstimator
	mirror    *fakeMirror
	svc       *ProductService
}

func (suite *ProductServiceTestSuite) SetupTest() {
	suite.db = dbtest.New(suite.T())
	suite.lookup = &fakeLookup{infos: map[string]*ProductInfo{
		"3017620422003": {
			Barcode:     "3017620422003",
			Name:        "Nutella",
			Brand:       "Ferrero",
			ContentSize: "400 g",
			Nutriscore:  "E",
			ImageURL:    "https://images.example.org/nutella.jpg",
			Category:    "Spreads",
		},
		"5449000000996": {
			Barcode:    "5449000000996",
			Name:       "Coca-Cola",
			Nutriscore: "unknown",
		},
	}}
	suite.estimator = &fakeEstimator{price: decimal.RequireFromString("4.20")}
	suite.mirror = &fakeMirror{url: "https://cdn.example.org/products/3017620422003.jpg"}
	suite.svc = NewProductService(suite.db, suite.lookup, suite.estimator, suite.mirror)
}

func (suite *ProductServiceTestSuite) TearDownTest() {
	suite.svc.Wait()
}

func (suite *ProductServiceTestSuite) TestGetOrCreateIngestsUnknownBarcode() {
	ctx := context.Background()

	product, created, err := suite.svc.GetOrCreate(ctx, "3017620422003")
	suite.Require().NoError(err)
	suite.True(created)
	suite.Equal("Nutella", product.ProductName)
	suite.Equal("Ferrero", product.Brand)
	suite.Equal("400 g", product.ContentSize)
	suite.Require().NotNil(product.Nutriscore)
	suite.Equal(models.NutriScoreE, *product.Nutriscore)

	suite.svc.Wait()

	stored, err := suite.svc.GetByID(ctx, product.ID)
	suite.Require().NoError(err)
	suite.True(stored.Price.Valid)
	suite.True(stored.Price.Decimal.Equal(decimal.RequireFromString("4.20")), "price %s", stored.Price.Decimal)
	suite.NotNil(stored.PriceUpdatedAt)
	suite.Equal(suite.mirror.url, stored.ImageURL)

	reqs := suite.estimator.requests()
	suite.Require().Len(reqs, 1)
	suite.Equal(PriceRequest{Name: "Nutella", Brand: "Ferrero", ContentSize: "400 g", Category: "Spreads"}, reqs[0])
}

func (suite *ProductServiceTestSuite) TestGetOrCreateDefaultsMissingAttributes() {
	product, created, err := suite.svc.GetOrCreate(context.Background(), "5449000000996")
	suite.Require().NoError(err)
	suite.True(created)
	suite.Equal(models.Unspecified, product.Brand)
	suite.Equal(models.Unspecified, product.ContentSize)
	suite.Nil(product.Nutriscore)

	suite.svc.Wait()
	reqs := suite.estimator.requests()
	suite.Require().Len(reqs, 1)
	suite.Empty(reqs[0].Brand)
	suite.Empty(reqs[0].ContentSize)
}

func (suite *ProductServiceTestSuite) TestGetOrCreateReturnsExistingWithoutLookup() {
	existing := dbtest.CreateProduct(suite.T(), suite.db, "1234567890123")

	product, created, err := suite.svc.GetOrCreate(context.Background(), "1234567890123")
	suite.Require().NoError(err)
	suite.False(created)
	suite.Equal(existing.ID, product.ID)
	suite.Equal(int32(0), suite.lookup.calls.Load())
}

func (suite *ProductServiceTestSuite) TestGetOrCreateUnknownBarcode() {
	_, _, err := suite.svc.GetOrCreate(context.Background(), "0000000000000")
	suite.ErrorIs(err, ErrNotFound)
	suite.Equal(int64(0), dbtest.Count(suite.T(), suite.db, &models.Product{}, ""))
}

func (suite *ProductServiceTestSuite) TestGetOrCreateUpstreamUnavailable() {
	suite.lookup.err = newError(KindUpstreamUnavailable, "fake.Lookup", "product lookup failed")

	_, _, err := suite.svc.GetOrCreate(context.Background(), "3017620422003")
	suite.ErrorIs(err, ErrUpstreamUnavailable)
	suite.Equal(int64(0), dbtest.Count(suite.T(), suite.db, &models.Product{}, ""))
}

func (suite *ProductServiceTestSuite) TestGetOrCreateEmptyBarcode() {
	_, _, err := suite.svc.GetOrCreate(context.Background(), "   ")
	suite.ErrorIs(err, ErrInvalidInput)
	suite.Equal(int32(0), suite.lookup.calls.Load())
}

func (suite *ProductServiceTestSuite) TestGetOrCreateConcurrentSameBarcode() {
	const callers = 2

	// Hold every caller inside Lookup until all of them missed the local
	// catalog, so they race on the insert.
	var arrived sync.WaitGroup
	arrived.Add(callers)
	suite.lookup.beforeReturn = func() {
		arrived.Done()
		done := make(chan struct{})
		go func() {
			arrived.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}

	type result struct {
		product *models.Product
		created bool
		err     error
	}
	results := make(chan result, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, created, err := suite.svc.GetOrCreate(context.Background(), "3017620422003")
			results <- result{p, created, err}
		}()
	}
	wg.Wait()
	close(results)

	var ids []string
	createdCount := 0
	for r := range results {
		suite.Require().NoError(r.err)
		ids = append(ids, r.product.ID.String())
		if r.created {
			createdCount++
		}
	}

	suite.Equal(1, createdCount)
	suite.Len(ids, callers)
	suite.Equal(ids[0], ids[1])
	suite.Equal(int64(1), dbtest.Count(suite.T(), suite.db, &models.Product{}, "barcode = ?", "3017620422003"))
}

func (suite *ProductServiceTestSuite) TestMirrorFailureKeepsSourceImage() {
	suite.mirror.err = assert.AnError

	product, _, err := suite.svc.GetOrCreate(context.Background(), "3017620422003")
	suite.Require().NoError(err)
	suite.svc.Wait()

	stored, err := suite.svc.GetByID(context.Background(), product.ID)
	suite.Require().NoError(err)
	suite.Equal("https://images.example.org/nutella.jpg", stored.ImageURL)
	suite.True(stored.Price.Valid)
}

func (suite *ProductServiceTestSuite) TestSearch() {
	suite.lookup.hits = []models.ProductSummary{{Barcode: "1", ProductName: "Milk"}}

	hits, err := suite.svc.Search(context.Background(), "milk")
	suite.Require().NoError(err)
	suite.Len(hits, 1)
	suite.Equal(int64(0), dbtest.Count(suite.T(), suite.db, &models.Product{}, ""))

	_, err = suite.svc.Search(context.Background(), " ")
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *ProductServiceTestSuite) TestRefreshPrice() {
	product := dbtest.CreateProduct(suite.T(), suite.db, "1234567890123")
	suite.estimator.price = decimal.RequireFromString("1.99")

	price, err := suite.svc.RefreshPrice(context.Background(), product.ID)
	suite.Require().NoError(err)
	suite.Equal("1.99", price.StringFixed(2))

	stored, err := suite.svc.GetByID(context.Background(), product.ID)
	suite.Require().NoError(err)
	suite.True(stored.Price.Decimal.Equal(decimal.RequireFromString("1.99")))
	suite.NotNil(stored.PriceUpdatedAt)

	_, err = suite.svc.RefreshPrice(context.Background(), dbtest.NewID())
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *ProductServiceTestSuite) TestGetByBarcodeNeverIngests() {
	_, err := suite.svc.GetByBarcode(context.Background(), "3017620422003")
	suite.ErrorIs(err, ErrNotFound)
	suite.Equal(int32(0), suite.lookup.calls.Load())
}

func (suite *ProductServiceTestSuite) TestListNewestFirst() {
	first := dbtest.CreateProduct(suite.T(), suite.db, "111")
	second := dbtest.CreateProduct(suite.T(), suite.db, "222")
	suite.db.Model(first).UpdateColumn("created_at", time.Now().Add(-time.Hour))

	result, err := suite.svc.List(context.Background(), utils.PaginationParams{Page: 1, Limit: 20, Order: "desc"})
	suite.Require().NoError(err)
	suite.Equal(int64(2), result.Total)
	products := result.Data.([]models.Product)
	suite.Require().Len(products, 2)
	suite.Equal(second.ID, products[0].ID)
	suite.Equal(first.ID, products[1].ID)
}

func (suite *ProductServiceTestSuite) TestListPagesAndSearches() {
	for _, barcode := range []string{"100", "200", "300"} {
		dbtest.CreateProduct(suite.T(), suite.db, barcode)
	}

	result, err := suite.svc.List(context.Background(), utils.PaginationParams{Page: 2, Limit: 2, Sort: "barcode", Order: "asc"})
	suite.Require().NoError(err)
	suite.Equal(int64(3), result.Total)
	suite.Equal(2, result.TotalPages)
	products := result.Data.([]models.Product)
	suite.Require().Len(products, 1)
	suite.Equal("300", products[0].Barcode)

	result, err = suite.svc.List(context.Background(), utils.PaginationParams{Page: 1, Limit: 20, Order: "desc", Search: "PRODUCT 2"})
	suite.Require().NoError(err)
	suite.Equal(int64(1), result.Total)
}

func TestProductServiceSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}

func TestPriceRequestForSkipsUnspecified(t *testing.T) {
	req := priceRequestFor(&models.Product{
		ProductName: "Eggs",
		Brand:       models.Unspecified,
		ContentSize: "12",
	}, "Dairy")

	require.Equal(t, "Eggs", req.Name)
	assert.Empty(t, req.Brand)
	assert.Equal(t, "12", req.ContentSize)
	assert.Equal(t, "Dairy", req.Category)
}
