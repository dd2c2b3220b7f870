// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/ustock-backend/internal/models"
	"github.com/javajoker/ustock-backend/internal/utils"
)

// ProductLookup is the external product catalog.
type ProductLookup interface {
	Lookup(ctx context.Context, barcode string) (*ProductInfo, error)
	Search(ctx context.Context, query string, limit int) ([]models.ProductSummary, error)
}

// PriceEstimator guesses a unit price. Implementations never fail; they fall
// back to a default price instead.
type PriceEstimator interface {
	Estimate(ctx context.Context, req PriceRequest) decimal.Decimal
}

// ImageMirror copies a product image somewhere we control and returns the new
// URL.
type ImageMirror interface {
	MirrorImage(ctx context.Context, barcode, sourceURL string) (string, error)
}

const backgroundJobTimeout = 2 * time.Minute

var productSortFields = []string{"created_at", "product_name", "brand", "barcode"}

type ProductService struct {
	db        *gorm.DB
	lookup    ProductLookup
	estimator PriceEstimator
	images    ImageMirror

	// background enrichment started by GetOrCreate
	wg sync.WaitGroup
}

type IngestProductRequest struct {
	Barcode string `json:"barcode" validate:"required,max=50"`
}

// NewProductService wires the catalog. images may be nil.
func NewProductService(db *gorm.DB, lookup ProductLookup, estimator PriceEstimator, images ImageMirror) *ProductService {
	return &ProductService{
		db:        db,
		lookup:    lookup,
		estimator: estimator,
		images:    images,
	}
}

// GetOrCreate returns the product for barcode, ingesting it from the external
// catalog on first sight. created reports whether this call inserted the row.
func (s *ProductService) GetOrCreate(ctx context.Context, barcode string) (product *models.Product, created bool, err error) {
	const op = "products.GetOrCreate"

	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, false, newError(KindInvalidInput, op, "barcode is required")
	}

	existing, err := s.findByBarcode(ctx, barcode)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	info, err := s.lookup.Lookup(ctx, barcode)
	if err != nil {
		return nil, false, err
	}

	product = productFromInfo(barcode, info)

	// The unique barcode index arbitrates concurrent first sightings: losers
	// insert nothing and read the winner's row instead.
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "barcode"}}, DoNothing: true}).
		Create(product)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return nil, false, fmt.Errorf("failed to create product: %w", result.Error)
	}

	if result.Error != nil || result.RowsAffected == 0 {
		winner, err := s.findByBarcode(ctx, barcode)
		if err != nil {
			return nil, false, wrapError(KindConflict, op, "concurrent product ingestion could not be resolved", err)
		}
		return winner, false, nil
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"barcode":    barcode,
	}).Info("Product ingested from external catalog")

	s.enrichAsync(*product, info.Category)
	return product, true, nil
}

// Search browses the external catalog. Results are never persisted.
func (s *ProductService) Search(ctx context.Context, query string) ([]models.ProductSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newError(KindInvalidInput, "products.Search", "search query is required")
	}
	return s.lookup.Search(ctx, query, MaxSearchResults)
}

// RefreshPrice re-estimates and stores the price of a product. The estimator
// never fails, so the only errors are a missing product or the store itself.
func (s *ProductService) RefreshPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	product, err := s.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}

	price := s.estimator.Estimate(ctx, priceRequestFor(product, ""))
	if err := s.storePrice(ctx, product.ID, price); err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "products.GetByID", "product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// GetByBarcode reads the local catalog only; it never calls the external one.
func (s *ProductService) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	return s.findByBarcode(ctx, strings.TrimSpace(barcode))
}

// List pages through the local catalog, newest first unless params ask for
// another sort. Search matches name, brand or barcode.
func (s *ProductService) List(ctx context.Context, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if term := strings.TrimSpace(params.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(product_name) LIKE ? OR LOWER(brand) LIKE ? OR barcode = ?", like, like, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	query = utils.ApplySort(query, params, productSortFields)
	if err := utils.ApplyPagination(query, params).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	result := utils.CreatePaginationResult(products, total, params)
	return &result, nil
}

// Wait blocks until background enrichment jobs have finished.
func (s *ProductService) Wait() {
	s.wg.Wait()
}

func (s *ProductService) findByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Where("barcode = ?", barcode).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "products.GetByBarcode", "product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// enrichAsync estimates the initial price and mirrors the image without
// holding up ingestion. Failures are logged and leave the row as ingested.
func (s *ProductService) enrichAsync(product models.Product, category string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), backgroundJobTimeout)
		defer cancel()

		log := logrus.WithFields(logrus.Fields{"product_id": product.ID, "barcode": product.Barcode})

		if s.estimator != nil {
			price := s.estimator.Estimate(ctx, priceRequestFor(&product, category))
			if err := s.storePrice(ctx, product.ID, price); err != nil {
				log.WithError(err).Warn("Failed to store estimated price")
			}
		}

		if s.images != nil && product.ImageURL != "" {
			mirrored, err := s.images.MirrorImage(ctx, product.Barcode, product.ImageURL)
			if err != nil {
				log.WithError(err).Warn("Failed to mirror product image, keeping source URL")
				return
			}
			if mirrored != product.ImageURL {
				if err := s.db.WithContext(ctx).Model(&models.Product{}).
					Where("id = ?", product.ID).
					UpdateColumn("image_url", mirrored).Error; err != nil {
					log.WithError(err).Warn("Failed to store mirrored image URL")
				}
			}
		}
	}()
}

func (s *ProductService) storePrice(ctx context.Context, productID uuid.UUID, price decimal.Decimal) error {
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]interface{}{
			"price":            decimal.NewNullDecimal(price),
			"price_updated_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	return nil
}

func productFromInfo(barcode string, info *ProductInfo) *models.Product {
	return &models.Product{
		Barcode:     barcode,
		ProductName: orUnspecified(info.Name),
		Brand:       orUnspecified(info.Brand),
		ContentSize: orUnspecified(info.ContentSize),
		Nutriscore:  models.ParseNutriScore(info.Nutriscore),
		ImageURL:    info.ImageURL,
	}
}

func priceRequestFor(product *models.Product, category string) PriceRequest {
	req := PriceRequest{Name: product.ProductName, Category: category}
	if product.Brand != models.Unspecified {
		req.Brand = product.Brand
	}
	if product.ContentSize != models.Unspecified {
		req.ContentSize = product.ContentSize
	}
	return req
}

func orUnspecified(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return models.Unspecified
	}
	return v
}
