package product

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/pagination"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

// Repository persists catalog rows. It never writes stock_qty after insert.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the product and its price list.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Find loads a product with its prices, default first.
func (r *Repository) Find(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Prices", orderedPrices).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateDetails writes the editable catalog columns.
func (r *Repository) UpdateDetails(ctx context.Context, product *models.Product, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":            product.Name,
			"category":        product.Category,
			"sku":             product.SKU,
			"unit_cost_cents": product.UnitCostCents,
			"is_active":       product.IsActive,
			"updated_at":      at,
		}).Error
}

// ReplacePrices swaps the full price list of a product.
func (r *Repository) ReplacePrices(ctx context.Context, productID uuid.UUID, prices []models.ProductPrice) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.ProductPrice{}).Error; err != nil {
		return err
	}
	for i := range prices {
		prices[i].ProductID = productID
	}
	return r.db.WithContext(ctx).Create(&prices).Error
}

// List returns one page (plus one look-ahead row) of products in scope,
// newest first.
func (r *Repository) List(ctx context.Context, scope visibility.Scope, input ListProductsInput, cursor *pagination.Cursor) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Scopes(scope.Scoped(visibility.ProductColumns)).
		Preload("Prices", orderedPrices)
	if !input.IncludeArchived {
		q = q.Where("products.is_active = ?", true)
	}
	if category := strings.TrimSpace(input.Category); category != "" {
		q = q.Where("products.category = ?", category)
	}
	if query := strings.ToLower(strings.TrimSpace(input.Query)); query != "" {
		like := "%" + query + "%"
		q = q.Where("(lower(products.name) LIKE ? OR lower(coalesce(products.sku, '')) LIKE ?)", like, like)
	}
	if cursor != nil {
		at := cursor.CreatedAt.UTC()
		q = q.Where("(products.created_at < ?) OR (products.created_at = ? AND products.id < ?)", at, at, cursor.ID)
	}

	var rows []models.Product
	err := q.Order("products.created_at DESC, products.id DESC").
		Limit(pagination.LimitWithBuffer(input.Pagination.Limit)).
		Find(&rows).Error
	return rows, err
}

func orderedPrices(db *gorm.DB) *gorm.DB {
	return db.Order("is_default DESC, price_cents ASC")
}
