package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tags why a product's quantity changed.
type MovementType string

const (
	// MovementPurchase records stock received from a supplier.
	MovementPurchase MovementType = "purchase"
	// MovementSale records stock leaving through a sale.
	MovementSale MovementType = "sale"
	// MovementAdjustment records manual corrections and sale reversals.
	MovementAdjustment MovementType = "adjustment"
	// MovementSnapshot is a zero-delta audit checkpoint.
	MovementSnapshot MovementType = "snapshot"
)

// Product categories offered by the shop.
var Categories = []string{"doors", "hardware", "kitchen", "wardrobe", "accessories"}

// DefaultMinStockLevel applies when a product is created without a threshold.
const DefaultMinStockLevel = 5

// RecentMovementLimit caps the cross-product movement feed.
const RecentMovementLimit = 50

// Product is a sellable item with its current stock level.
type Product struct {
	ID             int64               `db:"id" json:"id"`
	Name           string              `db:"name" json:"name"`
	Category       string              `db:"category" json:"category"`
	Description    *string             `db:"description" json:"description"`
	RetailPrice    decimal.Decimal     `db:"retail_price" json:"retail_price"`
	WholesalePrice decimal.NullDecimal `db:"wholesale_price" json:"wholesale_price"`
	StockQuantity  int64               `db:"stock_quantity" json:"stock_quantity"`
	MinStockLevel  int64               `db:"min_stock_level" json:"min_stock_level"`
	ImageURI       *string             `db:"image_uri" json:"image_uri"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// LowStock reports whether the product is at or below its threshold.
func (p Product) LowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// StockHistory is one append-only row of the stock movement log.
type StockHistory struct {
	ID             int64        `db:"id" json:"id"`
	ProductID      int64        `db:"product_id" json:"product_id"`
	QuantityChange int64        `db:"quantity_change" json:"quantity_change"`
	Type           MovementType `db:"type" json:"type"`
	Notes          *string      `db:"notes" json:"notes"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

// MovementEntry is a history row joined with its product name for feeds.
type MovementEntry struct {
	StockHistory
	ProductName string `db:"product_name" json:"product_name"`
}

// Movement is a single quantity delta to apply inside a transaction.
type Movement struct {
	ProductID int64
	Delta     int64
	Type      MovementType
	Notes     string
}

// ProductInput carries editable product fields. Stock is never edited here.
type ProductInput struct {
	Name           string              `json:"name" validate:"required,max=200"`
	Category       string              `json:"category" validate:"required,oneof=doors hardware kitchen wardrobe accessories"`
	Description    string              `json:"description" validate:"max=2000"`
	RetailPrice    decimal.Decimal     `json:"retail_price" validate:"gte=0"`
	WholesalePrice decimal.NullDecimal `json:"wholesale_price" validate:"omitempty,gte=0"`
	MinStockLevel  *int64              `json:"min_stock_level" validate:"omitempty,gte=0"`
	ImageURI       string              `json:"image_uri"`
}

// CreateProductInput adds the opening stock recorded as a purchase movement.
type CreateProductInput struct {
	ProductInput
	InitialStock int64 `json:"stock_quantity" validate:"gte=0"`
}

// AdjustInput describes a manual stock adjustment.
type AdjustInput struct {
	ProductID int64        `json:"product_id" validate:"required"`
	Delta     int64        `json:"delta"`
	Type      MovementType `json:"type" validate:"required,oneof=purchase sale adjustment snapshot"`
	Notes     string       `json:"notes" validate:"max=500"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category string
	Query    string
}

// Drift reports a product whose quantity disagrees with its movement log.
type Drift struct {
	ProductID     int64 `db:"product_id" json:"product_id"`
	StockQuantity int64 `db:"stock_quantity" json:"stock_quantity"`
	HistoryTotal  int64 `db:"history_total" json:"history_total"`
}
