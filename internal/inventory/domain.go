package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tags which movement last touched a product.
type MovementKind string

const (
	// MovementNone marks a product that has never been moved.
	MovementNone MovementKind = "none"
	// MovementStockIn represents an inbound movement.
	MovementStockIn MovementKind = "stock_in"
	// MovementStockOut represents an outbound movement.
	MovementStockOut MovementKind = "stock_out"
)

// Valid reports whether the kind can be applied as a movement.
func (k MovementKind) Valid() bool {
	return k == MovementStockIn || k == MovementStockOut
}

// Product is a catalog record together with its running ledger totals.
type Product struct {
	ID                 string          `json:"id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	ImageURL           string          `json:"image_url,omitempty"`
	Quantity           int64           `json:"quantity"`
	SalesPrice         decimal.Decimal `json:"sales_price"`
	TotalValue         decimal.Decimal `json:"total_value"`
	StockInUnits       int64           `json:"stock_in_units"`
	StockInValue       decimal.Decimal `json:"stock_in_value"`
	StockOutUnits      int64           `json:"stock_out_units"`
	StockOutValue      decimal.Decimal `json:"stock_out_value"`
	LastMovementKind   MovementKind    `json:"last_movement_kind"`
	LastMovementAmount int64           `json:"last_movement_amount"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// HasImage reports whether an image reference is attached; callers render a
// placeholder otherwise.
func (p Product) HasImage() bool {
	return p.ImageURL != ""
}

// OutOfStock reports whether nothing is left on hand.
func (p Product) OutOfStock() bool {
	return p.Quantity <= 0
}

// SignedAmount returns the last movement amount, negative for stock-out.
func (p Product) SignedAmount() int64 {
	if p.LastMovementKind == MovementStockOut {
		return -p.LastMovementAmount
	}
	return p.LastMovementAmount
}

// ProductFields carries the user-editable part of a product. Quantity and
// SalesPrice are pointers so that an explicit zero can be told apart from a
// missing value.
type ProductFields struct {
	Code        string           `json:"code" validate:"required,digits"`
	Name        string           `json:"name" validate:"required,notblank"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
	Quantity    *int64           `json:"quantity" validate:"required,gte=0"`
	SalesPrice  *decimal.Decimal `json:"sales_price" validate:"required,gte=0"`
}

// MovementInput describes a stock movement request against a stored product.
type MovementInput struct {
	ProductID      string
	Kind           MovementKind
	Delta          int64
	IdempotencyKey string
	ActorID        int64
}
