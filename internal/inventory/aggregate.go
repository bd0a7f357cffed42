package inventory

import (
	"cmp"
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

const (
	// DefaultFeedLimit caps the recent-activity and new-arrival feeds.
	DefaultFeedLimit = 4
	// DefaultLowStockThreshold is the on-hand quantity below which a product is low.
	DefaultLowStockThreshold = 5
)

// DashboardSummary holds catalog-wide totals.
type DashboardSummary struct {
	TotalStockInUnits  int64           `json:"total_stock_in_units"`
	TotalStockInValue  decimal.Decimal `json:"total_stock_in_value"`
	TotalStockOutUnits int64           `json:"total_stock_out_units"`
	TotalStockOutValue decimal.Decimal `json:"total_stock_out_value"`
	TotalOnHandUnits   int64           `json:"total_on_hand_units"`
	TotalOnHandValue   decimal.Decimal `json:"total_on_hand_value"`
	ProductCount       int             `json:"product_count"`
}

// Summarize totals the ledger counters of every product. Decimal addition is
// exact, so the result does not depend on input order. Unit totals saturate at
// math.MaxInt64 instead of wrapping.
func Summarize(products []Product) DashboardSummary {
	sum := DashboardSummary{
		TotalStockInValue:  decimal.Zero,
		TotalStockOutValue: decimal.Zero,
		TotalOnHandValue:   decimal.Zero,
		ProductCount:       len(products),
	}
	for _, p := range products {
		sum.TotalStockInUnits = addUnits(sum.TotalStockInUnits, p.StockInUnits)
		sum.TotalStockInValue = sum.TotalStockInValue.Add(p.StockInValue)
		sum.TotalStockOutUnits = addUnits(sum.TotalStockOutUnits, p.StockOutUnits)
		sum.TotalStockOutValue = sum.TotalStockOutValue.Add(p.StockOutValue)
		sum.TotalOnHandUnits = addUnits(sum.TotalOnHandUnits, p.Quantity)
		sum.TotalOnHandValue = sum.TotalOnHandValue.Add(p.TotalValue)
	}
	return sum
}

// addUnits adds non-negative counters, clamping at math.MaxInt64.
func addUnits(total, n int64) int64 {
	if n > 0 && total > math.MaxInt64-n {
		return math.MaxInt64
	}
	return total + n
}

// RecentActivity lists moved products, most recently updated first. Equal
// timestamps keep their input order.
func RecentActivity(products []Product, limit int) []Product {
	moved := make([]Product, 0, len(products))
	for _, p := range products {
		if p.LastMovementKind.Valid() && !p.UpdatedAt.IsZero() {
			moved = append(moved, p)
		}
	}
	slices.SortStableFunc(moved, func(a, b Product) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return truncate(moved, feedLimit(limit))
}

// NewArrivals lists products by creation time, newest first. Records whose
// creation time has not been resolved yet are skipped.
func NewArrivals(products []Product, limit int) []Product {
	created := make([]Product, 0, len(products))
	for _, p := range products {
		if !p.CreatedAt.IsZero() {
			created = append(created, p)
		}
	}
	slices.SortStableFunc(created, func(a, b Product) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return truncate(created, feedLimit(limit))
}

// LowStock lists every product under threshold, emptiest first.
func LowStock(products []Product, threshold int64) []Product {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	low := make([]Product, 0)
	for _, p := range products {
		if p.Quantity < threshold {
			low = append(low, p)
		}
	}
	slices.SortStableFunc(low, func(a, b Product) int {
		return cmp.Compare(a.Quantity, b.Quantity)
	})
	return low
}

func feedLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	return limit
}

func truncate(products []Product, limit int) []Product {
	if len(products) > limit {
		return products[:limit]
	}
	return products
}
