package perf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/stockroom/internal/inventory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seededCatalog creates n products through the service and applies a random
// movement history to each.
func seededCatalog(tb testing.TB, n int) *inventory.Service {
	tb.Helper()
	svc := inventory.NewService(inventory.NewMemoryStore(), nil, nil, inventory.ServiceConfig{Logger: discardLogger()})
	rng := rand.New(rand.NewSource(7))
	ctx := context.Background()
	for i := 0; i < n; i++ {
		qty := rng.Int63n(40)
		price := decimal.New(rng.Int63n(50000)+1, -2)
		p, err := svc.Create(ctx, inventory.ProductFields{
			Code:       fmt.Sprintf("%06d", i),
			Name:       fmt.Sprintf("Item %d", i),
			Quantity:   &qty,
			SalesPrice: &price,
		}, 0)
		if err != nil {
			tb.Fatalf("create product %d: %v", i, err)
		}
		if i%3 == 0 {
			if _, err := svc.ApplyMovement(ctx, inventory.MovementInput{ProductID: p.ID, Kind: inventory.MovementStockIn, Delta: rng.Int63n(20) + 1}); err != nil {
				tb.Fatalf("stock in %d: %v", i, err)
			}
		}
	}
	return svc
}

func snapshot(tb testing.TB, svc *inventory.Service) []inventory.Product {
	tb.Helper()
	products, err := svc.Snapshot(context.Background())
	if err != nil {
		tb.Fatalf("snapshot: %v", err)
	}
	return products
}

func BenchmarkSummarize(b *testing.B) {
	products := snapshot(b, seededCatalog(b, 5000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = inventory.Summarize(products)
	}
}

func BenchmarkRecentActivity(b *testing.B) {
	products := snapshot(b, seededCatalog(b, 5000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = inventory.RecentActivity(products, inventory.DefaultFeedLimit)
	}
}

func BenchmarkLowStock(b *testing.B) {
	products := snapshot(b, seededCatalog(b, 5000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = inventory.LowStock(products, inventory.DefaultLowStockThreshold)
	}
}

func BenchmarkSearch(b *testing.B) {
	products := snapshot(b, seededCatalog(b, 5000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = inventory.Search(products, "ITEM 12")
	}
}
