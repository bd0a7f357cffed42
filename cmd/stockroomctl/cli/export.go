package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/odyssey-erp/stockroom/internal/analytics/export"
	"github.com/odyssey-erp/stockroom/internal/inventory"
)

// CatalogReader yields every stored product.
type CatalogReader interface {
	Snapshot(ctx context.Context) ([]inventory.Product, error)
}

// ExportOptions controls the export command.
type ExportOptions struct {
	// Format is one of csv, summary-csv or xlsx.
	Format string
	Out    io.Writer
}

// Export writes the catalog in the requested format.
func Export(ctx context.Context, catalog CatalogReader, opts ExportOptions) error {
	products, err := catalog.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("export: load catalog: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "csv":
		return export.WriteProductsCSV(opts.Out, products)
	case "summary-csv":
		return export.WriteSummaryCSV(opts.Out, inventory.Summarize(products))
	case "xlsx":
		return export.WriteWorkbook(opts.Out, inventory.Summarize(products), products)
	default:
		return fmt.Errorf("export: unsupported format %q", opts.Format)
	}
}
