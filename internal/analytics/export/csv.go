// Package export renders dashboard data into downloadable spreadsheets.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/odyssey-erp/stockroom/internal/inventory"
)

var productHeader = []string{
	"ID", "Code", "Name", "Quantity", "Sales Price", "Total Value",
	"Stock In Units", "Stock In Value", "Stock Out Units", "Stock Out Value",
	"Last Movement", "Last Movement Amount", "Created At", "Updated At",
}

// WriteSummaryCSV serialises catalog totals to a Metric,Value table.
func WriteSummaryCSV(w io.Writer, summary inventory.DashboardSummary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	for _, record := range summaryRows(summary) {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteProductsCSV emits one row per product in the given order.
func WriteProductsCSV(w io.Writer, products []inventory.Product) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(productHeader); err != nil {
		return err
	}
	for _, p := range products {
		if err := writer.Write(productRow(p)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func summaryRows(summary inventory.DashboardSummary) [][]string {
	return [][]string{
		{"Products", strconv.Itoa(summary.ProductCount)},
		{"Stock In Units", formatInt(summary.TotalStockInUnits)},
		{"Stock In Value", summary.TotalStockInValue.StringFixed(2)},
		{"Stock Out Units", formatInt(summary.TotalStockOutUnits)},
		{"Stock Out Value", summary.TotalStockOutValue.StringFixed(2)},
		{"On Hand Units", formatInt(summary.TotalOnHandUnits)},
		{"On Hand Value", summary.TotalOnHandValue.StringFixed(2)},
	}
}

func productRow(p inventory.Product) []string {
	return []string{
		p.ID,
		p.Code,
		p.Name,
		formatInt(p.Quantity),
		p.SalesPrice.StringFixed(2),
		p.TotalValue.StringFixed(2),
		formatInt(p.StockInUnits),
		p.StockInValue.StringFixed(2),
		formatInt(p.StockOutUnits),
		p.StockOutValue.StringFixed(2),
		string(p.LastMovementKind),
		formatInt(p.SignedAmount()),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
