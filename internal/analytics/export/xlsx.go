package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/stockroom/internal/inventory"
)

const (
	summarySheet  = "Summary"
	productsSheet = "Products"
)

// WriteWorkbook renders a two-sheet workbook: catalog totals and the product
// table.
func WriteWorkbook(w io.Writer, summary inventory.DashboardSummary, products []inventory.Product) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), summarySheet); err != nil {
		return err
	}
	header := []interface{}{"Metric", "Value"}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return fmt.Errorf("export: summary header: %w", err)
	}
	for i, record := range summaryRows(summary) {
		if err := setRow(f, summarySheet, i+2, record); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(productsSheet); err != nil {
		return err
	}
	if err := setRow(f, productsSheet, 1, productHeader); err != nil {
		return err
	}
	for i, p := range products {
		if err := setRow(f, productsSheet, i+2, productRow(p)); err != nil {
			return err
		}
	}
	if err := f.SetPanes(productsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("export: %s row %d: %w", sheet, row, err)
	}
	return nil
}
