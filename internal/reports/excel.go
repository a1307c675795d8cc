// Package reports renders report rows as downloadable spreadsheets.
package reports

import (
	"fmt"
	"io"

	"site_stores_backend/internal/models"

	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the MIME type of the workbooks written here.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	stockSheet       = "Stock Summary"
	transactionSheet = "Transactions"
	timestampLayout  = "2006-01-02 15:04:05"
)

var stockHeadings = []string{
	"Site", "Material", "Unit", "Quantity", "Total Value", "Average Cost", "Minimum Level", "Low Stock", "Updated At",
}

var transactionHeadings = []string{
	"Transaction", "Date", "Type", "Site", "Material", "Unit", "Quantity", "Unit Cost", "Total Value", "Project", "Notes", "Created By",
}

// WriteStockSummary writes one row per stock level to w as an .xlsx workbook.
func WriteStockSummary(w io.Writer, rows []models.StockSummaryRow) error {
	f, err := newWorkbook(stockSheet, stockHeadings)
	if err != nil {
		return err
	}
	defer f.Close()

	for i, r := range rows {
		low := "no"
		if r.IsLowStock {
			low = "yes"
		}
		values := []interface{}{
			r.SiteName,
			r.MaterialName,
			r.Unit,
			r.Quantity.InexactFloat64(),
			r.TotalValue.InexactFloat64(),
			r.AverageCost.InexactFloat64(),
			r.MinimumLevel.InexactFloat64(),
			low,
			r.UpdatedAt.Format(timestampLayout),
		}
		if err := setRow(f, stockSheet, i+2, values); err != nil {
			return err
		}
	}
	return write(f, w)
}

// WriteTransactionHistory writes the ledger rows to w as an .xlsx workbook.
func WriteTransactionHistory(w io.Writer, rows []models.TransactionHistoryRow) error {
	f, err := newWorkbook(transactionSheet, transactionHeadings)
	if err != nil {
		return err
	}
	defer f.Close()

	for i, r := range rows {
		values := []interface{}{
			r.SerialNumber,
			r.CreatedAt.Format(timestampLayout),
			string(r.Type),
			r.SiteName,
			r.MaterialName,
			r.Unit,
			r.Quantity.InexactFloat64(),
			r.UnitCost.InexactFloat64(),
			r.TotalValue.InexactFloat64(),
			deref(r.ProjectCode),
			deref(r.Notes),
			deref(r.CreatorUsername),
		}
		if err := setRow(f, transactionSheet, i+2, values); err != nil {
			return err
		}
	}
	return write(f, w)
}

func newWorkbook(sheet string, headings []string) (*excelize.File, error) {
	f := excelize.NewFile()
	// NewFile starts with "Sheet1"; rename instead of adding a second sheet.
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	values := make([]interface{}, len(headings))
	for i, h := range headings {
		values[i] = h
	}
	if err := setRow(f, sheet, 1, values); err != nil {
		f.Close()
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headings), 1)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		f.Close()
		return nil, fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freezing header: %w", err)
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}

func write(f *excelize.File, w io.Writer) error {
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
