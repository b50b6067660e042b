// internal/export/excel.go
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"pennywise/internal/domain"
)

const sheetName = "Transactions"

var header = []any{"Date", "Amount", "Merchant", "Institution", "Account", "Mask", "Category"}

// Workbook renders categorized transactions into an xlsx spreadsheet, one
// row per transaction under a fixed header.
func Workbook(rows []domain.ExportRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row coordinate: %w", err)
		}
		values := []any{
			r.Date.Format("2006-01-02"),
			r.Amount.InexactFloat64(),
			r.MerchantName,
			r.InstitutionName,
			r.AccountName,
			r.AccountMask,
			r.CategoryName,
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf, nil
}
