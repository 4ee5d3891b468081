package entries

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportSheet is the worksheet name of exported workbooks.
const ExportSheet = "Journal"

// XLSXContentType is the media type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []string{
	"Entry Date",
	"Reference",
	"Entry Description",
	"Account Number",
	"Account Name",
	"Line Description",
	"Debit",
	"Credit",
	"Currency",
	"Confirmed By",
}

// WriteWorkbook renders entries as an XLSX workbook with one row per line
// and a closing totals row.
func WriteWorkbook(entries []Entry) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeaders); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}

	var debit, credit decimal.Decimal
	row := 2

	for _, e := range entries {
		confirmedBy := ""
		if e.ConfirmedBy != nil {
			confirmedBy = *e.ConfirmedBy
		}

		for _, l := range e.Lines {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []any{
				e.EntryDate.Format("2006-01-02"),
				e.ReferenceNumber,
				e.Description,
				l.AccountNumber,
				l.AccountName,
				l.Description,
				l.DebitAmount.InexactFloat64(),
				l.CreditAmount.InexactFloat64(),
				e.Currency,
				confirmedBy,
			}
			if err := f.SetSheetRow(ExportSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}

			debit = debit.Add(l.DebitAmount)
			credit = credit.Add(l.CreditAmount)
			row++
		}
	}

	totalCell, _ := excelize.CoordinatesToCellName(1, row)
	totals := []any{"Total", "", "", "", "", "", debit.InexactFloat64(), credit.InexactFloat64()}
	if err := f.SetSheetRow(ExportSheet, totalCell, &totals); err != nil {
		return nil, fmt.Errorf("write totals: %w", err)
	}

	lastCol, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	_ = f.SetCellStyle(ExportSheet, "A1", lastCol, bold)
	endTotal, _ := excelize.CoordinatesToCellName(len(totals), row)
	_ = f.SetCellStyle(ExportSheet, totalCell, endTotal, bold)

	_ = f.SetColWidth(ExportSheet, "A", "B", 14)
	_ = f.SetColWidth(ExportSheet, "C", "C", 36)
	_ = f.SetColWidth(ExportSheet, "D", "D", 14)
	_ = f.SetColWidth(ExportSheet, "E", "F", 32)
	_ = f.SetColWidth(ExportSheet, "G", "H", 14)

	return f.WriteToBuffer()
}
