package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

var invoiceExportHeader = []string{"invoice_id", "customer_name", "period_from", "period_to", "amount_jpy", "status", "updated_at"}

func invoiceRow(v InvoiceView) []string {
	return []string{v.InvoiceID, v.CustomerName, v.PeriodFrom, v.PeriodTo,
		strconv.FormatInt(v.AmountJPY, 10), v.Status, v.UpdatedAt}
}

// WriteInvoicesCSV writes CRLF-terminated CSV with a header row.
func WriteInvoicesCSV(w io.Writer, list []InvoiceView) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(invoiceExportHeader); err != nil {
		return err
	}
	for _, v := range list {
		if err := cw.Write(invoiceRow(v)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const invoiceSheet = "invoices"

// WriteInvoicesXLSX writes one sheet with the CSV columns. The amount is a
// numeric cell.
func WriteInvoicesXLSX(w io.Writer, list []InvoiceView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return err
	}

	for i, h := range invoiceExportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(invoiceSheet, cell, h); err != nil {
			return err
		}
	}

	for idx, v := range list {
		row := idx + 2
		values := []any{v.InvoiceID, v.CustomerName, v.PeriodFrom, v.PeriodTo, v.AmountJPY, v.Status, v.UpdatedAt}
		for col, val := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(invoiceSheet, cell, val); err != nil {
				return fmt.Errorf("row %d: %w", row, err)
			}
		}
	}

	_ = f.SetColWidth(invoiceSheet, "A", "A", 38)
	_ = f.SetColWidth(invoiceSheet, "B", "B", 30)

	return f.Write(w)
}
