// Package xlsx renders order listings as spreadsheets.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	SheetName   = "Orders"
)

var header = []any{"Order ID", "Customer Code", "Date Of Submission", "Line ID", "Product SKU", "Quantity"}

// WriteOrders writes one row per order line. Orders without lines still get
// a row with the line columns left empty.
func WriteOrders(w io.Writer, orders []domain.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, o := range orders {
		if len(o.Lines) == 0 {
			if err := writeRow(sw, row, []any{o.ID, o.CustomerCode, o.DateOfSubmission.String()}); err != nil {
				return err
			}
			row++
			continue
		}
		for _, l := range o.Lines {
			values := []any{o.ID, o.CustomerCode, o.DateOfSubmission.String(), l.ID, l.ProductSKU, l.Quantity}
			if err := writeRow(sw, row, values); err != nil {
				return err
			}
			row++
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(sw *excelize.StreamWriter, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := sw.SetRow(cell, values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
