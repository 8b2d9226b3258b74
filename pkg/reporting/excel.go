package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ExcelReporter writes a session report workbook: one sheet for orders, one
// for the message log.
type ExcelReporter struct{}

func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// Write saves the report to an xlsx file, creating parent directories as
// needed.
func (r *ExcelReporter) Write(report *SessionReport, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const ordersSheet = "Orders"
	const logSheet = "Session Log"

	fx.SetSheetName(fx.GetSheetName(0), ordersSheet)
	if _, err := fx.NewSheet(logSheet); err != nil {
		return err
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := r.writeOrdersSheet(fx, ordersSheet, report, headerStyle); err != nil {
		return err
	}
	if err := r.writeLogSheet(fx, logSheet, report, headerStyle); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) writeOrdersSheet(fx *excelize.File, sheet string, report *SessionReport, headerStyle int) error {
	headers := []string{"Code", "Side", "Strategy", "Quantity", "Filled", "Fill Price", "Slippage (bps)", "Status", "Error"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	if err := fx.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}

	row := 2
	for _, order := range append(report.Executed, report.Pending...) {
		values := []interface{}{
			order.StockCode, string(order.Side), string(order.Strategy),
			order.Quantity, order.FilledQuantity, order.FillPrice,
			order.SlippageBps, string(order.Status), order.ErrorMessage,
		}
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		row++
	}

	fx.SetColWidth(sheet, "A", "A", 12)
	fx.SetColWidth(sheet, "B", "C", 10)
	fx.SetColWidth(sheet, "D", "G", 14)
	fx.SetColWidth(sheet, "H", "H", 16)
	fx.SetColWidth(sheet, "I", "I", 40)
	return nil
}

func (r *ExcelReporter) writeLogSheet(fx *excelize.File, sheet string, report *SessionReport, headerStyle int) error {
	if err := fx.SetCellValue(sheet, "A1", "Message"); err != nil {
		return err
	}
	if err := fx.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	for i, message := range report.Messages {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, message); err != nil {
			return err
		}
	}
	fx.SetColWidth(sheet, "A", "A", 100)
	return nil
}
