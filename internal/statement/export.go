package statement

import (
	"bytes"
	"fmt"

	"github.com/billmatic/statement-recon/internal/models"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Statement"

// ExportXLSX writes the statement as a single-sheet workbook. Amounts are
// written as numbers with a currency format so they stay usable in
// spreadsheet formulas.
func ExportXLSX(st models.Statement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	moneyFmt := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}

	name := st.Customer.Company
	if name == "" {
		name = st.Customer.Username
	}
	f.SetCellValue(sheetName, "A1", "Statement of Account")
	f.SetCellValue(sheetName, "A2", name)
	f.SetCellValue(sheetName, "A3", "Generated "+st.GeneratedAt.Format(dateFormat))

	headers := []string{"Order", "Invoice", "Due", "Status", "Total", "Paid", "Outstanding", "Past Due"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		f.SetCellValue(sheetName, cell, h)
	}

	row := 6
	for _, l := range st.Lines {
		due := ""
		if l.DueDate != nil {
			due = l.DueDate.Format(dateFormat)
		}
		f.SetCellValue(sheetName, cell("A", row), l.OrderID)
		f.SetCellValue(sheetName, cell("B", row), l.InvoiceNumber)
		f.SetCellValue(sheetName, cell("C", row), due)
		f.SetCellValue(sheetName, cell("D", row), l.PaymentStatus)
		setMoney(f, cell("E", row), l.GrandTotal.InexactFloat64(), moneyStyle)
		setMoney(f, cell("F", row), l.PaymentsTotal.InexactFloat64(), moneyStyle)
		setMoney(f, cell("G", row), l.Outstanding.InexactFloat64(), moneyStyle)
		f.SetCellValue(sheetName, cell("H", row), l.PastDue)
		row++
	}

	row++
	f.SetCellValue(sheetName, cell("F", row), "Balance due")
	setMoney(f, cell("G", row), st.Balance.InexactFloat64(), moneyStyle)
	if st.PastDueTotal.IsPositive() {
		row++
		f.SetCellValue(sheetName, cell("F", row), "Of which past due")
		setMoney(f, cell("G", row), st.PastDueTotal.InexactFloat64(), moneyStyle)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func setMoney(f *excelize.File, cellName string, v float64, style int) {
	f.SetCellValue(sheetName, cellName, v)
	f.SetCellStyle(sheetName, cellName, cellName, style)
}
