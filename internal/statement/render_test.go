package statement

import (
	"bytes"
	"testing"
	"time"

	"github.com/billmatic/statement-recon/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleStatement() models.Statement {
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return models.Statement{
		Customer: models.Customer{Username: "acme", Company: "Acme Pty", Email: "ap@acme.test"},
		Lines: []models.StatementAccount{
			{
				OrderID:       "N1001",
				InvoiceNumber: "INV-0042",
				GrandTotal:    decimal.RequireFromString("1500.00"),
				PaymentsTotal: decimal.RequireFromString("500.00"),
				Outstanding:   decimal.RequireFromString("1000.00"),
				PaymentStatus: "partial",
				DueDate:       &due,
				PastDue:       true,
			},
			{
				OrderID:       "N1002",
				GrandTotal:    decimal.RequireFromString("300.00"),
				PaymentsTotal: decimal.Zero,
				Outstanding:   decimal.RequireFromString("300.00"),
				PaymentStatus: "unpaid",
			},
		},
		Balance:      decimal.RequireFromString("1300.00"),
		PastDueTotal: decimal.RequireFromString("1000.00"),
		GeneratedAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(sampleStatement())
	require.NoError(t, err)

	s := string(html)
	assert.Contains(t, s, "Acme Pty")
	assert.Contains(t, s, "N1001")
	assert.Contains(t, s, "INV-0042")
	assert.Contains(t, s, "$1300.00")
	assert.Contains(t, s, "$1000.00")
	assert.Contains(t, s, `class="past-due"`)
	assert.Contains(t, s, "Generated 1 Jun 2024")
}

func TestRenderHTML_EscapesCustomerInput(t *testing.T) {
	st := sampleStatement()
	st.Customer.Company = `<script>alert("x")</script>`
	html, err := RenderHTML(st)
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>alert")
}

func TestRenderEmail(t *testing.T) {
	body, err := RenderEmail(sampleStatement())
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, "Dear Acme Pty")
	assert.Contains(t, s, "$1300.00")
	assert.Contains(t, s, "past due")
}

func TestRenderEmail_NoPastDueLine(t *testing.T) {
	st := sampleStatement()
	st.PastDueTotal = decimal.Zero
	body, err := RenderEmail(st)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "past due")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Statement of Account - Acme Pty - June 2024", Subject(sampleStatement()))
}

func TestExportXLSX(t *testing.T) {
	data, err := ExportXLSX(sampleStatement())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue("Statement", "A6")
	require.NoError(t, err)
	assert.Equal(t, "N1001", got)

	balanceLabel, err := f.GetCellValue("Statement", "F9")
	require.NoError(t, err)
	assert.Equal(t, "Balance due", balanceLabel)
}
