// Package statement renders customer statements as HTML documents,
// notification emails and XLSX workbooks. Rendering is the only place
// amounts are formatted; all arithmetic happens upstream in the domain
// and service layers.
package statement

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/billmatic/statement-recon/internal/models"
)

const dateFormat = "2 Jan 2006"

var statementTmpl = template.Must(template.New("statement").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Statement of Account - {{.CustomerName}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #222; margin: 2em; }
table { border-collapse: collapse; width: 100%; margin-top: 1em; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
th { background: #f4f4f4; }
td.amount { text-align: right; font-variant-numeric: tabular-nums; }
tr.past-due td { color: #a40000; }
tfoot td { font-weight: bold; }
</style>
</head>
<body>
<h1>Statement of Account</h1>
<p>{{.CustomerName}}<br>{{.Customer.Email}}</p>
<p>Generated {{.GeneratedDate}}</p>
<table>
<thead>
<tr><th>Order</th><th>Invoice</th><th>Due</th><th>Status</th><th>Total</th><th>Paid</th><th>Outstanding</th></tr>
</thead>
<tbody>
{{range .Lines}}<tr{{if .PastDue}} class="past-due"{{end}}>
<td>{{.OrderID}}</td>
<td>{{.InvoiceNumber}}</td>
<td>{{.DueDisplay}}</td>
<td>{{.PaymentStatus}}</td>
<td class="amount">{{.GrandTotalDisplay}}</td>
<td class="amount">{{.PaymentsDisplay}}</td>
<td class="amount">{{.OutstandingDisplay}}</td>
</tr>
{{end}}</tbody>
<tfoot>
<tr><td colspan="6">Balance due</td><td class="amount">{{.BalanceDisplay}}</td></tr>
{{if .HasPastDue}}<tr><td colspan="6">Of which past due</td><td class="amount">{{.PastDueDisplay}}</td></tr>{{end}}
</tfoot>
</table>
</body>
</html>
`))

var emailTmpl = template.Must(template.New("email").Parse(`<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #222;">
<p>Dear {{.CustomerName}},</p>
<p>Your statement of account is attached. Your current balance is
<strong>{{.BalanceDisplay}}</strong>{{if .HasPastDue}}, of which
<strong style="color:#a40000">{{.PastDueDisplay}}</strong> is past due{{end}}.</p>
<p>If you have already made a payment, please disregard this notice.</p>
<p>Kind regards,<br>Accounts Receivable</p>
</body>
</html>
`))

type statementView struct {
	Customer       models.Customer
	CustomerName   string
	GeneratedDate  string
	Lines          []lineView
	BalanceDisplay string
	PastDueDisplay string
	HasPastDue     bool
}

type lineView struct {
	OrderID            string
	InvoiceNumber      string
	PaymentStatus      string
	PastDue            bool
	DueDisplay         string
	GrandTotalDisplay  string
	PaymentsDisplay    string
	OutstandingDisplay string
}

func buildView(st models.Statement) statementView {
	name := st.Customer.Company
	if name == "" {
		name = st.Customer.Username
	}
	view := statementView{
		Customer:       st.Customer,
		CustomerName:   name,
		GeneratedDate:  st.GeneratedAt.Format(dateFormat),
		BalanceDisplay: money(st.Balance.StringFixed(2)),
		PastDueDisplay: money(st.PastDueTotal.StringFixed(2)),
		HasPastDue:     st.PastDueTotal.IsPositive(),
	}
	for _, l := range st.Lines {
		due := ""
		if l.DueDate != nil {
			due = l.DueDate.Format(dateFormat)
		}
		view.Lines = append(view.Lines, lineView{
			OrderID:            l.OrderID,
			InvoiceNumber:      l.InvoiceNumber,
			PaymentStatus:      l.PaymentStatus,
			PastDue:            l.PastDue,
			DueDisplay:         due,
			GrandTotalDisplay:  money(l.GrandTotal.StringFixed(2)),
			PaymentsDisplay:    money(l.PaymentsTotal.StringFixed(2)),
			OutstandingDisplay: money(l.Outstanding.StringFixed(2)),
		})
	}
	return view
}

func money(fixed string) string {
	return "$" + fixed
}

// RenderHTML renders the full statement document.
func RenderHTML(st models.Statement) ([]byte, error) {
	var buf bytes.Buffer
	if err := statementTmpl.Execute(&buf, buildView(st)); err != nil {
		return nil, fmt.Errorf("render statement html: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderEmail renders the notification email body that accompanies a
// statement.
func RenderEmail(st models.Statement) ([]byte, error) {
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, buildView(st)); err != nil {
		return nil, fmt.Errorf("render statement email: %w", err)
	}
	return buf.Bytes(), nil
}

// Subject builds the email subject line for a statement.
func Subject(st models.Statement) string {
	name := st.Customer.Company
	if name == "" {
		name = st.Customer.Username
	}
	return fmt.Sprintf("Statement of Account - %s - %s", name, st.GeneratedAt.Format("January 2006"))
}
