package printing

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Receipt {{.ReceiptNumber}}</title>
<style>
body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 12px; color: #222; }
h1 { font-size: 18px; margin: 0 0 4px; }
.muted { color: #666; }
table { width: 100%; border-collapse: collapse; margin-top: 12px; }
td { padding: 4px 0; vertical-align: top; }
td.label { width: 40%; color: #555; }
.amount { font-size: 16px; font-weight: bold; }
.adjustment { color: #b00020; }
.summary td { border-top: 1px solid #ddd; }
</style>
</head>
<body>
<h1>{{if .IsAdjustment}}Payment Adjustment{{else}}Payment Receipt{{end}}</h1>
<div class="muted">No. {{.ReceiptNumber}} &middot; {{formatDate .PaymentDate}}</div>
<table>
<tr><td class="label">Received {{if eq .DocumentType "purchase_bill"}}by{{else}}from{{end}}</td><td>{{.PartnerName}}</td></tr>
<tr><td class="label">Against</td><td>{{.DocumentLabel}}</td></tr>
<tr><td class="label">Amount</td><td class="amount{{if .IsAdjustment}} adjustment{{end}}">{{formatMoney .Amount}}</td></tr>
<tr><td class="label">In words</td><td>{{.AmountInWords}}</td></tr>
<tr><td class="label">Mode</td><td>{{.ModeLabel}}{{with .ReferenceNumber}} (Ref. {{.}}){{end}}</td></tr>
{{with .Notes}}<tr><td class="label">Notes</td><td>{{.}}</td></tr>{{end}}
</table>
<table class="summary">
<tr><td class="label">Document total</td><td>{{formatMoney .TotalAmount}}</td></tr>
<tr><td class="label">Paid to date</td><td>{{formatMoney .PaidToDate}}</td></tr>
<tr><td class="label">Balance</td><td>{{formatMoney .BalanceAfter}}</td></tr>
<tr><td class="label">Status</td><td>{{statusLabel .PaymentStatus}}</td></tr>
</table>
</body>
</html>
`

// ReceiptTemplate renders a finance.ReceiptView to HTML
type ReceiptTemplate struct {
	tmpl *template.Template
}

// NewReceiptTemplate parses the built-in receipt layout
func NewReceiptTemplate() (*ReceiptTemplate, error) {
	tmpl, err := template.New("receipt").Funcs(template.FuncMap{
		"formatMoney": formatMoney,
		"formatDate":  formatDate,
		"statusLabel": statusLabel,
	}).Parse(receiptTemplate)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse receipt template", err)
	}
	return &ReceiptTemplate{tmpl: tmpl}, nil
}

// Execute renders view
func (t *ReceiptTemplate) Execute(view *finance.ReceiptView) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, view); err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to render receipt "+view.ReceiptNumber, err)
	}
	return buf.Bytes(), nil
}

var amountPrinter = message.NewPrinter(language.English)

// formatMoney groups thousands and prefixes the rupee sign: 12345.5 -> "₹12,345.50"
func formatMoney(m valueobject.Money) string {
	s := m.String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + "₹" + s
	}
	return sign + "₹" + amountPrinter.Sprintf("%d", n) + "." + frac
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}

var titleCaser = cases.Title(language.English)

// statusLabel turns "not_paid" into "Not Paid"
func statusLabel(s finance.PaymentStatus) string {
	return titleCaser.String(strings.ReplaceAll(string(s), "_", " "))
}
