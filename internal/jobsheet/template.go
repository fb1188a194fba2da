package jobsheet

import (
	"html/template"
	"strings"
	"time"
)

// SheetData is the view model rendered onto the job sheet.
type SheetData struct {
	TicketNumber  string
	CreatedAt     time.Time
	BranchName    string
	CustomerName  string
	CustomerPhone string
	DeviceLabel   string
	SerialNumber  string
	Problem       string
	Faults        []string
	Parts         []SheetPart
	EstimatedCost string
	Advance       string
}

// SheetPart is one expected part line on the sheet.
type SheetPart struct {
	Name      string
	Quantity  int64
	UnitPrice string
	Total     string
}

var sheetTemplate = template.Must(template.New("jobsheet").Funcs(template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: sans-serif; font-size: 12px; margin: 24px; }
h1 { font-size: 18px; margin-bottom: 0; }
table { width: 100%; border-collapse: collapse; margin-top: 12px; }
th, td { border: 1px solid #444; padding: 4px 6px; text-align: left; }
.meta { margin-top: 8px; }
.meta span { display: inline-block; min-width: 140px; color: #555; }
</style>
</head>
<body>
<h1>Job Sheet {{.TicketNumber}}</h1>
<div class="meta"><span>Received</span> {{.CreatedAt.Format "02 Jan 2006 15:04"}}</div>
<div class="meta"><span>Branch</span> {{.BranchName}}</div>
<div class="meta"><span>Customer</span> {{.CustomerName}} ({{.CustomerPhone}})</div>
<div class="meta"><span>Device</span> {{.DeviceLabel}}</div>
<div class="meta"><span>Serial</span> {{.SerialNumber}}</div>
<div class="meta"><span>Reported problem</span> {{.Problem}}</div>
{{if .Faults}}<div class="meta"><span>Faults</span> {{join .Faults}}</div>{{end}}
{{if .Parts}}
<table>
<tr><th>Part</th><th>Qty</th><th>Unit</th><th>Total</th></tr>
{{range .Parts}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice}}</td><td>{{.Total}}</td></tr>
{{end}}
</table>
{{end}}
<div class="meta"><span>Estimated cost</span> {{.EstimatedCost}}</div>
<div class="meta"><span>Advance collected</span> {{.Advance}}</div>
</body>
</html>`))

// RenderSheetHTML produces the job sheet HTML for a ticket.
func RenderSheetHTML(data SheetData) (string, error) {
	var sb strings.Builder
	if err := sheetTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
