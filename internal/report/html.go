package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/yuxishi/zvm-license-report/internal/model"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Zerto Licensing Utilization Report</title>
    <link href="https://cdn.jsdelivr.net/npm/bootstrap@5.1.3/dist/css/bootstrap.min.css" rel="stylesheet">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; }
        .card-title { color: #666; font-size: 0.9rem; font-weight: 600; }
        .card h2 { color: #2c3e50; margin: 0; }
        @media print {
            .no-print { display: none; }
            body { font-size: 12pt; }
        }
    </style>
</head>
<body>
    <div class="container-fluid p-4">
        <div class="row mb-4">
            <div class="col">
                <h1 class="mb-2">Zerto Licensing Utilization Report</h1>
                <p class="text-muted mb-1">Generated: {{.Generated}}</p>
                <p class="text-muted mb-0">
                    Zerto v{{.Data.Meta.ZertoVersion}} | Tool v{{.Data.Meta.ToolVersion}} |
                    TLS: {{if .Data.Meta.TLSVerified}}&#10003; Verified{{else}}&#9888; Disabled{{end}}
                </p>
            </div>
        </div>

        <div class="row mb-4">
            <div class="col-md-3">
                <div class="card"><div class="card-body text-center">
                    <div class="card-title">Entitled Protected VMs</div>
                    <h2>{{.Data.License.EntitledVMs}}</h2>
                </div></div>
            </div>
            <div class="col-md-3">
                <div class="card"><div class="card-body text-center">
                    <div class="card-title">Current Protected VMs</div>
                    <h2>{{.Data.Consumption.ProtectedVMs}}</h2>
                </div></div>
            </div>
            <div class="col-md-3">
                <div class="card"><div class="card-body text-center">
                    <div class="card-title">Utilization</div>
                    <h2>{{pct .Data.Metrics.UtilizationPct}}%</h2>
                </div></div>
            </div>
            <div class="col-md-3">
                <div class="card"><div class="card-body text-center">
                    <div class="card-title">Risk Score</div>
                    <h2>{{.Data.Metrics.RiskScore}}</h2>
                </div></div>
            </div>
        </div>

        <div class="row mb-4">
            <div class="col-md-6">
                <div class="card">
                    <div class="card-header"><h5 class="mb-0">Alerts &amp; Recommendations</h5></div>
                    <div class="card-body">
                    {{- range .Data.Metrics.Alerts}}
                        <div class="alert alert-{{badge .Severity}}" role="alert">
                            <strong>{{title .Severity}}:</strong> {{.Message}}<br>
                            <small>{{.Recommendation}}</small>
                        </div>
                    {{- else}}
                        <p class="text-success">No alerts</p>
                    {{- end}}
                    </div>
                </div>
            </div>
            <div class="col-md-6">
                <div class="card">
                    <div class="card-header"><h5 class="mb-0">License Information</h5></div>
                    <div class="card-body">
                        <p><strong>License Key:</strong> {{or .Data.License.Key "N/A"}}</p>
                        <p><strong>Expiration Date:</strong> {{or .Data.License.ExpirationDate "N/A"}}</p>
                        <p><strong>Days to Expiry:</strong> {{.Data.License.DaysToExpiry}}</p>
                        <p><strong>Forecast Run-out:</strong> {{.Data.Metrics.ForecastRunoutDate}}</p>
                    </div>
                </div>
            </div>
        </div>

        <hr>
        <footer class="text-muted mt-4">
            <small>Report generated on {{.Generated}}</small>
        </footer>
    </div>
</body>
</html>
`

var htmlTpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"badge": badgeClass,
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}).Parse(htmlTemplate))

func badgeClass(severity string) string {
	switch severity {
	case model.SeverityCritical:
		return "danger"
	case model.SeverityWarning:
		return "warning"
	case model.SeverityInfo:
		return "info"
	default:
		return "secondary"
	}
}

// WriteHTML renders the single-page dashboard.
func WriteHTML(w io.Writer, data *model.ZertoData) error {
	return htmlTpl.Execute(w, struct {
		Data      *model.ZertoData
		Generated string
	}{Data: data, Generated: displayTime(data)})
}
