package model

// Alert severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

const RedactedURL = "[REDACTED]"

type Alert struct {
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

type Metrics struct {
	Timestamp          string  `json:"timestamp"`
	UtilizationPct     float64 `json:"utilization_pct"`
	RiskScore          int     `json:"risk_score"`
	ForecastRunoutDate string  `json:"forecast_runout_date"`
	DaysToExpiry       int     `json:"days_to_expiry"`
	Alerts             []Alert `json:"alerts"`
}

type Meta struct {
	GeneratedAt  string `json:"generated_at"`
	RunID        string `json:"run_id"`
	ZVMURL       string `json:"zvm_url"`
	ZertoVersion string `json:"zerto_version"`
	ToolVersion  string `json:"tool_version"`
	TLSVerified  bool   `json:"tls_verified"`
}

// ZertoData is the aggregate assembled once per run and handed to the renderers.
type ZertoData struct {
	Meta        Meta              `json:"meta"`
	License     License           `json:"license"`
	Consumption Consumption       `json:"consumption"`
	Metrics     Metrics           `json:"metrics"`
	History     map[string][]int  `json:"history"`
	APIHealth   map[string]string `json:"api_health"`
}

// Redacted returns a copy safe to hand out: the manager URL is masked.
func (d ZertoData) Redacted() ZertoData {
	d.Meta.ZVMURL = RedactedURL
	return d
}
