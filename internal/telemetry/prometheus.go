// Package telemetry exposes the latest report as Prometheus gauges.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yuxishi/zvm-license-report/internal/model"
)

// LicenseCollector reports the most recent aggregate passed to Update.
// It emits nothing until the first Update.
type LicenseCollector struct {
	mux  sync.RWMutex
	data *model.ZertoData

	utilizationDesc *prometheus.Desc
	riskDesc        *prometheus.Desc
	protectedDesc   *prometheus.Desc
	entitledDesc    *prometheus.Desc
	expiryDesc      *prometheus.Desc
	vpgDesc         *prometheus.Desc
	siteDesc        *prometheus.Desc
	alertDesc       *prometheus.Desc
	lastSuccessDesc *prometheus.Desc
}

func NewLicenseCollector() *LicenseCollector {
	gauge := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, labels, nil)
	}
	return &LicenseCollector{
		utilizationDesc: gauge("zvm_license_utilization_percent", "Protected VMs as a percentage of entitled VMs"),
		riskDesc:        gauge("zvm_license_risk_score", "Composite licensing risk score (0-100)"),
		protectedDesc:   gauge("zvm_protected_vms", "Protected VMs across all VPGs"),
		entitledDesc:    gauge("zvm_license_entitled_vms", "VMs entitled by the license"),
		expiryDesc:      gauge("zvm_license_days_to_expiry", "Days until the license expires"),
		vpgDesc:         gauge("zvm_vpgs", "VPGs by alert status", "status"),
		siteDesc:        gauge("zvm_site_protected_vms", "Protected VMs per source site", "site"),
		alertDesc:       gauge("zvm_license_alerts", "Active licensing alerts by severity", "severity"),
		lastSuccessDesc: gauge("zvm_report_last_success_timestamp_seconds", "Unix time of the last collected report"),
	}
}

// Update replaces the snapshot served on the next scrape.
func (c *LicenseCollector) Update(data *model.ZertoData) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.data = data
}

func (c *LicenseCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.utilizationDesc
	ch <- c.riskDesc
	ch <- c.protectedDesc
	ch <- c.entitledDesc
	ch <- c.expiryDesc
	ch <- c.vpgDesc
	ch <- c.siteDesc
	ch <- c.alertDesc
	ch <- c.lastSuccessDesc
}

func (c *LicenseCollector) Collect(ch chan<- prometheus.Metric) {
	c.mux.RLock()
	defer c.mux.RUnlock()
	if c.data == nil {
		return
	}
	d := c.data

	gauge := func(desc *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, labels...)
	}
	gauge(c.utilizationDesc, d.Metrics.UtilizationPct)
	gauge(c.riskDesc, float64(d.Metrics.RiskScore))
	gauge(c.protectedDesc, float64(d.Consumption.ProtectedVMs))
	gauge(c.entitledDesc, float64(d.License.EntitledVMs))
	gauge(c.expiryDesc, float64(d.Metrics.DaysToExpiry))

	gauge(c.vpgDesc, float64(d.Consumption.VpgStatus.Healthy), "healthy")
	gauge(c.vpgDesc, float64(d.Consumption.VpgStatus.Warning), "warning")
	gauge(c.vpgDesc, float64(d.Consumption.VpgStatus.Critical), "critical")

	for _, site := range d.Consumption.Sites {
		gauge(c.siteDesc, float64(site.ProtectedVMs), site.Name)
	}

	counts := map[string]int{model.SeverityCritical: 0, model.SeverityWarning: 0, model.SeverityInfo: 0}
	for _, a := range d.Metrics.Alerts {
		counts[a.Severity]++
	}
	for severity, n := range counts {
		gauge(c.alertDesc, float64(n), severity)
	}

	if ts, err := time.Parse(time.RFC3339, d.Metrics.Timestamp); err == nil {
		gauge(c.lastSuccessDesc, float64(ts.Unix()))
	}
}
