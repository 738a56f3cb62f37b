// Package metrics derives utilization, risk, alerts and the run-out forecast.
package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/yuxishi/zvm-license-report/internal/model"
)

const forecastPlaceholderDays = 90

// Thresholds are fractions of entitlement (0.80 = 80%).
type Thresholds struct {
	UtilizationWarn float64
	UtilizationCrit float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{UtilizationWarn: 0.80, UtilizationCrit: 0.95}
}

type Input struct {
	EntitledVMs  int
	ProtectedVMs int
	DaysToExpiry int
	History      map[string][]int
}

// UtilizationPct is protected/entitled as a percentage rounded to two places.
func UtilizationPct(protected, entitled int) float64 {
	if entitled <= 0 {
		return 0
	}
	return round(float64(protected)/float64(entitled)*100, 2)
}

// RiskScore blends utilization pressure (up to 50) with expiry urgency (up to 50).
func RiskScore(utilizationPct float64, daysToExpiry int) int {
	utilScore := math.Min(utilizationPct/100, 1.0) * 50

	var expiryScore float64
	switch {
	case daysToExpiry <= 30:
		expiryScore = 50
	case daysToExpiry <= 90:
		expiryScore = 30
	case daysToExpiry <= 365:
		expiryScore = 15
	default:
		expiryScore = 5
	}

	return clamp(int(math.Floor(utilScore+expiryScore)), 0, 100)
}

func Alerts(utilizationPct float64, daysToExpiry int, t Thresholds) []model.Alert {
	if t.UtilizationWarn <= 0 {
		t.UtilizationWarn = 0.80
	}
	if t.UtilizationCrit <= 0 {
		t.UtilizationCrit = 0.95
	}

	alerts := []model.Alert{}
	switch {
	case utilizationPct >= t.UtilizationCrit*100:
		alerts = append(alerts, model.Alert{
			Severity:       model.SeverityCritical,
			Message:        fmt.Sprintf("Utilization critical (%.1f%%)", utilizationPct),
			Recommendation: "Immediate action required: Review licensing tier and add capacity",
		})
	case utilizationPct >= t.UtilizationWarn*100:
		alerts = append(alerts, model.Alert{
			Severity:       model.SeverityWarning,
			Message:        fmt.Sprintf("Utilization high (%.1f%%)", utilizationPct),
			Recommendation: "Audit and right-size your protected infrastructure",
		})
	}

	switch {
	case daysToExpiry <= 30:
		alerts = append(alerts, model.Alert{
			Severity:       model.SeverityWarning,
			Message:        fmt.Sprintf("License expiring soon (%d days)", daysToExpiry),
			Recommendation: "License renewal action required",
		})
	case daysToExpiry <= 90:
		alerts = append(alerts, model.Alert{
			Severity:       model.SeverityInfo,
			Message:        fmt.Sprintf("License expiration reminder (%d days)", daysToExpiry),
			Recommendation: "Plan license renewal",
		})
	}
	return alerts
}

// ForecastRunout estimates when consumption reaches entitlement from the
// 7-day samples. A growing trend yields a fixed date 90 days out; the slope
// is not projected yet.
func ForecastRunout(history map[string][]int, entitledVMs int, now time.Time) string {
	trend := history["days_7"]
	if len(trend) < 3 {
		return "N/A"
	}

	delta := trend[len(trend)-1] - trend[0]
	switch {
	case delta == 0:
		return "Stable"
	case delta < 0:
		return "Stable (decreasing)"
	}
	return now.AddDate(0, 0, forecastPlaceholderDays).Format("2006-01-02")
}

// Derive computes the full metrics record for one run.
func Derive(in Input, t Thresholds, now time.Time) model.Metrics {
	util := UtilizationPct(in.ProtectedVMs, in.EntitledVMs)
	return model.Metrics{
		Timestamp:          now.UTC().Format(time.RFC3339),
		UtilizationPct:     util,
		RiskScore:          RiskScore(util, in.DaysToExpiry),
		ForecastRunoutDate: ForecastRunout(in.History, in.EntitledVMs, now),
		DaysToExpiry:       in.DaysToExpiry,
		Alerts:             Alerts(util, in.DaysToExpiry, t),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
