package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/yuxishi/zvm-license-report/internal/model"
)

var csvHeader = []string{"Site", "Protected VMs", "Entitled VMs", "Utilization %", "Risk Score", "Timestamp"}

// WriteCSV writes a summary row followed by one row per site. Per-site
// utilization and risk are not derived and are written as 0.
func WriteCSV(w io.Writer, data *model.ZertoData) error {
	cw := csv.NewWriter(w)
	ts := displayTime(data)
	entitled := strconv.Itoa(data.License.EntitledVMs)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	summary := []string{
		"SUMMARY",
		strconv.Itoa(data.Consumption.ProtectedVMs),
		entitled,
		strconv.FormatFloat(data.Metrics.UtilizationPct, 'f', -1, 64),
		strconv.Itoa(data.Metrics.RiskScore),
		ts,
	}
	if err := cw.Write(summary); err != nil {
		return err
	}
	for _, site := range data.Consumption.Sites {
		name := site.Name
		if name == "" {
			name = "Unknown"
		}
		if err := cw.Write([]string{name, strconv.Itoa(site.ProtectedVMs), entitled, "0", "0", ts}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
