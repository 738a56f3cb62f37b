package zvm

import "github.com/yuxishi/zvm-license-report/internal/model"

// SampleData returns fixed license and consumption figures for dry runs.
func SampleData() (model.License, model.Consumption) {
	lic := model.License{
		Key:            "XXXX-XXXX-XXXX-XXXX",
		EntitledVMs:    500,
		ExpirationDate: "2026-06-30",
		DaysToExpiry:   180,
	}
	cons := model.Consumption{
		ProtectedVMs:     412,
		VPGs:             97,
		VpgStatus:        model.VpgStatus{Healthy: 92, Warning: 4, Critical: 1},
		JournalStorageGB: 12345.6,
		Sites: []model.Site{
			{Name: "Primary-DC", ProtectedVMs: 210, VPGs: 48},
			{Name: "Secondary-DC", ProtectedVMs: 202, VPGs: 49},
		},
	}
	return lic, cons
}
