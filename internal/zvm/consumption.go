package zvm

import (
	"context"
	"fmt"
	"math"

	"github.com/yuxishi/zvm-license-report/internal/model"
)

// VPG alert states as reported by ZVM; 2 is error.
const (
	alertNone    = 0
	alertWarning = 1
)

type vpgResponse struct {
	VpgName         string  `json:"VpgName"`
	VmsCount        int     `json:"VmsCount"`
	AlertStatus     int     `json:"AlertStatus"`
	UsedStorageInMB float64 `json:"UsedStorageInMB"`
	SourceSite      string  `json:"SourceSite"`
}

// Consumption lists VPGs and folds them into protected-VM, status and site totals.
func (c *Client) Consumption(ctx context.Context) (model.Consumption, error) {
	var vpgs []vpgResponse
	if err := c.getJSON(ctx, "consumption", vpgsPath, &vpgs); err != nil {
		return model.Consumption{}, err
	}
	return aggregateVPGs(vpgs), nil
}

func aggregateVPGs(vpgs []vpgResponse) model.Consumption {
	out := model.Consumption{VPGs: len(vpgs), Sites: []model.Site{}}
	siteIndex := make(map[string]int)
	var storageMB float64

	for _, v := range vpgs {
		out.ProtectedVMs += v.VmsCount
		storageMB += v.UsedStorageInMB

		switch v.AlertStatus {
		case alertNone:
			out.VpgStatus.Healthy++
		case alertWarning:
			out.VpgStatus.Warning++
		default:
			out.VpgStatus.Critical++ // error and any unknown state
		}

		name := v.SourceSite
		if name == "" {
			name = "Unknown"
		}
		i, ok := siteIndex[name]
		if !ok {
			i = len(out.Sites)
			siteIndex[name] = i
			out.Sites = append(out.Sites, model.Site{Name: name})
		}
		out.Sites[i].ProtectedVMs += v.VmsCount
		out.Sites[i].VPGs++
	}

	out.JournalStorageGB = math.Round(storageMB/1024*10) / 10
	return out
}

// HistoricalSamples returns protected-VM samples keyed "days_N" for each window.
// Without a sample source every window is present and empty.
func (c *Client) HistoricalSamples(ctx context.Context, days []int) (map[string][]int, error) {
	if len(days) == 0 {
		days = []int{7, 30, 90}
	}
	out := make(map[string][]int, len(days))
	for _, d := range days {
		key := fmt.Sprintf("days_%d", d)
		if c.samples == nil {
			out[key] = []int{}
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		samples, err := c.samples.Samples(d)
		if err != nil {
			return nil, &RequestError{Op: "history", URL: key, Err: err}
		}
		if samples == nil {
			samples = []int{}
		}
		out[key] = samples
	}
	return out, nil
}
