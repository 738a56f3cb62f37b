package zvm

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/yuxishi/zvm-license-report/internal/model"
)

const (
	serverInfoPath  = "/v1/serverInfo"
	licensePath     = "/v1/license"
	vpgsPath        = "/v1/vpgs"
	expirationUnset = "N/A"
)

// NoExpiryDays is reported for licenses without an expiration date.
const NoExpiryDays = 36500

var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type licenseResponse struct {
	Details struct {
		LicenseKey  string `json:"LicenseKey"`
		LicenseType string `json:"LicenseType"`
		MaxVms      int    `json:"MaxVms"`
		ExpiryTime  string `json:"ExpiryTime"`
	} `json:"Details"`
}

// License fetches the license key, entitlement and expiry.
func (c *Client) License(ctx context.Context) (model.License, error) {
	var resp licenseResponse
	if err := c.getJSON(ctx, "license", licensePath, &resp); err != nil {
		return model.License{}, err
	}

	lic := model.License{
		Key:            resp.Details.LicenseKey,
		EntitledVMs:    resp.Details.MaxVms,
		ExpirationDate: expirationUnset,
		DaysToExpiry:   NoExpiryDays,
	}
	if expiry, ok := parseExpiry(resp.Details.ExpiryTime); ok {
		lic.ExpirationDate = expiry.Format("2006-01-02")
		lic.DaysToExpiry = daysUntil(c.now(), expiry)
	}
	return lic, nil
}

func parseExpiry(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// daysUntil counts whole days from now to expiry, rounding partial days up.
func daysUntil(now, expiry time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}
