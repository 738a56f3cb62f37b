package zvm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("%s: authorization = %q", r.URL.Path, got)
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestLicense(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		licensePath: `{"Details":{"LicenseKey":"ABCD-1234","MaxVms":500,"ExpiryTime":"2026-06-30T00:00:00"}}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL, "tok", WithHTTPClient(srv.Client()), WithClock(func() time.Time { return fixedNow }))
	lic, err := c.License(context.Background())
	if err != nil {
		t.Fatalf("license: %v", err)
	}
	if lic.Key != "ABCD-1234" || lic.EntitledVMs != 500 {
		t.Fatalf("unexpected license %+v", lic)
	}
	if lic.ExpirationDate != "2026-06-30" {
		t.Fatalf("expiration = %s", lic.ExpirationDate)
	}
	// 2026-01-01T12:00 -> 2026-06-30T00:00 is 179.5 days, rounded up.
	if lic.DaysToExpiry != 180 {
		t.Fatalf("days to expiry = %d", lic.DaysToExpiry)
	}
}

func TestLicenseWithoutExpiry(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		licensePath: `{"Details":{"LicenseKey":"PERPETUAL","MaxVms":50}}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL, "tok", WithHTTPClient(srv.Client()))
	lic, err := c.License(context.Background())
	if err != nil {
		t.Fatalf("license: %v", err)
	}
	if lic.ExpirationDate != "N/A" || lic.DaysToExpiry != NoExpiryDays {
		t.Fatalf("unexpected expiry fields %+v", lic)
	}
}

func TestConsumption(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		vpgsPath: `[
			{"VpgName":"erp","VmsCount":10,"AlertStatus":0,"UsedStorageInMB":2048,"SourceSite":"Primary-DC"},
			{"VpgName":"crm","VmsCount":5,"AlertStatus":1,"UsedStorageInMB":1024,"SourceSite":"Secondary-DC"},
			{"VpgName":"web","VmsCount":3,"AlertStatus":2,"UsedStorageInMB":512,"SourceSite":"Primary-DC"}
		]`,
	})
	defer srv.Close()

	c := NewClient(srv.URL, "tok", WithHTTPClient(srv.Client()))
	cons, err := c.Consumption(context.Background())
	if err != nil {
		t.Fatalf("consumption: %v", err)
	}
	if cons.ProtectedVMs != 18 || cons.VPGs != 3 {
		t.Fatalf("unexpected totals %+v", cons)
	}
	if cons.VpgStatus.Healthy != 1 || cons.VpgStatus.Warning != 1 || cons.VpgStatus.Critical != 1 {
		t.Fatalf("unexpected status %+v", cons.VpgStatus)
	}
	if cons.JournalStorageGB != 3.5 {
		t.Fatalf("journal = %v", cons.JournalStorageGB)
	}
	if len(cons.Sites) != 2 || cons.Sites[0].Name != "Primary-DC" {
		t.Fatalf("unexpected sites %+v", cons.Sites)
	}
	if cons.Sites[0].ProtectedVMs != 13 || cons.Sites[0].VPGs != 2 {
		t.Fatalf("unexpected primary site %+v", cons.Sites[0])
	}
}

func TestFetchErrorsPropagate(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		vpgsPath: `{not json`,
	})
	defer srv.Close()
	c := NewClient(srv.URL, "tok", WithHTTPClient(srv.Client()))

	_, err := c.License(context.Background())
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 RequestError, got %v", err)
	}

	_, err = c.Consumption(context.Background())
	if !errors.As(err, &reqErr) || reqErr.Op != "consumption" {
		t.Fatalf("expected decode RequestError, got %v", err)
	}
}

func TestPing(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		serverInfoPath: `{"Version":"10.0.30"}`,
	})
	c := NewClient(srv.URL, "tok", WithHTTPClient(srv.Client()))
	if !c.Ping(context.Background()) {
		t.Fatalf("expected reachable")
	}
	v, err := c.ServerVersion(context.Background())
	if err != nil || v != "10.0.30" {
		t.Fatalf("version = %q, %v", v, err)
	}

	srv.Close()
	if c.Ping(context.Background()) {
		t.Fatalf("closed server must report false")
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	if NewClient(down.URL, "tok", WithHTTPClient(down.Client())).Ping(context.Background()) {
		t.Fatalf("503 must report false")
	}
}

type stubSamples map[int][]int

func (s stubSamples) Samples(days int) ([]int, error) {
	if days < 0 {
		return nil, errors.New("bad window")
	}
	return s[days], nil
}

func TestHistoricalSamples(t *testing.T) {
	c := NewClient("http://unused", "tok")
	got, err := c.HistoricalSamples(context.Background(), nil)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, key := range []string{"days_7", "days_30", "days_90"} {
		if s, ok := got[key]; !ok || len(s) != 0 {
			t.Fatalf("%s: expected empty window, got %v (present=%v)", key, s, ok)
		}
	}

	c = NewClient("http://unused", "tok", WithSamples(stubSamples{7: {400, 405, 412}}))
	got, err = c.HistoricalSamples(context.Background(), []int{7, 30})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got["days_7"]) != 3 || got["days_30"] == nil {
		t.Fatalf("unexpected history %v", got)
	}

	if _, err := c.HistoricalSamples(context.Background(), []int{-1}); err == nil {
		t.Fatalf("expected sample source error")
	}
}

func TestSampleData(t *testing.T) {
	lic, cons := SampleData()
	if lic.EntitledVMs != 500 || cons.ProtectedVMs != 412 || len(cons.Sites) != 2 {
		t.Fatalf("unexpected sample data %+v %+v", lic, cons)
	}
}
