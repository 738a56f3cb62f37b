// Package pipeline runs one report cycle: authenticate, fetch, derive,
// render and publish.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/yuxishi/zvm-license-report/internal/auth"
	"github.com/yuxishi/zvm-license-report/internal/config"
	"github.com/yuxishi/zvm-license-report/internal/history"
	"github.com/yuxishi/zvm-license-report/internal/metrics"
	"github.com/yuxishi/zvm-license-report/internal/model"
	"github.com/yuxishi/zvm-license-report/internal/report"
	"github.com/yuxishi/zvm-license-report/internal/zvm"
)

// ToolVersion is stamped into every report. Overridden at build time with -ldflags.
var ToolVersion = "1.0.0"

// API health states.
const (
	HealthOK          = "ok"
	HealthUnreachable = "unreachable"
	HealthSkipped     = "skipped"
)

// Publisher receives the finished aggregate, e.g. CloudWatch.
type Publisher interface {
	Publish(ctx context.Context, zvmURL string, data *model.ZertoData) error
}

type Pipeline struct {
	cfg        *config.Config
	log        log.FieldLogger
	httpClient *http.Client
	store      *history.Store
	publisher  Publisher
	dryRun     bool
	now        func() time.Time
}

type Option func(*Pipeline)

// WithDryRun replaces every ZVM call with fixed sample figures.
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.httpClient = c }
}

func WithHistory(s *history.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(cfg *config.Config, logger log.FieldLogger, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, log: logger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.httpClient == nil {
		p.httpClient = zvm.NewHTTPClient(cfg.VerifyTLS, cfg.GetTimeout())
	}
	return p
}

type Result struct {
	Data  *model.ZertoData
	Paths []string
}

// Run collects the aggregate, writes the requested formats and publishes.
func (p *Pipeline) Run(ctx context.Context, formats []report.Format) (*Result, error) {
	data, err := p.Collect(ctx)
	if err != nil {
		return nil, err
	}

	p.log.WithField("formats", formats).Info("generating reports")
	paths, err := report.New(p.cfg.OutputDir, p.log).Render(ctx, data, formats)
	if err != nil {
		return nil, err
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, p.cfg.ZVMURL, data); err != nil {
			return nil, fmt.Errorf("publish: %w", err)
		}
	}
	return &Result{Data: data, Paths: paths}, nil
}

// Collect authenticates, fetches license and consumption data and derives metrics.
func (p *Pipeline) Collect(ctx context.Context) (*model.ZertoData, error) {
	now := p.now()
	data := &model.ZertoData{
		Meta: model.Meta{
			GeneratedAt:  now.UTC().Format(time.RFC3339),
			RunID:        uuid.NewString(),
			ZVMURL:       p.cfg.ZVMURL,
			ZertoVersion: "Unknown",
			ToolVersion:  ToolVersion,
			TLSVerified:  p.cfg.VerifyTLS,
		},
		APIHealth: map[string]string{},
	}
	runLog := p.log.WithField("run_id", data.Meta.RunID)

	var (
		client *zvm.Client
		err    error
	)
	if p.dryRun {
		runLog.Warn("dry run: using sample license and consumption data")
		data.License, data.Consumption = zvm.SampleData()
		client = p.newClient("")
		for _, k := range []string{"server_info", "auth", "license", "consumption"} {
			data.APIHealth[k] = HealthSkipped
		}
	} else {
		client, err = p.fetch(ctx, runLog, data)
		if err != nil {
			return nil, err
		}
	}

	// Dry runs read history but never record their sample figures.
	if p.store != nil && !p.dryRun {
		sample := history.Sample{
			TimestampUTC: now.UTC(),
			ProtectedVMs: data.Consumption.ProtectedVMs,
			EntitledVMs:  data.License.EntitledVMs,
		}
		if err := p.store.Record(sample); err != nil {
			runLog.WithError(err).Warn("could not record history sample")
		}
	}

	data.History, err = client.HistoricalSamples(ctx, p.cfg.History.Windows)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	data.Metrics = metrics.Derive(metrics.Input{
		EntitledVMs:  data.License.EntitledVMs,
		ProtectedVMs: data.Consumption.ProtectedVMs,
		DaysToExpiry: data.License.DaysToExpiry,
		History:      data.History,
	}, metrics.Thresholds{
		UtilizationWarn: p.cfg.AlertThresholds.UtilizationWarn,
		UtilizationCrit: p.cfg.AlertThresholds.UtilizationCrit,
	}, now)

	runLog.WithFields(log.Fields{
		"utilization_pct": data.Metrics.UtilizationPct,
		"risk_score":      data.Metrics.RiskScore,
		"alerts":          len(data.Metrics.Alerts),
	}).Info("metrics derived")
	return data, nil
}

func (p *Pipeline) fetch(ctx context.Context, runLog log.FieldLogger, data *model.ZertoData) (*zvm.Client, error) {
	runLog.WithField("auth_version", p.cfg.Auth.Version).Info("authenticating to ZVM")
	authenticator, err := auth.New(p.cfg, p.httpClient)
	if err != nil {
		return nil, err
	}
	token, err := authenticator.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	data.APIHealth["auth"] = HealthOK

	client := p.newClient(token)
	if client.Ping(ctx) {
		data.APIHealth["server_info"] = HealthOK
		if v, err := client.ServerVersion(ctx); err != nil {
			runLog.WithError(err).Debug("server version unavailable")
		} else if v != "" {
			data.Meta.ZertoVersion = v
		}
	} else {
		data.APIHealth["server_info"] = HealthUnreachable
		runLog.Warn("ZVM server info endpoint unreachable")
	}

	runLog.Info("collecting license and consumption data")
	if data.License, err = client.License(ctx); err != nil {
		return nil, fmt.Errorf("fetch license: %w", err)
	}
	data.APIHealth["license"] = HealthOK

	if data.Consumption, err = client.Consumption(ctx); err != nil {
		return nil, fmt.Errorf("fetch consumption: %w", err)
	}
	data.APIHealth["consumption"] = HealthOK
	return client, nil
}

func (p *Pipeline) newClient(token string) *zvm.Client {
	opts := []zvm.Option{zvm.WithHTTPClient(p.httpClient), zvm.WithClock(p.now)}
	if p.store != nil {
		opts = append(opts, zvm.WithSamples(p.store))
	}
	return zvm.NewClient(p.cfg.ZVMURL, token, opts...)
}
