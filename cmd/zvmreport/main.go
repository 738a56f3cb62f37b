package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yuxishi/zvm-license-report/internal/aws"
	"github.com/yuxishi/zvm-license-report/internal/config"
	"github.com/yuxishi/zvm-license-report/internal/history"
	"github.com/yuxishi/zvm-license-report/internal/logging"
	"github.com/yuxishi/zvm-license-report/internal/pipeline"
	"github.com/yuxishi/zvm-license-report/internal/report"
)

const (
	exitOK          = 0
	exitError       = 2
	exitConfig      = 3
	exitInterrupted = 130
)

type options struct {
	configPath  string
	outputDir   string
	formats     []string
	insecure    bool
	verbose     bool
	versionInfo bool
	dryRun      bool
}

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		printError(os.Stderr, err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	var cfgErr *config.Error
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &cfgErr):
		return exitConfig
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitError
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "zvmreport",
		Short: "Zerto licensing utilization report",
		Long: `Collect license entitlement and VPG consumption from a Zerto Virtual
Manager and write an HTML dashboard, a CSV summary and a JSON export.`,
		Example: `  zvmreport --config config.yaml
  zvmreport --config config.yaml --format html,json --output-dir ./out
  zvmreport --config config.yaml --dry-run`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.versionInfo {
				printVersion(cmd)
				return nil
			}
			// Formats may follow --format separated by spaces: --format html csv.
			opts.formats = append(opts.formats, args...)
			if opts.configPath == "" {
				return &config.Error{Kind: config.KindMissingField, Field: "--config", Err: errors.New("flag is required")}
			}
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML configuration file (required)")
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "Override output_dir from the configuration")
	f.StringSliceVarP(&opts.formats, "format", "f", nil, "Output formats: html, csv, json (default all)")
	f.BoolVar(&opts.insecure, "insecure", false, "Disable TLS certificate verification")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to the console")
	f.BoolVar(&opts.versionInfo, "version-info", false, "Print version information and exit")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Use sample data instead of calling the ZVM")
	return cmd
}

func printVersion(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "zvmreport %s\n", pipeline.ToolVersion)
	fmt.Fprintf(out, "go %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func run(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	formats, err := report.ParseFormats(opts.formats)
	if err != nil {
		return &config.Error{Kind: config.KindInvalidValue, Field: "--format", Err: err}
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyOverrides(cfg, opts)

	logger, closer, err := logging.New(logging.Options{Dir: cfg.LogDir, Verbose: opts.verbose, Console: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.WithField("config", opts.configPath).Info("configuration loaded")
	if !cfg.VerifyTLS {
		logger.Warn("TLS certificate verification is disabled")
	}

	store, err := history.Open(cfg.History.Path, cfg.History.MaxSamples)
	if err != nil {
		return err
	}
	pipeOpts := []pipeline.Option{pipeline.WithDryRun(opts.dryRun), pipeline.WithHistory(store)}

	if cfg.CloudWatch.Enabled && !opts.dryRun {
		pub, err := aws.NewPublisher(ctx, cfg.CloudWatch.Region, cfg.CloudWatch.Namespace, logger)
		if err != nil {
			return err
		}
		pipeOpts = append(pipeOpts, pipeline.WithPublisher(pub))
	}

	res, err := pipeline.New(cfg, logger, pipeOpts...).Run(ctx, formats)
	if err != nil {
		logger.WithError(err).Error("report run failed")
		return err
	}
	logger.WithField("files", res.Paths).Info("report run complete")

	printSummary(cmd.OutOrStdout(), res)
	return nil
}

// applyOverrides layers CLI flags on top of the loaded configuration.
func applyOverrides(cfg *config.Config, opts *options) {
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
		if cfg.Get("history.path", nil) == nil {
			cfg.History.Path = filepath.Join(cfg.OutputDir, "history.json")
		}
	}
	if opts.insecure {
		cfg.VerifyTLS = false
	}
}
