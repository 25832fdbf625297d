package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"pagestatic/internal/adapter/outbound/cache"
	"pagestatic/internal/adapter/outbound/filefilter"
	"pagestatic/internal/adapter/outbound/messaging"
	javascriptparser "pagestatic/internal/adapter/outbound/treesitter/parsers/javascript"
	"pagestatic/internal/application/common/slogger"
	"pagestatic/internal/application/service"
	"pagestatic/internal/config"
	"pagestatic/internal/domain/entity"
	"pagestatic/internal/port/outbound"
	"pagestatic/internal/version"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ErrPagesFailed is returned when at least one page could not be analyzed.
var ErrPagesFailed = errors.New("some pages could not be analyzed")

func newScanCmd(state *cliState) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Analyze page modules and print their static exports",
		Long: `Scan walks the given files and directories (default: the current directory),
analyzes every page module matching scan.include and prints one report per
file. Explicitly named files are analyzed even when no include pattern matches.

The command exits non-zero when any page could not be analyzed; the report is
still written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			cfg := *state.cfg
			if noCache {
				cfg.Cache.Enabled = false
			}
			return runScan(cmd.Context(), cmd, &cfg, args)
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("include", nil, "Glob patterns of files to analyze")
	flags.StringSlice("exclude", nil, "Glob patterns of files and directories to skip")
	flags.Bool("respect-gitignore", true, "Skip paths ignored by the root .gitignore of each directory")
	flags.IntP("concurrency", "j", 0, "Number of files analyzed in parallel")
	flags.Bool("fail-fast", false, "Stop at the first page that cannot be analyzed")
	flags.Int64("max-file-size", 0, "Largest analyzable file in bytes")
	flags.Duration("timeout", 0, "Abort the scan after this long")
	flags.String("cache-path", "", "bbolt file persisting results across runs")
	flags.BoolVar(&noCache, "no-cache", false, "Disable the analysis cache")
	flags.Bool("publish", false, "Publish every page report to NATS")
	flags.String("nats-url", "", "NATS server URL")
	flags.String("nats-subject", "", "NATS subject for page reports")
	flags.StringP("format", "f", "", "Report format (json, yaml)")
	flags.Bool("pretty", true, "Indent JSON output")
	flags.Bool("progress", false, "Show a progress bar on stderr")
	flags.StringP("output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}

func runScan(ctx context.Context, cmd *cobra.Command, cfg *config.Config, roots []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Scan.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Scan.Timeout)
		defer cancel()
	}

	walker, err := filefilter.NewPageWalker(filefilter.WalkerOptions{
		Include:          cfg.Scan.Include,
		Exclude:          cfg.Scan.Exclude,
		RespectGitignore: cfg.Scan.RespectGitignore,
	})
	if err != nil {
		return err
	}

	files, err := walker.Walk(ctx, roots)
	if err != nil {
		return err
	}

	parser, err := javascriptparser.NewTreeSitterAdapter()
	if err != nil {
		return err
	}

	metrics, err := service.NewPageAnalysisMetrics()
	if err != nil {
		return err
	}

	options := []service.PageAnalysisOption{service.WithMetrics(metrics)}

	if cfg.Cache.Enabled {
		analysisCache, err := openCache(cfg.Cache)
		if err != nil {
			return err
		}
		defer func() {
			if err := analysisCache.Close(); err != nil {
				slogger.Warn(ctx, "Failed to close analysis cache", slogger.Fields{"error": err.Error()})
			}
		}()
		options = append(options, service.WithCache(analysisCache))
	}

	if cfg.NATS.Enabled {
		publisher, err := messaging.NewNATSReportPublisher(cfg.NATS)
		if err != nil {
			return err
		}
		if err := publisher.Connect(); err != nil {
			return err
		}
		defer func() {
			if err := publisher.Disconnect(context.Background()); err != nil {
				slogger.Warn(ctx, "Failed to disconnect from NATS", slogger.Fields{"error": err.Error()})
			}
		}()
		options = append(options, service.WithPublisher(publisher))
	}

	if cfg.Output.Progress && len(files) > 0 {
		bar := newProgressBar(cmd.ErrOrStderr(), len(files))
		options = append(options, service.WithProgress(func(done, _ int) {
			_ = bar.Set(done)
		}))
	}

	svc := service.NewPageAnalysisService(parser, javascriptparser.NewExportCollector(), service.PageAnalysisOptions{
		Concurrency: cfg.Scan.Concurrency,
		FailFast:    cfg.Scan.FailFast,
		MaxFileSize: cfg.Scan.MaxFileSize,
	}, options...)

	report, err := svc.Scan(ctx, files)
	if err != nil {
		return err
	}

	report.Generator = newReportGenerator(version.GetVersion())

	if err := writeReportTo(cmd.OutOrStdout(), cfg.Output, report); err != nil {
		return err
	}

	if report.Summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d failed", ErrPagesFailed, report.Summary.Failed, report.Summary.Total)
	}
	return nil
}

// newReportGenerator describes the running build for the report header.
func newReportGenerator(info *version.VersionInfo) *entity.ReportGenerator {
	generator := &entity.ReportGenerator{
		Name:        version.ApplicationName,
		Version:     info.Version,
		Commit:      info.Commit,
		Development: info.IsDevelopment(),
	}
	if builtAt := info.GetBuildTime(); !builtAt.IsZero() {
		builtAt = builtAt.UTC()
		generator.BuiltAt = &builtAt
	}
	return generator
}

func openCache(cfg config.CacheConfig) (outbound.AnalysisCache, error) {
	memory, err := cache.NewMemoryCache(cfg.MemorySize)
	if err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return memory, nil
	}

	persistent, err := cache.NewBoltCache(cfg.Path)
	if err != nil {
		return nil, err
	}
	return cache.NewTieredCache(memory, persistent), nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Analyzing[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

func writeReportTo(stdout io.Writer, cfg config.OutputConfig, report *entity.ScanReport) error {
	if cfg.File == "" {
		return writeReport(stdout, cfg, report)
	}

	f, err := os.Create(cfg.File)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeReport(f, cfg, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeReport(w io.Writer, cfg config.OutputConfig, report *entity.ScanReport) error {
	switch strings.ToLower(cfg.Format) {
	case config.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode YAML report: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		if cfg.Pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode JSON report: %w", err)
		}
		return nil
	}
}
