// Command report runs the pipeline once and writes a grouped loss table as
// CSV or XLSX.
//
//	report -dims week,provider -compare -format xlsx -provider PMI
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ventaperdida/internal/config"
	"ventaperdida/internal/dataprocessing"
	apperrors "ventaperdida/internal/errors"
	"ventaperdida/internal/exporter"
	"ventaperdida/internal/files"
	"ventaperdida/internal/infrastructure"
	"ventaperdida/internal/services"
	"ventaperdida/pkg/contracts"
	"ventaperdida/pkg/contracts/domain"
)

type options struct {
	version     bool
	configFile  string
	dims        string
	format      string
	out         string
	accumulated bool
	compare     bool
	change      bool
	filter      domain.Filter
}

func parseFlags(args []string) (*options, error) {
	var o options
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.BoolVar(&o.version, "version", false, "print version information and exit")
	fs.StringVar(&o.configFile, "config", "", "path to config.yaml (defaults to VP_CONFIG_FILE or configs/config.yaml)")
	fs.StringVar(&o.dims, "dims", "week", "comma separated grouping dimensions")
	fs.StringVar(&o.format, "format", "csv", "output format: csv or xlsx")
	fs.StringVar(&o.out, "out", "", "output file (defaults to a generated name under the exports directory)")
	fs.BoolVar(&o.accumulated, "accumulated", false, "running totals along the first time dimension")
	fs.BoolVar(&o.compare, "compare", false, "join net sales and compute the loss ratio")
	fs.BoolVar(&o.change, "change", false, "add the period over period change")

	fs.StringVar(&o.filter.Provider, "provider", "", "provider filter")
	fs.StringVar(&o.filter.Plaza, "plaza", "", "plaza filter")
	fs.StringVar(&o.filter.Category, "category", "", "category filter")
	fs.StringVar(&o.filter.Division, "division", "", "division filter")
	fs.StringVar(&o.filter.Family, "family", "", "family filter")
	fs.StringVar(&o.filter.Segment, "segment", "", "segment filter")
	fs.StringVar(&o.filter.Market, "market", "", "market filter")
	fs.StringVar(&o.filter.Week, "week", "", "accounting week, e.g. 202427")
	fs.StringVar(&o.filter.Article, "article", "", "article id or description substring")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return &o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if o.version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	cfg, err := loadConfig(o.configFile)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.CheckCredentials(); err != nil {
		slog.Error("Missing source credentials", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	if err := run(ctx, cfg, o, infrastructure.WithComponent(logger.Logger, "report_cli"), os.Stdout); err != nil {
		logger.Error("Report failed", slog.String("error", err.Error()))
		stop()
		logger.Close()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func run(ctx context.Context, cfg *config.Config, o *options, logger *slog.Logger, stdout io.Writer) error {
	dims, ok := domain.ParseDimensions(o.dims)
	if !ok {
		return apperrors.NewAppValidationError(fmt.Sprintf("unknown dimensions %q", o.dims))
	}
	format, err := exporter.ParseFormat(o.format)
	if err != nil {
		return apperrors.NewAppValidationError(err.Error())
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return err
	}

	store, err := files.NewStore(ctx, cfg.Sources)
	if err != nil {
		return apperrors.NewSourceUnavailableError("failed to open source store", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	tables := config.DefaultTables()
	if cfg.Sources.TablesFile != "" && config.FileExists(cfg.Sources.TablesFile) {
		if tables, err = config.LoadTables(cfg.Sources.TablesFile); err != nil {
			return apperrors.NewConfigError("invalid tables file", err)
		}
	}

	metrics := infrastructure.NoopPipelineMetrics()
	pipeline := dataprocessing.NewPipeline(store, tables, cfg.Sources, logger, metrics)
	reports := services.NewReportService(pipeline, tables, exporter.NewExporter(logger), services.ReportOptions{}, logger, metrics)

	exp, err := reports.Export(ctx, format, services.AggregateQuery{
		Filter:       o.filter,
		Dimensions:   dims,
		Accumulated:  o.accumulated,
		Compare:      o.compare,
		PeriodChange: o.change,
	})
	if err != nil {
		return err
	}

	target := o.out
	if target == "" {
		target = exp.Filename
	}
	written, err := files.NewManager(paths.ExportsDir, logger).WriteFile(target, exp.Data)
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	ds, err := reports.LastLoad()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\n", written)
	fmt.Fprintf(stdout, "%d of %d loss files loaded, %d diagnostics\n", ds.FilesLoaded, ds.Files, len(ds.Diagnostics))
	for _, d := range ds.Diagnostics {
		fmt.Fprintf(stdout, "  %s: %s (%s)\n", d.Source, d.Kind, d.Message)
	}
	return nil
}
