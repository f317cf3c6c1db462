package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"ventaperdida/internal/cache"
	"ventaperdida/internal/charts"
	"ventaperdida/internal/config"
	"ventaperdida/internal/dataprocessing"
	apperrors "ventaperdida/internal/errors"
	"ventaperdida/internal/exporter"
	"ventaperdida/internal/infrastructure"
	api "ventaperdida/pkg/contracts/api/v1"
	"ventaperdida/pkg/contracts/domain"
)

// ReportOptions tunes caching and re-listing.
type ReportOptions struct {
	// RefreshInterval bounds how long a source listing is reused. Zero re-lists on every load.
	RefreshInterval time.Duration
	MaxEntries      int
	// Remote shares dashboards, aggregates and options across processes.
	Remote *cache.RedisTier
}

// DashboardQuery selects one dashboard.
type DashboardQuery struct {
	Filter      domain.Filter
	View        domain.View
	Accumulated bool
}

// AggregateQuery selects one grouped table.
type AggregateQuery struct {
	Filter       domain.Filter
	Dimensions   []domain.Dimension
	Accumulated  bool
	Compare      bool
	PeriodChange bool
}

func (q AggregateQuery) key() string {
	dims := make([]string, len(q.Dimensions))
	for i, d := range q.Dimensions {
		dims[i] = string(d)
	}
	return strings.Join([]string{
		strings.Join(dims, ","),
		strconv.FormatBool(q.Accumulated),
		strconv.FormatBool(q.Compare),
		strconv.FormatBool(q.PeriodChange),
		q.Filter.Key(),
	}, "|")
}

// Export is a rendered aggregate ready to be served or written.
type Export struct {
	Format   exporter.Format
	Filename string
	Data     []byte
}

// ReportService runs the pipeline on demand and memoizes every derived view
// on the source version it was computed from.
type ReportService struct {
	pipeline        *dataprocessing.Pipeline
	tables          *config.Tables
	exporter        *exporter.Exporter
	refreshInterval time.Duration
	datasets        *cache.Memo
	results         *cache.Memo
	logger          *slog.Logger
	now             func() time.Time

	mu       sync.Mutex
	listing  *dataprocessing.Listing
	listedAt time.Time

	statusMu sync.RWMutex
	last     *domain.Dataset
	lastErr  error
}

// NewReportService creates a report service with injected dependencies
func NewReportService(pipeline *dataprocessing.Pipeline, tables *config.Tables, exp *exporter.Exporter, opts ReportOptions, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if tables == nil {
		tables = config.DefaultTables()
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 256
	}
	logger = logger.With(slog.String("component", "report_service"))

	logger.Info("ReportService initialized",
		slog.Duration("refresh_interval", opts.RefreshInterval),
		slog.Int("max_entries", opts.MaxEntries),
		slog.Bool("shared_cache", opts.Remote != nil))

	return &ReportService{
		pipeline:        pipeline,
		tables:          tables,
		exporter:        exp,
		refreshInterval: opts.RefreshInterval,
		// one entry per source version; the previous one survives a change
		datasets: cache.New(cache.Options{Name: "datasets", MaxEntries: 2, Logger: logger, Metrics: metrics}),
		results:  cache.New(cache.Options{Name: "results", MaxEntries: opts.MaxEntries, Remote: opts.Remote, Logger: logger, Metrics: metrics}),
		logger:   logger,
		now:      time.Now,
	}
}

// Load returns the reconciled dataset for the current source version.
func (s *ReportService) Load(ctx context.Context) (*domain.Dataset, error) {
	listing, err := s.currentListing(ctx)
	if err != nil {
		s.record(nil, err)
		return nil, err
	}

	ds, err := cache.Do(ctx, s.datasets, listing.Version, func(ctx context.Context) (*domain.Dataset, error) {
		return s.pipeline.Load(ctx, listing)
	})
	s.record(ds, err)
	return ds, err
}

func (s *ReportService) currentListing(ctx context.Context) (*dataprocessing.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listing != nil && s.refreshInterval > 0 && s.now().Sub(s.listedAt) < s.refreshInterval {
		return s.listing, nil
	}

	listing, err := s.pipeline.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.listing != nil && s.listing.Version != listing.Version {
		s.logger.InfoContext(ctx, "Source data changed",
			slog.String("previous_version", s.listing.Version),
			slog.String("version", listing.Version))
	}
	s.listing = listing
	s.listedAt = s.now()
	return listing, nil
}

func (s *ReportService) record(ds *domain.Dataset, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if err != nil {
		s.lastErr = err
		return
	}
	s.last, s.lastErr = ds, nil
}

// LastLoad reports the most recent successful dataset and the error of the
// most recent attempt, if it failed.
func (s *ReportService) LastLoad() (*domain.Dataset, error) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.last, s.lastErr
}

// Refresh drops the cached listing and every memoized result, then reloads.
func (s *ReportService) Refresh(ctx context.Context) (*domain.Dataset, error) {
	s.mu.Lock()
	s.listing = nil
	s.mu.Unlock()

	s.datasets.Purge(ctx)
	s.results.Purge(ctx)
	s.logger.InfoContext(ctx, "Caches purged")

	return s.Load(ctx)
}

// Dashboard builds the KPIs and figures for one filter selection.
func (s *ReportService) Dashboard(ctx context.Context, q DashboardQuery) (domain.Dashboard, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}
	f, err := normalizeFilter(q.Filter)
	if err != nil {
		return domain.Dashboard{}, err
	}
	view := q.View
	if view == "" {
		view = domain.ViewWeekly
	}

	key := fmt.Sprintf("dashboard|%s|%s|%t|%s", ds.Version, view, q.Accumulated, f.Key())
	return cache.Do(ctx, s.results, key, func(ctx context.Context) (domain.Dashboard, error) {
		d := charts.BuildDashboard(charts.Input{
			All:       ds.Rows,
			Filtered:  dataprocessing.Apply(ds.Rows, f),
			NetSales:  dataprocessing.FilterNetSales(ds.NetSales, f),
			Unapplied: dataprocessing.UnappliedNetFilters(ds.NetSales, f),
			Tables:    s.tables,
		}, view, q.Accumulated)
		d.Version = ds.Version
		d.Filter = f
		return d, nil
	})
}

// Aggregate groups the filtered rows by the requested dimensions.
func (s *ReportService) Aggregate(ctx context.Context, q AggregateQuery) (api.AggregateResponse, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return api.AggregateResponse{}, err
	}
	if len(q.Dimensions) == 0 {
		return api.AggregateResponse{}, apperrors.NewAppValidationError("at least one dimension is required")
	}
	for _, d := range q.Dimensions {
		if !domain.KnownDimension(d) {
			return api.AggregateResponse{}, apperrors.NewAppValidationError(fmt.Sprintf("unknown dimension %q", d))
		}
	}
	if q.Filter, err = normalizeFilter(q.Filter); err != nil {
		return api.AggregateResponse{}, err
	}

	key := "aggregate|" + ds.Version + "|" + q.key()
	return cache.Do(ctx, s.results, key, func(ctx context.Context) (api.AggregateResponse, error) {
		res := api.AggregateResponse{Version: ds.Version, Aggregate: aggregate(ds, q)}
		if q.Compare {
			if note := charts.NetSalesNote(dataprocessing.UnappliedNetFilters(ds.NetSales, q.Filter)); note != "" {
				res.Notes = []string{note}
			}
		}
		return res, nil
	})
}

func aggregate(ds *domain.Dataset, q AggregateQuery) domain.Aggregate {
	rows := dataprocessing.Apply(ds.Rows, q.Filter)

	var agg domain.Aggregate
	if q.Compare {
		agg = dataprocessing.Compare(rows, dataprocessing.FilterNetSales(ds.NetSales, q.Filter), q.Dimensions)
	} else {
		agg = dataprocessing.Group(rows, q.Dimensions)
	}

	timeDim, ok := firstTimeDimension(q.Dimensions)
	if !ok {
		return agg
	}
	if q.Accumulated {
		agg = dataprocessing.Cumulative(agg, timeDim)
	}
	if q.PeriodChange {
		agg = dataprocessing.WithPeriodChange(agg, timeDim)
	}
	return agg
}

func firstTimeDimension(dims []domain.Dimension) (domain.Dimension, bool) {
	for _, d := range dims {
		if d.IsTime() {
			return d, true
		}
	}
	return "", false
}

// Options lists the distinct sidebar values of the current dataset.
func (s *ReportService) Options(ctx context.Context) (domain.Options, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return domain.Options{}, err
	}
	return cache.Do(ctx, s.results, "options|"+ds.Version, func(ctx context.Context) (domain.Options, error) {
		return dataprocessing.Options(ds.Rows), nil
	})
}

// Export renders an aggregate as CSV or XLSX.
func (s *ReportService) Export(ctx context.Context, format exporter.Format, q AggregateQuery) (*Export, error) {
	res, err := s.Aggregate(ctx, q)
	if err != nil {
		return nil, err
	}

	data, err := s.exporter.Render(format, res.Aggregate)
	if err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}
	return &Export{
		Format:   format,
		Filename: exportFilename(q.Dimensions, res.Version, format),
		Data:     data,
	}, nil
}

func exportFilename(dims []domain.Dimension, version string, format exporter.Format) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = string(d)
	}
	if len(version) > 8 {
		version = version[:8]
	}
	return fmt.Sprintf("venta_perdida_%s_%s%s", strings.Join(parts, "_"), version, format.Extension())
}

// Diagnostics reports what the current load skipped or dropped.
func (s *ReportService) Diagnostics(ctx context.Context) (api.DiagnosticsResponse, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return api.DiagnosticsResponse{}, err
	}
	diags := ds.Diagnostics
	if diags == nil {
		diags = []domain.Diagnostic{}
	}
	return api.DiagnosticsResponse{
		Version:       ds.Version,
		LoadedAt:      ds.LoadedAt,
		Files:         ds.Files,
		FilesLoaded:   ds.FilesLoaded,
		Diagnostics:   diags,
		Rows:          len(ds.Rows),
		UnmatchedRows: dataprocessing.UnmatchedRows(ds.Rows),
	}, nil
}

// normalizeFilter clears "all" sentinels and brings the week to YYYYWW.
func normalizeFilter(f domain.Filter) (domain.Filter, error) {
	f = f.Normalize()
	if f.Week != "" {
		week, ok := dataprocessing.NormalizeWeekKey(f.Week)
		if !ok {
			return f, apperrors.NewAppValidationError(fmt.Sprintf("invalid week %q", f.Week))
		}
		f.Week = week
	}
	return f, nil
}
