package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"ventaperdida/internal/config"
	apperrors "ventaperdida/internal/errors"
	"ventaperdida/internal/files"
	"ventaperdida/internal/infrastructure"
	"ventaperdida/pkg/contracts/domain"
)

// Listing is one enumeration of the three source directories.
type Listing struct {
	Loss     []files.FileInfo
	NetSales []files.FileInfo
	Catalog  []files.FileInfo
	// Version fingerprints every listed file; it changes whenever a source changes.
	Version string
}

// Pipeline runs enumeration, ingestion and reconciliation against one store.
type Pipeline struct {
	store   files.Store
	tables  *config.Tables
	sources config.SourcesConfig
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewPipeline creates a pipeline. A nil metrics value records nothing.
func NewPipeline(store files.Store, tables *config.Tables, sources config.SourcesConfig, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Pipeline {
	if metrics == nil {
		metrics = infrastructure.NoopPipelineMetrics()
	}
	return &Pipeline{
		store:   store,
		tables:  tables,
		sources: sources,
		logger:  logger.With(slog.String("component", "pipeline"), slog.String("backend", store.Backend())),
		metrics: metrics,
	}
}

// List enumerates loss extracts and spreadsheets. Any store failure is fatal
// for the run and surfaces as SOURCE_UNAVAILABLE.
func (p *Pipeline) List(ctx context.Context) (*Listing, error) {
	ctx, span := infrastructure.StartSpan(ctx, "pipeline.list")
	var err error
	defer func() { infrastructure.EndSpan(span, err) }()

	l := &Listing{}
	if l.Loss, err = files.FindByExtension(ctx, p.store, p.sources.LossDir, files.ExtCSV); err != nil {
		return nil, err
	}
	if p.sources.NetSalesDir != "" {
		if l.NetSales, err = files.FindByExtension(ctx, p.store, p.sources.NetSalesDir, files.ExtXLSX); err != nil {
			return nil, err
		}
	}
	if p.sources.CatalogDir != "" {
		if l.Catalog, err = files.FindByExtension(ctx, p.store, p.sources.CatalogDir, files.ExtXLSX); err != nil {
			return nil, err
		}
	}
	l.Version = files.Fingerprint(l.Loss, l.NetSales, l.Catalog)

	p.logger.DebugContext(ctx, "Sources listed",
		slog.Int("loss_files", len(l.Loss)),
		slog.Int("net_sales_files", len(l.NetSales)),
		slog.Int("catalog_files", len(l.Catalog)),
		slog.String("version", l.Version))
	return l, nil
}

// Run lists the sources and loads them.
func (p *Pipeline) Run(ctx context.Context) (*domain.Dataset, error) {
	listing, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	return p.Load(ctx, listing)
}

// Load fetches, parses and reconciles the files of a listing. Unparseable
// files and sheets missing required columns become diagnostics; only store
// failures and cancellation abort the run.
func (p *Pipeline) Load(ctx context.Context, listing *Listing) (*domain.Dataset, error) {
	start := time.Now()
	ctx, span := infrastructure.StartSpan(ctx, "pipeline.load", attribute.String("version", listing.Version))
	var err error
	defer func() { infrastructure.EndSpan(span, err) }()

	ds := &domain.Dataset{Version: listing.Version, Files: len(listing.Loss)}

	var loss []domain.LossRecord
	for _, f := range listing.Loss {
		var data []byte
		if data, err = p.fetch(ctx, f); err != nil {
			return nil, err
		}
		records, stats, parseErr := ParseLossFile(f.Name, data, p.tables)
		if parseErr != nil {
			p.skip(ctx, ds, f.Name, "loss", domain.DiagFileSkipped, parseErr)
			continue
		}
		p.ingested(ctx, "loss")
		ds.FilesLoaded++
		loss = append(loss, records...)

		if dropped := stats.Dropped(); dropped > 0 {
			p.metrics.RowsDropped.Add(ctx, int64(dropped))
			ds.Diagnostics = append(ds.Diagnostics, domain.Diagnostic{
				Source: f.Name,
				Kind:   domain.DiagRowsDropped,
				Message: fmt.Sprintf("%d of %d rows dropped (removed provider %d, empty article %d, invalid amount %d)",
					dropped, stats.Rows, stats.RemovedProvider, stats.EmptyArticle, stats.InvalidAmount),
			})
		}
	}

	var net domain.NetSalesTable
	for _, f := range listing.NetSales {
		var data []byte
		if data, err = p.fetch(ctx, f); err != nil {
			return nil, err
		}
		table, _, parseErr := ParseNetSalesSheet(f.Name, data, p.tables)
		if parseErr != nil {
			p.skip(ctx, ds, f.Name, "net_sales", diagKind(parseErr), parseErr)
			continue
		}
		p.ingested(ctx, "net_sales")
		net = mergeNetSales(net, table)
	}

	var catalogs [][]domain.CatalogEntry
	for _, f := range listing.Catalog {
		var data []byte
		if data, err = p.fetch(ctx, f); err != nil {
			return nil, err
		}
		entries, _, parseErr := ParseCatalogSheet(f.Name, data, p.tables)
		if parseErr != nil {
			p.skip(ctx, ds, f.Name, "catalog", diagKind(parseErr), parseErr)
			continue
		}
		p.ingested(ctx, "catalog")
		catalogs = append(catalogs, entries)
	}

	ds.Rows, ds.NetSales = Reconcile(loss, net, BuildCatalog(catalogs...), p.tables)
	ds.LoadedAt = time.Now().UTC()

	infrastructure.ObserveDuration(ctx, p.metrics.LoadDuration, start)
	p.logger.InfoContext(ctx, "Sources loaded",
		slog.String("version", ds.Version),
		slog.Int("files", ds.Files),
		slog.Int("files_loaded", ds.FilesLoaded),
		slog.Int("rows", len(ds.Rows)),
		slog.Int("rows_without_net_sales", UnmatchedRows(ds.Rows)),
		slog.Int("net_sales_rows", len(ds.NetSales.Records)),
		slog.Int("diagnostics", len(ds.Diagnostics)),
		slog.Duration("elapsed", time.Since(start)))
	return ds, nil
}

func (p *Pipeline) fetch(ctx context.Context, f files.FileInfo) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := p.store.Fetch(ctx, f.Handle)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.NewSourceUnavailableError(fmt.Sprintf("cannot fetch %s", f.Name), err)
	}
	return data, nil
}

func (p *Pipeline) skip(ctx context.Context, ds *domain.Dataset, name, kind, diag string, err error) {
	p.metrics.FilesSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	ds.Diagnostics = append(ds.Diagnostics, domain.Diagnostic{Source: name, Kind: diag, Message: err.Error()})
	p.logger.WarnContext(ctx, "File skipped",
		slog.String("file", name),
		slog.String("kind", kind),
		slog.String("error", err.Error()))
}

func (p *Pipeline) ingested(ctx context.Context, kind string) {
	p.metrics.FilesIngested.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func diagKind(err error) string {
	if apperrors.IsType(err, apperrors.ErrTypeSchemaMismatch) {
		return domain.DiagSchemaMismatch
	}
	return domain.DiagFileSkipped
}

// mergeNetSales concatenates records and keeps only the columns every merged
// sheet carried.
func mergeNetSales(acc, next domain.NetSalesTable) domain.NetSalesTable {
	if acc.Columns == nil {
		return next
	}
	cols := make(map[domain.Column]bool)
	for c := range acc.Columns {
		if acc.Has(c) && next.Has(c) {
			cols[c] = true
		}
	}
	return domain.NetSalesTable{
		Records: append(acc.Records, next.Records...),
		Columns: cols,
	}
}
