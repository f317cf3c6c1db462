package http

import (
	"context"

	"ventaperdida/internal/exporter"
	"ventaperdida/internal/services"
	api "ventaperdida/pkg/contracts/api/v1"
	"ventaperdida/pkg/contracts/domain"
)

// ReportServiceInterface defines the report operations the handlers need
type ReportServiceInterface interface {
	Dashboard(ctx context.Context, q services.DashboardQuery) (domain.Dashboard, error)
	Aggregate(ctx context.Context, q services.AggregateQuery) (api.AggregateResponse, error)
	Options(ctx context.Context) (domain.Options, error)
	Export(ctx context.Context, format exporter.Format, q services.AggregateQuery) (*services.Export, error)
	Diagnostics(ctx context.Context) (api.DiagnosticsResponse, error)
	Refresh(ctx context.Context) (*domain.Dataset, error)
}
