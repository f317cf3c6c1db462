// Package services implements the business logic layer between the HTTP
// handlers and the ingestion pipeline.
//
// # Services
//
//	- ReportService: loads and reconciles the sources on demand and serves
//	  dashboards, grouped tables, sidebar options, exports and diagnostics
//	- HealthService: liveness, readiness and version information
//
// # Caching
//
// ReportService lists the store at most once per refresh interval. The
// listing fingerprint is the source version: the reconciled dataset is
// memoized per version, and every derived view is memoized on the version
// plus its normalized request. A changed source therefore invalidates
// everything without explicit bookkeeping. Refresh drops the listing and
// purges both caches, including the shared Redis tier when configured.
//
//	svc := services.NewReportService(pipeline, tables, exp, services.ReportOptions{
//	    RefreshInterval: 5 * time.Minute,
//	}, logger, metrics)
//	d, err := svc.Dashboard(ctx, services.DashboardQuery{View: domain.ViewWeekly})
//
// # Error Handling
//
// Store failures surface as SOURCE_UNAVAILABLE and invalid queries as
// VALIDATION app errors; handlers map both to problem details.
package services
