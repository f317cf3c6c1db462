// Package http implements the HTTP handlers of the Venta Perdida web service.
// Handlers are thin: they decode and validate query parameters, call the
// report or health service and render the result.
//
// # Routes
//
//	GET  /api/options      filter choices derived from the loaded dataset
//	GET  /api/dashboard    KPI cards and the ten dashboard figures
//	GET  /api/aggregate    grouped table, optionally compared with net sales
//	GET  /api/export       the same table as CSV or XLSX
//	GET  /api/diagnostics  per file ingestion diagnostics
//	POST /api/refresh      drop cached listings and reload the sources
//	GET  /api/health       service health
//	GET  /api/health/ready readiness, 503 until the first load
//	GET  /api/version      build information
//	GET  /metrics          Prometheus exposition
//
// # Errors
//
// Every failure is rendered by the errors package as an RFC 7807 problem
// document. Validation failures list the offending query parameters:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "error_code": "VALIDATION_FAILED",
//	    "details": {"errors": [{"field": "dims", "message": "dims is required"}]}
//	}
//
// Successful report responses carry an X-Source-Version header holding the
// dataset version they were computed from.
package http
