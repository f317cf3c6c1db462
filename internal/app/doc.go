// Package app wires the Venta Perdida web service together and manages its
// lifecycle.
//
// NewApplication loads nothing itself: it receives a validated config, checks
// the source credentials (a missing token is a CONFIG error the caller must
// treat as fatal), then builds the logger, telemetry, the source store, the
// optional Redis cache tier, the pipeline and the report and health services,
// and finally the chi router:
//
//	RequestID → OTel → StructuredLogger → Recovery → SecurityHeaders → CORS → RateLimit
//
// Run starts the server, warms the dataset in the background and blocks until
// SIGINT, SIGTERM or a server failure, then shuts down within the configured
// shutdown timeout and releases the store, cache and telemetry providers.
package app
