// Package middleware provides observability for the patch channel.
//
// This package includes:
//   - Prometheus metrics for render cycles, patches, signatures, snapshot
//     store errors and HTTP requests
//   - OpenTelemetry tracing middleware for HTTP requests
//
// # Prometheus Metrics
//
//	m := middleware.NewMetrics(middleware.WithNamespace("myapp"))
//	r.Use(m.Handler)
//	r.Handle("/metrics", promhttp.Handler())
//
// Metrics collected:
//   - patchwire_render_cycles_total{kind,status}
//   - patchwire_render_duration_seconds{kind}
//   - patchwire_diff_duration_seconds
//   - patchwire_patches_total{type}
//   - patchwire_signature_failures_total
//   - patchwire_snapshot_errors_total{op}
//   - patchwire_http_requests_total{route,method,status}
//   - patchwire_http_request_duration_seconds{route}
//   - patchwire_active_connections
//   - patchwire_websocket_errors_total{type}
//
// A nil *Metrics records nothing, so components can hold one unconditionally.
//
// # OpenTelemetry
//
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("my-app")))
package middleware
