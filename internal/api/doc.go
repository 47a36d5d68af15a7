// Package api hosts the operator HTTP server. Routes:
//   - GET /healthz and /readyz for liveness and readiness checks.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/status for a JSON snapshot of the poll scheduler.
package api
