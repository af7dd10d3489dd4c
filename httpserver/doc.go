/*
Package httpserver runs the vault HTTP API with its operational endpoints.

The server mounts any handler implementing RouteRegistrar (in practice
vaulthandler.Handler) and adds:

  - GET /livez - Liveness check
  - GET /readyz - Readiness check, 503 while draining
  - GET /drain - Mark the server as not ready
  - GET /undrain - Mark the server as ready again
  - /debug/pprof - Profiling, when enabled

All requests go through the go-utils slog access logger. Prometheus metrics
are served on a separate listener when MetricsAddr is set.

Example usage:

	handler := vaulthandler.NewHandler(app, vaultAddr, logger)
	srv, err := httpserver.New(cfg, handler)
	if err != nil {
		return err
	}
	srv.RunInBackground()
	defer srv.Shutdown()
*/
package httpserver
