// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded by [LoadConfig] through viper. Every key can be
// set in a YAML file named by TERRA_CONFIG or overridden by an environment
// variable with the TERRA_ prefix:
//
//   - data_dir: database directory (default: per-user local app data + /terra)
//   - library_dir: managed library root (default: Pictures + /Terra)
//   - port: bridge HTTP port (default: 8080)
//   - metrics_port: Prometheus metrics port (default: 9090)
//   - metrics_enabled: serve metrics (default: true)
//   - scan_workers: extraction workers, 0 picks from GOMAXPROCS (default: 0)
//   - probe_mode: header or decode (default: header)
//   - log_http: log bridge requests (default: true)
//   - stats_interval: library gauge refresh interval (default: 1m)
//
// LOG_LEVEL and DEBUG select the log level; see package logging.
//
// # Directory Setup
//
// The data and library directories are created if missing and must be
// writable. The database lives at data_dir/photos.db.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogDatabaseInit]: Store location and schema setup time
//   - [LogPipelineInit]: Worker counts, probe mode, library root, memory limit
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
package startup
