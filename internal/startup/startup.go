package startup

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"terra/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

const rule = "------------------------------------------------------------"

// BuildInfo contains version and build information
type BuildInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Name:      appDirName,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// section prints a titled divider.
func section(title string) {
	logging.Info("")
	logging.Info(rule)
	logging.Info("%s", title)
	logging.Info(rule)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs where the store was opened and how long schema
// setup took.
func LogDatabaseInit(path string, duration time.Duration) {
	section("METADATA STORE")
	logging.Info("  Database:        %s", path)
	logging.Info("  [OK] Schema ready in %v", duration)
}

// PipelineInfo describes the scan and ingest pipeline for the startup log.
type PipelineInfo struct {
	ScanWorkers   int
	IngestWorkers int
	ProbeMode     string
	LibraryDir    string
	MemoryLimit   int64 // bytes, 0 when unset
}

// LogPipelineInit logs the scanner and ingestor setup.
func LogPipelineInit(info PipelineInfo) {
	section("PHOTO PIPELINE")
	logging.Info("  Scan workers:    %d", info.ScanWorkers)
	logging.Info("  Ingest workers:  %d", info.IngestWorkers)
	logging.Info("  Probe mode:      %s", info.ProbeMode)
	logging.Info("  Library root:    %s", info.LibraryDir)
	if info.MemoryLimit > 0 {
		logging.Info("  Memory limit:    %d MiB (extraction pauses under pressure)", info.MemoryLimit>>20)
	} else {
		logging.Info("  Memory limit:    none")
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes lists every method/path pair registered on router, sorted by
// path and then method.
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		// Subrouter prefixes carry no handler.
		if route.GetHandler() == nil {
			return nil
		}
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: path, Name: route.GetName()})
		}
		return nil
	})

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes, err
}

// LogHTTPRoutes logs the bridge routes at debug level, grouped by resource.
func LogHTTPRoutes(router *mux.Router, logHTTP bool) {
	section("HOST BRIDGE")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}
		logging.Debug("  Registered routes (%d total):", len(routes))

		group := "\x00"
		for _, route := range routes {
			if g := getRouteGroup(route.Path); g != group {
				group = g
				if group == "" {
					logging.Debug("  [root]")
				} else {
					logging.Debug("  [%s]", group)
				}
			}
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}

	if logHTTP {
		logging.Info("  Request logging: ON")
	} else {
		logging.Info("  Request logging: OFF (set TERRA_LOG_HTTP=true to enable)")
	}
}

// getRouteGroup returns the first path segment, or "api/<resource>" for
// bridge routes.
func getRouteGroup(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if parts[0] == "api" && len(parts) > 1 {
		return "api/" + parts[1]
	}
	return parts[0]
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs the bridge and metrics addresses.
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Bridge API:      http://localhost:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://localhost:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info(rule)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	fmt.Println(rule + `
   __
  / /____  ______________ _
 / __/ _ \/ ___/ ___/ __ '/
/ /_/  __/ /  / /  / /_/ /
\__/\___/_/  /_/   \__,_/
` + rule)
	logging.Info("  Version:    %s (%s)", Version, Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs:            %d (GOMAXPROCS %d)", runtime.NumCPU(), runtime.GOMAXPROCS(0))

	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  Working dir:     %s", wd)
	}
}

// ensureDirectory creates path if missing and fails if it exists as
// something other than a directory.
func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Info("  [OK] Created %s directory: %s", name, path)
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat directory: %w", err)
	case !info.IsDir():
		return fmt.Errorf("%s exists but is not a directory", path)
	}
	logging.Debug("  %s directory exists: %s", name, path)
	return nil
}

// testWriteAccess creates and removes a temporary file in dir.
func testWriteAccess(dir string) error {
	f, err := os.CreateTemp(dir, ".terra-write-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil {
		logging.Warn("failed to remove write test file %s: %v", name, err)
	}
	return nil
}
