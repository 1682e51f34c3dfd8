// Command terra serves the photo library to a host application over a
// local HTTP/JSON bridge.
//
// Startup loads configuration, opens the metadata store under the data
// directory, wires the scanner and the library ingestor, and serves the
// host operations under /api. Prometheus metrics are served on a separate
// port. SIGINT or SIGTERM triggers a graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"terra/internal/commands"
	"terra/internal/database"
	"terra/internal/filesystem"
	"terra/internal/handlers"
	"terra/internal/indexer"
	"terra/internal/library"
	"terra/internal/logging"
	"terra/internal/media"
	"terra/internal/memory"
	"terra/internal/metrics"
	"terra/internal/middleware"
	"terra/internal/startup"
	"terra/internal/workers"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()
	defer logging.Sync()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	memory.ConfigureFromEnv()
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"library": config.LibraryDir,
		"data":    config.DataDir,
	}))

	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(config.DatabasePath, time.Since(dbStart))

	scanWorkers := workers.Resolve(config.ScanWorkers, workers.Mixed, 16)
	ingestWorkers := workers.IO.Workers(16)

	extractor := media.NewDefaultExtractor(config.ProbeMode)
	scanner := indexer.New(db, extractor, scanWorkers)
	ingestor := library.New(db, extractor, config.LibraryDir, ingestWorkers)

	memoryMonitor := memory.NewMonitor(memory.DefaultConfig())
	memoryMonitor.Start()
	scanner.SetGate(memoryMonitor)
	ingestor.SetGate(memoryMonitor)

	_, memoryLimit, _ := memoryMonitor.Stats()
	startup.LogPipelineInit(startup.PipelineInfo{
		ScanWorkers:   scanWorkers,
		IngestWorkers: ingestWorkers,
		ProbeMode:     string(config.ProbeMode),
		LibraryDir:    config.LibraryDir,
		MemoryLimit:   memoryLimit,
	})

	collector := metrics.NewCollector(db, config.StatsInterval)
	collector.Start()

	h := handlers.New(commands.New(db, scanner, ingestor))
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHTTP)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.Enabled = config.LogHTTP
	handler := middleware.Logger(loggingConfig)(router)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // scans and uploads can run for minutes
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, collector, memoryMonitor)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	r.HandleFunc("/api/scan", h.ScanDirectory).Methods("POST")
	r.HandleFunc("/api/upload", h.UploadPhotos).Methods("POST")
	r.HandleFunc("/api/photos", h.ListPhotos).Methods("GET")
	r.HandleFunc("/api/photos", h.DeletePhotos).Methods("DELETE")
	r.HandleFunc("/api/favorites", h.GetFavorites).Methods("GET")
	r.HandleFunc("/api/favorites", h.SetFavorite).Methods("PUT")
	r.HandleFunc("/api/years", h.CountsByYear).Methods("GET")
	r.HandleFunc("/api/stats", h.GetStats).Methods("GET")

	r.HandleFunc("/api/albums", h.ListAlbums).Methods("GET")
	r.HandleFunc("/api/albums", h.CreateAlbum).Methods("POST")
	r.HandleFunc("/api/albums/{id:[0-9]+}", h.DeleteAlbum).Methods("DELETE")
	r.HandleFunc("/api/albums/{id:[0-9]+}/photos", h.ListAlbumPhotos).Methods("GET")
	r.HandleFunc("/api/albums/{id:[0-9]+}/photos", h.AddToAlbum).Methods("POST")
	r.HandleFunc("/api/albums/{id:[0-9]+}/photos", h.RemoveFromAlbum).Methods("DELETE")
	r.HandleFunc("/api/albums/{id:[0-9]+}/cover", h.SetAlbumCover).Methods("PUT")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, memoryMonitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	memoryMonitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownComplete()
}
