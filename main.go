package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
	"photo-library/internal/handlers"
	"photo-library/internal/importer"
	"photo-library/internal/indexer"
	"photo-library/internal/library"
	"photo-library/internal/logging"
	"photo-library/internal/media"
	"photo-library/internal/memory"
	"photo-library/internal/metrics"
	"photo-library/internal/middleware"
	"photo-library/internal/startup"
	"photo-library/internal/workers"

	"github.com/gorilla/mux"
)

// metricsCollectInterval is how often library totals are refreshed.
const metricsCollectInterval = time.Minute

func main() {
	startTime := time.Now()

	// Memory limit first so everything after runs under it
	mem := memory.ConfigureFromEnv()
	startup.LogMemoryConfig(startup.MemoryConfig{
		Configured:     mem.Configured,
		Source:         mem.Source,
		ContainerLimit: mem.ContainerLimit,
		GoMemLimit:     mem.GoMemLimit,
		Ratio:          mem.Ratio,
	})

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("Failed to close database: %v", err)
		}
	}()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initialize rendering
	var vipsErr error
	if config.VipsEnabled {
		vipsErr = media.InitVips()
	}
	decoder := media.DefaultDecoder()
	startup.LogRenderInit(decoder.Name(), workers.ForRender(), vipsErr)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	// Initialize indexer
	startup.LogIndexerInit(config.IndexInterval, config.WatchEnabled)
	idx := indexer.New(db, config.MediaDir, config.IndexInterval)
	idx.SetWatch(config.WatchEnabled)

	lib := library.New(db, library.WithThumbnailer(media.NewThumbnailer(decoder)))
	imp := importer.New(config.MediaDir, idx, lib)

	if err := idx.Start(); err != nil {
		logging.Error("Failed to start indexer: %v", err)
	}
	startup.LogIndexerStarted()

	collector := metrics.NewCollector(db, metricsCollectInterval)
	idx.SetOnIndexComplete(db.UpdateDBMetrics)
	collector.Start()

	h := handlers.New(db, idx, lib, imp, config)
	h.SetMemoryMonitor(monitor)

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogRenders, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           wrapHandler(router, h, config),
		ReadHeaderTimeout: 15 * time.Second,
		// Streams arm their own per-chunk write deadlines.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = startMetricsServer(config.MetricsPort, h)
	}

	done := make(chan struct{})
	go func() {
		handleShutdown(srv, metricsSrv, idx, collector, monitor)
		close(done)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// API routes live on the root router so method mismatches answer 405
	r.HandleFunc("/api/library", h.StreamLibrary).Methods("GET")
	r.HandleFunc("/api/albums", h.GetAlbums).Methods("GET")
	r.HandleFunc("/api/thumbnail", h.GetThumbnail).Methods("GET")
	r.HandleFunc("/api/photo", h.GetPhoto).Methods("GET")
	r.HandleFunc("/api/images", h.SaveImage).Methods("POST")
	r.HandleFunc("/api/images/add", h.AddImageToAlbum).Methods("POST")
	r.HandleFunc("/api/videos", h.SaveVideo).Methods("POST")
	r.HandleFunc("/api/reindex", h.TriggerReindex).Methods("POST")

	// Route templates label request metrics, so this runs after matching
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	return r
}

// wrapHandler applies the outer middleware chain: request ids, access
// logging, compression and token auth, outermost first.
func wrapHandler(router http.Handler, h *handlers.Handlers, config *startup.Config) http.Handler {
	handler := h.TokenAuth(router)

	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogRenders = config.LogRenders
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	return middleware.RequestID(handler)
}

func startMetricsServer(port string, h *handlers.Handlers) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())
	metricsMux.HandleFunc("/health", h.LivenessCheck)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

func handleShutdown(srv, metricsSrv *http.Server, idx *indexer.Indexer, collector *metrics.Collector, monitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping indexer")
	idx.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	// Releases renders waiting on memory pressure
	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	media.ShutdownVips()
	startup.LogShutdownComplete()
}
