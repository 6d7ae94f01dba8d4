package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"photo-gallery/internal/filesystem"
	"photo-gallery/internal/handlers"
	"photo-gallery/internal/indexer"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/mediatypes"
	"photo-gallery/internal/metrics"
	"photo-gallery/internal/middleware"
	"photo-gallery/internal/startup"
	"photo-gallery/internal/views"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = 30 * time.Second
)

// newServeCmd creates the command that runs the web server
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the web server. The gallery is built on the first request (or at
startup with WARM_CACHE=true) and served from memory until it is
reindexed through POST /api/reindex or the server restarts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), config)
		},
	}
}

func runServer(ctx context.Context, config *startup.Config) error {
	startTime := time.Now()

	startup.LogStartup(config)

	monitor := startMemoryMonitor(config)
	defer monitor.Stop()

	router, cache, err := prepareServer(config, monitor)
	if err != nil {
		return err
	}
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           newHTTPHandler(router, config, os.Stdout),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// a cold build can outlast any fixed write deadline
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	var collector *metrics.Collector
	if config.MetricsEnabled {
		metricsSrv, collector = startMetrics(cache, config)
	}

	if config.WarmCache {
		go warmCache(cache, config.SourceDir)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		startup.LogShutdownInitiated(sig.String())
	case <-ctx.Done():
		startup.LogShutdownInitiated("context cancellation")
	case err := <-serverErr:
		startup.LogShutdownInitiated("server error")
		runErr = fmt.Errorf("server error: %w", err)
	}

	shutdown(srv, metricsSrv, collector)
	return runErr
}

// prepareServer resolves the directories, compiles the views and builds the
// router around a fresh indexer and cache.
func prepareServer(config *startup.Config, gate indexer.Gate) (*mux.Router, *indexer.Cache, error) {
	if err := startup.PrepareDirectories(config); err != nil {
		return nil, nil, err
	}
	configureFilesystem(config)

	ix := newIndexer(config, gate)
	cache := indexer.NewCache(ix)

	renderer := views.NewRenderer(config.ViewsDir, config.ReloadTemplates)
	if err := renderer.Load(views.IndexTemplate); err != nil {
		return nil, nil, fmt.Errorf("load views: %w", err)
	}

	h := handlers.New(cache, ix, renderer, config)
	return newRouter(h, config), cache, nil
}

// newRouter registers the gallery, API, service and static routes.
func newRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	r.HandleFunc("/", h.Gallery).Methods(http.MethodGet, http.MethodHead).Name("gallery")

	api := r.PathPrefix("/api").Subrouter()
	if len(config.CORSOrigins) > 0 {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: config.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{"ETag", middleware.RequestIDHeader},
			MaxAge:         300,
		}))
		// gives preflight requests a route so the CORS middleware runs
		api.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	}
	api.HandleFunc("/gallery", h.GetGallery).Methods(http.MethodGet)
	api.HandleFunc("/reindex", h.Reindex).Methods(http.MethodPost)

	// thumbnails come from OUTPUT_DIR even when it lives outside STATIC_DIR
	prefix := strings.TrimSuffix(config.ThumbnailURLPrefix, "/") + "/"
	r.PathPrefix(prefix).Handler(fileServer(prefix, config.OutputDir, mediatypes.ThumbnailMimeType))
	if prefix != "/static/" {
		r.PathPrefix("/static/").Handler(fileServer("/static/", config.StaticDir, ""))
	}

	return r
}

// fileServer serves dir under prefix without directory listings. A non-empty
// contentType overrides the type guessed from the extension.
func fileServer(prefix, dir, contentType string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		files.ServeHTTP(w, r)
	})
}

// newHTTPHandler wraps the router in the request ID, access log and
// compression middleware. Request metrics run inside the router.
func newHTTPHandler(router http.Handler, config *startup.Config, accessLog io.Writer) http.Handler {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.Output = accessLog
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	handler := middleware.Compression(middleware.DefaultCompressionConfig())(router)
	handler = middleware.Logger(loggingConfig)(handler)
	return middleware.RequestID()(handler)
}

// newMetricsRouter serves the default Prometheus registry on /metrics.
func newMetricsRouter() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// startMetrics starts the Prometheus listener and the gauge collector.
func startMetrics(cache *indexer.Cache, config *startup.Config) (*http.Server, *metrics.Collector) {
	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)
	metrics.AppStartTime.Set(float64(time.Now().Unix()))
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	collector := metrics.NewCollector(cache, config.OutputDir, collectorInterval)
	collector.Start()

	srv := &http.Server{
		Addr:              ":" + config.MetricsPort,
		Handler:           newMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv, collector
}

func warmCache(cache *indexer.Cache, sourceDir string) {
	start := time.Now()
	index, err := cache.Get(context.Background(), sourceDir)
	startup.LogCacheWarmup(index.Len(), time.Since(start), err)
}

func shutdown(srv, metricsSrv *http.Server, collector *metrics.Collector) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

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

	if collector != nil {
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownComplete()
}
