package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/memory"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"buildTime" yaml:"buildTime"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	OS        string `json:"os" yaml:"os"`
	Arch      string `json:"arch" yaml:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

func section(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// LogStartup prints the banner, system information and the resolved
// configuration.
func LogStartup(config *Config) {
	printBanner()
	logSystemInfo()

	section("CONFIGURATION")
	if config.ConfigFile != "" {
		logging.Info("  Config file:           %s", config.ConfigFile)
	} else {
		logging.Info("  Config file:           (none, using defaults and environment)")
	}
	logging.Info("  SOURCE_DIR:            %s", config.SourceDir)
	logging.Info("  OUTPUT_DIR:            %s", config.OutputDir)
	logging.Info("  STATIC_DIR:            %s", config.StaticDir)
	logging.Info("  VIEWS_DIR:             %s", config.ViewsDir)
	logging.Info("  THUMBNAIL_URL_PREFIX:  %s", config.ThumbnailURLPrefix)
	logging.Info("  PORT:                  %s", config.Port)
	logging.Info("  METRICS_PORT:          %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:       %v", config.MetricsEnabled)
	logging.Info("  LOG_LEVEL:             %s", logging.GetLevel())
	logging.Info("  LOG_FORMAT:            %s", config.LogFormat)
	logging.Info("  THUMBNAIL_SIZE:        %d", config.ThumbnailSize)
	logging.Info("  THUMBNAIL_QUALITY:     %d", config.ThumbnailQuality)
	logging.Info("  CAPTURE_DATE_FALLBACK: %s", config.CaptureDateFallback)
	logging.Info("  BUILD_WORKERS:         %d", config.BuildWorkers)
	logging.Info("  WARM_CACHE:            %v", config.WarmCache)
	if config.MemoryLimit > 0 {
		logging.Info("  MEMORY_LIMIT:          %s (ratio %.2f)", memory.FormatBytes(config.MemoryLimit), config.MemoryRatio)
	}
	if len(config.CORSOrigins) > 0 {
		logging.Info("  CORS_ORIGINS:          %s", strings.Join(config.CORSOrigins, ", "))
	}
}

// PrepareDirectories resolves the configured directories to absolute paths
// and makes sure the output directory exists and is writable. A missing
// source directory is created, since an empty gallery is valid.
func PrepareDirectories(config *Config) error {
	section("DIRECTORY SETUP")

	for _, d := range []struct {
		name string
		path *string
	}{
		{"source", &config.SourceDir},
		{"output", &config.OutputDir},
		{"static", &config.StaticDir},
		{"views", &config.ViewsDir},
	} {
		abs, err := filepath.Abs(*d.path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s directory path: %w", d.name, err)
		}
		*d.path = abs
		logging.Info("  %-7s directory (absolute): %s", d.name, abs)
	}

	if err := ensureDirectory(config.SourceDir, "source"); err != nil {
		return fmt.Errorf("source directory error: %w", err)
	}
	if err := ensureDirectory(config.OutputDir, "output"); err != nil {
		return fmt.Errorf("output directory error: %w", err)
	}

	logging.Debug("  Testing output directory write access...")
	if err := testWriteAccess(config.OutputDir); err != nil {
		return fmt.Errorf("output directory is not writable (required for thumbnails): %w", err)
	}
	logging.Info("  [OK] Output directory is writable")
	return nil
}

// LogCacheWarmup logs the outcome of the startup build.
func LogCacheWarmup(images int, duration time.Duration, err error) {
	if err != nil {
		logging.Warn("  Cache warm-up failed after %v: %v", duration, err)
		logging.Warn("  The gallery will be built on the first request")
		return
	}
	logging.Info("  [OK] Cache warmed in %v (%d images)", duration, images)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// prefix routes such as the static file server match any method
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	section("HTTP SERVER SETUP")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	logging.Info("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Info("    %-6s %s", route.Method, route.Path)
	}

	logging.Info("")
	if logStaticFiles {
		logging.Info("  Static file logging: ON")
	} else {
		logging.Info("  Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Gallery:         http://localhost:%s/", config.Port)
	logging.Info("  JSON API:        http://localhost:%s/api/gallery", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://localhost:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
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
	logging.Info("------------------------------------------------------------")
	logging.Info("  photo-gallery")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Info("  [OK] Created %s directory: %s", name, path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
