package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/spf13/pflag"

	"photo-gallery/internal/indexer"
)

var configKeys = []string{
	"SOURCE_DIR", "OUTPUT_DIR", "STATIC_DIR", "VIEWS_DIR", "THUMBNAIL_URL_PREFIX",
	"PORT", "METRICS_PORT", "METRICS_ENABLED", "LOG_LEVEL", "LOG_FORMAT",
	"LOG_STATIC_FILES", "LOG_HEALTH_CHECKS", "THUMBNAIL_SIZE", "THUMBNAIL_QUALITY",
	"CAPTURE_DATE_FALLBACK", "BUILD_WORKERS", "WARM_CACHE", "MEMORY_LIMIT", "MEMORY_RATIO", "CORS_ORIGINS",
	"SITE_TITLE", "RELOAD_TEMPLATES",
}

// isolate runs the test in an empty directory with no configuration in the
// environment.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("source", "", "")
	flags.String("output", "", "")
	flags.String("port", "", "")
	flags.String("log-level", "", "")
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return flags
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Errorf("Expected OS and Arch to be set, got %q/%q", info.OS, info.Arch)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	config, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := &Config{
		SourceDir:           "./images",
		OutputDir:           "./static/images",
		StaticDir:           "./static",
		ViewsDir:            "./views",
		ThumbnailURLPrefix:  "/static/images",
		Port:                "8080",
		MetricsPort:         "9090",
		MetricsEnabled:      true,
		LogLevel:            "info",
		LogFormat:           "text",
		LogStaticFiles:      false,
		LogHealthChecks:     true,
		ThumbnailSize:       300,
		ThumbnailQuality:    80,
		CaptureDateFallback: indexer.FallbackNone,
		BuildWorkers:        0,
		WarmCache:           false,
		MemoryLimit:         0,
		MemoryRatio:         0.85,
		SiteTitle:           "Gallery",
	}
	if !reflect.DeepEqual(config, want) {
		t.Errorf("LoadConfig() =\n%+v\nwant\n%+v", config, want)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := isolate(t)

	yaml := "source_dir: /from/file\nport: \"7000\"\nsite_title: File Title\nthumbnail_size: 200\ncors_origins:\n  - https://a.example\n  - https://b.example\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7100")
	t.Setenv("THUMBNAIL_SIZE", "150")
	t.Setenv("CAPTURE_DATE_FALLBACK", "ModTime")

	config, err := LoadConfig(testFlags(t, "--port", "7200"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.SourceDir != "/from/file" {
		t.Errorf("SourceDir = %q, want value from file", config.SourceDir)
	}
	if config.SiteTitle != "File Title" {
		t.Errorf("SiteTitle = %q, want value from file", config.SiteTitle)
	}
	if config.ThumbnailSize != 150 {
		t.Errorf("ThumbnailSize = %d, want env to override file", config.ThumbnailSize)
	}
	if config.Port != "7200" {
		t.Errorf("Port = %q, want flag to override env and file", config.Port)
	}
	if config.CaptureDateFallback != indexer.FallbackModTime {
		t.Errorf("CaptureDateFallback = %q, want modtime", config.CaptureDateFallback)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(config.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", config.CORSOrigins, want)
	}
	if !strings.HasSuffix(config.ConfigFile, "config.yaml") {
		t.Errorf("ConfigFile = %q", config.ConfigFile)
	}
}

func TestLoadConfigExplicitFile(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "gallery.yaml")
	if err := os.WriteFile(path, []byte("output_dir: /srv/thumbs\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	config, err := LoadConfig(testFlags(t, "--config", path))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.OutputDir != "/srv/thumbs" {
		t.Errorf("OutputDir = %q, want /srv/thumbs", config.OutputDir)
	}

	if _, err := LoadConfig(testFlags(t, "--config", filepath.Join(dir, "missing.yaml"))); err == nil {
		t.Error("LoadConfig() with a missing explicit file should fail")
	}
}

func TestLoadConfigCORSFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")

	config, err := LoadConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(config.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", config.CORSOrigins, want)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad port", map[string]string{"PORT": "http"}, "PORT"},
		{"port out of range", map[string]string{"PORT": "70000"}, "PORT"},
		{"metrics port clash", map[string]string{"PORT": "9000", "METRICS_PORT": "9000"}, "METRICS_PORT"},
		{"bad level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"bad format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		{"zero size", map[string]string{"THUMBNAIL_SIZE": "0"}, "THUMBNAIL_SIZE"},
		{"quality too high", map[string]string{"THUMBNAIL_QUALITY": "101"}, "THUMBNAIL_QUALITY"},
		{"negative workers", map[string]string{"BUILD_WORKERS": "-1"}, "BUILD_WORKERS"},
		{"negative memory limit", map[string]string{"MEMORY_LIMIT": "-1"}, "MEMORY_LIMIT"},
		{"memory ratio above one", map[string]string{"MEMORY_RATIO": "1.5"}, "MEMORY_RATIO"},
		{"bad fallback", map[string]string{"CAPTURE_DATE_FALLBACK": "exif"}, "fallback"},
		{"output equals source", map[string]string{"SOURCE_DIR": "./images", "OUTPUT_DIR": "images/"}, "OUTPUT_DIR"},
		{"relative prefix", map[string]string{"THUMBNAIL_URL_PREFIX": "static/images"}, "THUMBNAIL_URL_PREFIX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig(nil)
			if err == nil {
				t.Fatal("LoadConfig() error = nil, want validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestMetricsPortIgnoredWhenDisabled(t *testing.T) {
	isolate(t)
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("METRICS_PORT", "8080")

	if _, err := LoadConfig(nil); err != nil {
		t.Errorf("LoadConfig() error = %v", err)
	}
}

func TestPrepareDirectories(t *testing.T) {
	dir := isolate(t)

	config, err := LoadConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := PrepareDirectories(config); err != nil {
		t.Fatalf("PrepareDirectories() error = %v", err)
	}

	wantSource := filepath.Join(dir, "images")
	if resolved, _ := filepath.EvalSymlinks(config.SourceDir); resolved != mustEval(t, wantSource) {
		t.Errorf("SourceDir = %q, want %q", config.SourceDir, wantSource)
	}
	for _, d := range []string{config.SourceDir, config.OutputDir} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Errorf("%s was not created", d)
		}
	}
	if _, err := os.Stat(filepath.Join(config.OutputDir, ".write-test")); !os.IsNotExist(err) {
		t.Error("write probe was left behind")
	}
}

func TestPrepareDirectoriesOutputIsFile(t *testing.T) {
	dir := isolate(t)
	blocker := filepath.Join(dir, "thumbs")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OUTPUT_DIR", blocker)

	config, err := LoadConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := PrepareDirectories(config); err == nil {
		t.Error("PrepareDirectories() error = nil, want not-a-directory error")
	}
}

func mustEval(t *testing.T, p string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		t.Fatal(err)
	}
	return resolved
}

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}
	router := mux.NewRouter()
	router.HandleFunc("/", noop).Methods(http.MethodGet).Name("gallery")
	router.HandleFunc("/api/reindex", noop).Methods(http.MethodPost)
	router.PathPrefix("/static/").HandlerFunc(noop)

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}

	want := []RouteInfo{
		{Method: http.MethodGet, Path: "/", Name: "gallery"},
		{Method: http.MethodPost, Path: "/api/reindex"},
		{Method: "*", Path: "/static/"},
	}
	if !reflect.DeepEqual(routes, want) {
		t.Errorf("GetRoutes() = %+v, want %+v", routes, want)
	}
}
