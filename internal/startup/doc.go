// Package startup handles configuration loading and lifecycle logging.
//
// # Configuration
//
// [LoadConfig] layers, lowest precedence first: built-in defaults, an
// optional YAML file (./config.yaml or --config), environment variables and
// the --source, --output, --port and --log-level flags. Keys:
//
//   - SOURCE_DIR: directory scanned for .jpg and .png files (default: ./images)
//   - OUTPUT_DIR: thumbnail directory, purged on every build (default: ./static/images)
//   - STATIC_DIR: served under /static/ (default: ./static)
//   - VIEWS_DIR: pug templates (default: ./views)
//   - THUMBNAIL_URL_PREFIX: URL path of OUTPUT_DIR (default: /static/images)
//   - PORT, METRICS_PORT, METRICS_ENABLED: listeners (default: 8080, 9090, true)
//   - LOG_LEVEL, LOG_FORMAT: debug|info|warn|error and text|json
//   - LOG_STATIC_FILES, LOG_HEALTH_CHECKS: access log filtering
//   - THUMBNAIL_SIZE, THUMBNAIL_QUALITY: bounding box and JPEG quality (default: 300, 80)
//   - CAPTURE_DATE_FALLBACK: none or modtime (default: none)
//   - BUILD_WORKERS: concurrent thumbnails per build, 0 picks from CPU count
//   - WARM_CACHE: build the gallery at startup
//   - MEMORY_LIMIT, MEMORY_RATIO: container limit in bytes and the share given
//     to GOMEMLIMIT; thumbnail workers pause near the limit (default: 0, 0.85)
//   - CORS_ORIGINS: comma-separated origins allowed on /api/
//   - SITE_TITLE, RELOAD_TEMPLATES: page title and template reloading
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
