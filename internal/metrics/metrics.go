package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPNotModifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_http_not_modified_total",
			Help: "Responses answered with 304 Not Modified from the gallery ETag",
		},
		[]string{"path"},
	)
)

// Gallery build metrics
var (
	GalleryBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_builds_total",
			Help: "Gallery builds by outcome",
		},
		[]string{"status"}, // success, missing_date, decode_error, error
	)

	GalleryBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_build_duration_seconds",
			Help:    "Time to scan, thumbnail and group a source directory",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	GalleryBuildInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_build_in_progress",
			Help: "1 while a gallery build holds the output directory",
		},
	)

	GalleryLastBuildTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_last_build_timestamp_seconds",
			Help: "Unix time of the last successful build",
		},
	)

	GalleryImagesIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_images_indexed",
			Help: "Images in the most recent successful build",
		},
	)

	GalleryDateGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_date_groups",
			Help: "Distinct capture dates in the most recent successful build",
		},
	)

	GalleryFilesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_output_files_purged_total",
			Help: "Files removed from the output directory before rebuilds",
		},
	)

	GalleryFallbackDates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_fallback_dates_total",
			Help: "Images dated by modification time because EXIF DateTime was absent",
		},
	)
)

// Cache metrics
var (
	GalleryCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_cache_lookups_total",
			Help: "Gallery cache lookups by result",
		},
		[]string{"result"}, // hit, miss, shared
	)

	GalleryCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_cache_entries",
			Help: "Number of memoized gallery indexes",
		},
	)

	GalleryCacheImages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_cache_images",
			Help: "Total images across all memoized gallery indexes",
		},
	)

	GalleryCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_cache_invalidations_total",
			Help: "Explicit cache invalidations (reindex requests and resets)",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnails_generated_total",
			Help: "Thumbnails written, by source format",
		},
		[]string{"format", "status"},
	)

	ThumbnailDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_thumbnail_duration_seconds",
			Help:    "Thumbnail generation time by phase",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"phase"}, // decode, resize, encode
	)

	ThumbnailBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnail_bytes_written_total",
			Help: "Bytes of JPEG thumbnail data written",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_filesystem_operation_errors_total",
			Help: "Filesystem operation errors by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_filesystem_retry_attempts_total",
			Help: "Retries after NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_filesystem_retry_success_total",
			Help: "Operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors seen",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_filesystem_retry_duration_seconds",
			Help:    "Total time spent in an operation including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Application metrics
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_gallery_app_info",
			Help: "Build information, value is always 1",
		},
		[]string{"version", "commit", "go_version"},
	)

	AppStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_app_start_time_seconds",
			Help: "Unix time the process started serving",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_memory_paused",
			Help: "1 while thumbnail generation is paused for memory pressure",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_memory_pauses_total",
			Help: "Times thumbnail generation was paused for memory pressure",
		},
	)
)
