package metrics

import "photo-gallery/internal/filesystem"

// Volumes are the labels the VolumeResolver is configured with at startup.
var Volumes = []string{"source", "output", "static", "unknown"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, vol := range Volumes {
		for _, op := range filesystem.Operations() {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, status := range []string{"success", "missing_date", "decode_error", "error"} {
		GalleryBuildsTotal.WithLabelValues(status)
	}

	for _, result := range []string{"hit", "miss", "shared"} {
		GalleryCacheLookups.WithLabelValues(result)
	}

	for _, format := range []string{"jpeg", "png"} {
		ThumbnailsGenerated.WithLabelValues(format, "success")
		ThumbnailsGenerated.WithLabelValues(format, "error")
	}

	for _, phase := range []string{"decode", "resize", "encode"} {
		ThumbnailDuration.WithLabelValues(phase)
	}
}
