// Package metrics provides Prometheus instrumentation for the photo gallery.
//
// All metrics are prefixed with "photo_gallery_" and registered on the
// default registry through promauto. They are served on a separate port by
// the serve command.
//
// # Metric Categories
//
//   - HTTP: request counts, durations, in-flight requests and 304 responses.
//   - Gallery builds: outcome counts, duration, images and date groups of the
//     last build, purged output files, modification-time fallbacks.
//   - Cache: lookups by result (hit, miss, shared), entries and images held.
//   - Thumbnails: generated count by source format, per-phase durations.
//   - Filesystem: operation durations and NFS retry counters, recorded via
//     the filesystem.Observer returned by NewFilesystemObserver.
//   - Memory: heap usage against the soft limit and thumbnail pauses.
//
// InitializeMetrics pre-creates every label combination so dashboards see
// zeros instead of gaps. The Collector polls cache statistics and the size
// of the output directory on an interval.
package metrics
