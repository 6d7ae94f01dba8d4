/*
Package filesystem wraps the handful of filesystem calls the gallery makes
(stat, open, readdir, remove, create) with retry logic for NFS stale file
handle errors.

Image libraries are often mounted over NFS. A build that trips over ESTALE
halfway through would abort the whole gallery, so every call the indexer and
thumbnailer make goes through here:

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())

Only ESTALE triggers a retry. Backoff doubles from InitialBackoff up to
MaxBackoff (defaults: 3 retries, 50ms, 500ms). Anything else fails at once.

Metrics are reported through an Observer installed with SetObserver, labelled
with a volume name from a VolumeResolver ("source", "output", "static").
*/
package filesystem
