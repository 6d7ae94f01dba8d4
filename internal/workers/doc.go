/*
Package workers sizes the thumbnail worker pool used during a gallery build.

Go 1.19+ sets GOMAXPROCS from the container CPU limit, while runtime.NumCPU()
still reports host CPUs, so the counts here are derived from GOMAXPROCS:

	// Kubernetes pod limited to 2 CPUs on a 64-core node
	workers.ForMixed(8) // 3

ForBuild applies the BUILD_WORKERS setting. Zero selects the automatic mixed
workload count (decode, resize, then write), capped at DefaultBuildLimit
because each worker holds one decoded image.
*/
package workers
