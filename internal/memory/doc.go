// Package memory sizes the Go heap for containers and throttles thumbnail
// generation under memory pressure.
//
// [ApplyLimit] turns a container limit (MEMORY_LIMIT, typically injected
// through the Kubernetes Downward API) into a runtime soft limit, keeping
// MEMORY_RATIO of it for the heap. An explicit GOMEMLIMIT takes precedence.
//
// A [Monitor] samples heap allocation against that limit. Once usage
// reaches the critical mark, [Monitor.Wait] blocks new thumbnail work until
// usage drops below the resume mark.
package memory
