package handlers

import (
	"net/http"
	"runtime"
	"time"

	"photo-gallery/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Building bool   `json:"building"`

	// Build history
	Builds         int64  `json:"builds"`
	BuildFailures  int64  `json:"buildFailures"`
	LastBuild      string `json:"lastBuild,omitempty"`
	LastBuildError string `json:"lastBuildError,omitempty"`
	LastImages     int    `json:"lastImages"`

	CachedGalleries int `json:"cachedGalleries"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// readiness derives the service state from the build history. The first
// build in progress means starting; a failed last build means degraded,
// since the gallery page would fail too.
func (h *Handlers) readiness() (string, bool) {
	s := h.builds.Status()
	switch {
	case s.Building && s.Builds == 0:
		return statusStarting, false
	case s.LastError != "":
		return statusDegraded, false
	default:
		return statusHealthy, true
	}
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	s := h.builds.Status()
	status, ready := h.readiness()

	response := HealthResponse{
		Status:          status,
		Ready:           ready,
		Version:         startup.Version,
		Uptime:          time.Since(h.started).Round(time.Second).String(),
		Building:        s.Building,
		Builds:          s.Builds,
		BuildFailures:   s.Failures,
		LastBuildError:  s.LastError,
		LastImages:      s.LastImages,
		CachedGalleries: h.cache.Len(),
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}
	if !s.LastBuild.IsZero() {
		response.LastBuild = s.LastBuild.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}

// LivenessCheck returns 200 while the process can serve requests
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only when the gallery can be served
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if _, ready := h.readiness(); !ready {
		writeJSONError(w, "not_ready", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, "ready")
}
