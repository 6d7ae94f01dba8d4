package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"photo-gallery/internal/indexer"
	"photo-gallery/internal/startup"
	"photo-gallery/internal/views"
)

// GalleryCache is the memoized gallery lookup the handlers read through.
type GalleryCache interface {
	Get(ctx context.Context, sourceDir string) (indexer.Index, error)
	Invalidate(sourceDir string)
	Len() int
}

// BuildStatus reports on the builds behind the cache.
type BuildStatus interface {
	Status() indexer.Status
}

// Handlers serves the gallery page, its JSON API and the service endpoints.
type Handlers struct {
	cache     GalleryCache
	builds    BuildStatus
	renderer  *views.Renderer
	sourceDir string
	title     string
	started   time.Time
}

// New creates the handlers for the source directory named in config.
func New(cache GalleryCache, builds BuildStatus, renderer *views.Renderer, config *startup.Config) *Handlers {
	return &Handlers{
		cache:     cache,
		builds:    builds,
		renderer:  renderer,
		sourceDir: config.SourceDir,
		title:     config.SiteTitle,
		started:   time.Now(),
	}
}

// gallery returns the cached index, creating an absent source directory so
// a fresh install shows an empty gallery instead of an error.
func (h *Handlers) gallery(ctx context.Context) (indexer.Index, error) {
	if err := os.MkdirAll(h.sourceDir, 0o755); err != nil {
		return nil, fmt.Errorf("create source directory: %w", err)
	}
	return h.cache.Get(ctx, h.sourceDir)
}
