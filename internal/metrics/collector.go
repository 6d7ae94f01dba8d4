package metrics

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"photo-gallery/internal/logging"
)

// Output directory gauges, refreshed by the Collector.
var (
	OutputDirFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_output_dir_files",
			Help: "Regular files currently in the thumbnail output directory",
		},
	)

	OutputDirBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_output_dir_bytes",
			Help: "Total size of the thumbnail output directory",
		},
	)
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	Stats() Stats
}

// Stats holds the current cache statistics
type Stats struct {
	CachedGalleries int
	CachedImages    int
}

// Collector periodically refreshes gauges that are cheaper to poll than to
// maintain on every request.
type Collector struct {
	statsProvider StatsProvider
	outputDir     string
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector. outputDir may be empty.
func NewCollector(provider StatsProvider, outputDir string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		outputDir:     outputDir,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectOutputDir()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.Stats()
	GalleryCacheEntries.Set(float64(stats.CachedGalleries))
	GalleryCacheImages.Set(float64(stats.CachedImages))

	logging.Debug("Metrics collected: galleries=%d, images=%d", stats.CachedGalleries, stats.CachedImages)
}

func (c *Collector) collectOutputDir() {
	if c.outputDir == "" {
		return
	}

	files, size, err := dirUsage(c.outputDir)
	if err != nil {
		logging.Debug("Output directory not readable for metrics: %v", err)
		return
	}
	OutputDirFiles.Set(float64(files))
	OutputDirBytes.Set(float64(size))
}

// dirUsage counts regular files directly inside dir and sums their sizes.
func dirUsage(dir string) (files int, size int64, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, err
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		files++
		size += info.Size()
	}
	return files, size, nil
}
