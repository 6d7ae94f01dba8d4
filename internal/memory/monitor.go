package memory

import (
	"context"
	"runtime"
	"sync"
	"time"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
)

// Config holds memory monitor configuration
type Config struct {
	// LimitBytes is the limit usage is measured against. Zero means the
	// runtime soft limit, if any.
	LimitBytes int64
	// CriticalWaterMark is the usage ratio at which new thumbnails wait.
	CriticalWaterMark float64
	// ResumeWaterMark is the usage ratio below which they continue.
	ResumeWaterMark float64
	CheckInterval   time.Duration
}

// DefaultConfig returns the monitor settings used by the server.
func DefaultConfig() Config {
	return Config{
		CriticalWaterMark: 0.85,
		ResumeWaterMark:   0.7,
		CheckInterval:     2 * time.Second,
	}
}

// Monitor samples heap usage and holds back thumbnail workers while it is
// above the critical mark.
type Monitor struct {
	config Config
	limit  int64

	stopOnce sync.Once
	stop     chan struct{}

	mu      sync.Mutex
	current uint64
	paused  bool
	resume  chan struct{}
}

// NewMonitor creates a monitor. Without any limit it never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		limit = CurrentLimit()
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, backpressure disabled")
	} else {
		logging.Info("Memory monitor: pausing thumbnails above %.0f%% of %s", config.CriticalWaterMark*100, FormatBytes(limit))
	}
	return &Monitor{
		config: config,
		limit:  limit,
		stop:   make(chan struct{}),
		resume: make(chan struct{}),
	}
}

// Start begins sampling. It does nothing when there is no limit.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.loop()
}

// Stop ends sampling and releases any waiting workers.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			m.observe(stats.Alloc)
		case <-m.stop:
			return
		}
	}
}

// observe records one heap sample and flips the paused state at the marks.
func (m *Monitor) observe(alloc uint64) {
	if m.limit == 0 {
		return
	}
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc

	switch {
	case !m.paused && usage >= m.config.CriticalWaterMark:
		logging.Warn("Memory critical (%.1f%% of limit), pausing thumbnail generation", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		go runtime.GC()
	case m.paused && usage < m.config.ResumeWaterMark:
		logging.Info("Memory recovered (%.1f%% of limit), resuming thumbnail generation", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// Wait blocks while usage is critical. It returns ctx.Err() if ctx ends
// first and nil once work may proceed or the monitor is stopped.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.Lock()
	if !m.paused {
		m.mu.Unlock()
		return nil
	}
	resume := m.resume
	m.mu.Unlock()

	select {
	case <-resume:
		return nil
	case <-m.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether workers are currently held back.
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Usage returns the last sampled heap allocation as a fraction of the limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.current) / float64(m.limit)
}
