package memory

import (
	"context"
	"errors"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// ErrStopped is returned by Wait when the monitor shuts down while a caller
// is held back.
var ErrStopped = errors.New("memory monitor stopped")

// Config holds memory management configuration
type Config struct {
	// MemoryLimitBytes is the soft limit; 0 uses GOMEMLIMIT when set.
	MemoryLimitBytes int64

	// HighWaterMark is the usage ratio below which paused renders resume.
	HighWaterMark float64

	// CriticalWaterMark is the usage ratio at which new renders pause.
	CriticalWaterMark float64

	// CheckInterval is how often heap usage is sampled.
	CheckInterval time.Duration
}

// DefaultConfig returns sensible defaults for memory management
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     2 * time.Second,
	}
}

// Monitor samples heap usage and holds back renders while it is critical.
// A nil *Monitor never pauses.
type Monitor struct {
	config   Config
	limit    int64
	sampleFn func() uint64

	stop     chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	current uint64
	paused  bool
	resume  chan struct{}
}

// NewMonitor creates a new memory monitor
func NewMonitor(config Config) *Monitor {
	limit := config.MemoryLimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
		}
	}

	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, render backpressure disabled")
	} else {
		logging.Info("Memory monitor limit: %s", formatBytes(limit))
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		sampleFn: heapAlloc,
		stop:     make(chan struct{}),
		resume:   make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Start begins sampling. It does nothing without a limit.
func (m *Monitor) Start() {
	if m == nil || m.limit == 0 {
		return
	}
	go m.loop()
}

// Stop ends sampling and releases every waiting caller with ErrStopped.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stop:
			return
		}
	}
}

func (m *Monitor) sample() {
	alloc := m.sampleFn()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	if m.limit <= 0 {
		return
	}

	usage := float64(alloc) / float64(m.limit)
	metrics.RenderMemoryUsageRatio.Set(usage)

	switch {
	case !m.paused && usage >= m.config.CriticalWaterMark:
		logging.Warn("Memory critical (%.1f%% of limit), holding back renders", usage*100)
		m.paused = true
		metrics.RenderMemoryPaused.Set(1)
		metrics.RenderMemoryPauses.Inc()
		go runtime.GC()
	case m.paused && usage < m.config.HighWaterMark:
		logging.Info("Memory recovered (%.1f%% of limit), resuming renders", usage*100)
		m.paused = false
		metrics.RenderMemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// Wait returns once renders may proceed. It fails with the context's error
// if ctx ends first and with ErrStopped if the monitor stops.
func (m *Monitor) Wait(ctx context.Context) error {
	if m == nil {
		return ctx.Err()
	}

	m.mu.RLock()
	paused, resume := m.paused, m.resume
	m.mu.RUnlock()

	if !paused {
		return ctx.Err()
	}

	select {
	case <-resume:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stop:
		return ErrStopped
	}
}

// Paused reports whether new renders are being held back.
func (m *Monitor) Paused() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled heap usage as a fraction of the limit, or
// 0 without a limit.
func (m *Monitor) Usage() float64 {
	if m == nil || m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}

// Limit returns the byte limit the monitor compares against.
func (m *Monitor) Limit() int64 {
	if m == nil {
		return 0
	}
	return m.limit
}
