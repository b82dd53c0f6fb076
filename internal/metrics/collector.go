package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	ConvertSessions int
	TrimSessions    int
	PreviewsReady   int
	HistoryEntries  int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	done          chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection and waits for the loop to exit.
// It must only be called after Start.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	<-c.done
}

func (c *Collector) collectLoop() {
	defer close(c.done)

	// Collect immediately on start
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
	collectRuntime()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	SessionsActive.WithLabelValues(KindConvert).Set(float64(stats.ConvertSessions))
	SessionsActive.WithLabelValues(KindTrim).Set(float64(stats.TrimSessions))
	PreviewsReady.Set(float64(stats.PreviewsReady))
	HistoryEntries.Set(float64(stats.HistoryEntries))

	logging.Debug("Metrics collected: convert=%d, trim=%d, previews=%d, history=%d",
		stats.ConvertSessions, stats.TrimSessions, stats.PreviewsReady, stats.HistoryEntries)
}

func collectRuntime() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	GoMemAllocBytes.Set(float64(m.Alloc))
	GoMemSysBytes.Set(float64(m.Sys))
	GoGoroutines.Set(float64(runtime.NumGoroutine()))
}
