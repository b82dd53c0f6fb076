package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	stats Stats
	calls int
}

func (m *mockStatsProvider) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, 5*time.Second)

	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}
	if collector.statsProvider != provider {
		t.Error("statsProvider not set correctly")
	}
	if collector.interval != 5*time.Second {
		t.Errorf("interval = %v, want %v", collector.interval, 5*time.Second)
	}
	if collector.stopChan == nil {
		t.Error("stopChan not initialized")
	}
}

func TestCollectorStartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	provider := &mockStatsProvider{stats: Stats{ConvertSessions: 1}}
	collector := NewCollector(provider, 10*time.Millisecond)

	collector.Start()
	time.Sleep(50 * time.Millisecond)
	collector.Stop()

	if provider.callCount() < 2 {
		t.Errorf("GetStats called %d times, want at least 2", provider.callCount())
	}

	// Stop twice must not panic.
	collector.Stop()
}

func TestCollectUpdatesGauges(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		ConvertSessions: 3,
		TrimSessions:    2,
		PreviewsReady:   1,
		HistoryEntries:  9,
	}}
	collector := NewCollector(provider, time.Second)
	collector.collect()

	if got := testutil.ToFloat64(SessionsActive.WithLabelValues(KindConvert)); got != 3 {
		t.Errorf("convert sessions = %v, want 3", got)
	}
	if got := testutil.ToFloat64(SessionsActive.WithLabelValues(KindTrim)); got != 2 {
		t.Errorf("trim sessions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(HistoryEntries); got != 9 {
		t.Errorf("history entries = %v, want 9", got)
	}
	if got := testutil.ToFloat64(GoGoroutines); got <= 0 {
		t.Errorf("goroutines gauge = %v, want > 0", got)
	}
}

func TestCollectWithNilProvider(t *testing.T) {
	collector := NewCollector(nil, time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collect() panicked with nil provider: %v", r)
		}
	}()

	collector.collect()
}
