package imagesync

import (
	"context"
	"sync"
	"time"

	"github.com/Wysakm/weather-app-backend-sub001/internal/logger"
)

// DefaultInterval is the default time between analysis runs in serve mode.
const DefaultInterval = 15 * time.Minute

// Monitor runs read-only analysis passes on a fixed interval and caches the
// latest report. It never mutates either store.
//
// Thread safety: the run goroutine swaps the cached report under mu; readers
// get a pointer to an immutable Report.
type Monitor struct {
	engine *Engine

	mu        sync.RWMutex
	latest    *Report
	lastErr   error
	lastRunAt time.Time

	interval time.Duration
	started  bool
	resetCh  chan time.Duration
	stopCh   chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a monitor. A non-positive interval uses DefaultInterval.
func NewMonitor(engine *Engine, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		engine:   engine,
		interval: interval,
		resetCh:  make(chan time.Duration, 1),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval, until Stop is
// called or ctx is cancelled. Only the first call starts a loop.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	go func() {
		defer close(m.stopped)

		m.RunOnce(ctx)

		ticker := time.NewTicker(m.Interval())
		defer ticker.Stop()

		logger.Info("Image sync monitor started", "interval", m.Interval())

		for {
			select {
			case <-ctx.Done():
				logger.Debug("Image sync monitor stopping (context cancelled)")
				return
			case <-m.stopCh:
				logger.Debug("Image sync monitor stopping (stop signal)")
				return
			case d := <-m.resetCh:
				ticker.Reset(d)
				logger.Info("Image sync monitor interval changed", "interval", d)
			case <-ticker.C:
				m.RunOnce(ctx)
			}
		}
	}()
}

// Stop signals the run goroutine to exit and waits for it. It returns
// immediately on a monitor that was never started.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })

	m.mu.RLock()
	started := m.started
	m.mu.RUnlock()
	if started {
		<-m.stopped
	}
}

// SetInterval changes the interval of a running monitor.
func (m *Monitor) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if d == m.interval {
		return
	}
	m.interval = d

	// Senders are serialized by mu, so after the drain the buffer has room.
	// Only the newest pending interval is kept.
	select {
	case <-m.resetCh:
	default:
	}
	m.resetCh <- d
}

// Interval returns the current interval.
func (m *Monitor) Interval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.interval
}

// RunOnce performs one analysis pass and caches its outcome.
func (m *Monitor) RunOnce(ctx context.Context) {
	report, err := m.engine.Analyze(ctx)
	if err != nil {
		logger.Warn("Image sync monitor: analysis failed", logger.KeyError, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRunAt = time.Now()
	m.lastErr = err
	if err == nil {
		m.latest = report
	}
}

// Latest returns the last successful report, when the most recent run
// finished, and that run's error (nil if it succeeded). The report is nil
// until a run has succeeded.
func (m *Monitor) Latest() (*Report, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.lastRunAt, m.lastErr
}
