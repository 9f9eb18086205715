// Package monitor drives periodic keyword ranking checks.
//
// A Monitor sweeps the configured keyword×domain matrix (one sweep is a
// "cycle"): each pair is probed through the injected Prober, the resulting
// observation is appended to the store, and the new observation is compared
// against the previous one for the same pair to detect position changes.
// Pairs are processed sequentially with a courtesy delay between probes so
// the provider is never hammered.
//
// Lifecycle: a Monitor is created idle, configured once, then either
// started (background loop until Stop) or driven with RunOnce. Stop is
// idempotent and safe to call from a signal handler. The stop signal is
// honoured between pairs: an in-flight probe finishes and its observation
// is persisted, but no further pairs start and any wait ends immediately.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/rankwatch/serp"
	"github.com/hazyhaar/rankwatch/store"
)

// Configuration errors, surfaced before any probing begins.
var (
	ErrNoKeywords    = errors.New("monitor: no keywords configured")
	ErrNoDomains     = errors.New("monitor: no domains configured")
	ErrNotConfigured = errors.New("monitor: Configure must be called first")
	ErrStopped       = errors.New("monitor: already stopped")
)

// Prober executes one search query against the ranking provider.
// *serp.Client satisfies this; tests substitute stubs.
type Prober interface {
	Search(ctx context.Context, query string, params map[string]string) (*serp.Response, error)
}

// State is the monitor lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// Config tunes the monitor loop.
type Config struct {
	// Interval is the pause between cycles. Default: 1 hour.
	Interval time.Duration
	// ProbeDelay is the courtesy delay between consecutive probes within
	// a cycle. Default: 1 second.
	ProbeDelay time.Duration
	// StopGrace bounds how long Stop waits for the loop to exit.
	// Default: 5 seconds.
	StopGrace time.Duration
}

func (c *Config) defaults() {
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	if c.ProbeDelay <= 0 {
		c.ProbeDelay = time.Second
	}
	if c.StopGrace <= 0 {
		c.StopGrace = 5 * time.Second
	}
}

// defaultSearchParams are merged under configured overrides.
var defaultSearchParams = map[string]string{
	"engine":        "google",
	"google_domain": "google.com",
	"gl":            "us",
	"hl":            "en",
	"location":      "United States",
}

// Monitor owns the keyword×domain matrix and the polling loop.
type Monitor struct {
	store  *store.Store
	prober Prober
	config Config
	logger *slog.Logger

	mu           sync.Mutex
	state        State
	keywords     []string
	domains      []string
	searchParams map[string]string
	onChange     func(*RankChange)
	stopCh       chan struct{}
	done         chan struct{}
}

// New creates a Monitor. The store and prober are required collaborators;
// a nil logger falls back to slog.Default().
func New(st *store.Store, prober Prober, cfg Config, logger *slog.Logger) *Monitor {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		store:  st,
		prober: prober,
		config: cfg,
		logger: logger,
	}
}

// Configure sets the keyword×domain matrix and search parameters.
// Overrides win over the built-in defaults on key collision. Must be
// called before Start or RunOnce; empty sets are rejected before any
// network call happens.
func (m *Monitor) Configure(keywords, domains []string, overrides map[string]string) error {
	if len(keywords) == 0 {
		return ErrNoKeywords
	}
	if len(domains) == 0 {
		return ErrNoDomains
	}

	params := make(map[string]string, len(defaultSearchParams)+len(overrides))
	for k, v := range defaultSearchParams {
		params[k] = v
	}
	for k, v := range overrides {
		params[k] = v
	}

	m.mu.Lock()
	m.keywords = append([]string(nil), keywords...)
	m.domains = append([]string(nil), domains...)
	m.searchParams = params
	m.mu.Unlock()

	m.logger.Info("monitor: configured",
		"keywords", len(keywords), "domains", len(domains),
		"interval", m.config.Interval)
	return nil
}

// OnChange registers the rank change listener. At most one listener is
// held; the last registration wins. Register before Start: the listener
// reference is shared with the background loop.
func (m *Monitor) OnChange(fn func(*RankChange)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start launches the background monitoring loop. When runImmediately is
// set, one cycle executes synchronously before the loop starts. Calling
// Start on a running monitor is a warned no-op.
func (m *Monitor) Start(runImmediately bool) error {
	m.mu.Lock()
	switch m.state {
	case StateRunning:
		m.mu.Unlock()
		m.logger.Warn("monitor: already running")
		return nil
	case StateStopped:
		m.mu.Unlock()
		return ErrStopped
	}
	if len(m.keywords) == 0 || len(m.domains) == 0 {
		m.mu.Unlock()
		return ErrNotConfigured
	}
	m.state = StateRunning
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})
	stopCh, done := m.stopCh, m.done
	m.mu.Unlock()

	if runImmediately {
		m.logger.Info("monitor: running initial cycle")
		m.runCycle(context.Background())
	}

	go m.loop(stopCh, done)
	m.logger.Info("monitor: started", "interval", m.config.Interval)
	return nil
}

// Stop signals the loop, waits for it to exit within the grace period and
// marks the monitor stopped. Idempotent; calling Stop on an idle monitor
// is an informational no-op. Safe to call from a signal handling context.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		m.logger.Info("monitor: not running")
		return
	}
	m.state = StateStopped
	stopCh, done := m.stopCh, m.done
	m.mu.Unlock()

	m.logger.Info("monitor: stopping")
	close(stopCh)

	select {
	case <-done:
	case <-time.After(m.config.StopGrace):
		m.logger.Warn("monitor: loop did not exit within grace period",
			"grace", m.config.StopGrace)
	}
	m.logger.Info("monitor: stopped")
}

// RunOnce executes exactly one full cycle synchronously. It does not start
// background scheduling.
func (m *Monitor) RunOnce(ctx context.Context) error {
	m.mu.Lock()
	configured := len(m.keywords) > 0 && len(m.domains) > 0
	m.mu.Unlock()
	if !configured {
		return ErrNotConfigured
	}
	m.runCycle(ctx)
	return nil
}

// loop runs cycles separated by interruptible interval waits.
func (m *Monitor) loop(stopCh, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(m.config.Interval)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		m.runCycle(context.Background())

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(m.config.Interval)

		select {
		case <-stopCh:
			return
		case <-timer.C:
		}
	}
}

// runCycle sweeps the whole matrix in keyword-major, domain-minor order.
// One pair's failure never aborts the cycle.
func (m *Monitor) runCycle(ctx context.Context) {
	m.mu.Lock()
	keywords := m.keywords
	domains := m.domains
	m.mu.Unlock()

	start := time.Now()
	m.logger.Info("monitor: cycle start",
		"pairs", len(keywords)*len(domains))

	for _, keyword := range keywords {
		for _, domain := range domains {
			if ctx.Err() != nil || m.stopRequested() {
				m.logger.Info("monitor: cycle interrupted",
					"keyword", keyword, "domain", domain)
				return
			}
			m.checkPair(ctx, keyword, domain)
			m.pause(ctx, m.config.ProbeDelay)
		}
	}

	m.logger.Info("monitor: cycle complete", "elapsed", time.Since(start))
}

// checkPair probes one (keyword, domain) pair, persists the observation
// and runs change detection on it. Errors are logged and the pair is
// skipped; the cycle continues.
func (m *Monitor) checkPair(ctx context.Context, keyword, domain string) {
	obs := m.checkDomainRanking(ctx, keyword, domain)

	if _, err := m.store.InsertRanking(ctx, obs); err != nil {
		m.logger.Error("monitor: save ranking",
			"keyword", keyword, "domain", domain, "error", err)
		return
	}

	change, err := m.detectChange(ctx, keyword, domain)
	if err != nil {
		m.logger.Error("monitor: detect change",
			"keyword", keyword, "domain", domain, "error", err)
		return
	}
	if change == nil {
		return
	}

	m.logger.Info("monitor: ranking changed",
		"keyword", keyword, "domain", domain,
		"previous", positionAttr(change.PreviousPosition),
		"current", positionAttr(change.CurrentPosition))

	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn(change)
	}
}

// stopRequested reports whether Stop has been signalled. False before the
// loop has ever been started.
func (m *Monitor) stopRequested() bool {
	m.mu.Lock()
	ch := m.stopCh
	m.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// pause sleeps for d, waking early on stop or context cancellation.
func (m *Monitor) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	stopCh := m.stopCh
	m.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-stopCh:
	case <-timer.C:
	}
}

func positionAttr(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
