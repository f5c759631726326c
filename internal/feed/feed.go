// Package feed simulates a live stream of hazard reports.
//
// A Feed holds a report array and a list of listeners. While at least one
// listener is subscribed, a ticker mutates the array and hands every
// listener a fresh copy. With no listeners the ticker is stopped.
package feed

import (
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-ocean-hazards/internal/geo"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/observability"
)

const (
	DefaultInterval       = 30 * time.Second
	DefaultMutationChance = 0.1
	DefaultAppendChance   = 0.2
	DefaultMaxReports     = 200
)

// Listener receives the full report array after every tick. It runs on the
// feed's goroutine, so it should not block for long.
type Listener func(reports []models.HazardReport)

// Fabricator produces new reports for the feed. *synthetic.Generator
// satisfies it.
type Fabricator interface {
	Report(site geo.Site) models.HazardReport
	RandomSite() geo.Site
}

type Config struct {
	Interval       time.Duration
	MutationChance float64
	AppendChance   float64
	MaxReports     int
	Seed           uint64
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxReports <= 0 {
		c.MaxReports = DefaultMaxReports
	}
	return c
}

type listenerEntry struct {
	id uint64
	fn Listener
}

type Feed struct {
	cfg     Config
	fab     Fabricator
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu        sync.Mutex
	rng       *rand.Rand
	reports   []models.HazardReport
	listeners []listenerEntry
	nextID    uint64
	stop      chan struct{}
	closed    bool
	wg        sync.WaitGroup
}

// New builds a feed. Zero chances in cfg mean "never"; use DefaultConfig for
// the stock simulation rates. metrics may be nil.
func New(cfg Config, fab Fabricator, clock clockwork.Clock, metrics *observability.Metrics) *Feed {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cfg = cfg.withDefaults()
	return &Feed{
		cfg:     cfg,
		fab:     fab,
		clock:   clock,
		metrics: metrics,
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1)),
	}
}

func DefaultConfig() Config {
	return Config{
		Interval:       DefaultInterval,
		MutationChance: DefaultMutationChance,
		AppendChance:   DefaultAppendChance,
		MaxReports:     DefaultMaxReports,
		Seed:           uint64(time.Now().UnixNano()),
	}
}

// Load replaces the report array, keeping at most MaxReports of the newest.
// The array is held oldest first whatever order reports arrive in.
func (f *Feed) Load(reports []models.HazardReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = slices.Clone(reports)
	slices.SortStableFunc(f.reports, func(a, b models.HazardReport) int {
		return a.ReportedAt.Compare(b.ReportedAt)
	})
	f.trim()
}

func (f *Feed) Snapshot() []models.HazardReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.reports)
}

// Subscribe registers fn and starts the ticker if it was idle. The returned
// func removes fn and may be called more than once, including from inside fn.
func (f *Feed) Subscribe(fn Listener) func() {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.listeners = append(f.listeners, listenerEntry{id: id, fn: fn})
	if f.stop == nil && !f.closed {
		f.start()
	}
	count := len(f.listeners)
	f.mu.Unlock()

	f.setSubscribers(count)

	var once sync.Once
	return func() {
		once.Do(func() { f.unsubscribe(id) })
	}
}

func (f *Feed) unsubscribe(id uint64) {
	f.mu.Lock()
	f.listeners = slices.DeleteFunc(f.listeners, func(l listenerEntry) bool { return l.id == id })
	if len(f.listeners) == 0 && f.stop != nil {
		close(f.stop)
		f.stop = nil
		slog.Debug("feed idle, ticker stopped")
	}
	count := len(f.listeners)
	f.mu.Unlock()

	f.setSubscribers(count)
}

// Running reports whether the ticker is active.
func (f *Feed) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stop != nil
}

// Close stops the ticker, drops all listeners and waits for the tick
// goroutine. It must not be called from a listener.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	if f.stop != nil {
		close(f.stop)
		f.stop = nil
	}
	f.listeners = nil
	f.mu.Unlock()

	f.wg.Wait()
	f.setSubscribers(0)
}

// start must be called with mu held.
func (f *Feed) start() {
	stop := make(chan struct{})
	f.stop = stop
	ticker := f.clock.NewTicker(f.cfg.Interval)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer ticker.Stop()
		slog.Debug("feed ticker started", "interval", f.cfg.Interval)

		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				f.tick()
			}
		}
	}()
}

func (f *Feed) tick() {
	f.mu.Lock()
	now := f.clock.Now()
	mutated := 0
	for i := range f.reports {
		if f.rng.Float64() >= f.cfg.MutationChance {
			continue
		}
		next := f.reports[i].Status.NextStatuses()
		if len(next) == 0 {
			continue
		}
		f.reports[i].Status = next[f.rng.IntN(len(next))]
		f.reports[i].UpdatedAt = now
		mutated++
	}

	appended := false
	if f.fab != nil && f.rng.Float64() < f.cfg.AppendChance {
		r := f.fab.Report(f.fab.RandomSite())
		r.Source = "feed"
		r.ReportedAt, r.UpdatedAt = now, now
		f.reports = append(f.reports, r)
		f.trim()
		appended = true
	}

	snapshot := f.reports
	listeners := slices.Clone(f.listeners)
	copies := make([][]models.HazardReport, len(listeners))
	for i := range copies {
		copies[i] = slices.Clone(snapshot)
	}
	f.mu.Unlock()

	if f.metrics != nil {
		f.metrics.FeedTicks.Inc()
	}
	slog.Debug("feed tick", "reports", len(snapshot), "mutated", mutated, "appended", appended, "listeners", len(listeners))

	for i, l := range listeners {
		l.fn(copies[i])
	}
}

// trim must be called with mu held.
func (f *Feed) trim() {
	if over := len(f.reports) - f.cfg.MaxReports; over > 0 {
		f.reports = slices.Delete(f.reports, 0, over)
	}
}

func (f *Feed) setSubscribers(n int) {
	if f.metrics != nil {
		f.metrics.FeedSubscribers.Set(float64(n))
	}
}
