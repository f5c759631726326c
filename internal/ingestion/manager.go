package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-ocean-hazards/internal/config"
	"github.com/mr1hm/go-ocean-hazards/internal/geocode"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/observability"
	"github.com/mr1hm/go-ocean-hazards/internal/repository"
	"github.com/mr1hm/go-ocean-hazards/internal/worker"
)

// ErrQueueFull means a report could not be queued before the caller gave up.
var ErrQueueFull = errors.New("ingestion queue full")

// Dispatcher receives an event for every newly stored report.
// *alerting.Alerter satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev *models.ReportEvent)
}

type Manager struct {
	cfg        *config.Config
	repo       repository.ReportRepository
	geocoder   geocode.Geocoder
	dispatcher Dispatcher
	metrics    *observability.Metrics
	clock      clockwork.Clock
	httpClient *http.Client
	pool       *worker.Pool[*models.HazardReport]
	wg         sync.WaitGroup
}

// NewManager wires the ingestion pipeline. geocoder, dispatcher and metrics
// may be nil.
func NewManager(cfg *config.Config, repo repository.ReportRepository, geocoder geocode.Geocoder, dispatcher Dispatcher, metrics *observability.Metrics) *Manager {
	return &Manager{
		cfg:        cfg,
		repo:       repo,
		geocoder:   geocoder,
		dispatcher: dispatcher,
		metrics:    metrics,
		clock:      clockwork.NewRealClock(),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.pool = worker.NewPool("ingestion", m.cfg.Worker.Count, m.cfg.Worker.BufferSize, m.process)
	m.pool.Start(ctx)

	// Start USGS poller if enabled
	if m.cfg.Sources.USGSEnabled {
		m.wg.Add(1)
		go m.runPoller(ctx, sourceUSGS, m.cfg.Sources.USGSURL, m.cfg.Sources.USGSPollInterval)
	}

	// Start GDACS poller if enabled
	if m.cfg.Sources.GDACSEnabled {
		m.wg.Add(1)
		go m.runPoller(ctx, sourceGDACS, m.cfg.Sources.GDACSURL, m.cfg.Sources.GDACSPollInterval)
	}
}

// Submit queues a report, blocking until there is room or ctx is done.
func (m *Manager) Submit(ctx context.Context, r *models.HazardReport) error {
	err := m.pool.Submit(ctx, r)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrQueueFull
	default:
		return fmt.Errorf("error submitting report %s: %w", r.ID, err)
	}
}

func (m *Manager) Pending() int {
	return m.pool.Pending()
}

func (m *Manager) process(ctx context.Context, r *models.HazardReport) error {
	if err := r.Validate(); err != nil {
		m.record("invalid")
		slog.Warn("dropping invalid report", "id", r.ID, "source", r.Source, "error", err)
		return err
	}

	exists, err := m.repo.Exists(ctx, r.ID)
	if err != nil {
		m.record("error")
		slog.Error("error checking existence", "id", r.ID, "error", err)
		return err
	}
	if exists {
		m.record("duplicate")
		return nil
	}

	if m.cfg.Geocode.Enabled {
		geocode.Enrich(ctx, m.geocoder, r)
	}

	if err := m.repo.Add(ctx, r); err != nil {
		m.record("error")
		slog.Error("error adding report", "id", r.ID, "error", err)
		return err
	}
	m.record("stored")

	if m.dispatcher != nil {
		m.dispatcher.Dispatch(ctx, &models.ReportEvent{
			Kind:   models.EventCreated,
			Report: *r,
			At:     m.clock.Now(),
		})
	}

	slog.Info("added report", "id", r.ID, "type", r.Type, "severity", r.Severity, "source", r.Source)
	return nil
}

func (m *Manager) record(outcome string) {
	if m.metrics != nil {
		m.metrics.ReportsProcessed.WithLabelValues(outcome).Inc()
	}
}

func (m *Manager) runPoller(ctx context.Context, source, url string, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting poller", "source", source, "interval", interval)

	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	// Initial poll
	m.poll(ctx, source, url)

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down", "source", source)
			return
		case <-ticker.Chan():
			m.poll(ctx, source, url)
		}
	}
}

func (m *Manager) poll(ctx context.Context, source, url string) int {
	slog.Debug("polling", "source", source)

	body, err := m.fetch(ctx, url)
	if err != nil {
		slog.Error("poll failed", "source", source, "error", err)
		return 0
	}
	defer body.Close()

	var reports []*models.HazardReport
	now := m.clock.Now()
	switch source {
	case sourceUSGS:
		reports, err = parseUSGS(body, now)
	case sourceGDACS:
		reports, err = parseGDACS(body, now)
	default:
		err = fmt.Errorf("unknown source %q", source)
	}
	if err != nil {
		slog.Error("poll failed", "source", source, "error", err)
		return 0
	}

	queued := 0
	for _, r := range reports {
		if err := m.pool.Submit(ctx, r); err != nil {
			slog.Warn("failed to queue polled report", "source", source, "id", r.ID, "error", err)
			break
		}
		queued++
	}

	slog.Debug("poll complete", "source", source, "count", len(reports), "queued", queued)
	return queued
}

func (m *Manager) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

func (m *Manager) Stop() {
	m.wg.Wait()
	m.pool.Stop()
	slog.Info("ingestion manager stopped")
}
