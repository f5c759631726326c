package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/mr1hm/go-ocean-hazards/internal/config"
	"github.com/mr1hm/go-ocean-hazards/internal/geocode"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/observability"
	"github.com/mr1hm/go-ocean-hazards/internal/repository"
	"github.com/mr1hm/go-ocean-hazards/internal/worker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockReportRepo implements repository.ReportRepository for testing
type mockReportRepo struct {
	mu       sync.Mutex
	reports  map[string]*models.HazardReport
	addCount atomic.Int64
	addErr   error
}

func newMockRepo() *mockReportRepo {
	return &mockReportRepo{
		reports: make(map[string]*models.HazardReport),
	}
}

func (m *mockReportRepo) Add(ctx context.Context, r *models.HazardReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.reports[r.ID] = r
	m.addCount.Add(1)
	return nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id string) (*models.HazardReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports[id], nil
}

func (m *mockReportRepo) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.reports[id]
	return exists, nil
}

func (m *mockReportRepo) List(ctx context.Context, opts repository.Filter) ([]models.HazardReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.HazardReport
	for _, r := range m.reports {
		results = append(results, *r)
	}
	return results, nil
}

func (m *mockReportRepo) UpdateStatus(ctx context.Context, id string, from, to models.Status, at time.Time) error {
	return nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []*models.ReportEvent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev *models.ReportEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

type stubGeocoder struct {
	calls atomic.Int32
}

func (s *stubGeocoder) Reverse(_ context.Context, _, _ float64) (geocode.Result, error) {
	s.calls.Add(1)
	return geocode.Result{Address: "Marina Beach, Chennai", State: "Tamil Nadu", District: "Chennai"}, nil
}

func testConfig(workers, buffer int) *config.Config {
	return &config.Config{
		Worker: config.WorkerConfig{
			Count:      workers,
			BufferSize: buffer,
		},
		Sources: config.SourcesConfig{
			USGSEnabled:       false,
			GDACSEnabled:      false,
			USGSPollInterval:  time.Minute,
			GDACSPollInterval: time.Minute,
		},
	}
}

func testReport(id string) *models.HazardReport {
	return &models.HazardReport{
		ID:         id,
		Title:      "Rip current near the pier",
		Type:       models.HazardRipCurrent,
		Severity:   models.SeverityMedium,
		Status:     models.StatusUnverified,
		Location:   models.Location{Latitude: 13.05, Longitude: 80.28},
		Source:     "citizen",
		ReportedAt: time.Now(),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestManager_StartStop(t *testing.T) {
	repo := newMockRepo()
	mgr := NewManager(testConfig(2, 10), repo, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())

	// Start should not block
	mgr.Start(ctx)

	// Give it a moment
	time.Sleep(50 * time.Millisecond)

	// Cancel and stop
	cancel()
	mgr.Stop()

	// Should complete without hanging
}

func TestManager_ProcessStoresAndDispatches(t *testing.T) {
	cfg := testConfig(1, 10)
	cfg.Geocode.Enabled = true
	repo := newMockRepo()
	disp := &recordingDispatcher{}
	geo := &stubGeocoder{}
	metrics := observability.NewMetricsForTesting()
	mgr := NewManager(cfg, repo, geo, disp, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.Start(ctx)

	if err := mgr.Submit(ctx, testReport("r1")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	// Same id again is a duplicate
	if err := mgr.Submit(ctx, testReport("r1")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	invalid := testReport("bad")
	invalid.Type = "meteor"
	if err := mgr.Submit(ctx, invalid); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	waitFor(t, func() bool {
		return testutil.ToFloat64(metrics.ReportsProcessed.WithLabelValues("invalid")) == 1
	})
	cancel()
	mgr.Stop()

	if got := repo.addCount.Load(); got != 1 {
		t.Errorf("expected 1 stored report, got %d", got)
	}
	stored, _ := repo.GetByID(context.Background(), "r1")
	if stored == nil || stored.Location.Address != "Marina Beach, Chennai" || stored.Location.District != "Chennai" {
		t.Errorf("expected geocoded address, got %+v", stored)
	}
	if geo.calls.Load() != 1 {
		t.Errorf("duplicates should not be geocoded, got %d calls", geo.calls.Load())
	}
	if disp.count() != 1 || disp.events[0].Kind != models.EventCreated || disp.events[0].Report.ID != "r1" {
		t.Errorf("expected one created event for r1, got %+v", disp.events)
	}
	if testutil.ToFloat64(metrics.ReportsProcessed.WithLabelValues("duplicate")) != 1 {
		t.Error("expected one duplicate outcome")
	}
}

func TestManager_GeocodeDisabled(t *testing.T) {
	repo := newMockRepo()
	geo := &stubGeocoder{}
	mgr := NewManager(testConfig(1, 10), repo, geo, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.Start(ctx)

	mgr.Submit(ctx, testReport("r1"))
	waitFor(t, func() bool { return repo.addCount.Load() == 1 })
	cancel()
	mgr.Stop()

	if geo.calls.Load() != 0 {
		t.Errorf("geocoder should not be called when disabled")
	}
}

func TestManager_StoreErrorDoesNotDispatch(t *testing.T) {
	repo := newMockRepo()
	repo.addErr = errors.New("database is locked")
	disp := &recordingDispatcher{}
	metrics := observability.NewMetricsForTesting()
	mgr := NewManager(testConfig(1, 10), repo, nil, disp, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.Start(ctx)

	mgr.Submit(ctx, testReport("r1"))
	waitFor(t, func() bool {
		return testutil.ToFloat64(metrics.ReportsProcessed.WithLabelValues("error")) == 1
	})
	cancel()
	mgr.Stop()

	if disp.count() != 0 {
		t.Errorf("expected no events, got %d", disp.count())
	}
}

func TestManager_SubmitQueueFull(t *testing.T) {
	repo := newMockRepo()
	mgr := NewManager(testConfig(1, 1), repo, nil, nil, nil)

	// No workers, so the buffer of one fills up
	mgr.pool = worker.NewPool("test", 1, 1, mgr.process)
	defer mgr.pool.Stop()

	ctx := context.Background()
	if err := mgr.Submit(ctx, testReport("a")); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	if mgr.Pending() != 1 {
		t.Errorf("expected 1 pending, got %d", mgr.Pending())
	}

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := mgr.Submit(short, testReport("b"))
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestManager_SubmitAfterStop(t *testing.T) {
	mgr := NewManager(testConfig(1, 1), newMockRepo(), nil, nil, nil)
	mgr.Start(context.Background())
	mgr.Stop()

	err := mgr.Submit(context.Background(), testReport("late"))
	if !errors.Is(err, worker.ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestManager_ConcurrentSubmit(t *testing.T) {
	repo := newMockRepo()
	mgr := NewManager(testConfig(4, 100), repo, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)

	// Submit many reports concurrently
	var wg sync.WaitGroup
	numGoroutines := 10
	numPerGoroutine := 50

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			for j := 0; j < numPerGoroutine; j++ {
				mgr.Submit(ctx, testReport(fmt.Sprintf("test_%d_%d", goroutineID, j)))
			}
		}(i)
	}

	wg.Wait()

	expected := numGoroutines * numPerGoroutine
	waitFor(t, func() bool { return int(repo.addCount.Load()) == expected })

	cancel()
	mgr.Stop()
}

func TestManager_GracefulShutdown(t *testing.T) {
	repo := newMockRepo()
	mgr := NewManager(testConfig(2, 100), repo, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)

	// Submit some work
	for i := 0; i < 50; i++ {
		mgr.Submit(ctx, testReport(fmt.Sprintf("shutdown_test_%d", i)))
	}

	// Immediately cancel
	cancel()

	// Stop should wait for in-flight work
	done := make(chan struct{})
	go func() {
		mgr.Stop()
		close(done)
	}()

	select {
	case <-done:
		// Good, stopped gracefully
	case <-time.After(5 * time.Second):
		t.Fatal("manager.Stop() timed out - possible goroutine leak")
	}
}
