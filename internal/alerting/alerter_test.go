package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/observability"
	"github.com/mr1hm/go-ocean-hazards/internal/stream"
)

type mockNotificationRepo struct {
	mu    sync.Mutex
	added []models.Notification
	err   error
}

func (m *mockNotificationRepo) AddNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.added = append(m.added, *n)
	return nil
}

func (m *mockNotificationRepo) ListNotifications(_ context.Context, _ bool, _ int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.added...), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, _ string) error {
	return nil
}

type recordingSender struct {
	sent []models.Notification
	err  error
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) Send(_ context.Context, n *models.Notification) error {
	r.sent = append(r.sent, *n)
	return r.err
}

type fakePublisher struct {
	events []*models.ReportEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev *models.ReportEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

// stalledPublisher blocks until its context ends, like a writer whose
// brokers are unreachable.
type stalledPublisher struct {
	hadDeadline bool
}

func (s *stalledPublisher) Publish(ctx context.Context, _ *models.ReportEvent) error {
	_, s.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func (s *stalledPublisher) Close() error { return nil }

type fixture struct {
	alerter *Alerter
	repo    *mockNotificationRepo
	sender  *recordingSender
	pub     *fakePublisher
	bc      *stream.Broadcaster
	metrics *observability.Metrics
	clock   *clockwork.FakeClock
}

func newFixture() *fixture {
	f := &fixture{
		repo:    &mockNotificationRepo{},
		sender:  &recordingSender{},
		pub:     &fakePublisher{},
		bc:      stream.NewBroadcaster(),
		metrics: observability.NewMetricsForTesting(),
		clock:   clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)),
	}
	f.alerter = New(Options{
		Broadcaster:   f.bc,
		Publisher:     f.pub,
		Notifications: f.repo,
		Senders:       []Sender{f.sender},
		Metrics:       f.metrics,
		Clock:         f.clock,
	})
	return f
}

func event(kind models.EventKind, sev models.Severity, status, prev models.Status) *models.ReportEvent {
	return &models.ReportEvent{
		Kind: kind,
		Report: models.HazardReport{
			ID:       "r1",
			Title:    "Sea receding rapidly",
			Type:     models.HazardTsunami,
			Severity: sev,
			Status:   status,
			Location: models.Location{Latitude: 13.05, Longitude: 80.28, Address: "Marina Beach"},
		},
		PreviousStatus: prev,
	}
}

func TestShouldNotify(t *testing.T) {
	tests := []struct {
		name string
		ev   *models.ReportEvent
		want bool
	}{
		{"critical created", event(models.EventCreated, models.SeverityCritical, models.StatusUnverified, ""), true},
		{"high created", event(models.EventCreated, models.SeverityHigh, models.StatusActive, ""), false},
		{"high activated", event(models.EventStatusChanged, models.SeverityHigh, models.StatusActive, models.StatusInvestigating), true},
		{"critical activated", event(models.EventStatusChanged, models.SeverityCritical, models.StatusActive, models.StatusUnverified), true},
		{"medium activated", event(models.EventStatusChanged, models.SeverityMedium, models.StatusActive, models.StatusUnverified), false},
		{"high resolved", event(models.EventStatusChanged, models.SeverityHigh, models.StatusResolved, models.StatusActive), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldNotify(tt.ev))
		})
	}
}

func TestDispatch_FansOutAndNotifies(t *testing.T) {
	f := newFixture()
	_, ch := f.bc.Subscribe(nil)

	f.alerter.Dispatch(context.Background(), event(models.EventCreated, models.SeverityCritical, models.StatusUnverified, ""))

	select {
	case ev := <-ch:
		assert.Equal(t, "r1", ev.Report.ID)
		assert.Equal(t, f.clock.Now(), ev.At, "zero At is stamped")
	default:
		t.Fatal("expected broadcast event")
	}
	require.Len(t, f.pub.events, 1)

	require.Len(t, f.repo.added, 1)
	n := f.repo.added[0]
	assert.Equal(t, models.NotificationCritical, n.Level)
	assert.Equal(t, "r1", n.ReportID)
	assert.Equal(t, "Critical tsunami reported", n.Title)
	assert.Equal(t, "Sea receding rapidly at Marina Beach", n.Message)
	assert.NotEmpty(t, n.ID)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, n.ID, f.sender.sent[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Notifications.WithLabelValues("critical")))
}

func TestDispatch_NoNotification(t *testing.T) {
	f := newFixture()

	f.alerter.Dispatch(context.Background(), event(models.EventCreated, models.SeverityLow, models.StatusUnverified, ""))

	assert.Len(t, f.pub.events, 1)
	assert.Empty(t, f.repo.added)
	assert.Empty(t, f.sender.sent)
}

func TestDispatch_DownstreamFailuresAreSwallowed(t *testing.T) {
	f := newFixture()
	f.pub.err = errors.New("broker down")
	f.repo.err = errors.New("disk full")
	f.sender.err = errors.New("telegram 502")

	f.alerter.Dispatch(context.Background(), event(models.EventStatusChanged, models.SeverityHigh, models.StatusActive, models.StatusInvestigating))

	// Sending still happens when storing fails
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, models.NotificationWarning, f.sender.sent[0].Level)
	assert.Equal(t, "High tsunami report confirmed active", f.sender.sent[0].Title)
}

func TestDispatch_StalledPublisherIsBounded(t *testing.T) {
	repo := &mockNotificationRepo{}
	pub := &stalledPublisher{}
	a := New(Options{
		Publisher:      pub,
		PublishTimeout: 20 * time.Millisecond,
		Notifications:  repo,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Dispatch(context.Background(), event(models.EventCreated, models.SeverityCritical, models.StatusUnverified, ""))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch blocked on a stalled publisher")
	}
	assert.True(t, pub.hadDeadline, "publish should run under a deadline")

	stored, _ := repo.ListNotifications(context.Background(), false, 0)
	require.Len(t, stored, 1, "notification should still be raised after a failed publish")
	assert.Equal(t, models.NotificationCritical, stored[0].Level)
}

func TestNew_DefaultPublishTimeout(t *testing.T) {
	assert.Equal(t, DefaultPublishTimeout, New(Options{}).publishTimeout)
}

func TestDispatch_NilDependencies(t *testing.T) {
	a := New(Options{})
	a.Dispatch(context.Background(), event(models.EventCreated, models.SeverityCritical, models.StatusUnverified, ""))
}

func hotspotWith(id string, intensity models.Intensity) models.Hotspot {
	return models.Hotspot{
		ID:            id,
		Center:        models.Coordinates{Latitude: 13.1, Longitude: 80.3},
		RadiusKm:      45,
		Intensity:     intensity,
		ReportCount:   3,
		DominantTypes: []models.HazardType{models.HazardHighWaves, models.HazardStormSurge},
	}
}

func TestScanHotspots_NotifiesOnceAtHigh(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.alerter.ScanHotspots(ctx, []models.Hotspot{hotspotWith("13.1,80.3", models.IntensityMedium)})
	assert.Empty(t, f.sender.sent)

	f.alerter.ScanHotspots(ctx, []models.Hotspot{hotspotWith("13.1,80.3", models.IntensityHigh)})
	require.Len(t, f.sender.sent, 1)
	n := f.sender.sent[0]
	assert.Equal(t, "13.1,80.3", n.HotspotID)
	assert.Equal(t, "3 reports (high waves, storm surge) within 45 km of 13.1000, 80.3000", n.Message)

	// Still high: no repeat
	f.alerter.ScanHotspots(ctx, []models.Hotspot{hotspotWith("13.1,80.3", models.IntensityHigh)})
	assert.Len(t, f.sender.sent, 1)

	// Drop resets, so climbing back notifies again
	f.alerter.ScanHotspots(ctx, []models.Hotspot{hotspotWith("13.1,80.3", models.IntensityLow)})
	f.alerter.ScanHotspots(ctx, []models.Hotspot{hotspotWith("13.1,80.3", models.IntensityHigh)})
	assert.Len(t, f.sender.sent, 2)
}

func TestScanHotspots_DisappearedHotspotResets(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.alerter.ScanHotspots(ctx, []models.Hotspot{hotspotWith("19.8,85.8", models.IntensityHigh)})
	f.alerter.ScanHotspots(ctx, nil)
	f.alerter.ScanHotspots(ctx, []models.Hotspot{hotspotWith("19.8,85.8", models.IntensityHigh)})

	assert.Len(t, f.sender.sent, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HotspotsActive))
}

// --- Telegram ---

func telegramServer(t *testing.T, token string, sent *[]url.Values) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/bot" + token + "/getMe":
			io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Hazards","username":"hazards_bot"}}`)
		case "/bot" + token + "/sendMessage":
			body, _ := io.ReadAll(r.Body)
			vals, err := url.ParseQuery(string(body))
			require.NoError(t, err)
			*sent = append(*sent, vals)
			json.NewEncoder(w).Encode(map[string]any{
				"ok":     true,
				"result": map[string]any{"message_id": 7, "date": 0, "chat": map[string]any{"id": 42, "type": "group"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTelegramSender_Send(t *testing.T) {
	var sent []url.Values
	srv := telegramServer(t, "test-token", &sent)

	s, err := NewTelegramSender("test-token", 42, srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "telegram", s.Name())

	err = s.Send(context.Background(), &models.Notification{
		Level:   models.NotificationCritical,
		Title:   "Critical tsunami reported",
		Message: "Sea receding rapidly at Marina Beach",
	})
	require.NoError(t, err)

	require.Len(t, sent, 1)
	assert.Equal(t, "42", sent[0].Get("chat_id"))
	assert.True(t, strings.HasPrefix(sent[0].Get("text"), "🚨 Critical tsunami reported\n"))
}

func TestNewTelegramSender_BadToken(t *testing.T) {
	var sent []url.Values
	srv := telegramServer(t, "good", &sent)

	_, err := NewTelegramSender("bad", 42, srv.URL+"/bot%s/%s", srv.Client())
	require.Error(t, err)
}
