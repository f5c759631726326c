// Package alerting fans report events out and raises notifications for the
// ones that need attention.
package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-ocean-hazards/internal/events"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/observability"
	"github.com/mr1hm/go-ocean-hazards/internal/repository"
	"github.com/mr1hm/go-ocean-hazards/internal/stream"
)

// Sender delivers a notification to an outside channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, n *models.Notification) error
}

// DefaultPublishTimeout bounds a single event publish inside Dispatch.
const DefaultPublishTimeout = 5 * time.Second

type Alerter struct {
	broadcaster    *stream.Broadcaster
	publisher      events.Publisher
	publishTimeout time.Duration
	notifications  repository.NotificationRepository
	senders        []Sender
	metrics        *observability.Metrics
	clock          clockwork.Clock

	mu       sync.Mutex
	notified map[string]models.Intensity // hotspot ID -> last notified intensity
}

type Options struct {
	Broadcaster    *stream.Broadcaster
	Publisher      events.Publisher
	PublishTimeout time.Duration // defaults to DefaultPublishTimeout
	Notifications  repository.NotificationRepository
	Senders        []Sender
	Metrics        *observability.Metrics
	Clock          clockwork.Clock
}

// New builds an Alerter. Every option may be left nil.
func New(opts Options) *Alerter {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	publishTimeout := opts.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	return &Alerter{
		broadcaster:    opts.Broadcaster,
		publisher:      opts.Publisher,
		publishTimeout: publishTimeout,
		notifications:  opts.Notifications,
		senders:        opts.Senders,
		metrics:        opts.Metrics,
		clock:          clock,
		notified:       make(map[string]models.Intensity),
	}
}

// Dispatch broadcasts and publishes the event, then raises a notification if
// the event matches an alert rule. Downstream failures are logged.
func (a *Alerter) Dispatch(ctx context.Context, ev *models.ReportEvent) {
	if ev.At.IsZero() {
		ev.At = a.clock.Now()
	}

	if a.broadcaster != nil {
		a.broadcaster.Broadcast(ev)
	}

	if a.publisher != nil {
		a.publish(ctx, ev)
	}

	if n := a.reportNotification(ev); n != nil {
		a.notify(ctx, n)
	}
}

// publish gives up after publishTimeout so a stalled broker cannot hold up
// the caller once the report is stored.
func (a *Alerter) publish(ctx context.Context, ev *models.ReportEvent) {
	ctx, cancel := context.WithTimeout(ctx, a.publishTimeout)
	defer cancel()
	if err := a.publisher.Publish(ctx, ev); err != nil {
		slog.Error("failed to publish report event", "id", ev.Report.ID, "kind", ev.Kind, "error", err)
	}
}

// ShouldNotify reports whether the event matches an alert rule: a critical
// report was created, or a report of high severity or above became active.
func ShouldNotify(ev *models.ReportEvent) bool {
	r := ev.Report
	switch ev.Kind {
	case models.EventCreated:
		return r.Severity == models.SeverityCritical
	case models.EventStatusChanged:
		return r.Status == models.StatusActive &&
			ev.PreviousStatus != models.StatusActive &&
			r.Severity.Rank() >= models.SeverityHigh.Rank()
	}
	return false
}

func (a *Alerter) reportNotification(ev *models.ReportEvent) *models.Notification {
	if !ShouldNotify(ev) {
		return nil
	}

	r := ev.Report
	level := models.NotificationWarning
	if r.Severity == models.SeverityCritical {
		level = models.NotificationCritical
	}

	var title string
	if ev.Kind == models.EventCreated {
		title = fmt.Sprintf("Critical %s reported", humanize(r.Type))
	} else {
		title = fmt.Sprintf("%s %s report confirmed active", capitalize(string(r.Severity)), humanize(r.Type))
	}

	return &models.Notification{
		ID:        uuid.NewString(),
		ReportID:  r.ID,
		Level:     level,
		Title:     title,
		Message:   fmt.Sprintf("%s at %s", r.Title, place(r.Location)),
		CreatedAt: a.clock.Now(),
	}
}

// ScanHotspots notifies once when a hotspot first reaches high intensity.
// A hotspot that drops below high, or disappears, can notify again later.
func (a *Alerter) ScanHotspots(ctx context.Context, hotspots []models.Hotspot) {
	if a.metrics != nil {
		a.metrics.HotspotsActive.Set(float64(len(hotspots)))
	}

	var pending []*models.Notification

	a.mu.Lock()
	seen := make(map[string]bool, len(hotspots))
	for _, h := range hotspots {
		seen[h.ID] = true
		if h.Intensity != models.IntensityHigh {
			delete(a.notified, h.ID)
			continue
		}
		if a.notified[h.ID] == models.IntensityHigh {
			continue
		}
		a.notified[h.ID] = models.IntensityHigh
		pending = append(pending, a.hotspotNotification(h))
	}
	for id := range a.notified {
		if !seen[id] {
			delete(a.notified, id)
		}
	}
	a.mu.Unlock()

	for _, n := range pending {
		a.notify(ctx, n)
	}
}

func (a *Alerter) hotspotNotification(h models.Hotspot) *models.Notification {
	types := make([]string, len(h.DominantTypes))
	for i, t := range h.DominantTypes {
		types[i] = humanize(t)
	}
	return &models.Notification{
		ID:        uuid.NewString(),
		HotspotID: h.ID,
		Level:     models.NotificationCritical,
		Title:     "High-intensity hazard hotspot",
		Message: fmt.Sprintf("%d reports (%s) within %.0f km of %.4f, %.4f",
			h.ReportCount, strings.Join(types, ", "), h.RadiusKm, h.Center.Latitude, h.Center.Longitude),
		CreatedAt: a.clock.Now(),
	}
}

func (a *Alerter) notify(ctx context.Context, n *models.Notification) {
	if a.metrics != nil {
		a.metrics.Notifications.WithLabelValues(string(n.Level)).Inc()
	}

	if a.notifications != nil {
		if err := a.notifications.AddNotification(ctx, n); err != nil {
			slog.Error("failed to store notification", "id", n.ID, "error", err)
		}
	}

	for _, s := range a.senders {
		if err := s.Send(ctx, n); err != nil {
			slog.Error("failed to send notification", "sender", s.Name(), "id", n.ID, "error", err)
		}
	}

	slog.Info("notification raised", "id", n.ID, "level", n.Level, "report_id", n.ReportID, "hotspot_id", n.HotspotID)
}

func humanize(t models.HazardType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func place(l models.Location) string {
	if l.Address != "" {
		return l.Address
	}
	return fmt.Sprintf("%.4f, %.4f", l.Latitude, l.Longitude)
}
