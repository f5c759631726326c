package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-ocean-hazards/internal/hotspot"
	"github.com/mr1hm/go-ocean-hazards/internal/ingestion"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/observability"
	"github.com/mr1hm/go-ocean-hazards/internal/repository"
	"github.com/mr1hm/go-ocean-hazards/internal/synthetic"
)

const (
	defaultLimit     = 50
	maxLimit         = 500
	hotspotScanLimit = 1000
	submitTimeout    = 2 * time.Second
)

// Submitter queues reports for processing. *ingestion.Manager satisfies it.
type Submitter interface {
	Submit(ctx context.Context, r *models.HazardReport) error
}

// Dispatcher fans out report events. *alerting.Alerter satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev *models.ReportEvent)
}

// FeedSource is the live feed's current state. *feed.Feed satisfies it.
type FeedSource interface {
	Snapshot() []models.HazardReport
}

// LiveServer upgrades websocket requests. *live.Hub satisfies it.
type LiveServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type Options struct {
	Reports       repository.ReportRepository
	Posts         repository.PostRepository
	Notifications repository.NotificationRepository
	Ingest        Submitter
	Dispatcher    Dispatcher
	Feed          FeedSource
	Live          LiveServer
	Generator     *synthetic.Generator
	Metrics       *observability.Metrics
	// AdminKeyHash is a bcrypt hash of the admin API key. Empty disables
	// admin routes.
	AdminKeyHash string
	// Ready backs /readyz. Nil means always ready.
	Ready sharedobs.ReadinessChecker
	// MetricsHandler defaults to the default Prometheus registry.
	MetricsHandler http.Handler
	Clock          clockwork.Clock
}

type Handler struct {
	reports       repository.ReportRepository
	posts         repository.PostRepository
	notifications repository.NotificationRepository
	ingest        Submitter
	dispatcher    Dispatcher
	feed          FeedSource
	live          LiveServer
	generator     *synthetic.Generator
	metrics       *observability.Metrics
	adminKeyHash  []byte
	ready         sharedobs.ReadinessChecker
	metricsH      http.Handler
	clock         clockwork.Clock
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		reports:       opts.Reports,
		posts:         opts.Posts,
		notifications: opts.Notifications,
		ingest:        opts.Ingest,
		dispatcher:    opts.Dispatcher,
		feed:          opts.Feed,
		live:          opts.Live,
		generator:     opts.Generator,
		metrics:       opts.Metrics,
		ready:         opts.Ready,
		metricsH:      opts.MetricsHandler,
		clock:         opts.Clock,
	}
	if opts.AdminKeyHash != "" {
		h.adminKeyHash = []byte(opts.AdminKeyHash)
	}
	if h.ready == nil {
		h.ready = alwaysReady{}
	}
	if h.metricsH == nil {
		h.metricsH = promhttp.Handler()
	}
	if h.clock == nil {
		h.clock = clockwork.NewRealClock()
	}
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	r.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(h.ready)))
	r.GET("/metrics", gin.WrapH(h.metricsH))

	api := r.Group("/api")
	api.GET("/reports", h.listReports)
	api.GET("/reports/:id", h.getReport)
	api.POST("/reports", h.createReport)
	api.GET("/hotspots", h.listHotspots)
	api.GET("/feed", h.getFeed)
	api.GET("/notifications", h.listNotifications)
	api.POST("/notifications/:id/read", h.markNotificationRead)
	api.GET("/social-media/monitoring", h.socialMonitoring)

	admin := api.Group("/admin", h.requireAdmin())
	admin.PATCH("/reports/:id/status", h.updateReportStatus)
	admin.POST("/synthetic/posts", h.generatePosts)

	if h.live != nil {
		r.GET("/ws/feed", func(c *gin.Context) {
			h.live.ServeWS(c.Writer, c.Request)
		})
	}
}

type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listReports(c *gin.Context) {
	filter, err := parseReportFilter(c)
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := h.reports.List(c.Request.Context(), filter)
	if err != nil {
		slog.Error("error listing reports", "error", err)
		abortError(c, http.StatusInternalServerError, "failed to fetch reports")
		return
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, reportsToGeoJSON(reports))
}

func (h *Handler) getReport(c *gin.Context) {
	r, err := h.reports.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		slog.Error("error getting report", "id", c.Param("id"), "error", err)
		abortError(c, http.StatusInternalServerError, "failed to fetch report")
		return
	}
	if r == nil {
		abortError(c, http.StatusNotFound, "report not found")
		return
	}
	c.JSON(http.StatusOK, r)
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	Address   string   `json:"address" binding:"max=300"`
	State     string   `json:"state" binding:"max=100"`
	District  string   `json:"district" binding:"max=100"`
}

type createReportRequest struct {
	Title       string          `json:"title" binding:"required,max=200"`
	Description string          `json:"description" binding:"max=2000"`
	Type        string          `json:"type" binding:"required"`
	Severity    string          `json:"severity" binding:"required"`
	Location    locationRequest `json:"location" binding:"required"`
	ReportedBy  struct {
		ID   string `json:"id" binding:"max=100"`
		Name string `json:"name" binding:"max=100"`
		Type string `json:"type"`
	} `json:"reportedBy"`
	MediaURLs []string `json:"mediaUrls" binding:"max=10,dive,url"`
}

func (h *Handler) createReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid report: "+err.Error())
		return
	}

	typ, ok := models.ParseHazardType(req.Type)
	if !ok {
		abortError(c, http.StatusBadRequest, fmt.Sprintf("unknown hazard type %q", req.Type))
		return
	}
	sev, ok := models.ParseSeverity(req.Severity)
	if !ok {
		abortError(c, http.StatusBadRequest, fmt.Sprintf("unknown severity %q", req.Severity))
		return
	}
	reporterType, ok := models.ParseReporterType(req.ReportedBy.Type)
	if !ok {
		abortError(c, http.StatusBadRequest, fmt.Sprintf("unknown reporter type %q", req.ReportedBy.Type))
		return
	}

	now := h.clock.Now().UTC()
	report := &models.HazardReport{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        typ,
		Severity:    sev,
		Status:      models.StatusUnverified,
		Location: models.Location{
			Latitude:  *req.Location.Latitude,
			Longitude: *req.Location.Longitude,
			Address:   req.Location.Address,
			State:     req.Location.State,
			District:  req.Location.District,
		},
		ReportedBy: models.Reporter{
			ID:   req.ReportedBy.ID,
			Name: req.ReportedBy.Name,
			Type: reporterType,
		},
		MediaURLs:  req.MediaURLs,
		Source:     "citizen",
		ReportedAt: now,
		UpdatedAt:  now,
	}
	if err := report.Validate(); err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), submitTimeout)
	defer cancel()
	if err := h.ingest.Submit(ctx, report); err != nil {
		if errors.Is(err, ingestion.ErrQueueFull) {
			abortError(c, http.StatusServiceUnavailable, "ingestion queue full, retry later")
			return
		}
		slog.Error("error submitting report", "id", report.ID, "error", err)
		abortError(c, http.StatusServiceUnavailable, "ingestion unavailable")
		return
	}
	if h.metrics != nil {
		h.metrics.ReportsSubmitted.Inc()
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":     report.ID,
		"status": report.Status,
	})
}

func (h *Handler) listHotspots(c *gin.Context) {
	open, err := h.reports.List(c.Request.Context(), repository.Filter{OpenOnly: true, Limit: hotspotScanLimit})
	if err != nil {
		slog.Error("error listing open reports", "error", err)
		abortError(c, http.StatusInternalServerError, "failed to compute hotspots")
		return
	}
	hotspots := hotspot.Generate(open)

	if c.Query("format") == "geojson" {
		c.Header("Content-Type", "application/geo+json")
		c.JSON(http.StatusOK, hotspotsToGeoJSON(hotspots))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hotspots": hotspots,
		"count":    len(hotspots),
	})
}

func (h *Handler) getFeed(c *gin.Context) {
	if h.feed == nil {
		abortError(c, http.StatusServiceUnavailable, "feed disabled")
		return
	}
	reports := h.feed.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"reports":  reports,
		"hotspots": hotspot.Generate(hotspot.Open(reports)),
	})
}

func (h *Handler) listNotifications(c *gin.Context) {
	unread := false
	if u := c.Query("unread"); u != "" {
		v, err := strconv.ParseBool(u)
		if err != nil {
			abortError(c, http.StatusBadRequest, "unread must be a boolean")
			return
		}
		unread = v
	}
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.notifications.ListNotifications(c.Request.Context(), unread, limit)
	if err != nil {
		slog.Error("error listing notifications", "error", err)
		abortError(c, http.StatusInternalServerError, "failed to fetch notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": list,
		"count":         len(list),
	})
}

func (h *Handler) markNotificationRead(c *gin.Context) {
	err := h.notifications.MarkRead(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		abortError(c, http.StatusNotFound, "notification not found")
	case err != nil:
		slog.Error("error marking notification read", "id", c.Param("id"), "error", err)
		abortError(c, http.StatusInternalServerError, "failed to update notification")
	default:
		c.Status(http.StatusNoContent)
	}
}

func (h *Handler) socialMonitoring(c *gin.Context) {
	hours := 24
	if v := c.Query("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 24*30 {
			abortError(c, http.StatusBadRequest, "hours must be between 1 and 720")
			return
		}
		hours = n
	}
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}

	since := h.clock.Now().Add(-time.Duration(hours) * time.Hour)
	filter := repository.PostFilter{Since: &since, Limit: limit}
	if p := c.Query("platform"); p != "" {
		platform := models.Platform(strings.ToLower(p))
		filter.Platform = &platform
	}
	if t := c.Query("hazard_type"); t != "" {
		typ, ok := models.ParseHazardType(t)
		if !ok {
			abortError(c, http.StatusBadRequest, fmt.Sprintf("unknown hazard type %q", t))
			return
		}
		filter.HazardType = &typ
	}

	ctx := c.Request.Context()
	posts, err := h.posts.ListPosts(ctx, filter)
	if err != nil {
		slog.Error("error listing posts", "error", err)
		abortError(c, http.StatusInternalServerError, "failed to fetch posts")
		return
	}
	stats, err := h.posts.PostStats(ctx, since)
	if err != nil {
		slog.Error("error aggregating posts", "error", err)
		abortError(c, http.StatusInternalServerError, "failed to fetch post stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"stats": stats,
		"hours": hours,
	})
}

func parseReportFilter(c *gin.Context) (repository.Filter, error) {
	filter := repository.Filter{Limit: defaultLimit}

	if t := c.Query("type"); t != "" {
		typ, ok := models.ParseHazardType(t)
		if !ok {
			return filter, fmt.Errorf("unknown hazard type %q", t)
		}
		filter.Type = &typ
	}
	if s := c.Query("severity"); s != "" {
		sev, ok := models.ParseSeverity(s)
		if !ok {
			return filter, fmt.Errorf("unknown severity %q", s)
		}
		filter.Severity = &sev
	}
	if s := c.Query("min_severity"); s != "" {
		sev, ok := models.ParseSeverity(s)
		if !ok {
			return filter, fmt.Errorf("unknown severity %q", s)
		}
		filter.MinSeverity = &sev
	}
	if s := c.Query("status"); s != "" {
		st, ok := models.ParseStatus(s)
		if !ok {
			return filter, fmt.Errorf("unknown status %q", s)
		}
		filter.Status = &st
	}
	if o := c.Query("open"); o != "" {
		open, err := strconv.ParseBool(o)
		if err != nil {
			return filter, errors.New("open must be a boolean")
		}
		filter.OpenOnly = open
	}
	if s := c.Query("source"); s != "" {
		source := strings.ToLower(s)
		filter.Source = &source
	}
	if s := c.Query("since"); s != "" {
		t, err := parseSince(s)
		if err != nil {
			return filter, err
		}
		filter.Since = &t
	}
	if b := c.Query("bbox"); b != "" {
		box, err := parseBBox(b)
		if err != nil {
			return filter, err
		}
		filter.BBox = &box
	}
	if l := c.Query("limit"); l != "" {
		lim, err := parseLimit(l)
		if err != nil {
			return filter, err
		}
		filter.Limit = lim
	}
	if o := c.Query("offset"); o != "" {
		off, err := strconv.Atoi(o)
		if err != nil || off < 0 {
			return filter, errors.New("offset must be a non-negative integer")
		}
		filter.Offset = off
	}
	return filter, nil
}

// parseLimit returns defaultLimit for an empty value.
func parseLimit(s string) (int, error) {
	if s == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}
	return n, nil
}

func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("since %q must be YYYY-MM-DD or RFC3339", s)
}

// parseBBox reads "minLng,minLat,maxLng,maxLat".
func parseBBox(s string) (repository.BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return repository.BBox{}, errors.New("bbox must be minLng,minLat,maxLng,maxLat")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return repository.BBox{}, fmt.Errorf("bbox value %q is not a number", p)
		}
		v[i] = f
	}
	box := repository.BBox{MinLng: v[0], MinLat: v[1], MaxLng: v[2], MaxLat: v[3]}
	if box.MinLat > box.MaxLat || box.MinLng > box.MaxLng {
		return repository.BBox{}, errors.New("bbox minimums must not exceed maximums")
	}
	if box.MinLat < -90 || box.MaxLat > 90 || box.MinLng < -180 || box.MaxLng > 180 {
		return repository.BBox{}, errors.New("bbox out of range")
	}
	return box, nil
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
