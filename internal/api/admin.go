package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/repository"
	"github.com/mr1hm/go-ocean-hazards/internal/synthetic"
)

const (
	apiKeyHeader       = "X-API-Key"
	maxSyntheticPosts  = 500
	maxSyntheticRadius = 500.0
)

// requireAdmin checks X-API-Key against the configured bcrypt hash.
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(h.adminKeyHash) == 0 {
			abortError(c, http.StatusServiceUnavailable, "admin API disabled")
			return
		}
		key := c.GetHeader(apiKeyHeader)
		if key == "" || bcrypt.CompareHashAndPassword(h.adminKeyHash, []byte(key)) != nil {
			abortError(c, http.StatusUnauthorized, "invalid API key")
			return
		}
		c.Next()
	}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateReportStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	to, ok := models.ParseStatus(req.Status)
	if !ok {
		abortError(c, http.StatusBadRequest, fmt.Sprintf("unknown status %q", req.Status))
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	report, err := h.reports.GetByID(ctx, id)
	if err != nil {
		slog.Error("error getting report", "id", id, "error", err)
		abortError(c, http.StatusInternalServerError, "failed to fetch report")
		return
	}
	if report == nil {
		abortError(c, http.StatusNotFound, "report not found")
		return
	}

	from := report.Status
	if !models.CanTransition(from, to) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":   fmt.Sprintf("%v: %s -> %s", models.ErrInvalidTransition, from, to),
			"allowed": from.NextStatuses(),
		})
		return
	}

	now := h.clock.Now().UTC()
	if err := h.reports.UpdateStatus(ctx, id, from, to, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusConflict):
			abortError(c, http.StatusConflict, fmt.Sprintf("report %s changed status concurrently, reload and retry", id))
			return
		case errors.Is(err, repository.ErrNotFound):
			abortError(c, http.StatusNotFound, "report not found")
			return
		}
		slog.Error("error updating report status", "id", id, "error", err)
		abortError(c, http.StatusInternalServerError, "failed to update report")
		return
	}
	report.Status = to
	report.UpdatedAt = now
	if to == models.StatusActive {
		report.Verified = true
	}

	slog.Info("report status changed", "id", id, "from", from, "to", to)
	if h.dispatcher != nil {
		h.dispatcher.Dispatch(ctx, &models.ReportEvent{
			Kind:           models.EventStatusChanged,
			Report:         *report,
			PreviousStatus: from,
			At:             now,
		})
	}
	c.JSON(http.StatusOK, report)
}

type syntheticRequest struct {
	Count      int                 `json:"count" binding:"required,min=1"`
	Center     *models.Coordinates `json:"center"`
	RadiusKm   float64             `json:"radius_km" binding:"gte=0"`
	HazardType string              `json:"hazard_type"`
}

func (h *Handler) generatePosts(c *gin.Context) {
	var req syntheticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Count > maxSyntheticPosts {
		abortError(c, http.StatusBadRequest, fmt.Sprintf("count must be between 1 and %d", maxSyntheticPosts))
		return
	}
	if req.RadiusKm > maxSyntheticRadius {
		abortError(c, http.StatusBadRequest, fmt.Sprintf("radius_km must not exceed %.0f", maxSyntheticRadius))
		return
	}

	opts := synthetic.Options{RadiusKm: req.RadiusKm}
	if req.HazardType != "" {
		typ, ok := models.ParseHazardType(req.HazardType)
		if !ok {
			abortError(c, http.StatusBadRequest, fmt.Sprintf("unknown hazard type %q", req.HazardType))
			return
		}
		opts.HazardType = typ
	}
	if req.Center != nil {
		loc := models.Location{Latitude: req.Center.Latitude, Longitude: req.Center.Longitude}
		if err := loc.Validate(); err != nil {
			abortError(c, http.StatusBadRequest, "invalid center: "+err.Error())
			return
		}
		opts.Center = *req.Center
	} else {
		site := h.generator.RandomSite()
		opts.Center = models.Coordinates{Latitude: site.Latitude, Longitude: site.Longitude}
		opts.PlaceName = site.Name
	}

	posts := h.generator.Posts(req.Count, opts)
	written, err := h.posts.AddPosts(c.Request.Context(), posts)
	if h.metrics != nil {
		h.metrics.SyntheticPosts.Add(float64(written))
	}
	if err != nil {
		slog.Warn("some synthetic posts were not stored", "stored", written, "generated", len(posts), "error", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"posts":  posts,
		"count":  len(posts),
		"stored": written,
	})
}
