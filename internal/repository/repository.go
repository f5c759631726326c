package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrStatusConflict = errors.New("status changed concurrently")
)

// BBox bounds a query to a lat/lng rectangle.
type BBox struct {
	MinLat, MinLng float64
	MaxLat, MaxLng float64
}

type Filter struct {
	Limit       int
	Offset      int
	Since       *time.Time
	Type        *models.HazardType
	Severity    *models.Severity
	MinSeverity *models.Severity // >= this severity (e.g., HIGH includes HIGH and CRITICAL)
	Status      *models.Status
	OpenOnly    bool // excludes resolved and false_alarm
	Source      *string
	BBox        *BBox
}

type PostFilter struct {
	Limit      int
	Since      *time.Time
	Platform   *models.Platform
	HazardType *models.HazardType
}

type ReportRepository interface {
	Add(ctx context.Context, r *models.HazardReport) error
	GetByID(ctx context.Context, id string) (*models.HazardReport, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, opts Filter) ([]models.HazardReport, error)
	UpdateStatus(ctx context.Context, id string, from, to models.Status, at time.Time) error
}

type PostRepository interface {
	AddPosts(ctx context.Context, posts []models.SyntheticPost) (int, error)
	ListPosts(ctx context.Context, opts PostFilter) ([]models.SyntheticPost, error)
	PostStats(ctx context.Context, since time.Time) (models.PostStats, error)
}

type NotificationRepository interface {
	AddNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}
