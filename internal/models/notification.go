package models

import "time"

type NotificationLevel string

const (
	NotificationInfo     NotificationLevel = "info"
	NotificationWarning  NotificationLevel = "warning"
	NotificationCritical NotificationLevel = "critical"
)

type Notification struct {
	ID        string            `json:"id"`
	ReportID  string            `json:"reportId,omitempty"`
	HotspotID string            `json:"hotspotId,omitempty"`
	Level     NotificationLevel `json:"level"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"createdAt"`
}
