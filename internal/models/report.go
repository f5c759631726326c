package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidReport     = errors.New("invalid hazard report")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type HazardType string

const (
	HazardTsunami        HazardType = "tsunami"
	HazardCyclone        HazardType = "cyclone"
	HazardFlood          HazardType = "flood"
	HazardStormSurge     HazardType = "storm_surge"
	HazardHighWaves      HazardType = "high_waves"
	HazardCoastalErosion HazardType = "coastal_erosion"
	HazardRipCurrent     HazardType = "rip_current"
	HazardOilSpill       HazardType = "oil_spill"
	HazardOther          HazardType = "other"
)

// HazardTypes lists every known type in a stable order.
var HazardTypes = []HazardType{
	HazardTsunami,
	HazardCyclone,
	HazardFlood,
	HazardStormSurge,
	HazardHighWaves,
	HazardCoastalErosion,
	HazardRipCurrent,
	HazardOilSpill,
	HazardOther,
}

func ParseHazardType(s string) (HazardType, bool) {
	norm := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range HazardTypes {
		if string(t) == norm {
			return t, true
		}
	}
	return "", false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from 1 (low) to 4 (critical). Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	return sev, sev.Rank() > 0
}

// SeveritiesAtLeast returns every severity ranked at or above min.
func SeveritiesAtLeast(min Severity) []Severity {
	var out []Severity
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		if s.Rank() >= min.Rank() {
			out = append(out, s)
		}
	}
	return out
}

type Status string

const (
	StatusUnverified    Status = "unverified"
	StatusInvestigating Status = "investigating"
	StatusActive        Status = "active"
	StatusResolved      Status = "resolved"
	StatusFalseAlarm    Status = "false_alarm"
)

var transitions = map[Status][]Status{
	StatusUnverified:    {StatusInvestigating, StatusActive, StatusFalseAlarm},
	StatusInvestigating: {StatusActive, StatusResolved, StatusFalseAlarm, StatusUnverified},
	StatusActive:        {StatusInvestigating, StatusResolved},
	StatusResolved:      {StatusActive},
	StatusFalseAlarm:    {StatusUnverified},
}

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	_, ok := transitions[st]
	return st, ok
}

// NextStatuses returns the statuses a report in s may move to.
func (s Status) NextStatuses() []Status {
	return transitions[s]
}

// IsOpen reports whether the hazard still needs attention.
func (s Status) IsOpen() bool {
	return s != StatusResolved && s != StatusFalseAlarm
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ReporterType string

const (
	ReporterCitizen  ReporterType = "citizen"
	ReporterOfficial ReporterType = "official"
	ReporterAnalyst  ReporterType = "analyst"
	ReporterSystem   ReporterType = "system"
)

var ReporterTypes = []ReporterType{ReporterCitizen, ReporterOfficial, ReporterAnalyst, ReporterSystem}

// ParseReporterType defaults an empty string to citizen.
func ParseReporterType(s string) (ReporterType, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return ReporterCitizen, true
	}
	for _, t := range ReporterTypes {
		if string(t) == norm {
			return t, true
		}
	}
	return "", false
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	State     string  `json:"state,omitempty"`
	District  string  `json:"district,omitempty"`
}

func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidReport, l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidReport, l.Longitude)
	}
	return nil
}

type Reporter struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Type ReporterType `json:"type"`
}

type HazardReport struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        HazardType `json:"type"`
	Severity    Severity   `json:"severity"`
	Status      Status     `json:"status"`
	Location    Location   `json:"location"`
	ReportedBy  Reporter   `json:"reportedBy"`
	MediaURLs   []string   `json:"mediaUrls,omitempty"`
	Source      string     `json:"source"` // "citizen", "gdacs", "usgs", "synthetic", "feed"
	Verified    bool       `json:"verified"`
	ReportedAt  time.Time  `json:"reportedAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (r *HazardReport) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidReport)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidReport)
	}
	if _, ok := ParseHazardType(string(r.Type)); !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidReport, r.Type)
	}
	if r.Severity.Rank() == 0 {
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidReport, r.Severity)
	}
	if _, ok := ParseStatus(string(r.Status)); !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidReport, r.Status)
	}
	if _, ok := ParseReporterType(string(r.ReportedBy.Type)); !ok {
		return fmt.Errorf("%w: unknown reporter type %q", ErrInvalidReport, r.ReportedBy.Type)
	}
	return r.Location.Validate()
}
