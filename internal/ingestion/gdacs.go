package ingestion

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

const sourceGDACS = "gdacs"

type gdacsRSS struct {
	Channel gdacsChannel `xml:"channel"`
}
type gdacsChannel struct {
	Items []gdacsItem `xml:"item"`
}
type gdacsItem struct {
	Title       string  `xml:"title"`
	Description string  `xml:"description"`
	Link        string  `xml:"link"`
	PubDate     string  `xml:"pubDate"`
	Lat         float64 `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# Point>lat"`
	Lon         float64 `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# Point>long"`
	EventType   string  `xml:"http://www.gdacs.org eventtype"`
	AlertLevel  string  `xml:"http://www.gdacs.org alertlevel"`
	EventID     string  `xml:"http://www.gdacs.org eventid"`
	Country     string  `xml:"http://www.gdacs.org country"`
}

var gdacsReporter = models.Reporter{ID: "gdacs", Name: "GDACS", Type: models.ReporterOfficial}

// parseGDACS keeps only the coastal event types: cyclones, tsunamis and
// floods.
func parseGDACS(r io.Reader, now time.Time) ([]*models.HazardReport, error) {
	var data gdacsRSS
	if err := xml.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding GDACS feed: %w", err)
	}

	reports := make([]*models.HazardReport, 0, len(data.Channel.Items))
	for _, item := range data.Channel.Items {
		hazard, ok := mapGDACSEventType(item.EventType)
		if !ok {
			continue
		}

		reportedAt, err := time.Parse(time.RFC1123, item.PubDate)
		if err != nil {
			slog.Warn("GDACS timestamp parsing failed", "id", item.EventID, "error", err.Error())
			reportedAt = now
		}

		reports = append(reports, &models.HazardReport{
			ID:          fmt.Sprintf("gdacs_%s_%s", strings.ToUpper(item.EventType), item.EventID),
			Title:       item.Title,
			Description: item.Description,
			Type:        hazard,
			Severity:    mapGDACSAlertLevel(item.AlertLevel),
			Status:      models.StatusActive,
			Location: models.Location{
				Latitude:  item.Lat,
				Longitude: item.Lon,
				State:     item.Country,
			},
			ReportedBy: gdacsReporter,
			MediaURLs:  linkList(item.Link),
			Source:     sourceGDACS,
			Verified:   true,
			ReportedAt: reportedAt.UTC(),
			UpdatedAt:  now,
		})
	}

	return reports, nil
}

func mapGDACSEventType(eventType string) (models.HazardType, bool) {
	switch strings.ToUpper(eventType) {
	case "TC":
		return models.HazardCyclone, true
	case "TS":
		return models.HazardTsunami, true
	case "FL":
		return models.HazardFlood, true
	default:
		return "", false
	}
}

func mapGDACSAlertLevel(level string) models.Severity {
	switch strings.ToLower(level) {
	case "green":
		return models.SeverityMedium
	case "orange":
		return models.SeverityHigh
	case "red":
		return models.SeverityCritical
	default:
		return models.SeverityLow
	}
}

func linkList(link string) []string {
	if link == "" {
		return nil
	}
	return []string{link}
}
