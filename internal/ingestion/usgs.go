package ingestion

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

const sourceUSGS = "usgs"

type usgsResponse struct {
	Features []usgsFeature `json:"features"`
}

type usgsFeature struct {
	ID         string         `json:"id"`
	Properties usgsProperties `json:"properties"`
	Geometry   usgsGeometry   `json:"geometry"`
}
type usgsProperties struct {
	Mag     float64 `json:"mag"`
	Place   string  `json:"place"`
	Time    int64   `json:"time"` // unix millis
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Tsunami int     `json:"tsunami"` // 0 or 1
}
type usgsGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
}

var usgsReporter = models.Reporter{ID: "usgs", Name: "USGS", Type: models.ReporterSystem}

// parseUSGS turns earthquakes carrying the tsunami flag into tsunami
// reports; all other quakes are skipped.
func parseUSGS(r io.Reader, now time.Time) ([]*models.HazardReport, error) {
	var data usgsResponse
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding USGS feed: %w", err)
	}

	reports := make([]*models.HazardReport, 0)
	for _, f := range data.Features {
		if f.Properties.Tsunami != 1 || len(f.Geometry.Coordinates) < 2 {
			continue
		}
		p := f.Properties
		reports = append(reports, &models.HazardReport{
			ID:          "usgs_" + f.ID,
			Title:       "Tsunami potential: " + p.Title,
			Description: fmt.Sprintf("M%.1f earthquake %s with tsunami flag set", p.Mag, p.Place),
			Type:        models.HazardTsunami,
			Severity:    magnitudeSeverity(p.Mag),
			Status:      models.StatusActive,
			Location: models.Location{
				Longitude: f.Geometry.Coordinates[0],
				Latitude:  f.Geometry.Coordinates[1],
				Address:   p.Place,
			},
			ReportedBy: usgsReporter,
			MediaURLs:  linkList(p.URL),
			Source:     sourceUSGS,
			Verified:   true,
			ReportedAt: time.UnixMilli(p.Time).UTC(),
			UpdatedAt:  now,
		})
	}

	return reports, nil
}

func magnitudeSeverity(mag float64) models.Severity {
	switch {
	case mag >= 7.5:
		return models.SeverityCritical
	case mag >= 6.5:
		return models.SeverityHigh
	default:
		return models.SeverityMedium
	}
}
