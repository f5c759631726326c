package api

import (
	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func point(lat, lng float64) Geometry {
	// GeoJSON is lng,lat
	return Geometry{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
	}
}

func reportsToGeoJSON(reports []models.HazardReport) FeatureCollection {
	features := make([]Feature, 0, len(reports))

	for _, r := range reports {
		features = append(features, Feature{
			Type:     "Feature",
			ID:       r.ID,
			Geometry: point(r.Location.Latitude, r.Location.Longitude),
			Properties: map[string]any{
				"id":          r.ID,
				"title":       r.Title,
				"description": r.Description,
				"type":        r.Type,
				"severity":    r.Severity,
				"status":      r.Status,
				"source":      r.Source,
				"verified":    r.Verified,
				"address":     r.Location.Address,
				"state":       r.Location.State,
				"district":    r.Location.District,
				"reported_at": r.ReportedAt,
				"updated_at":  r.UpdatedAt,
			},
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// hotspotsToGeoJSON emits Point features; clients draw the radius themselves.
func hotspotsToGeoJSON(hotspots []models.Hotspot) FeatureCollection {
	features := make([]Feature, 0, len(hotspots))

	for _, h := range hotspots {
		features = append(features, Feature{
			Type:     "Feature",
			ID:       h.ID,
			Geometry: point(h.Center.Latitude, h.Center.Longitude),
			Properties: map[string]any{
				"id":             h.ID,
				"intensity":      h.Intensity,
				"radius_km":      h.RadiusKm,
				"report_count":   h.ReportCount,
				"dominant_types": h.DominantTypes,
				"reports":        h.Reports,
			},
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
