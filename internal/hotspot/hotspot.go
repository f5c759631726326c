// Package hotspot groups hazard reports into 0.1° grid buckets.
//
// Adjacent buckets are never merged, so two reports a few hundred metres
// apart on either side of a bucket edge land in different hotspots.
package hotspot

import (
	"fmt"
	"sort"

	"github.com/mr1hm/go-ocean-hazards/internal/geo"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

const (
	MinReports     = 2
	KmPerReport    = 15.0
	MaxRadiusKm    = 50.0
	bucketDecimals = 1
)

type bucket struct {
	key     string
	reports []models.HazardReport
}

// Generate returns a hotspot for every bucket holding at least MinReports
// reports, ordered by report count then ID.
func Generate(reports []models.HazardReport) []models.Hotspot {
	buckets := make(map[string]*bucket)
	var order []string

	for _, r := range reports {
		key := Key(r.Location.Latitude, r.Location.Longitude)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key}
			buckets[key] = b
			order = append(order, key)
		}
		b.reports = append(b.reports, r)
	}

	hotspots := make([]models.Hotspot, 0)
	for _, key := range order {
		b := buckets[key]
		if len(b.reports) < MinReports {
			continue
		}
		hotspots = append(hotspots, build(b))
	}

	sort.SliceStable(hotspots, func(i, j int) bool {
		if hotspots[i].ReportCount != hotspots[j].ReportCount {
			return hotspots[i].ReportCount > hotspots[j].ReportCount
		}
		return hotspots[i].ID < hotspots[j].ID
	})
	return hotspots
}

// Open keeps reports whose status is still open.
func Open(reports []models.HazardReport) []models.HazardReport {
	out := make([]models.HazardReport, 0, len(reports))
	for _, r := range reports {
		if r.Status.IsOpen() {
			out = append(out, r)
		}
	}
	return out
}

// Key is the bucket key for a coordinate.
func Key(lat, lng float64) string {
	return fmt.Sprintf("%.1f,%.1f", bucketCoord(lat), bucketCoord(lng))
}

// bucketCoord rounds v and folds -0 into 0 so both sides of the equator and
// the prime meridian share a key.
func bucketCoord(v float64) float64 {
	return geo.RoundTo(v, bucketDecimals) + 0
}

func build(b *bucket) models.Hotspot {
	var sumLat, sumLng float64
	ids := make([]string, 0, len(b.reports))
	types := make(map[models.HazardType]struct{})

	for _, r := range b.reports {
		sumLat += r.Location.Latitude
		sumLng += r.Location.Longitude
		ids = append(ids, r.ID)
		types[r.Type] = struct{}{}
	}

	dominant := make([]models.HazardType, 0, len(types))
	for t := range types {
		dominant = append(dominant, t)
	}
	sort.Slice(dominant, func(i, j int) bool { return dominant[i] < dominant[j] })

	n := float64(len(b.reports))
	return models.Hotspot{
		ID: b.key,
		Center: models.Coordinates{
			Latitude:  sumLat / n,
			Longitude: sumLng / n,
		},
		RadiusKm:      min(MaxRadiusKm, n*KmPerReport),
		Intensity:     Classify(b.reports),
		ReportCount:   len(b.reports),
		DominantTypes: dominant,
		Reports:       ids,
	}
}

// Classify derives a bucket's intensity:
// any critical or two highs is high; one high or three active is medium.
func Classify(reports []models.HazardReport) models.Intensity {
	var critical, high, active int
	for _, r := range reports {
		switch r.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityHigh:
			high++
		}
		if r.Status == models.StatusActive {
			active++
		}
	}

	switch {
	case critical > 0:
		return models.IntensityHigh
	case high >= 2:
		return models.IntensityHigh
	case high > 0 || active >= 3:
		return models.IntensityMedium
	default:
		return models.IntensityLow
	}
}
