// Package geocode resolves report coordinates to a human-readable place.
package geocode

import (
	"context"
	"log/slog"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

// Result is the place found for a coordinate. A zero Result means nothing
// was found.
type Result struct {
	Address  string
	State    string
	District string
}

func (r Result) Empty() bool {
	return r.Address == "" && r.State == "" && r.District == ""
}

type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (Result, error)
}

// Enrich fills the report's missing address fields. A lookup failure leaves
// the report unchanged and is only logged.
func Enrich(ctx context.Context, g Geocoder, r *models.HazardReport) {
	if g == nil || r.Location.Address != "" {
		return
	}

	res, err := g.Reverse(ctx, r.Location.Latitude, r.Location.Longitude)
	if err != nil {
		slog.Warn("reverse geocoding failed", "id", r.ID, "error", err)
		return
	}

	r.Location.Address = res.Address
	if r.Location.State == "" {
		r.Location.State = res.State
	}
	if r.Location.District == "" {
		r.Location.District = res.District
	}
}
