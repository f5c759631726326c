package models

type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

func (i Intensity) Rank() int {
	switch i {
	case IntensityLow:
		return 1
	case IntensityMedium:
		return 2
	case IntensityHigh:
		return 3
	default:
		return 0
	}
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Hotspot is derived from reports on demand and never persisted.
type Hotspot struct {
	ID            string       `json:"id"` // bucket key, e.g. "13.1,80.3"
	Center        Coordinates  `json:"center"`
	RadiusKm      float64      `json:"radiusKm"`
	Intensity     Intensity    `json:"intensity"`
	ReportCount   int          `json:"reportCount"`
	DominantTypes []HazardType `json:"dominantTypes"`
	Reports       []string     `json:"reports"`
}
