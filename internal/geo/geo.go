package geo

import "math"

const (
	KmPerDegreeLat = 111.32
	earthRadiusKm  = 6371.0
)

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// DistanceKm is the haversine distance between two points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// OffsetKm moves a point north/east by the given kilometres using a
// flat-earth approximation. Accurate enough for offsets of tens of km.
func OffsetKm(lat, lng, northKm, eastKm float64) (float64, float64) {
	dLat := northKm / KmPerDegreeLat
	dLng := eastKm / (KmPerDegreeLat * math.Cos(toRad(lat)))
	return lat + dLat, lng + dLng
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
