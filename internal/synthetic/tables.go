package synthetic

import (
	"math/rand/v2"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

type weighted[T any] struct {
	value  T
	weight float64
}

// pick draws one value with probability proportional to its weight.
func pick[T any](rng *rand.Rand, table []weighted[T]) T {
	var total float64
	for _, w := range table {
		total += w.weight
	}
	r := rng.Float64() * total
	for _, w := range table {
		if r < w.weight {
			return w.value
		}
		r -= w.weight
	}
	return table[len(table)-1].value
}

var hazardWeights = []weighted[models.HazardType]{
	{models.HazardTsunami, 10},
	{models.HazardCyclone, 20},
	{models.HazardFlood, 20},
	{models.HazardStormSurge, 12},
	{models.HazardHighWaves, 18},
	{models.HazardCoastalErosion, 6},
	{models.HazardRipCurrent, 8},
	{models.HazardOilSpill, 4},
	{models.HazardOther, 2},
}

var severityWeights = []weighted[models.Severity]{
	{models.SeverityLow, 30},
	{models.SeverityMedium, 35},
	{models.SeverityHigh, 25},
	{models.SeverityCritical, 10},
}

var sentimentWeights = []weighted[models.SentimentLabel]{
	{models.SentimentPanic, 15},
	{models.SentimentConcern, 30},
	{models.SentimentNeutral, 20},
	{models.SentimentInformative, 25},
	{models.SentimentReassuring, 10},
}

var platformWeights = []weighted[models.Platform]{
	{models.PlatformTwitter, 40},
	{models.PlatformFacebook, 25},
	{models.PlatformInstagram, 15},
	{models.PlatformYouTube, 8},
	{models.PlatformNews, 12},
}

var authorWeights = []weighted[string]{
	{"coastal_watcher", 8},
	{"fisherman_raju", 8},
	{"priya.k", 10},
	{"beachside_anil", 8},
	{"surf_report_goa", 6},
	{"meera_travels", 7},
	{"chennai_rains", 9},
	{"vizag_updates", 7},
	{"local_news_desk", 5},
	{"weather_nerd_91", 6},
	{"IMD_Weather", 2},
	{"INCOIS_Official", 2},
}

var officialAuthors = map[string]bool{
	"IMD_Weather":     true,
	"INCOIS_Official": true,
	"local_news_desk": true,
}

var baseSentimentScore = map[models.SentimentLabel]float64{
	models.SentimentPanic:       -8,
	models.SentimentConcern:     -4.5,
	models.SentimentNeutral:     0,
	models.SentimentInformative: 2,
	models.SentimentReassuring:  6,
}

// Severity pulls the sentiment score further negative.
var severitySentimentShift = map[models.Severity]float64{
	models.SeverityLow:      1,
	models.SeverityMedium:   0,
	models.SeverityHigh:     -1,
	models.SeverityCritical: -2,
}

var sentimentEngagement = map[models.SentimentLabel]float64{
	models.SentimentPanic:       3.0,
	models.SentimentConcern:     1.8,
	models.SentimentNeutral:     1.0,
	models.SentimentInformative: 1.4,
	models.SentimentReassuring:  0.8,
}

var severityEngagement = map[models.Severity]float64{
	models.SeverityLow:      0.6,
	models.SeverityMedium:   1.0,
	models.SeverityHigh:     1.8,
	models.SeverityCritical: 3.0,
}

var hazardKeywords = map[models.HazardType][]string{
	models.HazardTsunami:        {"tsunami", "earthquake", "evacuation", "wave", "warning", "sea receding"},
	models.HazardCyclone:        {"cyclone", "landfall", "wind", "IMD", "red alert", "evacuation"},
	models.HazardFlood:          {"flood", "waterlogging", "rain", "inundation", "rescue", "submerged"},
	models.HazardStormSurge:     {"storm surge", "sea water", "coastal flooding", "high tide", "cyclone"},
	models.HazardHighWaves:      {"high waves", "swell", "rough sea", "fishermen", "warning", "beach closed"},
	models.HazardCoastalErosion: {"erosion", "sea wall", "shoreline", "beach loss", "houses damaged"},
	models.HazardRipCurrent:     {"rip current", "drowning", "lifeguard", "swimmers", "beach"},
	models.HazardOilSpill:       {"oil spill", "slick", "pollution", "fish kill", "clean-up"},
	models.HazardOther:          {"coast", "sea", "alert", "safety"},
}
