// Package synthetic fabricates social-media posts and hazard reports for
// demos, load tests and the live feed.
package synthetic

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-ocean-hazards/internal/geo"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

const (
	DefaultRadiusKm = 25.0

	MinSentimentScore = -10.0
	MaxSentimentScore = 10.0
	MinRelevance      = 0.0
	MaxRelevance      = 100.0

	reportJitterKm = 5.0
	maxPostAge     = 6 * time.Hour
)

type Options struct {
	Center   models.Coordinates
	RadiusKm float64
	// HazardType pins the type instead of drawing it. Optional.
	HazardType models.HazardType
	// PlaceName is used in the post text. Defaults to the nearest coastal site.
	PlaceName string
}

// Generator is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	clock clockwork.Clock
}

func NewGenerator(seed uint64, clock clockwork.Clock) *Generator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Generator{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		clock: clock,
	}
}

// Post fabricates a single post located inside the disc described by opts.
func (g *Generator) Post(opts Options) models.SyntheticPost {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.post(opts)
}

// Posts fabricates n posts around the same center.
func (g *Generator) Posts(n int, opts Options) []models.SyntheticPost {
	g.mu.Lock()
	defer g.mu.Unlock()

	posts := make([]models.SyntheticPost, 0, n)
	for range n {
		posts = append(posts, g.post(opts))
	}
	return posts
}

func (g *Generator) post(opts Options) models.SyntheticPost {
	radius := opts.RadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}

	hazard := opts.HazardType
	if hazard == "" {
		hazard = pick(g.rng, hazardWeights)
	}
	severity := pick(g.rng, severityWeights)
	sentiment := pick(g.rng, sentimentWeights)
	platform := pick(g.rng, platformWeights)
	author := pick(g.rng, authorWeights)
	if platform == models.PlatformNews && !officialAuthors[author] {
		author = "local_news_desk"
	}

	place := opts.PlaceName
	if place == "" {
		place = nearestSite(opts.Center.Latitude, opts.Center.Longitude).Name
	}

	lat, lng := g.pointInDisc(opts.Center.Latitude, opts.Center.Longitude, radius)
	keywords := g.keywords(hazard)

	return models.SyntheticPost{
		ID:         "post_" + uuid.NewString(),
		Platform:   platform,
		Author:     "@" + author,
		Content:    render(g.template(hazard, sentiment), place, hazard),
		HazardType: hazard,
		Severity:   severity,
		Sentiment: models.Sentiment{
			Label: sentiment,
			Score: g.sentimentScore(sentiment, severity),
		},
		Keywords:       keywords,
		Engagement:     g.engagement(sentiment, severity),
		Location:       models.Location{Latitude: lat, Longitude: lng, Address: place},
		RelevanceScore: g.relevance(severity, len(keywords), officialAuthors[author]),
		IsSynthetic:    true,
		PostedAt:       g.clock.Now().Add(-time.Duration(g.rng.Int64N(int64(maxPostAge)))),
	}
}

// Report fabricates a citizen hazard report a few km from site.
func (g *Generator) Report(site geo.Site) models.HazardReport {
	g.mu.Lock()
	defer g.mu.Unlock()

	hazard := pick(g.rng, hazardWeights)
	severity := pick(g.rng, severityWeights)
	status := models.StatusUnverified
	if g.rng.Float64() < 0.3 {
		status = models.StatusActive
	}
	author := pick(g.rng, authorWeights)
	titles := reportTitles[hazard]
	lat, lng := g.pointInDisc(site.Latitude, site.Longitude, reportJitterKm)
	now := g.clock.Now()

	return models.HazardReport{
		ID:          "syn_" + uuid.NewString(),
		Title:       render(titles[g.rng.IntN(len(titles))], site.Name, hazard),
		Description: render(g.template(hazard, models.SentimentConcern), site.Name, hazard),
		Type:        hazard,
		Severity:    severity,
		Status:      status,
		Location: models.Location{
			Latitude:  lat,
			Longitude: lng,
			Address:   site.Name,
			State:     site.State,
			District:  site.District,
		},
		ReportedBy: models.Reporter{
			ID:   "usr_" + author,
			Name: author,
			Type: models.ReporterCitizen,
		},
		Source:     "synthetic",
		ReportedAt: now,
		UpdatedAt:  now,
	}
}

// RandomSite draws one of the coastal sites uniformly.
func (g *Generator) RandomSite() geo.Site {
	g.mu.Lock()
	defer g.mu.Unlock()
	return geo.CoastalSites[g.rng.IntN(len(geo.CoastalSites))]
}

// pointInDisc samples uniformly over the disc's area.
func (g *Generator) pointInDisc(lat, lng, radiusKm float64) (float64, float64) {
	r := radiusKm * math.Sqrt(g.rng.Float64())
	theta := 2 * math.Pi * g.rng.Float64()
	return geo.OffsetKm(lat, lng, r*math.Cos(theta), r*math.Sin(theta))
}

func (g *Generator) template(hazard models.HazardType, sentiment models.SentimentLabel) string {
	candidates := postTemplates[hazard][sentiment]
	if len(candidates) == 0 {
		candidates = genericTemplates[sentiment]
	}
	return candidates[g.rng.IntN(len(candidates))]
}

func (g *Generator) keywords(hazard models.HazardType) []string {
	pool := hazardKeywords[hazard]
	n := min(len(pool), 2+g.rng.IntN(3))
	idx := g.rng.Perm(len(pool))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

func (g *Generator) sentimentScore(label models.SentimentLabel, severity models.Severity) float64 {
	score := baseSentimentScore[label] + severitySentimentShift[severity] + g.rng.NormFloat64()*1.5
	return clamp(math.Round(score*10)/10, MinSentimentScore, MaxSentimentScore)
}

func (g *Generator) relevance(severity models.Severity, keywordCount int, official bool) float64 {
	score := 30 + float64(severity.Rank())*10 + float64(keywordCount)*4 + g.rng.NormFloat64()*10
	if official {
		score += 15
	}
	return clamp(math.Round(score*10)/10, MinRelevance, MaxRelevance)
}

func (g *Generator) engagement(label models.SentimentLabel, severity models.Severity) models.Engagement {
	mult := sentimentEngagement[label] * severityEngagement[severity]
	likes := int(float64(10+g.rng.IntN(240)) * mult)
	return models.Engagement{
		Likes:    likes,
		Shares:   int(float64(likes) * (0.1 + 0.3*g.rng.Float64())),
		Comments: int(float64(likes) * (0.05 + 0.2*g.rng.Float64())),
	}
}

func nearestSite(lat, lng float64) geo.Site {
	best := geo.CoastalSites[0]
	bestDist := math.Inf(1)
	for _, s := range geo.CoastalSites {
		if d := geo.DistanceKm(lat, lng, s.Latitude, s.Longitude); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
