package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mr1hm/go-ocean-hazards/internal/hotspot"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/observability"
	"github.com/mr1hm/go-ocean-hazards/internal/repository"
	"github.com/mr1hm/go-ocean-hazards/internal/synthetic"
)

const hotspotScanLimit = 1000

// HotspotScanner is satisfied by *alerting.Alerter.
type HotspotScanner interface {
	ScanHotspots(ctx context.Context, hotspots []models.Hotspot)
}

// SyntheticPostsJob stores a batch of generated posts around a random
// coastal site.
func SyntheticPostsJob(gen *synthetic.Generator, posts repository.PostRepository, batch int, radiusKm float64, metrics *observability.Metrics) Job {
	return func(ctx context.Context) error {
		site := gen.RandomSite()
		generated := gen.Posts(batch, synthetic.Options{
			Center:    models.Coordinates{Latitude: site.Latitude, Longitude: site.Longitude},
			RadiusKm:  radiusKm,
			PlaceName: site.Name,
		})

		written, err := posts.AddPosts(ctx, generated)
		if metrics != nil {
			metrics.SyntheticPosts.Add(float64(written))
		}
		if err != nil {
			return fmt.Errorf("stored %d of %d synthetic posts: %w", written, len(generated), err)
		}
		slog.Info("synthetic posts generated", "count", written, "site", site.Name)
		return nil
	}
}

// HotspotScanJob clusters open reports and hands the result to the scanner.
func HotspotScanJob(reports repository.ReportRepository, scanner HotspotScanner) Job {
	return func(ctx context.Context) error {
		open, err := reports.List(ctx, repository.Filter{OpenOnly: true, Limit: hotspotScanLimit})
		if err != nil {
			return fmt.Errorf("error listing open reports: %w", err)
		}
		hotspots := hotspot.Generate(open)
		scanner.ScanHotspots(ctx, hotspots)
		slog.Debug("hotspot scan complete", "reports", len(open), "hotspots", len(hotspots))
		return nil
	}
}
