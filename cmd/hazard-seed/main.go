// Command hazard-seed fills a database with synthetic hazard reports and
// social-media posts, or prints them as JSON.
//
// Usage:
//
//	go run ./cmd/hazard-seed -db ./data/ocean-hazards.db -reports 40 -posts 200
//	go run ./cmd/hazard-seed -print -posts 10 -hazard tsunami
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/mr1hm/go-ocean-hazards/internal/config"
	"github.com/mr1hm/go-ocean-hazards/internal/logging"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/repository"
	"github.com/mr1hm/go-ocean-hazards/internal/synthetic"
)

func main() {
	if err := run(); err != nil {
		logging.Fatalf("hazard-seed: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logging.Setup(cfg.Logging.Level, "text")

	dbPath := flag.String("db", cfg.DB.Path, "SQLite database path")
	nReports := flag.Int("reports", 20, "number of synthetic reports")
	nPosts := flag.Int("posts", 100, "number of synthetic posts")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	hazard := flag.String("hazard", "", "restrict posts to one hazard type")
	radius := flag.Float64("radius", cfg.Synthetic.RadiusKm, "post scatter radius in km")
	printOnly := flag.Bool("print", false, "print JSON to stdout instead of writing the database")
	flag.Parse()

	if *nReports < 0 || *nPosts < 0 {
		return fmt.Errorf("-reports and -posts must not be negative")
	}
	var hazardType models.HazardType
	if *hazard != "" {
		t, ok := models.ParseHazardType(*hazard)
		if !ok {
			return fmt.Errorf("unknown hazard type %q", *hazard)
		}
		hazardType = t
	}

	gen := synthetic.NewGenerator(*seed, nil)
	reports := make([]models.HazardReport, 0, *nReports)
	for range *nReports {
		reports = append(reports, gen.Report(gen.RandomSite()))
	}

	// Posts are spread over a handful of sites so hotspots and dashboards
	// have more than one cluster to show.
	var posts []models.SyntheticPost
	for remaining := *nPosts; remaining > 0; {
		batch := min(remaining, cfg.Synthetic.BatchSize)
		site := gen.RandomSite()
		posts = append(posts, gen.Posts(batch, synthetic.Options{
			Center:     models.Coordinates{Latitude: site.Latitude, Longitude: site.Longitude},
			RadiusKm:   *radius,
			HazardType: hazardType,
			PlaceName:  site.Name,
		})...)
		remaining -= batch
	}

	if *printOnly {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"reports": reports,
			"posts":   posts,
		})
	}

	if dir := filepath.Dir(*dbPath); *dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := repository.NewSQLiteDB(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	stored := 0
	for i := range reports {
		if err := db.Add(ctx, &reports[i]); err != nil {
			slog.Warn("skipping report", "id", reports[i].ID, "error", err)
			continue
		}
		stored++
	}
	written, err := db.AddPosts(ctx, posts)
	if err != nil {
		slog.Warn("some posts were not stored", "error", err)
	}

	slog.Info("seed complete", "db", *dbPath, "reports", stored, "posts", written)
	return nil
}
