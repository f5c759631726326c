package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

// AddPosts writes each post on its own. It is best-effort: failed rows are
// skipped and reported in the joined error, alongside the count written.
func (s *SQLiteDB) AddPosts(ctx context.Context, posts []models.SyntheticPost) (int, error) {
	var (
		written int
		errs    []error
	)
	for _, p := range posts {
		if err := s.addPost(ctx, p); err != nil {
			errs = append(errs, err)
			continue
		}
		written++
	}
	return written, errors.Join(errs...)
}

func (s *SQLiteDB) addPost(ctx context.Context, p models.SyntheticPost) error {
	keywords, err := json.Marshal(p.Keywords)
	if err != nil {
		return fmt.Errorf("error encoding keywords for %s: %w", p.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO social_media_posts (
			id, platform, author, content, hazard_type, severity, sentiment_label, sentiment_score,
			keywords, likes, shares, comments, latitude, longitude, address, relevance_score,
			is_synthetic, posted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Platform), p.Author, p.Content, string(p.HazardType), string(p.Severity),
		string(p.Sentiment.Label), p.Sentiment.Score, string(keywords),
		p.Engagement.Likes, p.Engagement.Shares, p.Engagement.Comments,
		p.Location.Latitude, p.Location.Longitude, p.Location.Address, p.RelevanceScore,
		p.IsSynthetic, p.PostedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("error inserting post %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteDB) ListPosts(ctx context.Context, opts PostFilter) ([]models.SyntheticPost, error) {
	var (
		where []string
		args  []any
	)
	if opts.Since != nil {
		where = append(where, "posted_at >= ?")
		args = append(args, opts.Since.UnixMilli())
	}
	if opts.Platform != nil {
		where = append(where, "platform = ?")
		args = append(args, string(*opts.Platform))
	}
	if opts.HazardType != nil {
		where = append(where, "hazard_type = ?")
		args = append(args, string(*opts.HazardType))
	}

	query := `SELECT id, platform, author, content, hazard_type, severity, sentiment_label, sentiment_score,
		keywords, likes, shares, comments, latitude, longitude, address, relevance_score, is_synthetic, posted_at
		FROM social_media_posts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY posted_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.SyntheticPost, 0)
	for rows.Next() {
		var (
			p                            models.SyntheticPost
			platform, hazard, sev, label string
			keywords, address            sql.NullString
			postedAt                     int64
		)
		if err := rows.Scan(
			&p.ID, &platform, &p.Author, &p.Content, &hazard, &sev, &label, &p.Sentiment.Score,
			&keywords, &p.Engagement.Likes, &p.Engagement.Shares, &p.Engagement.Comments,
			&p.Location.Latitude, &p.Location.Longitude, &address, &p.RelevanceScore, &p.IsSynthetic, &postedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning post: %w", err)
		}
		p.Platform = models.Platform(platform)
		p.HazardType = models.HazardType(hazard)
		p.Severity = models.Severity(sev)
		p.Sentiment.Label = models.SentimentLabel(label)
		p.Location.Address = address.String
		p.PostedAt = time.UnixMilli(postedAt).UTC()
		if keywords.Valid && keywords.String != "" && keywords.String != "null" {
			if err := json.Unmarshal([]byte(keywords.String), &p.Keywords); err != nil {
				return nil, fmt.Errorf("error decoding keywords for %s: %w", p.ID, err)
			}
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *SQLiteDB) PostStats(ctx context.Context, since time.Time) (models.PostStats, error) {
	stats := models.PostStats{
		BySentiment:  make(map[models.SentimentLabel]int),
		ByPlatform:   make(map[models.Platform]int),
		ByHazardType: make(map[models.HazardType]int),
	}

	var avgSentiment, avgRelevance sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), AVG(sentiment_score), AVG(relevance_score) FROM social_media_posts WHERE posted_at >= ?`,
		since.UnixMilli(),
	).Scan(&stats.Total, &avgSentiment, &avgRelevance)
	if err != nil {
		return stats, fmt.Errorf("error aggregating posts: %w", err)
	}
	stats.AverageSentiment = avgSentiment.Float64
	stats.AverageRelevance = avgRelevance.Float64

	groups := []struct {
		column string
		add    func(key string, n int)
	}{
		{"sentiment_label", func(k string, n int) { stats.BySentiment[models.SentimentLabel(k)] = n }},
		{"platform", func(k string, n int) { stats.ByPlatform[models.Platform(k)] = n }},
		{"hazard_type", func(k string, n int) { stats.ByHazardType[models.HazardType(k)] = n }},
	}
	for _, g := range groups {
		if err := s.countBy(ctx, g.column, since, g.add); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// countBy runs a GROUP BY on a fixed, trusted column name.
func (s *SQLiteDB) countBy(ctx context.Context, column string, since time.Time, add func(string, int)) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+column+`, COUNT(1) FROM social_media_posts WHERE posted_at >= ? GROUP BY `+column,
		since.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("error counting posts by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("error scanning %s counts: %w", column, err)
		}
		add(key, n)
	}
	return rows.Err()
}
