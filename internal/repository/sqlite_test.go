package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testReport(id string, typ models.HazardType, sev models.Severity, status models.Status, at time.Time) *models.HazardReport {
	return &models.HazardReport{
		ID:       id,
		Title:    "Report " + id,
		Type:     typ,
		Severity: sev,
		Status:   status,
		Location: models.Location{Latitude: 13.05, Longitude: 80.28},
		ReportedBy: models.Reporter{
			ID: "u1", Name: "Asha", Type: models.ReporterCitizen,
		},
		Source:     "citizen",
		ReportedAt: at,
	}
}

func TestSQLiteDB_AddAndGetReport(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	r := testReport("test_123", models.HazardHighWaves, models.SeverityHigh, models.StatusUnverified, now)
	r.Description = "Waves crossing the promenade"
	r.Location.Address = "Marina Beach"
	r.Location.State = "Tamil Nadu"
	r.Location.District = "Chennai"
	r.MediaURLs = []string{"https://example.org/a.jpg", "https://example.org/b.mp4"}

	if err := db.Add(ctx, r); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := db.GetByID(ctx, "test_123")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected report, got nil")
	}
	if got.Title != r.Title || got.Description != r.Description {
		t.Errorf("unexpected text fields: %+v", got)
	}
	if got.Location != r.Location {
		t.Errorf("expected location %+v, got %+v", r.Location, got.Location)
	}
	if got.ReportedBy != r.ReportedBy {
		t.Errorf("expected reporter %+v, got %+v", r.ReportedBy, got.ReportedBy)
	}
	if len(got.MediaURLs) != 2 || got.MediaURLs[1] != "https://example.org/b.mp4" {
		t.Errorf("unexpected media urls: %v", got.MediaURLs)
	}
	if !got.ReportedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Errorf("expected timestamps %v, got %v / %v", now, got.ReportedAt, got.UpdatedAt)
	}
}

func TestSQLiteDB_GetMissing(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing report, got %+v", got)
	}
}

func TestSQLiteDB_Exists(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	exists, err := db.Exists(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected false for nonexistent ID")
	}

	db.Add(ctx, testReport("exists_test", models.HazardFlood, models.SeverityLow, models.StatusActive, time.Now()))

	exists, err = db.Exists(ctx, "exists_test")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected true for existing ID")
	}
}

func TestSQLiteDB_List_WithFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	reports := []*models.HazardReport{
		testReport("ts1", models.HazardTsunami, models.SeverityCritical, models.StatusActive, now),
		testReport("ts2", models.HazardTsunami, models.SeverityLow, models.StatusResolved, now.Add(-time.Hour)),
		testReport("fl1", models.HazardFlood, models.SeverityHigh, models.StatusUnverified, now.Add(-48*time.Hour)),
		testReport("fl2", models.HazardFlood, models.SeverityMedium, models.StatusFalseAlarm, now.Add(-2*time.Hour)),
	}
	reports[2].Location = models.Location{Latitude: 19.1, Longitude: 72.8}
	reports[3].Source = "gdacs"
	for _, r := range reports {
		if err := db.Add(ctx, r); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	tsunami := models.HazardTsunami
	high := models.SeverityHigh
	medium := models.SeverityMedium
	active := models.StatusActive
	gdacs := "gdacs"
	since := now.Add(-24 * time.Hour)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"ts1", "ts2", "fl2", "fl1"}},
		{"type", Filter{Type: &tsunami}, []string{"ts1", "ts2"}},
		{"exact severity", Filter{Severity: &medium}, []string{"fl2"}},
		{"min severity", Filter{MinSeverity: &high}, []string{"ts1", "fl1"}},
		{"status", Filter{Status: &active}, []string{"ts1"}},
		{"open only", Filter{OpenOnly: true}, []string{"ts1", "fl1"}},
		{"source", Filter{Source: &gdacs}, []string{"fl2"}},
		{"since", Filter{Since: &since}, []string{"ts1", "ts2", "fl2"}},
		{"bbox", Filter{BBox: &BBox{MinLat: 18, MinLng: 72, MaxLat: 20, MaxLng: 73}}, []string{"fl1"}},
		{"limit", Filter{Limit: 2}, []string{"ts1", "ts2"}},
		{"offset", Filter{Limit: 2, Offset: 2}, []string{"fl2", "fl1"}},
	}
	for _, tt := range tests {
		got, err := db.List(ctx, tt.filter)
		if err != nil {
			t.Fatalf("%s: List failed: %v", tt.name, err)
		}
		if len(got) != len(tt.want) {
			t.Errorf("%s: expected %d reports, got %d", tt.name, len(tt.want), len(got))
			continue
		}
		for i, id := range tt.want {
			if got[i].ID != id {
				t.Errorf("%s: position %d expected %s, got %s", tt.name, i, id, got[i].ID)
			}
		}
	}
}

func TestSQLiteDB_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	db.Add(ctx, testReport("st1", models.HazardCyclone, models.SeverityHigh, models.StatusUnverified, now.Add(-time.Hour)))

	if err := db.UpdateStatus(ctx, "st1", models.StatusUnverified, models.StatusActive, now); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, _ := db.GetByID(ctx, "st1")
	if got.Status != models.StatusActive {
		t.Errorf("expected active, got %s", got.Status)
	}
	if !got.Verified {
		t.Error("activating a report should mark it verified")
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("expected updated_at %v, got %v", now, got.UpdatedAt)
	}

	// Verified sticks after resolving
	db.UpdateStatus(ctx, "st1", models.StatusActive, models.StatusResolved, now)
	got, _ = db.GetByID(ctx, "st1")
	if !got.Verified {
		t.Error("verified flag should survive later transitions")
	}

	err := db.UpdateStatus(ctx, "missing", models.StatusUnverified, models.StatusActive, now)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteDB_UpdateStatusStaleFrom(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	db.Add(ctx, testReport("st2", models.HazardFlood, models.SeverityMedium, models.StatusUnverified, now.Add(-time.Hour)))

	if err := db.UpdateStatus(ctx, "st2", models.StatusUnverified, models.StatusFalseAlarm, now); err != nil {
		t.Fatalf("first UpdateStatus failed: %v", err)
	}

	// A second writer that read the report while it was still unverified
	err := db.UpdateStatus(ctx, "st2", models.StatusUnverified, models.StatusActive, now.Add(time.Second))
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}

	got, _ := db.GetByID(ctx, "st2")
	if got.Status != models.StatusFalseAlarm {
		t.Errorf("expected false_alarm to stick, got %s", got.Status)
	}
	if got.Verified {
		t.Error("rejected activation should not mark the report verified")
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("expected updated_at %v, got %v", now, got.UpdatedAt)
	}
}

func TestSQLiteDB_DuplicateAdd(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	r := testReport("dup_test", models.HazardFlood, models.SeverityLow, models.StatusActive, time.Now())

	if err := db.Add(ctx, r); err != nil {
		t.Fatalf("First Add failed: %v", err)
	}

	// Second add should fail (duplicate primary key)
	if err := db.Add(ctx, r); err == nil {
		t.Error("expected error for duplicate ID, got nil")
	}
}

func testPost(id string, platform models.Platform, label models.SentimentLabel, score float64, at time.Time) models.SyntheticPost {
	return models.SyntheticPost{
		ID:             id,
		Platform:       platform,
		Author:         "@priya.k",
		Content:        "High waves at Marina Beach",
		HazardType:     models.HazardHighWaves,
		Severity:       models.SeverityMedium,
		Sentiment:      models.Sentiment{Label: label, Score: score},
		Keywords:       []string{"high waves", "beach closed"},
		Engagement:     models.Engagement{Likes: 120, Shares: 30, Comments: 12},
		Location:       models.Location{Latitude: 13.05, Longitude: 80.28, Address: "Marina Beach"},
		RelevanceScore: 60,
		IsSynthetic:    true,
		PostedAt:       at,
	}
}

func TestSQLiteDB_Posts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	posts := []models.SyntheticPost{
		testPost("p1", models.PlatformTwitter, models.SentimentPanic, -8, now),
		testPost("p2", models.PlatformTwitter, models.SentimentConcern, -4, now.Add(-time.Hour)),
		testPost("p3", models.PlatformNews, models.SentimentInformative, 2, now.Add(-2*time.Hour)),
		testPost("old", models.PlatformFacebook, models.SentimentNeutral, 0, now.Add(-72*time.Hour)),
	}

	written, err := db.AddPosts(ctx, posts)
	if err != nil || written != 4 {
		t.Fatalf("AddPosts = %d, %v", written, err)
	}

	// Re-adding one existing plus one new is best-effort
	written, err = db.AddPosts(ctx, []models.SyntheticPost{posts[0], testPost("p4", models.PlatformYouTube, models.SentimentReassuring, 5, now)})
	if written != 1 {
		t.Errorf("expected 1 post written, got %d", written)
	}
	if err == nil {
		t.Error("expected joined error for duplicate post")
	}

	since := now.Add(-24 * time.Hour)
	twitter := models.PlatformTwitter
	got, err := db.ListPosts(ctx, PostFilter{Since: &since, Platform: &twitter})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p1" {
		t.Fatalf("unexpected posts: %+v", got)
	}
	if len(got[0].Keywords) != 2 || got[0].Engagement.Likes != 120 || !got[0].IsSynthetic {
		t.Errorf("post fields not round-tripped: %+v", got[0])
	}

	stats, err := db.PostStats(ctx, since)
	if err != nil {
		t.Fatalf("PostStats failed: %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("expected 4 recent posts, got %d", stats.Total)
	}
	if stats.ByPlatform[models.PlatformTwitter] != 2 || stats.ByPlatform[models.PlatformFacebook] != 0 {
		t.Errorf("unexpected platform counts: %v", stats.ByPlatform)
	}
	if stats.BySentiment[models.SentimentPanic] != 1 {
		t.Errorf("unexpected sentiment counts: %v", stats.BySentiment)
	}
	if stats.ByHazardType[models.HazardHighWaves] != 4 {
		t.Errorf("unexpected hazard counts: %v", stats.ByHazardType)
	}
	// (-8 - 4 + 2 + 5) / 4
	if stats.AverageSentiment != -1.25 {
		t.Errorf("expected average sentiment -1.25, got %f", stats.AverageSentiment)
	}
}

func TestSQLiteDB_PostStatsEmpty(t *testing.T) {
	db := setupTestDB(t)

	stats, err := db.PostStats(context.Background(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PostStats failed: %v", err)
	}
	if stats.Total != 0 || stats.AverageSentiment != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}

func TestSQLiteDB_Notifications(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		err := db.AddNotification(ctx, &models.Notification{
			ID:        fmt.Sprintf("n%d", i),
			ReportID:  "r1",
			Level:     models.NotificationCritical,
			Title:     "Critical tsunami report",
			Message:   "Sea receding at Marina Beach",
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AddNotification failed: %v", err)
		}
	}

	if err := db.MarkRead(ctx, "n2"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if err := db.MarkRead(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, err := db.ListNotifications(ctx, false, 0)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "n2" || !all[0].Read {
		t.Errorf("unexpected notifications: %+v", all)
	}

	unread, err := db.ListNotifications(ctx, true, 1)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != "n1" {
		t.Errorf("expected newest unread n1, got %+v", unread)
	}
}
