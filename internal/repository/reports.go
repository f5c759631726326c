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

const reportColumns = `id, title, description, type, severity, status, latitude, longitude,
	address, state, district, reporter_id, reporter_name, reporter_type,
	media_urls, source, verified, reported_at, updated_at`

func (s *SQLiteDB) Add(ctx context.Context, r *models.HazardReport) error {
	media, err := json.Marshal(r.MediaURLs)
	if err != nil {
		return fmt.Errorf("error encoding media urls: %w", err)
	}

	updated := r.UpdatedAt
	if updated.IsZero() {
		updated = r.ReportedAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO hazard_reports (
			id, title, description, type, severity, severity_rank, status, latitude, longitude,
			address, state, district, reporter_id, reporter_name, reporter_type,
			media_urls, source, verified, reported_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Description, string(r.Type), string(r.Severity), r.Severity.Rank(), string(r.Status),
		r.Location.Latitude, r.Location.Longitude,
		r.Location.Address, r.Location.State, r.Location.District,
		r.ReportedBy.ID, r.ReportedBy.Name, string(r.ReportedBy.Type),
		string(media), r.Source, r.Verified, r.ReportedAt.UnixMilli(), updated.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("error inserting report %s: %w", r.ID, err)
	}
	return nil
}

// GetByID returns nil, nil when no report has the id.
func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.HazardReport, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM hazard_reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting report %s: %w", id, err)
	}
	return r, nil
}

func (s *SQLiteDB) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM hazard_reports WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error checking report %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteDB) List(ctx context.Context, opts Filter) ([]models.HazardReport, error) {
	var (
		where []string
		args  []any
	)

	if opts.Since != nil {
		where = append(where, "reported_at >= ?")
		args = append(args, opts.Since.UnixMilli())
	}
	if opts.Type != nil {
		where = append(where, "type = ?")
		args = append(args, string(*opts.Type))
	}
	if opts.Severity != nil {
		where = append(where, "severity = ?")
		args = append(args, string(*opts.Severity))
	}
	if opts.MinSeverity != nil {
		where = append(where, "severity_rank >= ?")
		args = append(args, opts.MinSeverity.Rank())
	}
	if opts.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*opts.Status))
	}
	if opts.OpenOnly {
		where = append(where, "status NOT IN (?, ?)")
		args = append(args, string(models.StatusResolved), string(models.StatusFalseAlarm))
	}
	if opts.Source != nil {
		where = append(where, "source = ?")
		args = append(args, *opts.Source)
	}
	if opts.BBox != nil {
		where = append(where, "latitude BETWEEN ? AND ?", "longitude BETWEEN ? AND ?")
		args = append(args, opts.BBox.MinLat, opts.BBox.MaxLat, opts.BBox.MinLng, opts.BBox.MaxLng)
	}

	query := `SELECT ` + reportColumns + ` FROM hazard_reports`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY reported_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing reports: %w", err)
	}
	defer rows.Close()

	reports := make([]models.HazardReport, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// UpdateStatus moves a report from one status to another. It returns
// ErrNotFound when no report has the id and ErrStatusConflict when the stored
// status is no longer from.
func (s *SQLiteDB) UpdateStatus(ctx context.Context, id string, from, to models.Status, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE hazard_reports SET status = ?, verified = verified OR ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), to == models.StatusActive, at.UnixMilli(), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("error updating report %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating report %s: %w", id, err)
	}
	if n > 0 {
		return nil
	}
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStatusConflict
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(sc scanner) (*models.HazardReport, error) {
	var (
		r                                  models.HazardReport
		typ, severity, status, reporterTyp string
		description, address, state        sql.NullString
		district, reporterID, reporterName sql.NullString
		media                              sql.NullString
		reportedAt, updatedAt              int64
	)
	err := sc.Scan(
		&r.ID, &r.Title, &description, &typ, &severity, &status,
		&r.Location.Latitude, &r.Location.Longitude,
		&address, &state, &district, &reporterID, &reporterName, &reporterTyp,
		&media, &r.Source, &r.Verified, &reportedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Description = description.String
	r.Type = models.HazardType(typ)
	r.Severity = models.Severity(severity)
	r.Status = models.Status(status)
	r.Location.Address = address.String
	r.Location.State = state.String
	r.Location.District = district.String
	r.ReportedBy = models.Reporter{
		ID:   reporterID.String,
		Name: reporterName.String,
		Type: models.ReporterType(reporterTyp),
	}
	if media.Valid && media.String != "" && media.String != "null" {
		if err := json.Unmarshal([]byte(media.String), &r.MediaURLs); err != nil {
			return nil, fmt.Errorf("error decoding media urls: %w", err)
		}
	}
	r.ReportedAt = time.UnixMilli(reportedAt).UTC()
	r.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &r, nil
}
