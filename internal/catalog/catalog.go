// Package catalog records conversion jobs and the header metadata of their
// recordings in a SQLite database.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/aris2video/internal/aris"
	"github.com/banshee-data/aris2video/internal/timeutil"
)

// ErrJobNotFound is returned when a job id is not in the catalog.
var ErrJobNotFound = errors.New("catalog: job not found")

// Job statuses.
const (
	StatusRunning = "running"
	StatusClosed  = "closed"
	StatusFailed  = "failed"
)

// Run is one catalogued conversion.
type Run struct {
	ID             string
	Input          string
	Output         string
	Status         string
	FramesTotal    int
	FramesRendered int
	Beams          int
	Bins           int
	Width          int
	Height         int
	FrameRate      float64
	TableHash      string
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time // zero while running
}

// Catalog is a handle on the job database. It is safe for concurrent use;
// writes are serialised on a single connection.
type Catalog struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock sets the clock used for job timestamps.
func WithClock(c timeutil.Clock) Option {
	return func(cat *Catalog) { cat.clock = c }
}

// Open opens or creates the database at path and applies pending
// migrations.
func Open(path string, opts ...Option) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	c := &Catalog{db: db, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// applyPragmas configures the single catalog connection.
func applyPragmas(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("catalog: %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// StartJob inserts a running job and returns its id. A new UUID is
// assigned when r.ID is empty.
func (c *Catalog) StartJob(r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = c.clock.Now()
	}
	_, err := c.db.Exec(`
		INSERT INTO jobs (job_id, input, output, status, frames_total, beams, bins,
			width, height, frame_rate, table_hash, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Input, r.Output, StatusRunning, r.FramesTotal, r.Beams, r.Bins,
		r.Width, r.Height, r.FrameRate, r.TableHash, formatTime(r.StartedAt))
	if err != nil {
		return "", fmt.Errorf("catalog: insert job: %w", err)
	}
	return r.ID, nil
}

// SetGeometry records the decoded grid and output raster of a running job.
func (c *Catalog) SetGeometry(id string, r Run) error {
	res, err := c.db.Exec(`
		UPDATE jobs SET frames_total = ?, beams = ?, bins = ?, width = ?, height = ?,
			frame_rate = ?, table_hash = ?
		WHERE job_id = ?`,
		r.FramesTotal, r.Beams, r.Bins, r.Width, r.Height, r.FrameRate, r.TableHash, id)
	if err != nil {
		return fmt.Errorf("catalog: update geometry: %w", err)
	}
	return expectOne(res, id)
}

// FinishJob marks a job closed or failed.
func (c *Catalog) FinishJob(id, status string, rendered int, jobErr error) error {
	msg := ""
	if jobErr != nil {
		msg = jobErr.Error()
	}
	res, err := c.db.Exec(`
		UPDATE jobs SET status = ?, frames_rendered = ?, error = ?, finished_at = ?
		WHERE job_id = ?`,
		status, rendered, msg, formatTime(c.clock.Now()), id)
	if err != nil {
		return fmt.Errorf("catalog: finish job: %w", err)
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return nil
}

// SaveHeader stores every field of a decoded header record as text.
func (c *Catalog) SaveHeader(id string, rec *aris.Record) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO file_headers (job_id, field, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare header insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range rec.Values() {
		if _, err := stmt.Exec(id, v.Field.Name, formatValue(v)); err != nil {
			return fmt.Errorf("catalog: insert header field %s: %w", v.Field.Name, err)
		}
	}
	return tx.Commit()
}

func formatValue(v aris.Value) string {
	switch x := v.Interface().(type) {
	case string:
		return x
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(parts, ",")
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Header returns the stored header fields of a job.
func (c *Catalog) Header(id string) (map[string]string, error) {
	rows, err := c.db.Query(`SELECT field, value FROM file_headers WHERE job_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("catalog: query header: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, err
		}
		out[field] = value
	}
	return out, rows.Err()
}

const jobColumns = `job_id, input, output, status, frames_total, frames_rendered, beams, bins,
	width, height, frame_rate, table_hash, error, started_at, COALESCE(finished_at, '')`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	var started, finished string
	err := s.Scan(&r.ID, &r.Input, &r.Output, &r.Status, &r.FramesTotal, &r.FramesRendered,
		&r.Beams, &r.Bins, &r.Width, &r.Height, &r.FrameRate, &r.TableHash, &r.Error,
		&started, &finished)
	if err != nil {
		return Run{}, err
	}
	if r.StartedAt, err = parseTime(started); err != nil {
		return Run{}, fmt.Errorf("catalog: job %s started_at: %w", r.ID, err)
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return Run{}, fmt.Errorf("catalog: job %s finished_at: %w", r.ID, err)
	}
	return r, nil
}

// Job returns one job by id.
func (c *Catalog) Job(id string) (Run, error) {
	r, err := scanRun(c.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE job_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return r, err
}

// ListJobs returns the most recently started jobs first. limit <= 0 returns
// every job.
func (c *Catalog) ListJobs(limit int) ([]Run, error) {
	q := `SELECT ` + jobColumns + ` FROM jobs ORDER BY started_at DESC, job_id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := c.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list jobs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
