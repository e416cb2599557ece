package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/jobs"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/secrets"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies database connectivity for the health endpoint.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// ==================== Videos ====================

func (s *SQLiteStore) CreateVideo(ctx context.Context, script, title, description string, autoUpload bool) (int64, error) {
	if title == "" {
		title = "Untitled Video"
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (title, description, script, status, auto_upload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		title,
		description,
		script,
		string(jobs.StatusPending),
		boolToInt(autoUpload),
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetVideo(ctx context.Context, id int64) (*jobs.Video, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, title, description, script, video_path, thumbnail_path, youtube_id, youtube_url,
		        status, auto_upload, tags, duration, created_at, completed_at
		 FROM videos WHERE id = ?`,
		id,
	)
	video, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return video, err
}

func (s *SQLiteStore) ListVideos(ctx context.Context, status jobs.Status, limit int) ([]*jobs.Video, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, title, description, script, video_path, thumbnail_path, youtube_id, youtube_url,
	                 status, auto_upload, tags, duration, created_at, completed_at
	          FROM videos`
	args := make([]any, 0, 2)
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*jobs.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, video)
	}
	return ret, rows.Err()
}

func (s *SQLiteStore) UpdateVideoMetadata(ctx context.Context, id int64, title, description string, tags []string) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE videos SET title = ?, description = ?, tags = ? WHERE id = ?`,
		title, description, string(tagsJSON), id,
	)
	return err
}

func (s *SQLiteStore) CompleteVideo(ctx context.Context, id int64, videoPath string, completedAt time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE videos SET video_path = ?, status = ?, completed_at = ? WHERE id = ?`,
		videoPath, string(jobs.StatusCompleted), completedAt.UTC(), id,
	)
	return err
}

func (s *SQLiteStore) FailVideo(ctx context.Context, id int64, completedAt time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE videos SET status = ?, completed_at = ? WHERE id = ?`,
		string(jobs.StatusFailed), completedAt.UTC(), id,
	)
	return err
}

// SetVideoUpload records the remote identifier after a successful publish.
func (s *SQLiteStore) SetVideoUpload(ctx context.Context, id int64, youtubeID, youtubeURL string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE videos SET youtube_id = ?, youtube_url = ? WHERE id = ?`,
		youtubeID, youtubeURL, id,
	)
	return err
}

// ==================== Jobs ====================

func (s *SQLiteStore) CreateJob(ctx context.Context, videoID int64) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (video_id, status, current_step, created_at)
		 VALUES (?, ?, 'Queued', ?)`,
		videoID,
		string(jobs.StatusPending),
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetJob(ctx context.Context, id int64) (*jobs.Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, video_id, status, progress, current_step, error_message, created_at, started_at, completed_at
		 FROM jobs WHERE id = ?`,
		id,
	)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

func (s *SQLiteStore) ListJobs(ctx context.Context, status jobs.Status, limit int) ([]*jobs.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, video_id, status, progress, current_step, error_message, created_at, started_at, completed_at
	          FROM jobs`
	args := make([]any, 0, 2)
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*jobs.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, job)
	}
	return ret, rows.Err()
}

// NextPendingJob returns the oldest pending job (FIFO by creation time).
func (s *SQLiteStore) NextPendingJob(ctx context.Context) (*jobs.Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, video_id, status, progress, current_step, error_message, created_at, started_at, completed_at
		 FROM jobs WHERE status = ?
		 ORDER BY created_at ASC, id ASC LIMIT 1`,
		string(jobs.StatusPending),
	)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

func (s *SQLiteStore) ClaimJob(ctx context.Context, id int64, startedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, started_at = ?, progress = 0, current_step = 'Initializing'
		 WHERE id = ? AND status = ?`,
		string(jobs.StatusProcessing), startedAt.UTC(), id, string(jobs.StatusPending),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

func (s *SQLiteStore) UpdateJobProgress(ctx context.Context, id int64, step string, progress int) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET current_step = ?, progress = ? WHERE id = ?`,
		step, progress, id,
	)
	return err
}

func (s *SQLiteStore) CompleteJob(ctx context.Context, id int64, completedAt time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, progress = 100, current_step = 'Completed', completed_at = ? WHERE id = ?`,
		string(jobs.StatusCompleted), completedAt.UTC(), id,
	)
	return err
}

func (s *SQLiteStore) FailJob(ctx context.Context, id int64, errorMessage string, completedAt time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, current_step = 'Failed', error_message = ?, completed_at = ? WHERE id = ?`,
		string(jobs.StatusFailed), errorMessage, completedAt.UTC(), id,
	)
	return err
}

func (s *SQLiteStore) CountVideos(ctx context.Context, status jobs.Status) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM videos WHERE status = ?`,
		string(status),
	).Scan(&count)
	return count, err
}

func (s *SQLiteStore) CountJobs(ctx context.Context, status jobs.Status) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM jobs WHERE status = ?`,
		string(status),
	).Scan(&count)
	return count, err
}

// ==================== Credentials ====================

func (s *SQLiteStore) UpsertCredential(ctx context.Context, service, encryptedValue string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO credentials (service, encrypted_value, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(service) DO UPDATE SET
			encrypted_value=excluded.encrypted_value,
			updated_at=excluded.updated_at`,
		service, encryptedValue, time.Now().UTC(),
	)
	return err
}

func (s *SQLiteStore) GetCredential(ctx context.Context, service string) (string, bool, error) {
	var encrypted string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT encrypted_value FROM credentials WHERE service = ?`,
		service,
	).Scan(&encrypted)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return encrypted, true, nil
}

func (s *SQLiteStore) ListCredentials(ctx context.Context) ([]secrets.CredentialRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT service, updated_at FROM credentials ORDER BY service ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]secrets.CredentialRecord, 0)
	for rows.Next() {
		var item secrets.CredentialRecord
		if err := rows.Scan(&item.Service, &item.UpdatedAt); err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// ==================== Schedules ====================

func (s *SQLiteStore) CreateSchedule(ctx context.Context, schedule Schedule) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO schedules (name, frequency, time_of_day, days, script_source, auto_upload, active, next_run, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.Name,
		schedule.Frequency,
		schedule.TimeOfDay,
		schedule.Days,
		schedule.ScriptSource,
		boolToInt(schedule.AutoUpload),
		boolToInt(schedule.Active),
		nullableTime(schedule.NextRun),
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) ListSchedules(ctx context.Context, activeOnly bool) ([]Schedule, error) {
	query := `SELECT id, name, frequency, time_of_day, days, script_source, auto_upload, active, last_run, next_run, created_at
	          FROM schedules`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]Schedule, 0)
	for rows.Next() {
		var item Schedule
		var autoUpload, active int
		var lastRun, nextRun sql.NullTime
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Frequency,
			&item.TimeOfDay,
			&item.Days,
			&item.ScriptSource,
			&autoUpload,
			&active,
			&lastRun,
			&nextRun,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.AutoUpload = autoUpload == 1
		item.Active = active == 1
		item.LastRun = timePtr(lastRun)
		item.NextRun = timePtr(nextRun)
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// SetScheduleNextRun records the upcoming trigger time without marking a run.
func (s *SQLiteStore) SetScheduleNextRun(ctx context.Context, id int64, nextRun time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE schedules SET next_run = ? WHERE id = ?`,
		nextRun.UTC(), id,
	)
	return err
}

func (s *SQLiteStore) TouchSchedule(ctx context.Context, id int64, lastRun, nextRun time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE schedules SET last_run = ?, next_run = ? WHERE id = ?`,
		lastRun.UTC(), nextRun.UTC(), id,
	)
	return err
}

// ==================== scan helpers ====================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*jobs.Video, error) {
	var item jobs.Video
	var status, tagsJSON string
	var autoUpload int
	var completedAt sql.NullTime
	if err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Script,
		&item.VideoPath,
		&item.ThumbnailPath,
		&item.YouTubeID,
		&item.YouTubeURL,
		&status,
		&autoUpload,
		&tagsJSON,
		&item.Duration,
		&item.CreatedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}
	item.Status = jobs.Status(status)
	item.AutoUpload = autoUpload == 1
	item.CompletedAt = timePtr(completedAt)
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &item.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for video %d: %w", item.ID, err)
		}
	}
	return &item, nil
}

func scanJob(row rowScanner) (*jobs.Job, error) {
	var item jobs.Job
	var status string
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(
		&item.ID,
		&item.VideoID,
		&status,
		&item.Progress,
		&item.CurrentStep,
		&item.ErrorMessage,
		&item.CreatedAt,
		&startedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}
	item.Status = jobs.Status(status)
	item.StartedAt = timePtr(startedAt)
	item.CompletedAt = timePtr(completedAt)
	return &item, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	ret := t.Time
	return &ret
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
