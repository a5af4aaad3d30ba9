package renderqueue

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phichain-go/phichain/internal/beat"
)

// Status is a render job's lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Job is one queued or in-flight headless render.
type Job struct {
	ID         string
	ChartPath  string
	OutputPath string
	Status     Status
	From       beat.Beat
	To         beat.Beat
	LastFrame  int64
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	StartedAt  *time.Time
}

// CreateJob inserts a new pending render job spanning [from, to] and
// returns its generated ID.
func (d *DB) CreateJob(chartPath, outputPath string, from, to beat.Beat) (string, error) {
	id := uuid.NewString()
	_, err := d.db.Exec(`
		INSERT INTO render_jobs (
			id, chart_path, output_path, status,
			from_beat_whole, from_beat_num, from_beat_den,
			to_beat_whole, to_beat_num, to_beat_den,
			last_frame
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`, id, chartPath, outputPath, string(StatusPending),
		from.Whole, from.Num, from.Den, to.Whole, to.Num, to.Den)
	if err != nil {
		return "", fmt.Errorf("renderqueue: create job: %w", err)
	}
	return id, nil
}

// ClaimJob marks a pending job running and returns it, or nil if none are
// pending. Resuming a previously interrupted job looks it up by ID with
// Get instead, which does not change its status.
func (d *DB) ClaimJob() (*Job, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("renderqueue: claim job: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`
		SELECT id, chart_path, output_path,
			from_beat_whole, from_beat_num, from_beat_den,
			to_beat_whole, to_beat_num, to_beat_den,
			last_frame, created_at
		FROM render_jobs
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT 1
	`, string(StatusPending))

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("renderqueue: claim job: %w", err)
	}

	now := time.Now()
	if _, err := tx.Exec(`
		UPDATE render_jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ?
	`, string(StatusRunning), now, now, job.ID); err != nil {
		return nil, fmt.Errorf("renderqueue: claim job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("renderqueue: claim job: %w", err)
	}

	job.Status = StatusRunning
	job.StartedAt = &now
	return job, nil
}

// Get fetches a job by ID, for resuming a specific render via --resume.
func (d *DB) Get(id string) (*Job, error) {
	row := d.db.QueryRow(`
		SELECT id, chart_path, output_path,
			from_beat_whole, from_beat_num, from_beat_den,
			to_beat_whole, to_beat_num, to_beat_den,
			last_frame, created_at
		FROM render_jobs WHERE id = ?
	`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("renderqueue: get job %s: %w", id, err)
	}
	return job, nil
}

func scanJob(row *sql.Row) (*Job, error) {
	job := &Job{}
	var createdAt time.Time
	if err := row.Scan(
		&job.ID, &job.ChartPath, &job.OutputPath,
		&job.From.Whole, &job.From.Num, &job.From.Den,
		&job.To.Whole, &job.To.Num, &job.To.Den,
		&job.LastFrame, &createdAt,
	); err != nil {
		return nil, err
	}
	job.CreatedAt = createdAt
	job.Status = StatusPending
	return job, nil
}

// CheckpointFrame advances a running job's last-rendered frame, so a crash
// mid-render resumes from this point instead of frame zero.
func (d *DB) CheckpointFrame(id string, frame int64) error {
	_, err := d.db.Exec(`
		UPDATE render_jobs SET last_frame = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, frame, id)
	if err != nil {
		return fmt.Errorf("renderqueue: checkpoint job %s: %w", id, err)
	}
	return nil
}

// CompleteJob marks a job complete.
func (d *DB) CompleteJob(id string) error {
	_, err := d.db.Exec(`
		UPDATE render_jobs SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?
	`, string(StatusComplete), time.Now(), time.Now(), id)
	if err != nil {
		return fmt.Errorf("renderqueue: complete job %s: %w", id, err)
	}
	return nil
}

// FailJob marks a job failed with an error message.
func (d *DB) FailJob(id string, cause error) error {
	_, err := d.db.Exec(`
		UPDATE render_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, string(StatusFailed), cause.Error(), time.Now(), id)
	if err != nil {
		return fmt.Errorf("renderqueue: fail job %s: %w", id, err)
	}
	return nil
}

// ResetStalledJobs requeues jobs that have been running longer than
// timeout without completing, so a crashed render worker doesn't leave a
// job permanently stuck.
func (d *DB) ResetStalledJobs(timeout time.Duration) (int64, error) {
	cutoff := time.Now().Add(-timeout)
	result, err := d.db.Exec(`
		UPDATE render_jobs SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE status = ? AND started_at < ?
	`, string(StatusPending), string(StatusRunning), cutoff)
	if err != nil {
		return 0, fmt.Errorf("renderqueue: reset stalled jobs: %w", err)
	}
	return result.RowsAffected()
}
