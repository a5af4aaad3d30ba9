package renderqueue

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/phichain-go/phichain/internal/beat"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndClaimJob(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreateJob("chart.json", "out.mp4", beat.Zero, beat.New(4, 0, 1))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	job, err := db.ClaimJob()
	if err != nil {
		t.Fatalf("claim job: %v", err)
	}
	if job == nil || job.ID != id {
		t.Fatalf("expected to claim job %s, got %+v", id, job)
	}
	if job.Status != StatusRunning {
		t.Fatalf("expected claimed job to be running, got %s", job.Status)
	}

	if again, err := db.ClaimJob(); err != nil || again != nil {
		t.Fatalf("expected no further pending job, got %+v, err %v", again, err)
	}
}

func TestCheckpointAndComplete(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreateJob("chart.json", "out.mp4", beat.Zero, beat.New(4, 0, 1))
	db.ClaimJob()

	if err := db.CheckpointFrame(id, 120); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	job, err := db.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.LastFrame != 120 {
		t.Fatalf("expected last_frame 120, got %d", job.LastFrame)
	}

	if err := db.CompleteJob(id); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestFailJob(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreateJob("chart.json", "out.mp4", beat.Zero, beat.New(4, 0, 1))
	db.ClaimJob()

	if err := db.FailJob(id, errors.New("boom")); err != nil {
		t.Fatalf("fail: %v", err)
	}
}

func TestResetStalledJobs(t *testing.T) {
	db := openTestDB(t)
	db.CreateJob("chart.json", "out.mp4", beat.Zero, beat.New(4, 0, 1))
	db.ClaimJob()

	n, err := db.ResetStalledJobs(0 * time.Second)
	if err != nil {
		t.Fatalf("reset stalled: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 stalled job reset, got %d", n)
	}
}
