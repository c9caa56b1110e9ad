package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	artifactdomain "github.com/interiohub/interio/internal/artifact/domain"
	"github.com/interiohub/interio/internal/clock"
	"github.com/interiohub/interio/internal/config"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"github.com/interiohub/interio/internal/job/repository"
	"github.com/interiohub/interio/pkg/db/dbtest"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, purge bool) (*Scheduler, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db := dbtest.Open(t, &jobdomain.Job{}, &artifactdomain.Upload{})
	s := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.Fixed(testNow),
		Repo:  repository.Provide(),
		Cfg:   Config{Interval: time.Second, StaleAfter: 10 * time.Minute, BatchSize: 10, PurgeExpiredUploads: purge},
	})
	return s, db, dbtest.Node(t)
}

func seedJob(t *testing.T, db *gorm.DB, node *snowflake.Node, state jobdomain.State, updatedAt time.Time) snowflake.ID {
	t.Helper()
	job := &jobdomain.Job{
		ID:        node.Generate(),
		AccountID: "acc-1",
		StyleID:   "loft",
		SourceRef: "https://cdn/room.jpg",
		State:     state,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if err := db.Model(job).UpdateColumn("updated_at", updatedAt).Error; err != nil {
		t.Fatalf("stamp job: %v", err)
	}
	return job.ID
}

func loadJob(t *testing.T, db *gorm.DB, id snowflake.ID) jobdomain.Job {
	t.Helper()
	var job jobdomain.Job
	if err := db.Where("id = ?", id).First(&job).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	return job
}

func TestReapStaleJobsFailsOnlyStuckInFlight(t *testing.T) {
	s, db, node := newTestScheduler(t, false)
	old := testNow.Add(-time.Hour)

	stuck := seedJob(t, db, node, jobdomain.StateStarted, old)
	received := seedJob(t, db, node, jobdomain.StateReceived, old)
	fresh := seedJob(t, db, node, jobdomain.StateStarted, testNow.Add(-time.Minute))
	pending := seedJob(t, db, node, jobdomain.StatePending, old)
	done := seedJob(t, db, node, jobdomain.StateSuccess, old)

	reaped, err := s.ReapStaleJobs(context.Background())
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if reaped != 2 {
		t.Fatalf("expected 2 reaped, got %d", reaped)
	}

	for _, id := range []snowflake.ID{stuck, received} {
		job := loadJob(t, db, id)
		if job.State != jobdomain.StateFailure || job.Error != "job_timeout" || job.FinishedAt == nil {
			t.Fatalf("expected timed out failure, got %+v", job)
		}
	}
	if job := loadJob(t, db, fresh); job.State != jobdomain.StateStarted {
		t.Fatalf("fresh job must be left alone, got %s", job.State)
	}
	if job := loadJob(t, db, pending); job.State != jobdomain.StatePending {
		t.Fatalf("pending job must be left alone, got %s", job.State)
	}
	if job := loadJob(t, db, done); job.State != jobdomain.StateSuccess {
		t.Fatalf("terminal job must be left alone, got %s", job.State)
	}
}

func TestPurgeExpiredUploadsKeepsLinked(t *testing.T) {
	s, db, node := newTestScheduler(t, true)
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)
	after := "http://minio/media/generated/a.png"

	uploads := []*artifactdomain.Upload{
		{ID: node.Generate(), AccountID: "acc-1", BeforeURL: "u1", CreatedAt: past, ExpiresAt: &past},
		{ID: node.Generate(), AccountID: "acc-1", BeforeURL: "u2", CreatedAt: past, ExpiresAt: &past, AfterURL: &after},
		{ID: node.Generate(), AccountID: "acc-1", BeforeURL: "u3", CreatedAt: past, ExpiresAt: &future},
	}
	for _, u := range uploads {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed upload: %v", err)
		}
	}

	res, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if res.PurgedUploads != 1 {
		t.Fatalf("expected 1 purged upload, got %d", res.PurgedUploads)
	}
	var left int64
	db.Model(&artifactdomain.Upload{}).Count(&left)
	if left != 2 {
		t.Fatalf("expected 2 uploads left, got %d", left)
	}
}

func TestConfigFromDerivesStaleAfter(t *testing.T) {
	cfg := ConfigFrom(config.Config{Worker: config.WorkerConfig{HardLimit: 2 * time.Minute}})
	if cfg.StaleAfter != 3*time.Minute || cfg.Interval != time.Minute || cfg.BatchSize != 100 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
