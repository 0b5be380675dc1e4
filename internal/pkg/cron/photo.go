package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
)

// PhotoDeleter removes a stored photo. Missing files must not be an error.
type PhotoDeleter interface {
	Delete(ctx context.Context, path string) error
}

// PhotoJobs sweeps uploaded photos that were left behind when a check-in or
// check-out could not be recorded and the immediate rollback failed.
type PhotoJobs struct {
	queue     attendance.PhotoCleanupQueue
	deleter   PhotoDeleter
	batchSize int64
}

func NewPhotoJobs(queue attendance.PhotoCleanupQueue, deleter PhotoDeleter, batchSize int64) *PhotoJobs {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &PhotoJobs{
		queue:     queue,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

func (j *PhotoJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("sweep_orphaned_photos", interval, 0, j.SweepOrphanedPhotos)
}

// SweepOrphanedPhotos deletes one batch of queued paths. Paths that still
// cannot be deleted go back on the queue for the next run.
func (j *PhotoJobs) SweepOrphanedPhotos(ctx context.Context) error {
	paths, err := j.queue.Dequeue(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("failed to dequeue orphaned photos: %w", err)
	}

	if len(paths) == 0 {
		return nil
	}

	deleted := 0
	var failed []string
	for _, path := range paths {
		if err := j.deleter.Delete(ctx, path); err != nil {
			slog.Warn("Cron: Failed to delete orphaned photo", "path", path, "error", err)
			failed = append(failed, path)
			continue
		}
		deleted++
	}

	// The paths are already off the queue; the job deadline must not drop them.
	requeueCtx := context.WithoutCancel(ctx)
	for _, path := range failed {
		if err := j.queue.Enqueue(requeueCtx, path); err != nil {
			slog.Error("Cron: Failed to requeue orphaned photo", "path", path, "error", err)
		}
	}

	slog.Info("Cron: Orphaned photo sweep finished", "deleted", deleted, "failed", len(failed))

	if len(failed) > 0 {
		return fmt.Errorf("%d orphaned photos could not be deleted", len(failed))
	}
	return nil
}
