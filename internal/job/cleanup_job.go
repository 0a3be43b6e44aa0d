package job

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"thread-service/internal/repository"
)

// CleanupJob purges soft-deleted comments past the retention window.
type CleanupJob struct {
	repo          repository.CommentRepository
	logger        *zap.Logger
	schedule      string
	retentionDays int
	cron          *cron.Cron
}

// NewCleanupJob creates a new cleanup job
func NewCleanupJob(repo repository.CommentRepository, logger *zap.Logger, schedule string, retentionDays int) *CleanupJob {
	return &CleanupJob{
		repo:          repo,
		logger:        logger,
		schedule:      schedule,
		retentionDays: retentionDays,
	}
}

// Start schedules the job. Returns an error when the schedule expression is
// invalid.
func (j *CleanupJob) Start() error {
	j.cron = cron.New()
	_, err := j.cron.AddFunc(j.schedule, j.Run)
	if err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("cleanup job scheduled",
		zap.String("schedule", j.schedule),
		zap.Int("retentionDays", j.retentionDays))
	return nil
}

// Stop halts the scheduler.
func (j *CleanupJob) Stop() {
	if j.cron != nil {
		j.cron.Stop()
	}
}

// Run executes one purge pass.
func (j *CleanupJob) Run() {
	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays)
	purged, err := j.repo.PurgeDeletedBefore(cutoff)
	if err != nil {
		j.logger.Error("cleanup failed", zap.Error(err))
		return
	}
	if purged > 0 {
		j.logger.Info("purged deleted comments", zap.Int64("count", purged))
	}
}
