package tracking

import (
	"context"
	"time"

	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
)

// RetentionJob periodically prunes tracking points older than the retention
// window. The append-only log is otherwise never deleted from.
type RetentionJob struct {
	points    TrackingRepo
	retention time.Duration
	interval  time.Duration
	log       logger.Logger
}

func NewRetentionJob(points TrackingRepo, retention, interval time.Duration, log logger.Logger) *RetentionJob {
	return &RetentionJob{
		points:    points,
		retention: retention,
		interval:  interval,
		log:       log,
	}
}

// Run blocks until ctx is done, pruning on every tick.
func (j *RetentionJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.prune(ctx)
		}
	}
}

func (j *RetentionJob) prune(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "prune_tracking_points")

	cutoff := time.Now().UTC().Add(-j.retention)
	deleted, err := j.points.DeleteBefore(ctx, cutoff)
	if err != nil {
		j.log.Error(ctx, "failed to prune tracking points", err)
		return
	}
	if deleted > 0 {
		j.log.Info(ctx, "pruned tracking points", "deleted", deleted)
	}
}
