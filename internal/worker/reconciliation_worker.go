package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/converter-service/internal/service"
)

// StartReconciliationWorker schedules periodic license reconciliation. It
// returns nil when no schedule is configured; callers Stop() the returned
// cron on shutdown.
func StartReconciliationWorker(schedule string, reconciler *service.ReconciliationService, logger *zap.Logger) (*cron.Cron, error) {
	if schedule == "" || reconciler == nil {
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := reconciler.Run(context.Background()); err != nil {
			logger.Warn("license reconciliation run failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("license reconciliation scheduled", zap.String("schedule", schedule))
	return c, nil
}
