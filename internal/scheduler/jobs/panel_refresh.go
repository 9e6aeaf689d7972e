package jobs

import (
	"context"
	"time"

	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/internal/engine"
	"github.com/xzemt/omnialpha/pkg/logger"
)

// PanelRefreshJob extends every default-pool asset's panel cache through
// the latest session. Running it after the close means the next morning's
// scans hit the cache with zero upstream fetches.
type PanelRefreshJob struct {
	pool     string
	provider contracts.MarketDataProvider
	panels   contracts.PanelSource
	logger   *logger.Logger
}

func NewPanelRefreshJob(pool string, provider contracts.MarketDataProvider, panels contracts.PanelSource, log *logger.Logger) *PanelRefreshJob {
	return &PanelRefreshJob{
		pool:     pool,
		provider: provider,
		panels:   panels,
		logger:   log,
	}
}

func (j *PanelRefreshJob) Name() string {
	return "panel_refresh"
}

// Schedule: 收盘后 17:30 每个交易日
func (j *PanelRefreshJob) Schedule() string {
	return "0 30 17 * * *"
}

// Run warms the cache asset by asset. Per-asset failures are logged and
// skipped; the job only fails when the pool itself cannot be resolved.
func (j *PanelRefreshJob) Run(ctx context.Context) error {
	today := time.Now()
	members, err := j.provider.GetPoolMembers(ctx, j.pool, today)
	if err != nil {
		return err
	}

	start := today.AddDate(0, 0, -engine.LookbackDays)
	refreshed, failed := 0, 0
	for _, member := range members {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := j.panels.GetPanel(ctx, member.Code, start, today); err != nil {
			failed++
			j.logger.WithError(err).WithField("code", member.Code).Warn("panel refresh failed for asset")
			continue
		}
		refreshed++
	}

	j.logger.WithFields(map[string]interface{}{
		"pool":      j.pool,
		"refreshed": refreshed,
		"failed":    failed,
	}).Info("Panel refresh completed")
	return nil
}
