package jobs

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/unlockify/contentgen/pkg/history"
)

// ConnectionGauge receives database pool gauge updates.
type ConnectionGauge interface {
	UpdateDBConnections(count float64)
}

// CronManager manages scheduled jobs
type CronManager struct {
	cron          *cron.Cron
	history       *history.Service
	retentionDays int
	logger        *log.Logger

	poolStats func() sql.DBStats
	poolGauge ConnectionGauge
}

// NewCronManager creates a new cron manager
func NewCronManager(historyService *history.Service, retentionDays int, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}

	return &CronManager{
		cron:          cron.New(),
		history:       historyService,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// MonitorDBPool registers a database pool whose connection count is pushed to
// the gauge every 30 seconds once the scheduler runs.
func (cm *CronManager) MonitorDBPool(stats func() sql.DBStats, gauge ConnectionGauge) {
	cm.poolStats = stats
	cm.poolGauge = gauge
}

func (cm *CronManager) updatePoolGauge() {
	cm.poolGauge.UpdateDBConnections(float64(cm.poolStats().OpenConnections))
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	cm.logger.Println("Setting up cron jobs...")

	// Daily at 3 AM: purge history past the retention window
	_, err := cm.cron.AddFunc("0 3 * * *", func() {
		cm.logger.Println("🕐 Running history retention purge...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		cutoff := time.Now().UTC().AddDate(0, 0, -cm.retentionDays)
		removed, err := cm.history.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			cm.logger.Printf("❌ History purge failed: %v", err)
			return
		}

		cm.logger.Printf("✅ History purge completed (%d records older than %s removed)",
			removed, cutoff.Format("2006-01-02"))
	})

	if err != nil {
		return err
	}

	if cm.poolStats != nil && cm.poolGauge != nil {
		if _, err := cm.cron.AddFunc("@every 30s", cm.updatePoolGauge); err != nil {
			return err
		}
	}

	cm.logger.Println("✅ Cron jobs configured successfully")
	cm.logger.Printf("  - Daily at 3 AM: purge history older than %d days", cm.retentionDays)
	if cm.poolGauge != nil {
		cm.logger.Println("  - Every 30s: refresh database pool gauge")
	}

	return nil
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Println("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler
func (cm *CronManager) Stop() {
	cm.logger.Println("🛑 Stopping cron scheduler...")
	cm.cron.Stop()
}
