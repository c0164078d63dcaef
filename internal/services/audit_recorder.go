package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"usersvc/internal/infrastructure/audit"
	"usersvc/usecase"
)

// RecorderConfig controls audit retention housekeeping.
type RecorderConfig struct {
	PruneInterval time.Duration
	Retention     time.Duration
}

// AuditRecorder appends mutation entries to the local audit store and prunes
// entries past retention on a schedule.
type AuditRecorder struct {
	store  *audit.Store
	logger *zap.Logger
	cron   *cron.Cron
	cfg    RecorderConfig
}

func NewAuditRecorder(store *audit.Store, logger *zap.Logger, cfg RecorderConfig) *AuditRecorder {
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ar := &AuditRecorder{
		store:  store,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.PruneInterval.Seconds()))
	_, _ = ar.cron.AddFunc(schedule, func() {
		if err := ar.Prune(); err != nil {
			ar.logger.Error("audit prune failed", zap.Error(err))
		}
	})

	return ar
}

// Start launches the cron scheduler.
func (ar *AuditRecorder) Start() {
	if ar == nil || ar.cron == nil {
		return
	}
	ar.cron.Start()
	ar.logger.Info("audit recorder started")
}

// Stop gracefully stops the scheduler.
func (ar *AuditRecorder) Stop(ctx context.Context) {
	if ar == nil || ar.cron == nil {
		return
	}
	stopCtx := ar.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	ar.logger.Info("audit recorder stopped")
}

// Record appends an entry. Failures are logged, never propagated: the audit
// trail must not affect request outcomes.
func (ar *AuditRecorder) Record(ctx context.Context, operation string, userID int64, requestRefID string) {
	if ar == nil || ar.store == nil {
		return
	}
	entry := audit.Entry{
		Operation:    operation,
		UserID:       userID,
		RequestRefID: requestRefID,
	}
	if err := ar.store.Append(entry); err != nil {
		ar.logger.Error("failed to record audit entry",
			zap.String("operation", operation),
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}

// Prune removes entries older than the retention window.
func (ar *AuditRecorder) Prune() error {
	if ar == nil || ar.store == nil {
		return nil
	}
	return ar.store.Cleanup(time.Now().Add(-ar.cfg.Retention))
}

// Size returns the number of recorded entries.
func (ar *AuditRecorder) Size() int {
	if ar == nil || ar.store == nil {
		return 0
	}
	size, err := ar.store.Size()
	if err != nil {
		return 0
	}
	return size
}

var _ usecase.AuditTrail = (*AuditRecorder)(nil)
