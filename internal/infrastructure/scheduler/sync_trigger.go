package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OwnerProvider enumerates owners that have at least one active credential
type OwnerProvider interface {
	ListActiveOwnerIDs(ctx context.Context) ([]uuid.UUID, error)
}

// SyncTriggerConfig holds configuration for the interval trigger
type SyncTriggerConfig struct {
	// CheckInterval is how often the trigger wakes up
	CheckInterval time.Duration
	// OrderSyncInterval is the minimum gap between order sync runs per owner
	OrderSyncInterval time.Duration
	// InquirySyncInterval is the minimum gap between inquiry sync runs per owner
	InquirySyncInterval time.Duration
}

// DefaultSyncTriggerConfig returns default trigger configuration
func DefaultSyncTriggerConfig() SyncTriggerConfig {
	return SyncTriggerConfig{
		CheckInterval:       time.Minute,
		OrderSyncInterval:   15 * time.Minute,
		InquirySyncInterval: 30 * time.Minute,
	}
}

// SyncTrigger periodically enqueues sync jobs for every owner with active
// credentials. Scheduling is per owner and per feed so a slow inquiry pull
// never delays order pulls.
type SyncTrigger struct {
	config    SyncTriggerConfig
	scheduler *SyncScheduler
	owners    OwnerProvider
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Track last scheduled time per owner/kind to avoid duplicate scheduling
	lastScheduledMu sync.Mutex
	lastScheduled   map[string]time.Time
}

// NewSyncTrigger creates a new sync trigger
func NewSyncTrigger(config SyncTriggerConfig, scheduler *SyncScheduler, owners OwnerProvider, logger *zap.Logger) *SyncTrigger {
	return &SyncTrigger{
		config:        config,
		scheduler:     scheduler,
		owners:        owners,
		logger:        logger,
		lastScheduled: make(map[string]time.Time),
	}
}

// Start starts the trigger loop
func (c *SyncTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Sync trigger started",
		zap.Duration("check_interval", c.config.CheckInterval),
		zap.Duration("order_interval", c.config.OrderSyncInterval),
		zap.Duration("inquiry_interval", c.config.InquirySyncInterval),
	)

	return nil
}

// Stop stops the trigger loop
func (c *SyncTrigger) Stop() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	c.logger.Info("Sync trigger stopped")
}

func (c *SyncTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick schedules due jobs for every owner
func (c *SyncTrigger) tick(ctx context.Context) {
	ownerIDs, err := c.owners.ListActiveOwnerIDs(ctx)
	if err != nil {
		c.logger.Error("Failed to list owners for scheduled sync", zap.Error(err))
		return
	}

	now := time.Now()
	for _, ownerID := range ownerIDs {
		c.scheduleIfDue(ownerID, SyncKindOrders, c.config.OrderSyncInterval, now)
		c.scheduleIfDue(ownerID, SyncKindInquiries, c.config.InquirySyncInterval, now)
	}
}

func (c *SyncTrigger) scheduleIfDue(ownerID uuid.UUID, kind SyncKind, interval time.Duration, now time.Time) {
	key := ownerID.String() + "/" + string(kind)

	c.lastScheduledMu.Lock()
	last, ok := c.lastScheduled[key]
	if ok && now.Sub(last) < interval {
		c.lastScheduledMu.Unlock()
		return
	}
	c.lastScheduled[key] = now
	c.lastScheduledMu.Unlock()

	if err := c.scheduler.ScheduleSync(ownerID, kind); err != nil {
		// Roll back the mark so the next tick retries
		c.lastScheduledMu.Lock()
		if ok {
			c.lastScheduled[key] = last
		} else {
			delete(c.lastScheduled, key)
		}
		c.lastScheduledMu.Unlock()

		if errors.Is(err, ErrJobQueueFull) {
			c.logger.Warn("Sync job queue full, deferring",
				zap.String("owner_id", ownerID.String()),
				zap.String("kind", string(kind)),
			)
			return
		}
		c.logger.Error("Failed to schedule sync job",
			zap.String("owner_id", ownerID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}
