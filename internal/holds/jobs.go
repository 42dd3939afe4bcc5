package holds

import (
	"context"
	"sync"
	"time"

	"seatengine/pkg/logger"
)

const defaultSweepInterval = 15 * time.Second

// JobProcessor runs the periodic hold expiry sweep
type JobProcessor struct {
	manager *Manager
	lock    SweepLock
	config  *JobConfig
	logger  *logger.Logger
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// JobConfig contains configuration for the sweep job
type JobConfig struct {
	SweepInterval time.Duration
}

// NewJobProcessor creates a new job processor. A nil lock sweeps on every
// tick and a nil config sweeps every 15s.
func NewJobProcessor(manager *Manager, lock SweepLock, config *JobConfig) *JobProcessor {
	if config == nil || config.SweepInterval <= 0 {
		config = &JobConfig{SweepInterval: defaultSweepInterval}
	}
	if lock == nil {
		lock = localLock{}
	}

	return &JobProcessor{
		manager: manager,
		lock:    lock,
		config:  config,
		logger:  logger.GetDefault(),
		done:    make(chan struct{}),
	}
}

// Start starts the sweep loop
func (jp *JobProcessor) Start(ctx context.Context) {
	jp.wg.Add(1)
	go jp.startSweeper(ctx)

	jp.logger.InfoWithContext(ctx, "Hold expiry sweeper started", map[string]interface{}{
		"interval":   jp.config.SweepInterval.String(),
		"batch_size": jp.manager.policy.SweepBatch,
	})
}

// Stop stops the sweep loop and waits for a running sweep to finish
func (jp *JobProcessor) Stop() {
	jp.once.Do(func() {
		close(jp.done)
		jp.wg.Wait()
		jp.logger.Info("Hold expiry sweeper stopped")
	})
}

func (jp *JobProcessor) startSweeper(ctx context.Context) {
	defer jp.wg.Done()

	ticker := time.NewTicker(jp.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jp.RunOnce(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce sweeps if this instance wins the sweep lock and returns the number
// of holds expired
func (jp *JobProcessor) RunOnce(ctx context.Context) int {
	acquired, err := jp.lock.Acquire(ctx)
	if err != nil {
		jp.logger.ErrorWithContext(ctx, "failed to acquire sweep lock", err, nil)
		return 0
	}
	if !acquired {
		return 0
	}
	defer func() {
		if err := jp.lock.Release(ctx); err != nil {
			jp.logger.ErrorWithContext(ctx, "failed to release sweep lock", err, nil)
		}
	}()

	expired, err := jp.manager.SweepExpired(ctx, jp.manager.Now())
	if err != nil {
		jp.logger.ErrorWithContext(ctx, "hold sweep failed", err, map[string]interface{}{
			"expired_before_failure": expired,
		})
	}
	return expired
}
