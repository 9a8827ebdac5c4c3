package loop

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Start begins background scheduling of learning cycles at the
// configured interval. An interval of zero or less disables scheduling;
// Start is then a no-op and cycles run only on explicit RunCycle calls
// (manual or test-driven invocation).
//
// Start is idempotent-unsafe by design: starting an already running
// controller returns ErrAlreadyRunning rather than spawning a second
// goroutine.
func (c *Controller) Start() error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}

	if c.cfg.Interval <= 0 {
		c.logger.Info("cycle scheduler disabled, manual invocation only")
		return nil
	}

	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.running = true

	c.logger.Info("cycle scheduler started",
		zap.Duration("interval", c.cfg.Interval),
	)

	go c.run()
	return nil
}

// Stop gracefully stops the background scheduler and waits for the
// scheduling goroutine to exit. A cycle already underway runs to
// completion; there is no mid-phase cancellation. Stopping a controller
// that is not running is a no-op.
func (c *Controller) Stop() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if !c.running {
		return
	}

	c.logger.Info("stopping cycle scheduler")
	close(c.stopCh)
	<-c.doneCh
	c.running = false
}

// run is the scheduler goroutine. Cycle failures are logged and do not
// stop the schedule; ErrCycleInProgress simply means a manual cycle got
// there first and the tick is dropped.
func (c *Controller) run() {
	doneCh := c.doneCh
	defer func() {
		r := recover()
		if r != nil {
			c.logger.Error("scheduler goroutine panicked, stopping schedule",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
		// Signal exit before touching runMu: Stop holds runMu while
		// waiting on doneCh.
		close(doneCh)
		if r != nil {
			// Mark as not running so the scheduler can be restarted.
			c.runMu.Lock()
			c.running = false
			c.runMu.Unlock()
		}
	}()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.safeRunCycle()

		case <-c.stopCh:
			return
		}
	}
}

// safeRunCycle runs one scheduled cycle with its own recover so a
// panicking cycle does not kill the schedule.
func (c *Controller) safeRunCycle() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("scheduled cycle panicked, continuing schedule",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	result, err := c.RunCycle(context.Background())
	if err != nil {
		c.logger.Warn("scheduled cycle failed", zap.Error(err))
		return
	}
	c.logger.Debug("scheduled cycle finished",
		zap.String("status", string(result.Status)),
	)
}
