package sweeper

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner schedules the sweeps on cron expressions and owns their lifecycle.
type Runner struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewRunner wires both sweeps into a cron scheduler. Panics inside a sweep
// are recovered and logged so one bad run never kills the scheduler.
func NewRunner(expiry *ExpirySweeper, overtime *OvertimeSweeper, expirySchedule, overtimeSchedule string, logger *zap.Logger) (*Runner, error) {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	if _, err := c.AddFunc(expirySchedule, func() {
		expiry.Run(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("sweeper: schedule expiry %q: %w", expirySchedule, err)
	}
	if _, err := c.AddFunc(overtimeSchedule, func() {
		overtime.Run(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("sweeper: schedule overtime %q: %w", overtimeSchedule, err)
	}

	return &Runner{cron: c, logger: logger}, nil
}

// Start begins scheduling in a background goroutine.
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info("sweepers started")
}

// Stop stops scheduling and waits for in-flight sweeps to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("sweepers stopped")
}
