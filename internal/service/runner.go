package service

import (
	"context"
	"time"

	"temp_regulator/internal/logger"
)

// RunnerService owns the regulator: it is the only caller of Tick.
type RunnerService struct {
	dev Device
	log *logger.Logger
}

func NewRunnerService(dev Device, log *logger.Logger) *RunnerService {
	return &RunnerService{dev: dev, log: log.Component("runner")}
}

// Run ticks at the given interval until ctx is canceled, then opens the relay.
func (s *RunnerService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	s.log.Infow("control_loop_started", "tick", tick.String())
	for {
		select {
		case <-ctx.Done():
			s.dev.Halt(time.Now())
			s.log.Infow("control_loop_stopped")
			return
		case now := <-t.C:
			s.dev.Tick(ctx, now)
		}
	}
}
