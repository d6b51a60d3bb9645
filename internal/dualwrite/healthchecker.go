package dualwrite

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bayviewassociation/memberdb/internal/health"
)

// Manager satisfies health.HealthPinger so the checker probes it through the
// interface rather than a concrete dependency.
var _ health.HealthPinger = (*Manager)(nil)

// DatabaseHealthChecker monitors database reachability with periodic pings
// against anything that exposes a HealthPing.
type DatabaseHealthChecker struct {
	pinger       health.HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

func NewDatabaseHealthChecker(pinger health.HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *DatabaseHealthChecker {
	hc := &DatabaseHealthChecker{
		pinger:       pinger,
		log:          log,
		probeTimeout: probeTimeout,
	}
	hc.healthy.Store(0) // unhealthy until the first successful probe
	return hc
}

func (hc *DatabaseHealthChecker) Name() string { return "database" }

// IsHealthy returns the cached health status (non-blocking).
func (hc *DatabaseHealthChecker) IsHealthy() bool {
	return hc.healthy.Load() == 1
}

// Start begins periodic health checking.
func (hc *DatabaseHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() {
		to := hc.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()

		if err := hc.pinger.HealthPing(checkCtx); err != nil {
			if hc.healthy.Swap(0) == 1 {
				hc.log.Error().Err(err).Msg("database health: DOWN")
			}
			return
		}
		if hc.healthy.Swap(1) == 0 {
			hc.log.Info().Msg("database health: UP")
		}
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
