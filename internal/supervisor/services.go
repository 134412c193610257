// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package supervisor

import (
	"context"
	"time"

	"github.com/signagefleet/kioskd/internal/metrics"
)

// HealthPoller is a suture.Service that periodically samples the
// persistence breaker state into Prometheus. Restarted independently by its
// parent supervisor if it panics, per the tree's per-concern isolation.
type HealthPoller struct {
	Interval time.Duration
	Probe    func() (open bool)
}

// Serve implements suture.Service.
func (h *HealthPoller) Serve(ctx context.Context) error {
	interval := h.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if h.Probe == nil {
				continue
			}
			if h.Probe() {
				metrics.PersistenceBreakerState.Set(1)
			} else {
				metrics.PersistenceBreakerState.Set(0)
			}
		}
	}
}

// GaugeSampler is a suture.Service that periodically writes a live count
// (connected devices, connected admins, ...) into a Prometheus gauge.
type GaugeSampler struct {
	Name     string
	Interval time.Duration
	Sample   func() float64
	Gauge    interface{ Set(float64) }
}

// Serve implements suture.Service.
func (g *GaugeSampler) Serve(ctx context.Context) error {
	interval := g.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if g.Sample == nil || g.Gauge == nil {
				continue
			}
			g.Gauge.Set(g.Sample())
		}
	}
}

// String satisfies suture's optional Stringer so log lines name the
// service instead of printing its address.
func (g *GaugeSampler) String() string {
	if g.Name != "" {
		return g.Name
	}
	return "gauge-sampler"
}
