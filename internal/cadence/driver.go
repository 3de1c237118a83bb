// Package cadence drives the produce-publish loop at a fixed period.
package cadence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
	"github.com/timf34/FOVWiFiStreamingApp/internal/metrics"
	"github.com/timf34/FOVWiFiStreamingApp/internal/platform/correlation"
)

// Publisher is the hub-facing contract the driver pushes samples into.
type Publisher interface {
	Publish(domain.Sample)
}

// Driver ticks at a fixed period, pulling a sample from the source and
// publishing it into the hub. Scheduling is drift-corrected: each tick is
// scheduled relative to the previous tick's target time, not its completion
// time, so load does not accumulate timing skew. A missed deadline logs a
// warning and proceeds immediately rather than double-firing.
type Driver struct {
	source   domain.Source
	hub      Publisher
	clock    clockwork.Clock
	interval time.Duration
}

func NewDriver(src domain.Source, hub Publisher, interval time.Duration, clock clockwork.Clock) *Driver {
	return &Driver{
		source:   src,
		hub:      hub,
		clock:    clock,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	target := d.clock.Now().Add(d.interval)
	timer := d.clock.NewTimer(d.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.Chan():
			start := d.clock.Now()
			d.tick(ctx)
			metrics.CadenceTickDuration.Observe(d.clock.Since(start).Seconds())

			target = target.Add(d.interval)
			wait := target.Sub(d.clock.Now())
			if wait < 0 {
				slog.Warn("Tick deadline missed, proceeding immediately",
					"behind", -wait,
					"interval", d.interval,
				)
				metrics.CadenceMissedTicksTotal.Inc()
				target = d.clock.Now()
				wait = 0
			}
			timer.Reset(wait)
		}
	}
}

func (d *Driver) tick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(correlation.WithID(ctx, correlation.NewID()), d.interval)
	defer cancel()

	sample, err := d.source.Next(tickCtx)
	switch {
	case err == nil:
		d.hub.Publish(sample)
	case errors.Is(err, domain.ErrNoSample):
		metrics.SourceEmptyReadsTotal.Inc()
		slog.DebugContext(tickCtx, "Source had no sample this tick")
	case errors.Is(err, context.Canceled):
		// Shutting down.
	default:
		metrics.SourceErrorsTotal.Inc()
		slog.WarnContext(tickCtx, "Source error, sample skipped", "error", err)
	}
}
