// Package reconciler runs the Indexer's disk-vs-index reconciliation on
// a fixed interval, as a self-healing backstop against any event the
// Watcher/Loader pipeline missed or coalesced away.
package reconciler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/kepler-labs/filedex/indexer"
)

// DefaultInterval is used when Config.Interval is zero.
const DefaultInterval = 5 * time.Minute

// Config tunes a Reconciler.
type Config struct {
	Interval time.Duration
}

// Reconciler periodically calls Indexer.Reconcile until stopped.
type Reconciler struct {
	ix       *indexer.Indexer
	interval time.Duration
	logger   zerolog.Logger
}

// New constructs a Reconciler bound to ix.
func New(ix *indexer.Indexer, cfg Config, logger zerolog.Logger) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reconciler{
		ix:       ix,
		interval: interval,
		logger:   logger.With().Str("component", "reconciler").Logger(),
	}
}

// Run starts the periodic loop. It blocks until stop is closed.
func (r *Reconciler) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Msg("reconciliation started")

	for {
		select {
		case <-stop:
			r.logger.Info().Msg("reconciliation stopped")
			return
		case <-ticker.C:
			result := r.ix.Reconcile()
			total := result.Missing + result.Stale + result.Modified
			if total > 0 {
				r.logger.Info().
					Int("missing", result.Missing).
					Int("stale", result.Stale).
					Int("modified", result.Modified).
					Dur("duration", result.Duration).
					Msg("reconciliation found drift")
			} else {
				r.logger.Debug().Dur("duration", result.Duration).Msg("reconciliation found no drift")
			}
		}
	}
}
