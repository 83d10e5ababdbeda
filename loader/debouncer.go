package loader

import (
	"sync"
	"time"

	"github.com/kepler-labs/filedex/model"
)

// Debouncer collects FileNotification arriving for the same path within a
// quiet window and coalesces them via fold (spec §4.2) instead of simple
// last-write-wins: a Created immediately followed by a Deleted cancels out
// entirely rather than surfacing as a single spurious Deleted.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	pending map[string]model.FileNotification
	timer   *time.Timer
	output  chan []model.FileNotification
}

// NewDebouncer returns a Debouncer that flushes window after the last event
// for any pending path.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]model.FileNotification),
		output:  make(chan []model.FileNotification, 16),
	}
}

// Output returns the channel that receives coalesced batches.
func (d *Debouncer) Output() <-chan []model.FileNotification {
	return d.output
}

// Add folds n into whatever is already pending for n.Path, resetting the
// quiet-window timer.
func (d *Debouncer) Add(n model.FileNotification) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prior, ok := d.pending[n.Path]; ok {
		folded, drop := fold(prior, n)
		if drop {
			delete(d.pending, n.Path)
		} else {
			d.pending[n.Path] = folded
		}
	} else {
		d.pending[n.Path] = n
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush drains everything currently pending onto the output channel as a
// single batch.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		return
	}

	batch := make([]model.FileNotification, 0, len(d.pending))
	for _, n := range d.pending {
		batch = append(batch, n)
	}
	d.pending = make(map[string]model.FileNotification)
	d.output <- batch
}

// Close stops the pending timer, so anything already pending is never
// flushed. It does not disable Add: a notification added after Close
// schedules a new flush.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
