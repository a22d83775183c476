package watcher

import (
	"sync"
	"time"
)

// Op is the kind of filesystem change delivered to consumers. Renames are
// reported as removes of the old path; the new path shows up as a create.
type Op int

const (
	OpCreate Op = iota
	OpChange
	OpRemove
)

// Event is one debounced filesystem change.
type Event struct {
	Path string
	Op   Op
}

// Debouncer coalesces bursts of filesystem events into batches emitted
// after a quiet interval. Multiple events for the same path within a window
// collapse to the latest one.
type Debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	pending map[string]Event
	timer   *time.Timer
	stopped bool

	output chan []Event
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		pending:  make(map[string]Event),
		output:   make(chan []Event, 16),
	}
}

// Output returns the channel batches are delivered on. It is closed by
// Stop.
func (d *Debouncer) Output() <-chan []Event {
	return d.output
}

// Add records an event and restarts the quiet timer.
func (d *Debouncer) Add(path string, op Op) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[path] = Event{Path: path, Op: op}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// flush emits the accumulated batch.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	batch := make([]Event, 0, len(d.pending))
	for _, event := range d.pending {
		batch = append(batch, event)
	}
	d.pending = make(map[string]Event)

	select {
	case d.output <- batch:
	default:
		// Consumer stalled; drop the batch. Periodic reconcile repairs any
		// index drift this causes.
	}
}

// Stop discards pending events and closes the output channel.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = nil
	close(d.output)
}
