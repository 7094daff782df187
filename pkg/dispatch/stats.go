package dispatch

import "sync/atomic"

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	MaxConcurrency int   `json:"max_concurrency"`
	ActiveSlots    int64 `json:"active_slots"`
	PeakSlots      int64 `json:"peak_slots"`
	Pending        int   `json:"pending"`
	Submitted      int64 `json:"submitted"`
	Delivered      int64 `json:"delivered"`
	Failed         int64 `json:"failed"`
	Rejected       int64 `json:"rejected"`
}

type counters struct {
	active    atomic.Int64
	peak      atomic.Int64
	submitted atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

func (c *counters) slotAcquired() {
	cur := c.active.Add(1)
	for {
		peak := c.peak.Load()
		if cur <= peak || c.peak.CompareAndSwap(peak, cur) {
			return
		}
	}
}

func (c *counters) slotReleased() {
	c.active.Add(-1)
}

// Stats returns current counters. Pending counts admitted requests that have
// not finished yet, whether they hold a slot or are waiting for one.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	pending := len(e.inflight)
	e.mu.Unlock()

	return Stats{
		MaxConcurrency: cap(e.sem),
		ActiveSlots:    e.stats.active.Load(),
		PeakSlots:      e.stats.peak.Load(),
		Pending:        pending,
		Submitted:      e.stats.submitted.Load(),
		Delivered:      e.stats.delivered.Load(),
		Failed:         e.stats.failed.Load(),
		Rejected:       e.stats.rejected.Load(),
	}
}
