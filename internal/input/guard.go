package input

import "sync/atomic"

// Guard marks the window in which this process is submitting a synthetic
// event. Capture paths consult it and drop whatever they observe while it is
// active, otherwise an injected event would be captured and forwarded back
// to the peer that sent it.
//
// It is a counter rather than a flag so nested or concurrent injections keep
// it active until the last one leaves.
type Guard struct {
	depth atomic.Int32
}

// Synthetic is the process-wide guard. Injection is its only writer; capture
// callbacks only read it.
var Synthetic = &Guard{}

// Enter marks a synthetic event as in flight.
func (g *Guard) Enter() {
	g.depth.Add(1)
}

// Leave clears the mark set by the matching Enter.
// An unbalanced Leave is ignored.
func (g *Guard) Leave() {
	for {
		d := g.depth.Load()
		if d <= 0 || g.depth.CompareAndSwap(d, d-1) {
			return
		}
	}
}

// Active reports whether a synthetic event is in flight.
func (g *Guard) Active() bool {
	return g.depth.Load() > 0
}

// Do runs fn with the guard held.
func (g *Guard) Do(fn func() error) error {
	g.Enter()
	defer g.Leave()
	return fn()
}
