package forward

import (
	"sync"

	"edgekvm/internal/protocol"
)

// outbox is the queue between capture and the writer. Capture pushes
// without blocking; the writer takes everything queued at once.
//
// A move that is still the tail of the queue is overwritten by the next
// move, so a slow stream sends fewer, fresher positions while keys and
// buttons keep their exact order.
type outbox struct {
	mu         sync.Mutex
	queue      []protocol.EventPacket
	pending    int // non-move packets in queue
	maxBacklog int
	err        error
	coalesced  uint64

	notify chan struct{}
}

func newOutbox(maxBacklog int) *outbox {
	return &outbox{
		maxBacklog: maxBacklog,
		notify:     make(chan struct{}, 1),
	}
}

func (o *outbox) push(p protocol.EventPacket) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.err != nil {
		return o.err
	}

	if p.Type == protocol.MouseMove {
		if n := len(o.queue); n > 0 && o.queue[n-1].Type == protocol.MouseMove {
			o.queue[n-1] = p
			o.coalesced++
			return nil
		}
	} else {
		o.pending++
		if o.maxBacklog > 0 && o.pending > o.maxBacklog {
			o.err = &TransportError{Op: "enqueue", Err: ErrWriteStalled}
			o.wake()
			return o.err
		}
	}

	o.queue = append(o.queue, p)
	o.wake()
	return nil
}

func (o *outbox) wake() {
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

// take moves every queued packet into dst and returns it.
func (o *outbox) take(dst []protocol.EventPacket) []protocol.EventPacket {
	o.mu.Lock()
	defer o.mu.Unlock()

	dst = append(dst, o.queue...)
	clear(o.queue)
	o.queue = o.queue[:0]
	o.pending = 0
	return dst
}

func (o *outbox) fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err == nil {
		o.err = err
	}
}

func (o *outbox) failed() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

func (o *outbox) coalescedCount() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.coalesced
}
