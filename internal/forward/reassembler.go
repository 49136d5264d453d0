package forward

import (
	"fmt"

	"edgekvm/internal/protocol"
)

// DefaultMaxPayload bounds the payload length a header may declare. Real
// packets carry at most protocol.ButtonPayloadSize bytes; anything past this
// means the stream is misaligned beyond recovery.
const DefaultMaxPayload = 4096

// Reassembler rebuilds packet frames from a byte stream that may split or
// merge them arbitrarily.
type Reassembler struct {
	buf        []byte
	off        int
	maxPayload uint32
}

// NewReassembler creates a reassembler. maxPayload <= 0 selects
// DefaultMaxPayload.
func NewReassembler(maxPayload int) *Reassembler {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return &Reassembler{maxPayload: uint32(maxPayload)}
}

// Write appends stream bytes. It never fails.
func (r *Reassembler) Write(p []byte) (int, error) {
	if r.off > 0 && r.off == len(r.buf) {
		r.buf, r.off = r.buf[:0], 0
	} else if r.off > cap(r.buf)/2 {
		n := copy(r.buf, r.buf[r.off:])
		r.buf, r.off = r.buf[:n], 0
	}
	r.buf = append(r.buf, p...)
	return len(p), nil
}

// Next returns the next complete frame, or ok=false when more bytes are
// needed. The frame is valid until the next Write.
func (r *Reassembler) Next() (frame []byte, ok bool, err error) {
	pending := r.buf[r.off:]
	if len(pending) < protocol.HeaderSize {
		return nil, false, nil
	}
	h, err := protocol.PeekHeader(pending)
	if err != nil {
		return nil, false, err
	}
	if h.PayloadLen > r.maxPayload {
		return nil, false, fmt.Errorf("%w: header declares %d payload bytes", ErrResyncImpossible, h.PayloadLen)
	}
	size := protocol.HeaderSize + int(h.PayloadLen)
	if len(pending) < size {
		return nil, false, nil
	}
	r.off += size
	return pending[:size:size], true, nil
}

// Buffered returns how many bytes wait for a complete frame.
func (r *Reassembler) Buffered() int {
	return len(r.buf) - r.off
}
