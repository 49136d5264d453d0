// Package network carries the packet stream between host and client over
// WebSocket on TLS, and finds hosts on the local network.
package network

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Path is the HTTP path the stream is served on
	Path = "/ws"

	pongWait    = 60 * time.Second
	pingPeriod  = 30 * time.Second
	controlWait = 10 * time.Second
	maxMessage  = 1 << 20
)

// Stream is a byte stream over one WebSocket connection. Each Write is sent
// as one binary message; Read returns message bytes in order without
// preserving message boundaries. Reads and writes may run concurrently.
type Stream struct {
	conn   *websocket.Conn
	remote string

	rmu    sync.Mutex
	reader io.Reader

	wmu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

func newStream(conn *websocket.Conn) *Stream {
	s := &Stream{
		conn:   conn,
		remote: conn.RemoteAddr().String(),
		done:   make(chan struct{}),
	}
	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go s.keepalive()
	return s
}

func (s *Stream) keepalive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(controlWait)); err != nil {
				log.Debug().Err(err).Str("peer", s.remote).Msg("Stream: ping failed")
				return
			}
		case <-s.done:
			return
		}
	}
}

// RemoteAddr returns the peer's network address.
func (s *Stream) RemoteAddr() string { return s.remote }

// Done is closed when Close is called.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Read reads stream bytes. A clean close by the peer reads as io.EOF.
func (s *Stream) Read(p []byte) (int, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	for {
		if s.reader == nil {
			mt, r, err := s.conn.NextReader()
			if err != nil {
				return 0, translateReadError(err)
			}
			s.conn.SetReadDeadline(time.Now().Add(pongWait))
			if mt != websocket.BinaryMessage {
				continue
			}
			s.reader = r
		}

		n, err := s.reader.Read(p)
		if errors.Is(err, io.EOF) {
			s.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write sends p as one binary message.
func (s *Stream) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetWriteDeadline bounds the next writes.
func (s *Stream) SetWriteDeadline(t time.Time) error {
	return s.conn.SetWriteDeadline(t)
}

// Discard reads and drops everything the peer sends until the stream ends.
// The sending side runs it so pongs and close frames are processed.
func (s *Stream) Discard() error {
	_, err := io.Copy(io.Discard, s)
	return err
}

// Close sends a close frame and closes the connection. It is safe to call
// more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}

func translateReadError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return io.EOF
	}
	return err
}
