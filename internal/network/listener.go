package network

import (
	"context"
	"crypto/subtle"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrListenerClosed is returned by Accept after the listener shuts down.
var ErrListenerClosed = errors.New("listener closed")

// Listener accepts one authenticated peer at a time. A newly authenticated
// peer replaces the current one, so a client that lost its connection can
// reconnect before the old one times out.
type Listener struct {
	token    string
	upgrader websocket.Upgrader
	accepted chan *Stream
	status   func() string

	mu     sync.Mutex
	active *Stream
	closed chan struct{}
	once   sync.Once
}

// NewListener creates a listener. An empty token disables authentication.
func NewListener(token string) *Listener {
	return &Listener{
		token: token,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// peers are not browsers; the bearer token is the gate
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		accepted: make(chan *Stream),
		closed:   make(chan struct{}),
	}
}

// SetStatus sets the function reporting the control state on /health.
func (l *Listener) SetStatus(fn func() string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = fn
}

// Handler returns the HTTP handler serving the stream and /health.
func (l *Listener) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, l.handleStream)
	mux.HandleFunc("/health", l.handleHealth)
	return l.authMiddleware(l.recoverMiddleware(mux))
}

// ListenAndServeTLS serves on addr until ctx is cancelled.
func (l *Listener) ListenAndServeTLS(ctx context.Context, addr string, tlsCfg *tls.Config) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           l.Handler(),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		l.Close()
	})
	defer stop()

	log.Info().Str("addr", ln.Addr().String()).Msg("Listener: serving")
	if ips, err := GetLocalIPs(); err == nil {
		for _, ip := range ips {
			log.Info().Msgf("Listener: reachable on %s", ip)
		}
	}

	if err := srv.ServeTLS(ln, "", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Accept waits for the next authenticated peer.
func (l *Listener) Accept(ctx context.Context) (*Stream, error) {
	select {
	case s := <-l.accepted:
		return s, nil
	case <-l.closed:
		return nil, ErrListenerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops Accept and closes the active peer.
func (l *Listener) Close() error {
	l.once.Do(func() { close(l.closed) })

	l.mu.Lock()
	active := l.active
	l.active = nil
	l.mu.Unlock()
	if active != nil {
		return active.Close()
	}
	return nil
}

func (l *Listener) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("peer", r.RemoteAddr).Msg("Listener: upgrade failed")
		return
	}
	s := newStream(conn)

	l.mu.Lock()
	prev := l.active
	l.active = s
	l.mu.Unlock()
	if prev != nil {
		log.Info().Str("old", prev.RemoteAddr()).Str("new", s.RemoteAddr()).Msg("Listener: replacing peer")
		prev.Close()
	}

	select {
	case l.accepted <- s:
		log.Info().Str("peer", s.RemoteAddr()).Msg("Listener: peer connected")
	case <-l.closed:
		s.Close()
	case <-r.Context().Done():
		s.Close()
	}
}

func (l *Listener) handleHealth(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	status := l.status
	l.mu.Unlock()

	name, _ := os.Hostname()
	resp := map[string]string{"status": "ok", "name": name}
	if status != nil {
		resp["state"] = status()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// recoverMiddleware keeps a panicking handler from taking the process down.
func (l *Listener) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("panic", err).Msg("Listener: recovered")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the bearer token on everything except /health.
func (l *Listener) authMiddleware(next http.Handler) http.Handler {
	expected := []byte("Bearer " + l.token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Str("peer", r.RemoteAddr).Msg("Listener: request")

		if r.URL.Path == "/health" || l.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), expected) != 1 {
			log.Warn().Str("peer", r.RemoteAddr).Msg("Listener: rejected unauthenticated peer")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
