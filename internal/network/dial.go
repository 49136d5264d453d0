package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Dial connects to a host's stream at addr (host:port) over TLS.
func Dial(ctx context.Context, addr, token string, tlsCfg *tls.Config) (*Stream, error) {
	u := url.URL{Scheme: "wss", Host: addr, Path: Path}

	dialer := websocket.Dialer{
		TLSClientConfig:  tlsCfg,
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (HTTP %d)", u.String(), err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	log.Info().Str("host", addr).Msg("Dial: connected")
	return newStream(conn), nil
}

// DialRetry dials until it succeeds or ctx is cancelled, waiting retry
// between attempts.
func DialRetry(ctx context.Context, addr, token string, tlsCfg *tls.Config, retry time.Duration) (*Stream, error) {
	for {
		s, err := Dial(ctx, addr, token, tlsCfg)
		if err == nil {
			return s, nil
		}
		log.Warn().Err(err).Msgf("Dial: attempting reconnection in %s", retry)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retry):
		}
	}
}
