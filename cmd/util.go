package main

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"edgekvm/internal/tray"
)

func jsonEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

// runWithTray runs fn alongside the tray loop. The tray must own the main
// goroutine on macOS, so fn runs on its own goroutine and either side
// ending stops the other.
func runWithTray(ctx context.Context, t *tray.Tray, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// systray ignores Quit before its loop is up
	stop := func() {
		<-t.Ready()
		t.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- fn(ctx)
		stop()
	}()
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-t.Done():
			cancel()
		}
	}()

	t.Run()
	cancel()

	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Service: shutdown timed out")
		return nil
	}
}
