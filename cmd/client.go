package main

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"edgekvm/internal/config"
	"edgekvm/internal/forward"
	"edgekvm/internal/input"
	"edgekvm/internal/input/platform"
	"edgekvm/internal/network"
	"edgekvm/internal/osutils"
	"edgekvm/internal/tray"
)

const reconnectDelay = 2 * time.Second

type clientFlags struct {
	token    string
	ca       string
	insecure bool
	backend  string
	noTray   bool
}

func newClientCmd() *cobra.Command {
	var f clientFlags
	cmd := &cobra.Command{
		Use:   "client [host:port]",
		Short: "Receive forwarded input from a host and inject it locally",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadConfig()
			if err != nil {
				return err
			}
			cfg := mgr.Get()
			cfg.General.Role = config.RoleClient
			if len(args) == 1 {
				cfg.General.PeerAddr = args[0]
			}
			applyClientFlags(cmd, &cfg, f)
			if err := cfg.Validate(); err != nil {
				return err
			}
			mgr.Set(cfg)
			return runClient(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&f.token, "token", "", "shared secret expected by the host")
	cmd.Flags().StringVar(&f.ca, "tls-ca", "", "CA certificate to trust for the host")
	cmd.Flags().BoolVar(&f.insecure, "insecure", false, "skip host certificate verification (development only)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "injector backend: auto, native, wayland or robotgo")
	cmd.Flags().BoolVar(&f.noTray, "no-tray", false, "do not show the tray icon")
	return cmd
}

func applyClientFlags(cmd *cobra.Command, cfg *config.Config, f clientFlags) {
	if cmd.Flags().Changed("token") {
		cfg.General.Token = f.token
	}
	if cmd.Flags().Changed("tls-ca") {
		cfg.General.TLSCA = f.ca
	}
	if cmd.Flags().Changed("insecure") {
		cfg.General.TLSInsecureSkipVerify = f.insecure
	}
	if cmd.Flags().Changed("backend") {
		cfg.General.InjectBackend = f.backend
	}
	if f.noTray {
		cfg.General.ShowTray = false
	}
}

func runClient(ctx context.Context, cfg config.Config) error {
	log.Info().Msgf("EdgeKVM client %s starting...", version)

	tlsCfg, err := network.ClientTLSConfig(cfg.General.TLSCA, cfg.General.TLSInsecureSkipVerify)
	if err != nil {
		return err
	}

	screen := cfg.Screen.WithDefaults()
	inj, err := platform.NewInjector(platform.Options{
		Backend:      cfg.General.InjectBackend,
		ScreenWidth:  screen.ClientWidth,
		ScreenHeight: screen.ClientHeight,
	})
	if err != nil {
		return err
	}
	defer inj.Close()

	var t *tray.Tray
	if cfg.General.ShowTray {
		t = tray.New("EdgeKVM client")
		t.SetTitle("EdgeKVM: connecting")
		t.AddMenuItem("Quit", func() { t.Stop() })
	}
	setStatus := func(s string) {
		if t != nil {
			t.SetTitle("EdgeKVM: " + s)
		}
	}

	run := func(ctx context.Context) error {
		return receiveLoop(ctx, cfg, tlsCfg, input.NewDispatcher(inj), setStatus)
	}
	if t != nil {
		return runWithTray(ctx, t, run)
	}
	return run(ctx)
}

// receiveLoop keeps one connection to the host alive, reconnecting after
// failures until ctx is cancelled.
func receiveLoop(ctx context.Context, cfg config.Config, tlsCfg *tls.Config, d *input.Dispatcher, setStatus func(string)) error {
	addr := cfg.General.PeerAddr
	for {
		setStatus("connecting")
		stream, err := network.DialRetry(ctx, addr, cfg.General.Token, tlsCfg, reconnectDelay)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		setStatus("connected")
		log.Info().Str("host", addr).Msg("Client: receiving input")

		if err := osutils.WakeUp(); err != nil && !errors.Is(err, osutils.ErrWakeUnsupported) {
			log.Debug().Err(err).Msg("Client: display wake failed")
		}

		rcv := forward.NewReceiver(d)
		err = rcv.Run(ctx, stream)
		stream.Close()
		rcv.ReleaseHeld()

		ev := log.Info()
		if err != nil && !errors.Is(err, context.Canceled) {
			ev = log.Warn().Err(err)
		}
		ev.Object("stats", rcv.Stats()).Msg("Client: session ended")

		if ctx.Err() != nil {
			return nil
		}
		setStatus("disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}
