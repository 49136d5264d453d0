package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"edgekvm/internal/config"
	"edgekvm/internal/forward"
	"edgekvm/internal/input"
	"edgekvm/internal/input/capture"
	"edgekvm/internal/network"
	"edgekvm/internal/osutils"
	"edgekvm/internal/switcher"
	"edgekvm/internal/tray"
)

type hostFlags struct {
	listen  string
	token   string
	noTray  bool
	cert    string
	key     string
	release string
}

func newHostCmd() *cobra.Command {
	var f hostFlags
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Capture local input and forward it past the right screen edge",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadConfig()
			if err != nil {
				return err
			}
			cfg := mgr.Get()
			cfg.General.Role = config.RoleHost
			applyHostFlags(cmd, &cfg, f)
			if err := cfg.Validate(); err != nil {
				return err
			}
			mgr.Set(cfg)
			return runHost(cmd.Context(), mgr)
		},
	}
	cmd.Flags().StringVar(&f.listen, "listen", "", "address to accept the client on (overrides listen_addr)")
	cmd.Flags().StringVar(&f.token, "token", "", "shared secret the client must present")
	cmd.Flags().StringVar(&f.cert, "tls-cert", "", "TLS certificate file")
	cmd.Flags().StringVar(&f.key, "tls-key", "", "TLS key file")
	cmd.Flags().StringVar(&f.release, "release-hotkey", "", `chord that returns control to the host, e.g. "Ctrl+Alt+Esc"`)
	cmd.Flags().BoolVar(&f.noTray, "no-tray", false, "do not show the tray icon")
	return cmd
}

func applyHostFlags(cmd *cobra.Command, cfg *config.Config, f hostFlags) {
	if cmd.Flags().Changed("listen") {
		cfg.General.ListenAddr = f.listen
	}
	if cmd.Flags().Changed("token") {
		cfg.General.Token = f.token
	}
	if cmd.Flags().Changed("tls-cert") {
		cfg.General.TLSCert = f.cert
	}
	if cmd.Flags().Changed("tls-key") {
		cfg.General.TLSKey = f.key
	}
	if cmd.Flags().Changed("release-hotkey") {
		cfg.General.ReleaseHotkey = f.release
	}
	if f.noTray {
		cfg.General.ShowTray = false
	}
}

func senderOptions(cfg config.Config) (forward.SenderOptions, error) {
	chord, err := config.ParseHotkey(cfg.General.ReleaseHotkey)
	if err != nil {
		return forward.SenderOptions{}, err
	}
	return forward.SenderOptions{
		ReleaseChord: chord,
		WriteTimeout: time.Duration(cfg.General.WriteTimeoutMS) * time.Millisecond,
		MaxBacklog:   cfg.General.MaxBacklog,
	}, nil
}

// hostService ties capture, the edge switch and the active connection
// together.
type hostService struct {
	mgr      *config.Manager
	sw       *switcher.Switch
	listener *network.Listener
	tlsCfg   *tls.Config
	trap     *capture.Trap
	current  atomic.Pointer[forward.Sender]
	tray     *tray.Tray
	backItem int
}

func runHost(ctx context.Context, mgr *config.Manager) error {
	cfg := mgr.Get()
	log.Info().Msgf("EdgeKVM host %s starting...", version)

	if runtime.GOOS == "windows" && !osutils.IsAdmin() {
		log.Warn().Msg("Host: not elevated, input aimed at administrator windows will not be captured")
	}

	tlsCfg, err := network.ServerTLSConfig(cfg.General.TLSCert, cfg.General.TLSKey)
	if err != nil {
		return err
	}
	if cfg.General.Token == "" {
		log.Warn().Msg("Host: no token configured, any client that trusts the certificate may connect")
	}

	h := &hostService{
		mgr:      mgr,
		tlsCfg:   tlsCfg,
		sw:       switcher.New(cfg.Screen),
		listener: network.NewListener(cfg.General.Token),
		trap:     capture.NewTrap(),
	}
	h.listener.SetStatus(func() string { return h.sw.State().String() })

	mgr.RegisterChangeCallback(h.applyConfig)
	go h.reloadOnHangup(ctx)

	if cfg.General.ShowTray {
		h.tray = tray.New("EdgeKVM host")
		h.backItem = h.tray.AddMenuItem("Return to host", func() { h.returnToHost() })
		h.tray.AddSeparator()
		h.tray.AddMenuItem("Quit", func() { h.tray.Stop() })
	}
	h.sw.SetOnChange(func(from, to switcher.State) {
		log.Info().Msgf("Host: control %s -> %s", from, to)
		if h.tray != nil {
			h.tray.SetTitle("EdgeKVM: " + to.String())
			h.tray.SetItemEnabled(h.backItem, to == switcher.StateClient)
		}
	})

	if h.tray != nil {
		return runWithTray(ctx, h.tray, h.run)
	}
	return h.run(ctx)
}

func (h *hostService) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := h.mgr.Get()
	if runtime.GOOS == "windows" {
		if port, err := listenPort(cfg.General.ListenAddr); err == nil {
			go func() {
				if err := osutils.EnsureFirewallRule(port); err != nil {
					log.Warn().Err(err).Msg("Firewall: could not open listen port")
				}
			}()
		}
	}

	errCh := make(chan error, 3)
	go func() {
		errCh <- h.listener.ListenAndServeTLS(ctx, cfg.General.ListenAddr, h.tlsCfg)
	}()
	go func() {
		errCh <- h.trap.Run(ctx, h.handleInput)
	}()
	go func() {
		errCh <- h.serveClients(ctx)
	}()

	log.Info().Msg("EdgeKVM host running. Press Ctrl+C to stop.")

	var first error
	for i := 0; i < 3; i++ {
		err := <-errCh
		if err != nil && first == nil && !errors.Is(err, context.Canceled) {
			first = err
		}
		cancel()
	}
	h.sw.ForceHost()
	log.Info().Msg("Host: stopped")
	return first
}

// serveClients runs one sender per accepted stream. A replacement peer
// closes the previous stream, which ends its sender.
func (h *hostService) serveClients(ctx context.Context) error {
	for {
		stream, err := h.listener.Accept(ctx)
		if err != nil {
			if errors.Is(err, network.ErrListenerClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		h.serve(ctx, stream)
	}
}

func (h *hostService) serve(ctx context.Context, stream *network.Stream) {
	opts, err := senderOptions(h.mgr.Get())
	if err != nil {
		log.Error().Err(err).Msg("Host: bad sender options")
		stream.Close()
		return
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.sw.ForceHost()
	sender := forward.NewSender(h.sw, opts)
	h.current.Store(sender)

	go func() {
		if err := stream.Discard(); err != nil {
			log.Debug().Err(err).Str("peer", stream.RemoteAddr()).Msg("Host: peer read ended")
		}
		cancel()
	}()

	err = sender.Run(connCtx, stream)

	h.current.CompareAndSwap(sender, nil)
	h.sw.ForceHost()
	stream.Close()

	ev := log.Info()
	if err != nil && !errors.Is(err, context.Canceled) {
		ev = log.Warn().Err(err)
	}
	ev.Str("peer", stream.RemoteAddr()).Object("stats", sender.Stats()).Msg("Host: client session ended")
}

// handleInput runs on the capture goroutine and must not block.
func (h *hostService) handleInput(ev input.InputEvent) {
	sender := h.current.Load()
	if sender == nil {
		return
	}
	err := sender.Handle(ev)
	if err == nil {
		return
	}
	var verr *forward.ValidationError
	if errors.As(err, &verr) {
		log.Debug().Err(err).Str("event", ev.Kind.String()).Msg("Host: event dropped")
		return
	}
	// transport failures end the session in serve
	log.Trace().Err(err).Msg("Host: forward failed")
}

func (h *hostService) returnToHost() {
	if sender := h.current.Load(); sender != nil {
		if err := sender.ReturnToHost(); err != nil {
			log.Warn().Err(err).Msg("Host: release on return failed")
		}
		return
	}
	h.sw.ForceHost()
}

func (h *hostService) applyConfig(cfg *config.Config) {
	h.sw.SetEdgeThreshold(cfg.Screen.EdgeThreshold)
	h.sw.SetHysteresis(cfg.Screen.Hysteresis)
	log.Info().
		Int("edge_threshold", cfg.Screen.EdgeThreshold).
		Int("hysteresis", cfg.Screen.Hysteresis).
		Msg("Host: edge settings applied")
}

// reloadOnHangup re-reads the screen section of the config file on SIGHUP
// so edge settings can be tuned without dropping the client.
func (h *hostService) reloadOnHangup(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			fresh := config.NewManagerAt(h.mgr.Path())
			if err := fresh.Load(); err != nil {
				log.Warn().Err(err).Msg("Config: reload failed")
				continue
			}
			screen := fresh.Get().Screen
			if err := h.mgr.Update(func(c *config.Config) { c.Screen = screen }); err != nil {
				log.Warn().Err(err).Msg("Config: reloaded screen settings are invalid, keeping previous ones")
			}
		}
	}
}

func listenPort(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("bad port in %q", addr)
	}
	return port, nil
}
