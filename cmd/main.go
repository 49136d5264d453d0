// EdgeKVM - software KVM over a screen edge.
// The host captures its keyboard and mouse and, once the cursor crosses its
// right edge, forwards them to the client, which injects them locally.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"edgekvm/internal/config"
)

var version = "0.3.0"

var (
	configPath string
	logLevel   string
	logJSON    bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("edgekvm: exiting")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "edgekvm",
		Short:         "Share one keyboard and mouse across two machines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: per-user config directory)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("EDGEKVM_LOG_LEVEL", "info"), "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log JSON instead of console output")

	root.AddCommand(
		newHostCmd(),
		newClientCmd(),
		newDiscoverCmd(),
		newAutostartCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func setupLogging() error {
	level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		return fmt.Errorf("log level %q: %w", logLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if logJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadConfig reads the config file and environment overrides.
func loadConfig() (*config.Manager, error) {
	var (
		mgr *config.Manager
		err error
	)
	if configPath != "" {
		mgr = config.NewManagerAt(configPath)
	} else if mgr, err = config.NewManager(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	if err := mgr.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.Debug().Str("path", mgr.Path()).Msg("Config: loaded")
	return mgr, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "edgekvm version %s\n", version)
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise the configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadConfig()
			if err != nil {
				return err
			}
			cfg := mgr.Get()
			if cfg.General.Token != "" {
				cfg.General.Token = "********"
			}
			enc := jsonEncoder(cmd.OutOrStdout())
			return enc.Encode(cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadConfig()
			if err != nil {
				return err
			}
			cfg := mgr.Get()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := mgr.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mgr.Path())
			return nil
		},
	})
	return cmd
}
