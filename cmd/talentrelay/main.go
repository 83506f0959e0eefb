package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sameehj/talentrelay/pkg/backend"
	"github.com/sameehj/talentrelay/pkg/backend/mock"
	"github.com/sameehj/talentrelay/pkg/backend/openai"
	"github.com/sameehj/talentrelay/pkg/config"
	"github.com/sameehj/talentrelay/pkg/env"
	"github.com/sameehj/talentrelay/pkg/gateway"
	"github.com/sameehj/talentrelay/pkg/logging"
	"github.com/sameehj/talentrelay/pkg/relay"
	"github.com/sameehj/talentrelay/pkg/version"
)

var (
	cfgFile string
	envFile string
)

func main() {
	root := &cobra.Command{
		Use:           "talentrelay",
		Short:         "Relay chat messages to a hosted assistant and serve the web UI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			_, err := env.Load(envFile)
			return err
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigPath(), "config file (env TALENTRELAY_CONFIG)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration (empty to skip)")

	root.AddCommand(serveCmd())
	root.AddCommand(askCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var port int
	var staticDir string
	var maxInFlight int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP relay and static file server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if staticDir != "" {
				cfg.Server.StaticDir = staticDir
			}
			if cmd.Flags().Changed("max-in-flight") {
				cfg.Server.MaxInFlight = maxInFlight
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
			r, err := newRelay(cfg, logger)
			if err != nil {
				return err
			}

			if info, err := os.Stat(filepath.Join(cfg.Server.StaticDir, "index.html")); err != nil || info.IsDir() {
				logger.Warn("static_index_missing", "dir", cfg.Server.StaticDir)
			}

			gw := gateway.NewServer(
				cfg.Server.Addr(),
				r,
				os.DirFS(cfg.Server.StaticDir),
				gateway.AllowlistOrigins{Allowed: cfg.Server.AllowedOrigins},
			)
			gw.SetLogger(logger)
			gw.SetShutdownTimeout(cfg.Server.ShutdownTimeout)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger.Info("talentrelay_starting",
				"addr", gw.Addr(),
				"provider", cfg.Assistant.Provider,
				"static_dir", cfg.Server.StaticDir,
				"max_in_flight", cfg.Server.MaxInFlight,
				"version", version.Version,
			)
			return gw.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides PORT)")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "directory holding the built front-end")
	cmd.Flags().IntVar(&maxInFlight, "max-in-flight", 0, "maximum concurrent assistant exchanges (0 = unlimited)")
	return cmd
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask MESSAGE",
		Short: "Send one message to the assistant and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			r, err := newRelay(cfg, logger)
			if err != nil {
				return err
			}
			return runAsk(cmd.Context(), r, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Listen: %s\nStatic dir: %s\nProvider: %s\nAssistant: %s\nAPI key: %s\nRun timeout: %s\nMax in flight: %d\n",
				cfg.Server.Addr(), cfg.Server.StaticDir, cfg.Assistant.Provider, cfg.Assistant.AssistantID,
				maskSecret(cfg.Assistant.APIKey), cfg.Assistant.RunTimeout, cfg.Server.MaxInFlight)
			return cfg.Validate()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func runAsk(ctx context.Context, asker gateway.Asker, message string, out io.Writer) error {
	resp, err := asker.Handle(ctx, relay.Request{Message: message})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, resp.Response)
	return err
}

func newRelay(cfg *config.Config, logger *slog.Logger) (*relay.Relay, error) {
	b, err := newBackend(cfg.Assistant)
	if err != nil {
		return nil, err
	}
	return relay.New(b, relay.Options{
		RunTimeout:  cfg.Assistant.RunTimeout,
		MaxInFlight: cfg.Server.MaxInFlight,
		Logger:      logger,
	}), nil
}

func newBackend(cfg config.AssistantConfig) (backend.Backend, error) {
	switch cfg.Provider {
	case "openai", "":
		return openai.New(openai.Options{
			APIKey:       cfg.APIKey,
			AssistantID:  cfg.AssistantID,
			BaseURL:      cfg.BaseURL,
			PollInterval: cfg.PollInterval,
		})
	case "mock":
		return mock.New(cfg.MockReply), nil
	default:
		return nil, fmt.Errorf("unknown assistant provider: %s", cfg.Provider)
	}
}

func maskSecret(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:3] + "…" + s[len(s)-4:]
}
