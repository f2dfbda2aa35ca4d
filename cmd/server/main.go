package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/pulsechat/internal/app"
	"github.com/vovakirdan/pulsechat/internal/auth"
	"github.com/vovakirdan/pulsechat/internal/config"
	applog "github.com/vovakirdan/pulsechat/internal/log"
)

var (
	configPath string
	logLevel   string

	serveFlags struct {
		addr              string
		readHeaderTimeout time.Duration
		shutdownTimeout   time.Duration
		dbPath            string
		staticDir         string
	}

	tokenFlags struct {
		subject string
		ttl     time.Duration
	}
)

var rootCmd = &cobra.Command{
	Use:           "pulsechat",
	Short:         "Realtime chat server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server (default)",
	RunE:  runServe,
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all messages and reaction counters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.DatabasePath = serveFlags.dbPath
		}
		if err := app.Purge(cmd.Context(), &cfg, logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Messages cleared")
		return nil
	},
}

var adminTokenCmd = &cobra.Command{
	Use:   "admin-token",
	Short: "Mint a bearer token for POST /clear",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.AdminJWTSecret == "" {
			return fmt.Errorf("admin_jwt_secret is not configured")
		}
		token, err := auth.GenerateAdminToken(auth.NewAdminJWTConfig(cfg.AdminJWTSecret, tokenFlags.ttl), tokenFlags.subject)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&serveFlags.dbPath, "db", "", "sqlite database path")

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		flags := cmd.Flags()
		flags.StringVar(&serveFlags.addr, "addr", "", "HTTP listen address")
		flags.DurationVar(&serveFlags.readHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
		flags.DurationVar(&serveFlags.shutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
		flags.StringVar(&serveFlags.staticDir, "static-dir", "", "directory holding index.html and styles.css")
	}

	adminTokenCmd.Flags().StringVar(&tokenFlags.subject, "subject", "admin", "token subject")
	adminTokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")

	rootCmd.AddCommand(serveCmd, purgeCmd, adminTokenCmd)
}

func loadConfig() (config.Config, *zerolog.Logger, error) {
	bootLogger := applog.New("info")
	cfg, path, err := config.Load(bootLogger, configPath)
	if err != nil {
		return cfg, bootLogger, fmt.Errorf("load config %s: %w", path, err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, applog.New(cfg.LogLevel), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.UpdateFrom(config.Config{
		Addr:              serveFlags.addr,
		ReadHeaderTimeout: serveFlags.readHeaderTimeout,
		ShutdownTimeout:   serveFlags.shutdownTimeout,
		DatabasePath:      serveFlags.dbPath,
		StaticDir:         serveFlags.staticDir,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting pulsechat server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
