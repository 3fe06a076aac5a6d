package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hitoshi/sessionbridge/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCommand はsessionbridgeのルートコマンドを生成する。
// サブコマンド省略時はserveと同じ動作をする。
func NewRootCommand(w io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "sessionbridge",
		Short:         "LINE Login / Google OAuth session bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(w)
		},
	}
	root.SetOut(w)
	root.SetErr(w)

	root.AddCommand(
		newServeCommand(w),
		newMigrateCommand(w),
		newPurgeSessionsCommand(w),
		newHealthcheckCommand(),
	)
	return root
}

func newServeCommand(w io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(w)
		},
	}
}

func serve(w io.Writer) error {
	cfg, err := initWithLog(w, "serve")
	if err != nil {
		return err
	}
	return runServe(cfg)
}

func newMigrateCommand(w io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := initWithLog(w, "migrate")
			if err != nil {
				return err
			}
			return runMigrate(cfg)
		},
	}
}

func newPurgeSessionsCommand(w io.Writer) *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "purge-sessions",
		Short: "Delete expired session records once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if grace < 0 {
				return fmt.Errorf("--grace must not be negative: %v", grace)
			}
			cfg, err := initWithLog(w, "purge-sessions")
			if err != nil {
				return err
			}
			n, err := runPurgeSessions(cmd.Context(), cfg, grace)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired sessions\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&grace, "grace", 0, "keep sessions that expired less than this long ago")
	return cmd
}

// newHealthcheckCommand は軽量サブコマンドのため、設定の読み込みをスキップする。
func newHealthcheckCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe the local /health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealthcheck(port)
		},
	}
	cmd.Flags().StringVar(&port, "port", defaultPort(), "server port to probe")
	return cmd
}

func defaultPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}
	return "8080"
}

func initWithLog(w io.Writer, command string) (*config.Config, error) {
	cfg, err := Init(w)
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", command),
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.Bool("google_enabled", cfg.GoogleEnabled()),
	)
	return cfg, nil
}
