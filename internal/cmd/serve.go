package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ferroxide/ferroxide/internal/clock"
	"github.com/ferroxide/ferroxide/internal/config"
	"github.com/ferroxide/ferroxide/internal/logging"
	"github.com/ferroxide/ferroxide/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server.

Log records are written to the console and to logs.txt in the base
directory. The listener port comes from PORT (default 2137); an invalid
value is reported and the default is used instead.

Examples:
  # Serve with debug output for HTTP requests
  LOG_FILTER=info,http=debug ferroxide serve

  # Serve on another port
  PORT=8080 ferroxide serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("dev", false, "run in development mode (also FERROXIDE_DEV)")
	bindServeFlags()
}

func bindServeFlags() {
	_ = viper.BindPFlag("dev", serveCmd.Flags().Lookup("dev"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}

	sink, err := openSink(cfg, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()
	sink.Install()

	return serve(ctx, sink, cfg, viper.GetBool("dev"))
}

// openSink initializes the dual console and file sink. Failing to write the
// log file is fatal for the server.
func openSink(cfg *config.Config, cmd *cobra.Command) (*logging.Sink, error) {
	logPath, err := resolveLogPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", logging.ErrSinkUnavailable, err)
	}
	clk, err := clock.New(cfg.Time.Zone)
	if err != nil {
		return nil, err
	}
	return logging.Open(logging.Options{
		Path:    logPath,
		Console: cmd.ErrOrStderr(),
		Clock:   clk,
		Filter:  cfg.Logging.Filter,
		Color:   cfg.Logging.Color,
	})
}

func serve(ctx context.Context, sink *logging.Sink, cfg *config.Config, dev bool) error {
	log := sink.Logger(logging.DefaultTarget)
	log.Infof("Logger initialized successfully with level: %s", sink.Filter().MaxLevel())

	if dev {
		log.Warnf("Running with development mode enabled")
	}

	if _, err := cfg.Server.PortNumber(); err != nil {
		log.Errorf("Invalid port number: %v; using default port %d", err, config.DefaultPort)
	}

	srv := server.New(server.Options{
		Addr:            cfg.Server.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          sink.Logger(server.Target),
	})
	if err := srv.Run(ctx); err != nil {
		log.Errorf("%v", err)
		return err
	}
	return nil
}
