package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	qhttp "studentpass/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction form and API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	// 1. Load config and model; a load failure stops here
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}

	// 2. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           e.cfg.Http.Port,
		Timeout:        e.cfg.Http.Timeout,
		AllowedOrigins: e.cfg.Http.AllowedOrigins,
	}, e.svc, e.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 3. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		e.logger.Info("shutting down", zap.Stringer("signal", sig))
	case err := <-errCh:
		if err != nil {
			e.logger.Error("HTTP server failed", zap.Error(err))
			return multierr.Append(err, e.Close())
		}
	}

	return multierr.Combine(server.Stop(), e.Close())
}
