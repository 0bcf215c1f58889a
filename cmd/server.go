package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"pagelab/api"
	"pagelab/config"
	"pagelab/logger"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var standaloneServerPort string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the ingestion endpoint and JSON API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		portToUse := standaloneServerPort
		if portToUse == "" {
			portToUse = config.AppConfig.Server.Port
		}

		srv := &http.Server{
			Addr:              ":" + portToUse,
			Handler:           api.NewRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Server Command: Listening on :%s", portToUse)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Could not start server: %v", err)
				return err
			}
			return nil
		case <-ctx.Done():
			logger.Info("Server Command: Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serverCmd.Flags().StringVarP(&standaloneServerPort, "port", "p", "", "Port for the server to listen on (default from server.port)")
	rootCmd.AddCommand(serverCmd)
}
