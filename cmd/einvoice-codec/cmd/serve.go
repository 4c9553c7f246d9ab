package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-codec/internal/server"
)

var (
	serverAddr      string
	serverDebug     bool
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for exporting and importing e-invoices.

The API provides endpoints for:
  - POST /api/v1/export/facturx - Export a JSON invoice as Factur-X XML
  - POST /api/v1/export/ubl     - Export a JSON invoice as UBL BIS 3 XML
  - POST /api/v1/embed          - Embed XML into a PDF (multipart pdf, xml)
  - POST /api/v1/import         - Import an XML or Factur-X PDF document
  - POST /api/v1/detect         - Detect the e-invoice syntax
  - POST /api/v1/validate       - Check a JSON invoice against the rules
  - GET  /health                - Health check

Examples:
  # Start server on the port from HTTP_PORT (default 8080)
  einvoice-codec serve

  # Start on a custom address
  einvoice-codec serve --address :9090

  # Start in debug mode
  einvoice-codec serve --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (default :HTTP_PORT)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode (env: HTTP_DEBUG)")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 5*time.Minute, "HTTP write timeout")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "Graceful shutdown timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serverAddr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.HTTP.Port)
	}

	srv := server.NewServer(&server.Config{
		Address:      addr,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Debug:        serverDebug || cfg.HTTP.Debug,
		Codec:        cfg.Codec,
		Logger:       log.Logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", addr).Bool("pdfa", cfg.Codec.PDFAEnabled).Msg("Starting server")
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}
