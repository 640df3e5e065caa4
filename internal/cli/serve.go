package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/SeelanGov/thandi/internal/httpapi"
	"github.com/SeelanGov/thandi/internal/pipeline"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the guidance API over HTTP",
	Long: `Serve exposes the pipeline to the host application:
  POST /api/v1/guidance   {"questionText": "...", "profile": {...}}
  GET  /healthz
  GET  /metrics           Prometheus metrics

Example:
  thandi serve
  thandi serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if serveAddr != "" {
			appConfig.Server.Address = serveAddr
		}
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		logger, err := newLogger(appConfig)
		if err != nil {
			return err
		}
		rt, err := pipeline.Build(ctx, appConfig, logger)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		return httpapi.NewServer(httpapi.RouterConfig{
			Guider: rt.Pipeline,
			Server: appConfig.Server,
			Logger: logger,
		}).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.address)")
}
