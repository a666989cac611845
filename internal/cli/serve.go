package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ppiankov/narrtl/internal/metrics"
	"github.com/ppiankov/narrtl/internal/pipeline"
	"github.com/ppiankov/narrtl/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion API over HTTP",
	Long: `Serve exposes:
  POST /v1/convert   {"subject": "...", "text": "..."} -> report and Turtle
  GET  /healthz
  GET  /metrics      Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Output.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()
	p, closeFn, err := pipeline.FromConfig(cfg, nil, m)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.NewServer(p, m, slog.Default()).Run(ctx, cfg.Server.Addr)
}
