package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/punctuate/internal/pipeline"
	"github.com/ppiankov/punctuate/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the punctuation pipeline over HTTP",
	Long: `Serve exposes the pipeline as a JSON API:

  POST /v1/punctuate  {"texts": ["..."]}  ->  {"results": [{"index": 0, "text": "..."}]}
  GET  /healthz

Example:
  punctuate serve --addr :8090 --provider remote --base-url http://tagger:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config: :8090)")
	serveCmd.Flags().Int("max-texts", 0, "maximum texts per request")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.max_texts", serveCmd.Flags().Lookup("max-texts"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o, err := pipeline.NewOracle(ctx, cfg, logger)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, o, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Serving on %s (oracle: %s)\n", cfg.Server.Addr, o.Name())
	logger.Info("starting server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("oracle", o.Name()),
		zap.Int("max_texts", cfg.Server.MaxTexts))

	return server.New(cfg.Server, p, logger).Run(ctx)
}
