package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat, ocr and jobs HTTP API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", server.DefaultPort, "port to listen on")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func serve(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, config := setup()
	defer logger.Sync()

	logger.Info("starting the goose-guidance server")

	stack, err := newDialogueStack(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the dialogue", zap.Error(err), zap.String("hint", "set GEMINI_API_KEY or gemini.api-key-file"))
	}

	aggregator, err := newAggregator(config, logger)
	if err != nil {
		logger.Fatal("preparing the job search", zap.Error(err))
	}

	cfg := server.Config{Version: resolvedVersion()}
	if config.Server != nil {
		cfg.Port = config.Server.Port
		cfg.CORSOrigin = config.Server.CORSOrigin
		cfg.TrustForwarded = config.Server.TrustForwarded
		cfg.MaxUploadBytes = config.Server.MaxUploadBytes
	}

	srv := server.New(cfg, server.Deps{
		Dialogue: stack.orchestrator,
		OCR:      stack.reader,
		Jobs:     aggregator,
	}, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}
