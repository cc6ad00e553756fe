package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spheronhq/iclgen/agent"
	"github.com/spheronhq/iclgen/pkg/llm"
	"github.com/spheronhq/iclgen/pkg/logger"
	"github.com/spheronhq/iclgen/pkg/storage/sqlite"
	"github.com/spheronhq/iclgen/server"
)

const serveLongDesc string = `Start the iclgen HTTP API.

The server exposes conversation sessions over HTTP: create a session,
submit natural-language messages, and download the current validated
ICL document. The Gemini API key is read from GEMINI_API_KEY (a .env
file works too).

Examples:
  iclgen serve
  iclgen serve --config iclgen.toml
  iclgen serve --listen :9090 --db ~/.iclgen/iclgen.db`

const serveShortDesc string = "Start the HTTP API server"

type serveCommander struct {
	configPath string
	listen     string
	dbPath     string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVar(&cmder.listen, "listen", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite turn log (overrides config)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	config, err := server.LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	if c.listen != "" {
		config.Listen = c.listen
	}
	if c.dbPath != "" {
		config.DBPath = c.dbPath
	}
	if c.debug {
		config.Debug = true
	}

	log := logger.NewLogger(config.Debug)
	defer log.Sync()

	client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
		APIKey: config.Gemini.APIKey,
		Model:  config.Gemini.Model,
	})
	if err != nil {
		return fmt.Errorf("could not create generation client: %w", err)
	}

	var recorder agent.Recorder = agent.NopRecorder{}
	if config.DBPath != "" {
		driver, err := sqlite.NewDriver(ctx, config.DBPath)
		if err != nil {
			return fmt.Errorf("could not open turn log %s: %w", config.DBPath, err)
		}
		defer driver.Close()
		recorder = driver
		log.Info("recording turns", zap.String("path", config.DBPath))
	} else {
		log.Info("persistence disabled")
	}

	srv, err := server.New(config, client, recorder, log)
	if err != nil {
		return err
	}

	return srv.Run()
}
