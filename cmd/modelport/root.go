package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/config"
	"github.com/modelport/modelport/pkg/factory"
	"github.com/modelport/modelport/pkg/llm"
	"github.com/modelport/modelport/pkg/logging"
	"github.com/modelport/modelport/pkg/providers/openai"
)

// Version is set at build time
var Version = "dev"

var (
	// Global flags
	cfgFile  string
	provider string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "modelport",
	Short: "Modelport - one client for chat, embedding, image, audio and moderation models",
	Long: `Modelport talks to OpenAI-compatible endpoints and PostgresML through a single set
of portable model interfaces.

Chat and embedding commands accept --provider to pick the backend; "mock" answers
locally and is handy for dry runs.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (environment only when empty)")
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", factory.DefaultProvider, "provider: openai, openrouter, deepseek, ollama, postgresml, mock")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// env is what every command needs: the configuration, a logger and a context carrying it
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	ctx    context.Context
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		ctx:    logging.WithLogger(ctx, logger),
	}, nil
}

// clientConfig returns the factory input for the selected provider with model as the default model
func (e *env) clientConfig(model string) llm.ClientConfig {
	cc := e.cfg.ClientConfig(provider)
	if model != "" && provider != "postgresml" {
		cc.Model = model
	}
	return cc
}

// openaiOptions are the adapter options shared by the OpenAI-only commands
func (e *env) openaiOptions() []openai.Option {
	return []openai.Option{
		openai.WithLogger(e.logger),
		openai.WithRetryTemplate(llm.NewRetryTemplate(e.cfg.Retry, e.logger)),
	}
}

func (e *env) close() {
	_ = e.logger.Sync()
}
