package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/factory"
	"github.com/modelport/modelport/pkg/llm"
)

var chatFlags struct {
	model       string
	stream      bool
	temperature float64
	maxTokens   int
}

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a chat message",
	Long: `Send a message to a chat model and print the answer.

The system and user prompts from the configuration file are sent before the message.

Examples:
  modelport chat "What is the capital of France?"
  modelport chat --stream --temperature 0.2 "Explain goroutines"
  modelport chat --provider mock "hello"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&chatFlags.model, "model", "m", "", "model name (uses config if not specified)")
	chatCmd.Flags().BoolVarP(&chatFlags.stream, "stream", "s", false, "print the answer as it is generated")
	chatCmd.Flags().Float64Var(&chatFlags.temperature, "temperature", -1, "sampling temperature")
	chatCmd.Flags().IntVar(&chatFlags.maxTokens, "max-tokens", 0, "maximum tokens to generate")
}

func runChat(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	base, err := factory.New(factory.WithLogger(e.logger)).CreateChatModel(e.ctx, e.clientConfig(chatFlags.model))
	if err != nil {
		return err
	}
	model := llm.WithMiddleware(base, llm.NewLoggingMiddleware(e.logger))

	opts := &llm.ChatOptions{}
	if chatFlags.temperature >= 0 {
		opts.Temperature = llm.Ptr(chatFlags.temperature)
	}
	if chatFlags.maxTokens > 0 {
		opts.MaxTokens = llm.Ptr(chatFlags.maxTokens)
	}
	prompt := llm.NewPromptFromMessages(e.cfg.Prompts.Messages(strings.Join(args, " ")), opts)

	out := cmd.OutOrStdout()
	if !chatFlags.stream {
		resp, err := model.Call(e.ctx, prompt)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, resp.Text())
		e.logger.Debug("chat finished", zap.Int("total_tokens", resp.Usage.TotalTokens))
		return nil
	}

	events, err := model.Stream(e.ctx, prompt)
	if err != nil {
		return err
	}
	for event := range events {
		switch {
		case event.IsError():
			return event.Error
		case event.IsDelta():
			fmt.Fprint(out, event.Choice.Delta.Text())
		}
	}
	fmt.Fprintln(out)
	return nil
}
