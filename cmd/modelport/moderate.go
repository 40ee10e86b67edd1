package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modelport/modelport/pkg/llm"
	"github.com/modelport/modelport/pkg/providers/openai"
)

var moderateFlags struct {
	model string
}

var moderateCmd = &cobra.Command{
	Use:   "moderate [text]",
	Short: "Check text against the moderation policy",
	Long: `Classify text with an OpenAI moderation model and print the flagged categories.

The command exits with an error when the text is flagged.

Examples:
  modelport moderate "some text to check"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runModerate,
}

func init() {
	rootCmd.AddCommand(moderateCmd)

	moderateCmd.Flags().StringVarP(&moderateFlags.model, "model", "m", "", "model name (uses config if not specified)")
}

func runModerate(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	cc := e.cfg.ClientConfig(openai.ProviderName)
	cc.Model = e.cfg.OpenAI.ModerationModel
	if moderateFlags.model != "" {
		cc.Model = moderateFlags.model
	}
	model, err := openai.NewModerationModel(cc, e.openaiOptions()...)
	if err != nil {
		return err
	}

	resp, err := model.Call(e.ctx, llm.ModerationPrompt{Text: strings.Join(args, " ")})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !resp.Flagged() {
		fmt.Fprintln(out, "not flagged")
		return nil
	}
	var categories []string
	for _, result := range resp.Results {
		for _, category := range result.FlaggedCategories() {
			categories = append(categories, fmt.Sprintf("%s (%.2f)", category, result.CategoryScores[category]))
		}
	}
	fmt.Fprintln(out, "flagged:", strings.Join(categories, ", "))
	return fmt.Errorf("text was flagged")
}
