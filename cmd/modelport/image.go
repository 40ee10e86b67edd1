package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modelport/modelport/pkg/llm"
	"github.com/modelport/modelport/pkg/providers/openai"
)

var imageFlags struct {
	model   string
	size    string
	quality string
	style   string
	output  string
	stream  bool
}

var imageCmd = &cobra.Command{
	Use:   "image [instructions]",
	Short: "Generate an image",
	Long: `Generate an image with an OpenAI image model.

The image URL is printed unless --output is given, in which case the image is
requested as base64 and written to that file.

Examples:
  modelport image "a lighthouse at dawn"
  modelport image --size 1024x1792 --style vivid --output poster.png "a retro travel poster"
  modelport image --stream --output cat.png "a cat reading a book"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImage,
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().StringVarP(&imageFlags.model, "model", "m", "", "model name (uses config if not specified)")
	imageCmd.Flags().StringVar(&imageFlags.size, "size", "", "image size such as 1024x1024")
	imageCmd.Flags().StringVar(&imageFlags.quality, "quality", "", "image quality")
	imageCmd.Flags().StringVar(&imageFlags.style, "style", "", "image style: vivid, natural")
	imageCmd.Flags().StringVarP(&imageFlags.output, "output", "o", "", "write the image to this file")
	imageCmd.Flags().BoolVar(&imageFlags.stream, "stream", false, "stream partial images (requires --output)")
}

func runImage(cmd *cobra.Command, args []string) error {
	if imageFlags.stream && imageFlags.output == "" {
		return fmt.Errorf("--stream requires --output")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	cc := e.cfg.ClientConfig(openai.ProviderName)
	cc.Model = e.cfg.OpenAI.ImageModel
	if imageFlags.model != "" {
		cc.Model = imageFlags.model
	}
	model, err := openai.NewImageModel(cc, e.openaiOptions()...)
	if err != nil {
		return err
	}

	opts := &openai.ImageOptions{
		Size:    imageFlags.size,
		Quality: imageFlags.quality,
		Style:   imageFlags.style,
	}
	if imageFlags.output != "" && !strings.HasPrefix(cc.Model, "gpt-image") {
		opts.ResponseFormat = "b64_json"
	}
	prompt := llm.NewImagePrompt(strings.Join(args, " "), opts)

	if imageFlags.stream {
		opts.PartialImages = llm.Ptr(2)
		return streamImage(cmd, e, model, prompt)
	}

	resp, err := model.Call(e.ctx, prompt)
	if err != nil {
		return err
	}
	if len(resp.Generations) == 0 {
		return fmt.Errorf("no image generated")
	}
	gen := resp.Generations[0]
	if imageFlags.output == "" {
		fmt.Fprintln(cmd.OutOrStdout(), gen.URL)
		return nil
	}
	return writeImage(imageFlags.output, gen.B64JSON)
}

func streamImage(cmd *cobra.Command, e *env, model *openai.ImageModel, prompt llm.ImagePrompt) error {
	events, err := model.Stream(e.ctx, prompt)
	if err != nil {
		return err
	}
	for event := range events {
		if event.Error != nil {
			return event.Error
		}
		if err := writeImage(imageFlags.output, event.B64JSON); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", event.Type, imageFlags.output)
	}
	return nil
}

func writeImage(path, b64 string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("invalid image data: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}
