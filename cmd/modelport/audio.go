package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modelport/modelport/pkg/llm"
	"github.com/modelport/modelport/pkg/providers/openai"
)

var transcribeFlags struct {
	model    string
	language string
	segments bool
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [file]",
	Short: "Transcribe an audio file",
	Long: `Transcribe an audio file with an OpenAI transcription model.

Examples:
  modelport transcribe meeting.mp3
  modelport transcribe --language es --segments entrevista.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

var speakFlags struct {
	model  string
	voice  string
	format string
	speed  float64
	output string
}

var speakCmd = &cobra.Command{
	Use:   "speak [text]",
	Short: "Synthesize speech",
	Long: `Synthesize speech with an OpenAI speech model and stream it to a file or stdout.

Examples:
  modelport speak --output hello.mp3 "Hello there"
  modelport speak --voice nova --format wav "Good morning" > morning.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSpeak,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(speakCmd)

	transcribeCmd.Flags().StringVarP(&transcribeFlags.model, "model", "m", "", "model name (uses config if not specified)")
	transcribeCmd.Flags().StringVar(&transcribeFlags.language, "language", "", "spoken language (ISO-639-1)")
	transcribeCmd.Flags().BoolVar(&transcribeFlags.segments, "segments", false, "print timed segments")

	speakCmd.Flags().StringVarP(&speakFlags.model, "model", "m", "", "model name (uses config if not specified)")
	speakCmd.Flags().StringVar(&speakFlags.voice, "voice", "", "voice such as alloy, nova or shimmer")
	speakCmd.Flags().StringVar(&speakFlags.format, "format", "", "audio format: mp3, opus, aac, flac, wav, pcm")
	speakCmd.Flags().Float64Var(&speakFlags.speed, "speed", 0, "speech speed (0.25 to 4.0)")
	speakCmd.Flags().StringVarP(&speakFlags.output, "output", "o", "", "write the audio to this file instead of stdout")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	cc := e.cfg.ClientConfig(openai.ProviderName)
	cc.Model = e.cfg.OpenAI.TranscriptionModel
	if transcribeFlags.model != "" {
		cc.Model = transcribeFlags.model
	}
	model, err := openai.NewAudioTranscriptionModel(cc, e.openaiOptions()...)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	opts := &openai.TranscriptionOptions{Language: transcribeFlags.language}
	if transcribeFlags.segments {
		opts.ResponseFormat = "verbose_json"
	}
	resp, err := model.Call(e.ctx, llm.TranscriptionRequest{
		Audio:    f,
		Filename: filepath.Base(args[0]),
		Options:  opts,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !transcribeFlags.segments || len(resp.Segments) == 0 {
		fmt.Fprintln(out, resp.Text)
		return nil
	}
	for _, seg := range resp.Segments {
		fmt.Fprintf(out, "[%s - %s] %s\n", seg.Start, seg.End, strings.TrimSpace(seg.Text))
	}
	return nil
}

func runSpeak(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	cc := e.cfg.ClientConfig(openai.ProviderName)
	cc.Model = e.cfg.OpenAI.SpeechModel
	if speakFlags.model != "" {
		cc.Model = speakFlags.model
	}
	model, err := openai.NewAudioSpeechModel(cc, e.openaiOptions()...)
	if err != nil {
		return err
	}

	opts := &openai.SpeechOptions{Voice: speakFlags.voice, Format: speakFlags.format}
	if speakFlags.speed > 0 {
		opts.Speed = llm.Ptr(speakFlags.speed)
	}

	var out io.Writer = cmd.OutOrStdout()
	if speakFlags.output != "" {
		f, err := os.Create(speakFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	chunks, err := model.Stream(e.ctx, llm.SpeechPrompt{Text: strings.Join(args, " "), Options: opts})
	if err != nil {
		return err
	}
	for chunk := range chunks {
		if chunk.Err != nil {
			return chunk.Err
		}
		if _, err := out.Write(chunk.Data); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
	}
	return nil
}
