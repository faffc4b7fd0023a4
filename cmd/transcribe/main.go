package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/adapters/stt"
	"github.com/satriahrh/tripvoice/domain/repositories"
	"github.com/satriahrh/tripvoice/internal/config"
	"github.com/satriahrh/tripvoice/internal/logging"
)

var (
	configFile string
	provider   string
	sampleRate int
	language   string
	timeout    time.Duration
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "transcribe <audio.pcm>",
	Short: "Transcribe a raw PCM file with the configured speech provider",
	Long: `Transcribe reads a file of raw 16-bit little-endian mono PCM and prints
the final transcript to stdout. Credentials come from the environment or .env,
the same way the server reads them.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	rootCmd.Flags().StringVar(&provider, "provider", "", "override STT_PROVIDER (iflytek, google, mock)")
	rootCmd.Flags().IntVar(&sampleRate, "sample-rate", 16000, "PCM sample rate in Hz")
	rootCmd.Flags().StringVar(&language, "language", "", "override the recognition language")
	rootCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if provider != "" {
		os.Setenv("STT_PROVIDER", provider)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, "development")
	if err != nil {
		return err
	}
	defer logger.Sync()

	audio, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}

	speechToText, err := stt.NewProvider(cfg.Provider(), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	audioConfig := repositories.DefaultAudioConfig()
	audioConfig.SampleRate = sampleRate
	audioConfig.Language = language

	start := time.Now()
	text, err := speechToText.TranscribeAudio(ctx, audio, audioConfig)
	if err != nil {
		return err
	}

	logger.Info("Transcription finished",
		zap.String("provider", speechToText.Name()),
		zap.Int("audioBytes", len(audio)),
		zap.Duration("elapsed", time.Since(start)))

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
