package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/morsebridge"
	"github.com/bft-labs/morsebridge/internal/adapters/serial"
	"github.com/bft-labs/morsebridge/internal/cliconfig"
	"github.com/bft-labs/morsebridge/pkg/log"
)

const helpDescription = `
Relay Morse messages drawn in front of a camera to a text display.

The capture board sends framed JPEG images over one serial port. Each image is
sent to a hosted multimodal model twice: once to list the dot and dash marks,
once to read them as International Morse Code. The decoded text is written to
the display board over a second serial port, one line per message.

Settings come from flags, MORSEBRIDGE_* environment variables and a TOML file,
in that order of precedence. ANTHROPIC_API_KEY supplies the API key when
nothing else does.
`

var exampleUsage = strings.TrimSpace(`
  morsebridge --capture-port /dev/ttyUSB0 --display-port /dev/ttyACM0
  morsebridge --config $HOME/.morsebridge/config.toml --once
  morsebridge ports
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := cliconfig.Logger()

	root := &cobra.Command{
		Use:          "morsebridge",
		Short:        "Relay camera-captured Morse messages to a serial text display",
		Long:         strings.TrimSpace(helpDescription),
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
				cfg.ConfigPath = cfgFile
			} else if cfgPath != "" {
				return fmt.Errorf("config file %s not found", cfgPath)
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger = cliconfig.SetLevel(logger, cfg.LogLevel)
			logger.Info().Interface("config", cfg.Masked()).Msg("configuration")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return morsebridge.Run(ctx, cfg, log.NewZerologAdapterWithLogger(logger))
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.morsebridge/config.toml)")

	root.Flags().StringVar(&cfg.CapturePort, "capture-port", cfg.CapturePort, "serial device of the capture board")
	root.Flags().IntVar(&cfg.CaptureBaud, "capture-baud", cfg.CaptureBaud, "capture port baud rate")
	root.Flags().DurationVar(&cfg.CaptureTimeout, "capture-timeout", cfg.CaptureTimeout, "capture port read timeout")
	root.Flags().StringVar(&cfg.DisplayPort, "display-port", cfg.DisplayPort, "serial device of the display board")
	root.Flags().IntVar(&cfg.DisplayBaud, "display-baud", cfg.DisplayBaud, "display port baud rate")
	root.Flags().DurationVar(&cfg.DisplayTimeout, "display-timeout", cfg.DisplayTimeout, "display port read timeout")

	root.Flags().StringVar(&cfg.APIKey, "api-key", "", "model API key (default: $ANTHROPIC_API_KEY)")
	root.Flags().StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "model API base URL")
	if err := root.Flags().MarkHidden("api-url"); err != nil {
		logger.Info().Err(err).Msg("failed to hide api-url flag")
	}
	root.Flags().StringVar(&cfg.Model, "model", cfg.Model, "model name")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "model request timeout")
	root.Flags().StringVar(&cfg.TranscribePrompt, "transcribe-prompt", cfg.TranscribePrompt, "instruction sent with each image (default: built in)")
	root.Flags().StringVar(&cfg.InterpretPrompt, "interpret-prompt", cfg.InterpretPrompt, "instruction sent with each transcription (default: built in)")
	root.Flags().IntVar(&cfg.TranscribeMaxTokens, "transcribe-max-tokens", cfg.TranscribeMaxTokens, "response limit for transcription")
	root.Flags().IntVar(&cfg.InterpretMaxTokens, "interpret-max-tokens", cfg.InterpretMaxTokens, "response limit for interpretation")

	root.Flags().StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for captured images")
	root.Flags().StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for bridge-status.json (defaults to output-dir)")
	root.Flags().IntVar(&cfg.JPEGQuality, "jpeg-quality", cfg.JPEGQuality, "JPEG quality of saved images (1-100)")
	root.Flags().IntVar(&cfg.MaxFrameBytes, "max-frame-bytes", cfg.MaxFrameBytes, "largest accepted image payload")
	root.Flags().IntVar(&cfg.CleanupHighBytes, "cleanup-high-bytes", cfg.CleanupHighBytes, "prune old images above this many bytes (0 disables)")
	root.Flags().IntVar(&cfg.CleanupLowBytes, "cleanup-low-bytes", cfg.CleanupLowBytes, "prune down to this many bytes (default: 80% of high)")

	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "delay between capture attempts")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "run a single capture attempt and exit")
	root.Flags().BoolVar(&cfg.WatchConfig, "watch-config", cfg.WatchConfig, "reload poll interval and prompts when the config file changes")

	root.AddCommand(&cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := serial.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("morsebridge")
		os.Exit(1)
	}
}
