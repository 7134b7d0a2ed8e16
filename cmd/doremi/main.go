package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	doremi "github.com/cbegin/doremi-go"
	"github.com/cbegin/doremi-go/internal/config"
	"github.com/cbegin/doremi-go/internal/diag"
	"github.com/cbegin/doremi-go/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:           "doremi",
	Short:         "Compose, inspect, render and play solfege music",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		app.tel.Flush()
	},
}

// session is what every subcommand needs once flags and config are read.
type session struct {
	cfg     config.Config
	printer *diag.Printer
	tel     *telemetry.Telemetry
}

var app session

func main() {
	rootCmd.Version = version
	rootCmd.AddCommand(notesCmd, checkCmd, renderCmd, playCmd, astCmd, replCmd, versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to doremi.toml (default: search upward from the working directory)")
	rootCmd.PersistentFlags().String("scale", "", "scale, e.g. \"C major\" or \"F# dorian\"")
	rootCmd.PersistentFlags().Float64("bpm", 0, "tempo in beats per minute")
	rootCmd.PersistentFlags().String("synth", "", "voice for render and play (fm|pulse|square|triangle)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		if _, ok := err.(reportedError); !ok {
			if app.printer == nil {
				app.printer = diag.NewPrinter(os.Stderr, false)
			}
			app.printer.Print("", err)
		}
		os.Exit(1)
	}
}

// reportedError marks failures whose diagnostics were already printed.
type reportedError struct{ count int }

func (e reportedError) Error() string {
	return fmt.Sprintf("%d file(s) failed", e.count)
}

func setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	colorMode, _ := flags.GetString("color")
	useColor, err := readColorMode(colorMode)
	if err != nil {
		app.printer = diag.NewPrinter(os.Stderr, false)
		return err
	}
	app.printer = diag.NewPrinter(os.Stderr, useColor)

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path, ".")
	if err != nil {
		return err
	}
	if flags.Changed("scale") {
		cfg.Scale, _ = flags.GetString("scale")
	}
	if flags.Changed("bpm") {
		cfg.BPM, _ = flags.GetFloat64("bpm")
	}
	if flags.Changed("synth") {
		cfg.Synth.Mode, _ = flags.GetString("synth")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.cfg = cfg

	app.tel, err = telemetry.Init(cfg.SentryDSN, "doremi@"+version)
	return err
}

func readColorMode(value string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return isTerminal(os.Stderr), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (s *session) composeOptions() []doremi.Option {
	return []doremi.Option{
		doremi.WithScale(s.cfg.Scale),
		doremi.WithBPM(s.cfg.BPM),
		doremi.WithNoteLimit(s.cfg.NoteLimit),
		doremi.WithStepLimit(s.cfg.StepLimit),
	}
}

func (s *session) playerOptions() []doremi.PlayerOption {
	synth := doremi.DefaultSynthParams()
	synth.VibratoDepth = s.cfg.Synth.Vibrato
	fx := s.cfg.Effects
	mode, _ := doremi.ParseSynthMode(s.cfg.Synth.Mode)
	return []doremi.PlayerOption{
		doremi.WithSynthParams(synth),
		doremi.WithSynthMode(mode),
		doremi.WithTranspose(s.cfg.Synth.Transpose),
		doremi.WithEffects(doremi.Effects{
			Reverb:       fx.Reverb,
			RoomSize:     fx.RoomSize,
			Echo:         fx.Echo,
			EchoFeedback: fx.EchoFeedback,
			EchoMix:      fx.EchoMix,
		}),
		doremi.WithComposeOptions(s.composeOptions()...),
	}
}

// readSource reads a file, or stdin for "-".
func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// composeFile reads and composes path inside a telemetry span.
func (s *session) composeFile(ctx context.Context, path string, extra ...doremi.Option) (*doremi.Composition, error) {
	var comp *doremi.Composition
	err := s.tel.Run(ctx, "compose", path, func(context.Context) error {
		src, err := readSource(path)
		if err != nil {
			return err
		}
		comp, err = doremi.Compose(src, append(s.composeOptions(), extra...)...)
		return err
	})
	return comp, err
}
