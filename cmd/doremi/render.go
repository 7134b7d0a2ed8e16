package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	doremi "github.com/cbegin/doremi-go"
)

var (
	renderOutput  string
	renderSeconds float64
)

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output WAV path (single input only; default: input name with .wav)")
	renderCmd.Flags().Float64Var(&renderSeconds, "seconds", 0, "length to render (default: the whole composition plus release)")
}

var renderCmd = &cobra.Command{
	Use:   "render FILE...",
	Short: "Render files to 32-bit float WAV",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if renderOutput != "" && len(args) > 1 {
			return errors.New("--output needs exactly one input file")
		}
		errs := make([]error, len(args))
		outs := make([]string, len(args))
		g, gctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, path := range args {
			outs[i] = outputPath(path, renderOutput)
			g.Go(func() error {
				errs[i] = renderFile(gctx, path, outs[i])
				return nil
			})
		}
		_ = g.Wait()

		failed := 0
		for i, err := range errs {
			if err != nil {
				app.printer.Print(args[i], err)
				failed++
				continue
			}
			fmt.Printf("%s -> %s\n", args[i], outs[i])
		}
		if failed > 0 {
			return reportedError{count: failed}
		}
		return nil
	},
}

func outputPath(input, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if input == "-" {
		return "out.wav"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".wav"
}

func renderFile(ctx context.Context, path, out string) error {
	comp, err := app.composeFile(ctx, path)
	if err != nil {
		return err
	}
	return app.tel.Run(ctx, "render", path, func(context.Context) error {
		samples := doremi.RenderSamples(comp, app.cfg.SampleRate, renderSeconds, app.playerOptions()...)
		if err := os.WriteFile(out, doremi.EncodeWAVFloat32LE(samples, app.cfg.SampleRate, 2), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		return nil
	})
}
