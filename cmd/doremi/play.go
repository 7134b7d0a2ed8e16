package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	doremi "github.com/cbegin/doremi-go"
)

var (
	playSource string
	playLoop   bool
	playLoops  int
	playVolume float64
	playOctave int
)

func init() {
	playCmd.Flags().StringVar(&playSource, "source", "", "inline source text instead of a file")
	playCmd.Flags().BoolVar(&playLoop, "loop", false, "loop playback; use with --loops to count then stop")
	playCmd.Flags().IntVar(&playLoops, "loops", 3, "when --loop, stop after N loops (0 = loop forever)")
	playCmd.Flags().Float64Var(&playVolume, "volume", 0, "master volume scalar (default from config)")
	playCmd.Flags().IntVar(&playOctave, "octave", 0, "extra octave shift added to the configured transpose")
}

var playCmd = &cobra.Command{
	Use:   "play [FILE]",
	Short: "Play a file through the default audio device",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, comp, err := resolvePlayInput(cmd, args)
		if err != nil {
			app.printer.Print(name, err)
			return reportedError{count: 1}
		}

		pl, err := doremi.NewPlayer(app.cfg.SampleRate, append(app.playerOptions(), doremi.WithLoopPlayback(playLoop))...)
		if err != nil {
			return err
		}
		volume := app.cfg.Synth.Volume
		if cmd.Flags().Changed("volume") {
			volume = playVolume
		}
		pl.SetMasterVolume(volume)
		pl.SetTranspose(pl.Transpose() + playOctave)

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		defer signal.Stop(interrupt)
		go func() {
			if _, ok := <-interrupt; ok {
				_ = pl.Stop()
			}
		}()

		ch := pl.Watch()
		if err := pl.Play(comp); err != nil {
			return err
		}
		fmt.Printf("playing %s: %d notes, %.2fs in %s at %g bpm\n", name, len(comp.Notes), comp.Duration(), comp.Scale.Name, comp.BPM)
		for event := range ch {
			switch event.Kind {
			case doremi.EventPlaybackEnded:
				fmt.Println("playback completed")
				pl.Wait()
				return nil
			case doremi.EventLoopCompleted:
				fmt.Printf("loop %d completed\n", event.Loop)
				if playLoop && playLoops > 0 && event.Loop >= playLoops {
					_ = pl.Stop()
				}
			}
		}
		return nil
	},
}

func resolvePlayInput(cmd *cobra.Command, args []string) (string, *doremi.Composition, error) {
	switch {
	case playSource != "" && len(args) > 0:
		return "", nil, errors.New("give either FILE or --source, not both")
	case playSource != "":
		comp, err := doremi.Compose(playSource, app.composeOptions()...)
		return "<source>", comp, err
	case len(args) == 1:
		comp, err := app.composeFile(cmd.Context(), args[0])
		return args[0], comp, err
	}
	return "", nil, errors.New("nothing to play: give FILE or --source")
}
