package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	doremi "github.com/cbegin/doremi-go"
	"github.com/cbegin/doremi-go/internal/concrete"
	"github.com/cbegin/doremi-go/internal/parsing"
)

const (
	historyFile = ".doremi_history"
	promptMain  = "doremi> "
	promptCont  = "   ...> "
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Compose interactively; definitions carry over between entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepl(os.Stdout)
	},
}

// replState is what entries share: the scope and the settings that :scale,
// :bpm and :play change.
type replState struct {
	scope  *doremi.Scope
	scale  string
	bpm    float64
	play   bool
	player *doremi.Player
}

func runRepl(out io.Writer) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	st := &replState{scope: doremi.NewScope(), scale: app.cfg.Scale, bpm: app.cfg.BPM}
	fmt.Fprintln(out, "doremi "+version+" | :help for commands")
	for {
		entry, ok := readEntry(ln)
		if !ok {
			fmt.Fprintln(out)
			break
		}
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(entry, "\n", " "))
		if strings.HasPrefix(trimmed, ":") {
			if quit := st.command(out, trimmed); quit {
				break
			}
			continue
		}
		st.evaluate(out, entry)
	}
	if st.player != nil {
		_ = st.player.Stop()
	}
	return nil
}

// readEntry reads one entry, continuing onto more lines while the text ends
// with "=" or leaves a group or call open.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl-C abandons the entry.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		// A blank continuation line ends the entry as it stands.
		if !incomplete(b.String()) || (strings.TrimSpace(line) == "" && b.Len() > len(line)) {
			return b.String(), true
		}
	}
}

func incomplete(src string) bool {
	if strings.HasSuffix(strings.TrimSpace(src), "=") {
		return true
	}
	_, err := parsing.Parse(src)
	var se *parsing.SyntaxError
	return errors.As(err, &se) && strings.HasPrefix(se.Message, "unclosed")
}

func (st *replState) evaluate(out io.Writer, src string) {
	comp, err := doremi.Compose(src,
		doremi.WithScope(st.scope),
		doremi.WithScale(st.scale),
		doremi.WithBPM(st.bpm),
		doremi.WithNoteLimit(app.cfg.NoteLimit),
		doremi.WithStepLimit(app.cfg.StepLimit),
	)
	if err != nil {
		app.printer.Print("<repl>", err)
		return
	}
	if len(comp.Notes) == 0 && comp.Beats.Sign() == 0 {
		fmt.Fprintf(out, "defined; scope: %s\n", strings.Join(st.scope.Names(), " "))
		return
	}
	writeNoteTable(out, comp)
	if st.play {
		if err := st.playComposition(comp); err != nil {
			app.printer.Print("<repl>", err)
		}
	}
}

func (st *replState) playComposition(comp *doremi.Composition) error {
	if st.player == nil {
		pl, err := doremi.NewPlayer(app.cfg.SampleRate, app.playerOptions()...)
		if err != nil {
			return err
		}
		pl.SetMasterVolume(app.cfg.Synth.Volume)
		st.player = pl
	}
	return st.player.Play(comp)
}

func (st *replState) command(out io.Writer, line string) (quit bool) {
	fields := strings.Fields(line)
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":scope":
		names := st.scope.Names()
		if len(names) == 0 {
			fmt.Fprintln(out, "scope is empty")
			break
		}
		for _, name := range names {
			p, _ := st.scope.Lookup(name)
			fmt.Fprintf(out, "%s/%d\n", name, p.Arity())
		}
	case ":reset":
		st.scope = doremi.NewScope()
		fmt.Fprintln(out, "scope cleared")
	case ":scale":
		if arg == "" {
			fmt.Fprintln(out, st.scale)
			break
		}
		if _, err := concrete.GetScale(arg); err != nil {
			app.printer.Print("<repl>", err)
			break
		}
		st.scale = arg
	case ":bpm":
		if arg == "" {
			fmt.Fprintf(out, "%g\n", st.bpm)
			break
		}
		bpm, err := strconv.ParseFloat(arg, 64)
		if err != nil || bpm <= 0 {
			fmt.Fprintf(out, "invalid bpm %q\n", arg)
			break
		}
		st.bpm = bpm
	case ":play":
		st.play = !st.play
		if st.play {
			fmt.Fprintln(out, "playback on")
		} else {
			fmt.Fprintln(out, "playback off")
		}
	case ":help":
		fmt.Fprintln(out, ":scope        list definitions")
		fmt.Fprintln(out, ":reset        forget all definitions")
		fmt.Fprintln(out, ":scale [NAME] show or set the scale")
		fmt.Fprintln(out, ":bpm [N]      show or set the tempo")
		fmt.Fprintln(out, ":play         toggle playing each entry")
		fmt.Fprintln(out, ":quit         leave")
	default:
		fmt.Fprintf(out, "unknown command %s; :help lists commands\n", fields[0])
	}
	return false
}
