package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	doremi "github.com/cbegin/doremi-go"
	"github.com/cbegin/doremi-go/internal/concrete"
	"github.com/cbegin/doremi-go/internal/export"
)

var notesFormat string

func init() {
	notesCmd.Flags().StringVar(&notesFormat, "format", "table", "output format (table|json|msgpack)")
}

var notesCmd = &cobra.Command{
	Use:   "notes FILE",
	Short: "List the notes a file evaluates to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := app.composeFile(cmd.Context(), args[0])
		if err != nil {
			app.printer.Print(args[0], err)
			return reportedError{count: 1}
		}
		if notesFormat == "table" {
			writeNoteTable(os.Stdout, comp)
			return nil
		}
		format, err := export.ParseFormat(notesFormat)
		if err != nil {
			return err
		}
		return export.Encode(os.Stdout, format, comp)
	},
}

func writeNoteTable(w io.Writer, comp *doremi.Composition) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "note", "beats", "seconds", "pitch", "hz", "vel"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})
	for i, n := range comp.Notes {
		table.Append([]string{
			strconv.Itoa(i + 1),
			n.Word.Name,
			fmt.Sprintf("%s-%s", n.StartBeat.RatString(), n.StopBeat.RatString()),
			fmt.Sprintf("%.3f-%.3f", n.Start, n.Stop),
			pitchLabel(n),
			fmt.Sprintf("%.2f", n.Frequency),
			strconv.Itoa(int(n.Velocity)),
		})
	}
	table.SetFooter([]string{"", "", comp.Beats.RatString(), fmt.Sprintf("%.3f", comp.Duration()), comp.Scale.Name, "", fmt.Sprintf("%g bpm", comp.BPM)})
	table.Render()
}

func pitchLabel(n doremi.Note) string {
	if key, err := n.MIDI(); err == nil {
		return concrete.KeyName(int(key))
	}
	return fmt.Sprintf("%.2f", n.Pitch)
}
