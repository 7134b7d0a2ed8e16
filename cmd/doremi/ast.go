package main

import (
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	doremi "github.com/cbegin/doremi-go"
)

var astDumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          false,
	SortKeys:                true,
}

var astCmd = &cobra.Command{
	Use:   "ast FILE",
	Short: "Dump the syntax tree of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readSource(args[0])
		if err != nil {
			return err
		}
		coll, err := doremi.Parse(src)
		if err != nil {
			app.printer.Print(args[0], err)
			return reportedError{count: 1}
		}
		coll.Source = ""
		astDumper.Fdump(os.Stdout, coll.Passages)
		if len(coll.Comments) > 0 {
			astDumper.Fdump(os.Stdout, coll.Comments)
		}
		return nil
	},
}
