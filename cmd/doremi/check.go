package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var checkQuiet bool

func init() {
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "print diagnostics only")
}

var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Parse and evaluate files, reporting every error",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		errs := make([]error, len(args))
		g, gctx := errgroup.WithContext(cmd.Context())
		for i, path := range args {
			g.Go(func() error {
				_, errs[i] = app.composeFile(gctx, path)
				return nil
			})
		}
		_ = g.Wait()

		// Report in argument order so output is stable.
		failed := 0
		for i, err := range errs {
			if err != nil {
				app.printer.Print(args[i], err)
				failed++
			} else if !checkQuiet {
				fmt.Printf("%s: ok\n", args[i])
			}
		}
		if failed > 0 {
			return reportedError{count: failed}
		}
		return nil
	},
}
