package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// version can be overridden at build time via -ldflags "-X main.version=...".
var version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the doremi version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		name := color.New(color.FgGreen, color.Bold)
		if !isTerminal(os.Stdout) {
			name.DisableColor()
		}
		fmt.Printf("%s %s (%s, %s/%s)\n", name.Sprint("doremi"), version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
