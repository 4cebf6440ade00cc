// Command tuirun is the host CLI: it runs a small demo application
// through the scheduler, inspects a previously captured drawlist, and
// validates a RuntimeConfig or backend ABI advertisement.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var debug bool
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tuirun",
	Short: "Run and inspect tuirun terminal UI programs",
	Long:  "tuirun hosts the frame scheduler, and can run a demo program, inspect a captured drawlist, or validate engine configuration.",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug mode")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}
